package mutation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/queryspec"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/tagindex"
)

func newCtx() (*handler.Context, *grid.Grid, *tagindex.Index) {
	g := grid.NewGrid(10, 10)
	idx := tagindex.NewIndex()
	ctx := handler.NewContext(g, idx, map[grid.CollectiveID]*grid.Collective{}, nil, nil, rng.New(1))
	return ctx, g, idx
}

func TestResourceDeltaDeferred(t *testing.T) {
	Convey("Given two overlapping +3 heal mutations on a target capped at hp=10", t, func() {
		ctx, g, _ := newCtx()
		target := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{0, 0}, map[grid.ResourceID]int{7: 10})
		target.SetResource(7, 8)
		So(g.AddObject(target), ShouldBeNil)
		ctx.Target = target

		Convey("applied net via deferred deltas, hp clamps once at 10", func() {
			deferred := handler.NewDeferredDeltas()
			deferred.Reset(target)
			ctx.Deferred = deferred

			m := &ResourceDelta{Entity: queryspec.EntityTarget, ResourceID: 7, Delta: 3}
			m.Apply(ctx)
			m.Apply(ctx)
			So(target.ResourceAmount(7), ShouldEqual, 8) // not yet applied

			deferred.Apply()
			So(target.ResourceAmount(7), ShouldEqual, 10)
		})

		Convey("applied immediately without a deferred scope", func() {
			m := &ResourceDelta{Entity: queryspec.EntityTarget, ResourceID: 7, Delta: 3}
			m.Apply(ctx)
			So(target.ResourceAmount(7), ShouldEqual, 10)
		})
	})
}

func TestResourceTransfer(t *testing.T) {
	Convey("Given a source with 5 loot and a destination with 0", t, func() {
		ctx, g, _ := newCtx()
		src := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{0, 0}, nil)
		dst := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{0, 1}, nil)
		src.AddResource(2, 5)
		So(g.AddObject(src), ShouldBeNil)
		So(g.AddObject(dst), ShouldBeNil)
		ctx.Actor, ctx.Target = src, dst

		Convey("amount<0 transfers the entire balance", func() {
			m := &ResourceTransfer{Source: queryspec.EntityActor, Destination: queryspec.EntityTarget, ResourceID: 2, Amount: -1}
			m.Apply(ctx)
			So(src.ResourceAmount(2), ShouldEqual, 0)
			So(dst.ResourceAmount(2), ShouldEqual, 5)
		})
	})
}

func TestAttackDeterministic(t *testing.T) {
	Convey("Given an attacker with weapon and a target with armor+health+loot", t, func() {
		ctx, g, _ := newCtx()
		attacker := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{0, 0}, nil)
		target := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{0, 1}, map[grid.ResourceID]int{10: 100})
		attacker.AddResource(1, 2) // weapon
		target.AddResource(3, 5)   // loot
		target.SetResource(10, 20) // health, capacity 100
		So(g.AddObject(attacker), ShouldBeNil)
		So(g.AddObject(target), ShouldBeNil)
		ctx.Actor, ctx.Target = attacker, target

		atk := &Attack{
			WeaponResource: 1, ArmorResource: 4, HealthResource: 10,
			WeaponCost: 1, DamageMultiplierPct: 100, HitChancePct: 100,
			LootResources: []grid.ResourceID{3}, FreezeDuration: 5, FreezeOnHit: true,
		}

		Convey("a guaranteed hit consumes the weapon, damages health, and loots", func() {
			res := atk.ApplyResolved(ctx)
			So(res.Attempted, ShouldBeTrue)
			So(res.Hit, ShouldBeTrue)
			So(attacker.ResourceAmount(1), ShouldEqual, 1)
			So(attacker.ResourceAmount(3), ShouldEqual, 5)
			So(target.ResourceAmount(3), ShouldEqual, 0)
			So(target.ResourceAmount(10), ShouldEqual, 19)
		})
	})
}
