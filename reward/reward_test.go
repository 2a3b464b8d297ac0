package reward

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/queryspec"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/tagindex"
)

func TestRewardAccumulateVsDelta(t *testing.T) {
	Convey("Given an agent with 5 units of resource 3", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		agent := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{}, map[grid.ResourceID]int{3: 10})
		agent.SetResource(3, 5)
		So(g.AddObject(agent), ShouldBeNil)
		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))
		ctx.Actor = agent

		Convey("accumulate mode rewards the raw value every tick", func() {
			h := NewHelper([]Entry{{
				Numerator: queryspec.Inventory(queryspec.EntityActor, 3), Weight: 1, Accumulate: true,
			}})
			So(h.Tick(ctx), ShouldEqual, float32(5))
			So(h.Tick(ctx), ShouldEqual, float32(5))
		})

		Convey("delta mode rewards only the change since last tick", func() {
			h := NewHelper([]Entry{{
				Numerator: queryspec.Inventory(queryspec.EntityActor, 3), Weight: 1, Accumulate: false,
			}})
			So(h.Tick(ctx), ShouldEqual, float32(5))
			So(h.Tick(ctx), ShouldEqual, float32(0))
			agent.SetResource(3, 8)
			So(h.Tick(ctx), ShouldEqual, float32(3))
		})
	})
}

func TestRewardMaxClamp(t *testing.T) {
	Convey("Given a numerator of 100 clamped to max 10", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		agent := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{}, map[grid.ResourceID]int{3: 1000})
		agent.SetResource(3, 100)
		So(g.AddObject(agent), ShouldBeNil)
		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))
		ctx.Actor = agent

		h := NewHelper([]Entry{{
			Numerator: queryspec.Inventory(queryspec.EntityActor, 3), Weight: 1,
			HasMax: true, MaxValue: 10, Accumulate: true,
		}})

		Convey("the reward is clamped to max_value", func() {
			So(h.Tick(ctx), ShouldEqual, float32(10))
		})
	})
}

func TestIndependentHelpersDoNotShareState(t *testing.T) {
	Convey("Given two agents built from the same entry template", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		a1 := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{Row: 0, Col: 0}, map[grid.ResourceID]int{3: 10})
		a2 := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{Row: 0, Col: 1}, map[grid.ResourceID]int{3: 10})
		a1.SetResource(3, 4)
		a2.SetResource(3, 9)
		So(g.AddObject(a1), ShouldBeNil)
		So(g.AddObject(a2), ShouldBeNil)

		template := []Entry{{Numerator: queryspec.Inventory(queryspec.EntityActor, 3), Weight: 1}}
		h1, h2 := NewHelper(template), NewHelper(template)
		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))

		Convey("each helper's prevValue tracks only its own agent", func() {
			ctx1 := ctx.WithActorTarget(a1, a1)
			ctx2 := ctx.WithActorTarget(a2, a2)
			So(h1.Tick(ctx1), ShouldEqual, float32(4))
			So(h2.Tick(ctx2), ShouldEqual, float32(9))
		})
	})
}
