package event

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/mutation"
	"github.com/metta-ai/mettagrid/queryspec"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/tagindex"
)

func TestEventFiresOnTimestep(t *testing.T) {
	Convey("Given a 'bloom' event tagged to seeds, firing at step 10", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		seed := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerObject, grid.GridLocation{}, map[grid.ResourceID]int{1: 5})
		So(g.AddObject(seed), ShouldBeNil)
		idx.RegisterObject(seed)
		idx.OnTagAdded(seed, 3)

		sched := NewScheduler(idx, []Config{
			{
				Name:      "bloom",
				Timesteps: []int{10},
				TargetTag: 3,
				Mutations: []handler.Mutation{
					&mutation.ResourceDelta{Entity: queryspec.EntityTarget, ResourceID: 2, Delta: 1},
				},
			},
		})
		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))

		Convey("it does nothing before step 10", func() {
			sched.Fire(9, ctx)
			So(seed.ResourceAmount(2), ShouldEqual, 0)
		})

		Convey("it mutates the tagged target at step 10", func() {
			sched.Fire(10, ctx)
			So(seed.ResourceAmount(2), ShouldEqual, 1)
		})
	})
}

func TestEventFallbackChainsOnNoMatch(t *testing.T) {
	Convey("Given a primary event with no matching targets and a fallback", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		fallbackTarget := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerObject, grid.GridLocation{}, map[grid.ResourceID]int{1: 5})
		So(g.AddObject(fallbackTarget), ShouldBeNil)
		idx.RegisterObject(fallbackTarget)
		idx.OnTagAdded(fallbackTarget, 9)

		sched := NewScheduler(idx, []Config{
			{
				Name:      "primary",
				Timesteps: []int{5},
				TargetTag: 1, // nothing carries tag 1
				Fallback:  "rescue",
			},
			{
				Name:      "rescue",
				Timesteps: []int{}, // only reachable via fallback
				TargetTag: 9,
				Mutations: []handler.Mutation{
					&mutation.ResourceDelta{Entity: queryspec.EntityTarget, ResourceID: 2, Delta: 7},
				},
			},
		})
		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))

		Convey("the fallback fires immediately when the primary matches nothing", func() {
			sched.Fire(5, ctx)
			So(fallbackTarget.ResourceAmount(2), ShouldEqual, 7)
		})
	})
}

func TestEventMaxTargetsCap(t *testing.T) {
	Convey("Given three tagged targets capped at two", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		var targets []*grid.GridObject
		for i := 0; i < 3; i++ {
			o := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerObject, grid.GridLocation{Row: 0, Col: uint16(i)}, nil)
			So(g.AddObject(o), ShouldBeNil)
			idx.RegisterObject(o)
			idx.OnTagAdded(o, 4)
			targets = append(targets, o)
		}

		sched := NewScheduler(idx, []Config{
			{
				Name:       "tick",
				Timesteps:  []int{1},
				TargetTag:  4,
				MaxTargets: 2,
				Mutations: []handler.Mutation{
					&mutation.ResourceDelta{Entity: queryspec.EntityTarget, ResourceID: 1, Delta: 1},
				},
			},
		})
		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))

		Convey("only two of the three targets are mutated", func() {
			sched.Fire(1, ctx)
			mutated := 0
			for _, o := range targets {
				if o.ResourceAmount(1) == 1 {
					mutated++
				}
			}
			So(mutated, ShouldEqual, 2)
		})
	})
}
