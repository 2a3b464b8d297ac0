package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/queryspec"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/tagindex"
)

func TestTagQuery(t *testing.T) {
	Convey("Given three objects tagged 'altar', capped at 2", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		for i := 0; i < 3; i++ {
			o := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerObject, grid.GridLocation{0, uint16(i)}, nil)
			So(g.AddObject(o), ShouldBeNil)
			idx.RegisterObject(o)
			idx.OnTagAdded(o, 5)
		}
		sys := NewSystem(idx, rng.New(1))
		qid := sys.Register(queryspec.Config{Kind: queryspec.KindTagQuery, Tag: 5, Cap: 2})
		ctx := handler.NewContext(g, idx, nil, nil, sys, rng.New(1))

		Convey("evaluate returns exactly 2 results", func() {
			res := sys.Evaluate(qid, ctx)
			So(len(res), ShouldEqual, 2)
		})
	})
}

func TestMaterializedQueryInvalidation(t *testing.T) {
	Convey("Given a materialized tag query", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		sys := NewSystem(idx, nil)
		qid := sys.Register(queryspec.Config{
			Kind: queryspec.KindTagQuery, Tag: 9,
			Materialized: true, InvalidatedBy: []grid.TagID{9},
		})
		ctx := handler.NewContext(g, idx, nil, nil, sys, nil)

		Convey("result is empty before any member exists, and updates after Invalidate", func() {
			So(sys.Evaluate(qid, ctx), ShouldBeEmpty)

			o := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerObject, grid.GridLocation{}, nil)
			So(g.AddObject(o), ShouldBeNil)
			idx.RegisterObject(o)
			idx.OnTagAdded(o, 9)
			sys.Invalidate(9)

			res := sys.Evaluate(qid, ctx)
			So(res, ShouldContain, o.ID)
		})
	})
}

func TestClosureQuery(t *testing.T) {
	Convey("Given a seed object, an adjacent candidate, and a distant candidate", t, func() {
		g := grid.NewGrid(5, 5)
		idx := tagindex.NewIndex()
		sys := NewSystem(idx, nil)

		seed := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerAgent, grid.GridLocation{0, 0}, nil)
		c1 := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerObject, grid.GridLocation{0, 1}, nil)
		c2 := grid.NewGridObject(grid.InvalidObjectID, 1, grid.LayerObject, grid.GridLocation{0, 4}, nil)
		for _, o := range []*grid.GridObject{seed, c1, c2} {
			So(g.AddObject(o), ShouldBeNil)
			idx.RegisterObject(o)
		}
		idx.OnTagAdded(seed, 1)
		idx.OnTagAdded(c1, 2)
		idx.OnTagAdded(c2, 2)

		seedQ := sys.Register(queryspec.Config{Kind: queryspec.KindTagQuery, Tag: 1})
		candQ := sys.Register(queryspec.Config{Kind: queryspec.KindTagQuery, Tag: 2})
		closureQ := sys.Register(queryspec.Config{
			Kind: queryspec.KindClosureQuery, Seed: seedQ, Candidates: candQ,
			EdgeFilters: []handler.Filter{&distanceFilter{radius: 2}},
		})
		ctx := handler.NewContext(g, idx, nil, nil, sys, nil)

		Convey("only the adjacent candidate joins the closure", func() {
			res := sys.Evaluate(closureQ, ctx)
			So(res, ShouldContain, seed.ID)
			So(res, ShouldContain, c1.ID)
			So(res, ShouldNotContain, c2.ID)
		})
	})
}

// distanceFilter is a minimal local Filter for the closure test, avoiding a
// circular test dependency on package filter.
type distanceFilter struct{ radius int }

func (f *distanceFilter) Evaluate(ctx *handler.Context) bool {
	if ctx.Actor == nil || ctx.Target == nil {
		return false
	}
	return ctx.Actor.Location.SqDist(ctx.Target.Location) <= f.radius*f.radius
}
