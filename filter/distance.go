package filter

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// MaxDistance passes when actor/target (or, in source mode, any member of
// a source query) are within Radius of the target under squared Euclidean
// distance -- normative per spec §9, matching the AOE tracker's metric.
// Radius == 0 means "no distance constraint": it passes unconditionally in
// binary mode, or as long as the source set is non-empty in source mode.
type MaxDistance struct {
	Radius int
	Source handler.QueryID // NoQuery selects binary (actor,target) mode
}

func (f *MaxDistance) Evaluate(ctx *handler.Context) bool {
	if f.Source == handler.NoQuery {
		if ctx.Actor == nil || ctx.Target == nil {
			return false
		}
		if f.Radius == 0 {
			return true
		}
		return ctx.Actor.Location.SqDist(ctx.Target.Location) <= f.Radius*f.Radius
	}

	if ctx.Queries == nil || ctx.Target == nil {
		return false
	}
	members := ctx.Queries.Evaluate(f.Source, ctx)
	if f.Radius == 0 {
		return len(members) > 0
	}
	r2 := f.Radius * f.Radius
	for _, id := range members {
		obj := ctx.Grid.ObjectByID(id)
		if obj == nil {
			continue
		}
		if obj.Location.SqDist(ctx.Target.Location) <= r2 {
			return true
		}
	}
	return false
}

// Near passes when Target is within a Chebyshev radius of any object that
// passes Inner (evaluated with that candidate object bound as Actor).
type Near struct {
	Radius int
	Inner  []handler.Filter
}

func (f *Near) Evaluate(ctx *handler.Context) bool {
	if ctx.Target == nil || ctx.Grid == nil {
		return false
	}
	loc := ctx.Target.Location
	lowRow, highRow := clampRange(int(loc.Row)-f.Radius, int(loc.Row)+f.Radius, int(ctx.Grid.Height)-1)
	lowCol, highCol := clampRange(int(loc.Col)-f.Radius, int(loc.Col)+f.Radius, int(ctx.Grid.Width)-1)

	for r := lowRow; r <= highRow; r++ {
		for c := lowCol; c <= highCol; c++ {
			candLoc := grid.GridLocation{Row: uint16(r), Col: uint16(c)}
			if candLoc.Chebyshev(loc) > f.Radius {
				continue
			}
			for _, layer := range []grid.Layer{grid.LayerAgent, grid.LayerObject} {
				cand := ctx.Grid.ObjectAt(candLoc, layer)
				if cand == nil {
					continue
				}
				innerCtx := ctx.WithActorTarget(cand, ctx.Target)
				if allPass(f.Inner, innerCtx) {
					return true
				}
			}
		}
	}
	return false
}

func clampRange(lo, hi, max int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > max {
		hi = max
	}
	return lo, hi
}

func allPass(fs []handler.Filter, ctx *handler.Context) bool {
	for _, f := range fs {
		if !f.Evaluate(ctx) {
			return false
		}
	}
	return true
}
