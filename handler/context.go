// Package handler defines the shared HandlerContext, the Filter/Mutation
// interfaces pure predicates and mutations are written against, and the
// Handler/MultiHandler bundles (subsystem F). It sits below query, filter,
// mutation, aoe, event, and action so those packages can all depend on one
// shared vocabulary without import cycles: concrete filters and mutations
// live in sibling packages and are threaded through here only as
// interface values.
package handler

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/stats"
	"github.com/metta-ai/mettagrid/tagindex"
)

// QueryID identifies a registered query in the QuerySystem.
type QueryID int32

// NoQuery marks the absence of a query reference.
const NoQuery QueryID = -1

// QueryEvaluator is the narrow view of the QuerySystem that filters and
// mutations need: evaluate a registered query under the current context.
// Implemented by query.System; declared here (rather than imported from
// package query) so handler need not depend on query, which itself depends
// on handler's Filter interface.
type QueryEvaluator interface {
	Evaluate(id QueryID, ctx *Context) []grid.ObjectID
}

// Scratch holds buffers that filters/mutations/queries can reuse within
// one Context. NewContext allocates a fresh Scratch, and Environment.Step
// builds a new Context every tick, so a Scratch lives for one tick.
type Scratch struct {
	ObjectIDs []grid.ObjectID
	Resources []grid.ResourceID
}

func (s *Scratch) resetIDs() []grid.ObjectID {
	s.ObjectIDs = s.ObjectIDs[:0]
	return s.ObjectIDs
}

// DeferredDeltas accumulates ResourceDelta mutations against a single
// target, applying them net (sum-and-clamp-once) instead of clamping after
// every mutation (spec §4.G / testable property: S4 heal-cap scenario).
// Insertion order of resource ids is preserved, per spec's "ordered by
// first-seen" requirement, though the final sum is order-independent;
// ordering only matters for any future instrumentation that inspects the
// deferred map in traversal order.
type DeferredDeltas struct {
	target *grid.GridObject
	order  []grid.ResourceID
	deltas map[grid.ResourceID]int
}

// NewDeferredDeltas constructs an empty deferred-delta scratch map, reused
// across agents by calling Reset.
func NewDeferredDeltas() *DeferredDeltas {
	return &DeferredDeltas{deltas: make(map[grid.ResourceID]int)}
}

// Reset rebinds the deferred map to a new target and clears prior deltas.
// Called once per agent at the start of AOETracker.ApplyFixed.
func (d *DeferredDeltas) Reset(target *grid.GridObject) {
	d.target = target
	d.order = d.order[:0]
	for k := range d.deltas {
		delete(d.deltas, k)
	}
}

// Add accumulates delta against resource id for the bound target.
func (d *DeferredDeltas) Add(id grid.ResourceID, delta int) {
	if _, ok := d.deltas[id]; !ok {
		d.order = append(d.order, id)
	}
	d.deltas[id] += delta
}

// Apply adds the net accumulated delta for every touched resource to the
// bound target, in first-seen order, clamping once per resource.
func (d *DeferredDeltas) Apply() {
	if d.target == nil {
		return
	}
	for _, id := range d.order {
		d.target.AddResource(id, d.deltas[id])
	}
}

// Context is the HandlerContext threaded through every filter and
// mutation: {actor, target, tag_index, collectives, query_system,
// game_stats, grid, skip_on_update_trigger, scratch} per spec §4.D.
type Context struct {
	Actor  *grid.GridObject
	Target *grid.GridObject

	Grid        *grid.Grid
	TagIndex    *tagindex.Index
	Collectives map[grid.CollectiveID]*grid.Collective
	GameStats   *stats.Tracker
	Queries     QueryEvaluator
	RNG         *rng.Source

	CurrentStep int

	// SkipOnUpdateTrigger is carried for on_tag_add/remove suppression, but
	// no mutation or caller reads it: AddTag/RemoveTag dispatch no on_tag
	// handlers.
	SkipOnUpdateTrigger bool

	// Deferred is non-nil only while the AOE tracker is resolving sources
	// for a single agent; ResourceDelta mutations accumulate into it
	// instead of applying immediately. Nil in every other calling context
	// (actions, events, on-tick, on-use), where ResourceDelta applies at
	// once.
	Deferred *DeferredDeltas

	Scratch *Scratch
}

// NewContext constructs a Context with fresh scratch buffers.
func NewContext(g *grid.Grid, tags *tagindex.Index, collectives map[grid.CollectiveID]*grid.Collective, gameStats *stats.Tracker, queries QueryEvaluator, source *rng.Source) *Context {
	return &Context{
		Grid:        g,
		TagIndex:    tags,
		Collectives: collectives,
		GameStats:   gameStats,
		Queries:     queries,
		RNG:         source,
		Scratch:     &Scratch{},
	}
}

// WithActorTarget returns a shallow copy of ctx bound to a new actor/target
// pair, sharing all other state (grid, tag index, scratch, RNG). Filters
// and mutations never mutate Context.Actor/Target beyond this rebind point,
// so callers can safely reuse the returned value without further copying.
func (ctx *Context) WithActorTarget(actor, target *grid.GridObject) *Context {
	cp := *ctx
	cp.Actor = actor
	cp.Target = target
	return &cp
}
