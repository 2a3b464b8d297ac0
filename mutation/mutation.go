// Package mutation implements the world-mutating procedures of subsystem
// E. Every type here satisfies handler.Mutation. Mutations apply in config
// order; a mutation that cannot apply (e.g. empty source) does nothing and
// never aborts the surrounding chain.
package mutation

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/queryspec"
)

// ResourceDelta adds a signed delta to Entity's inventory of ResourceID.
// When ctx.Deferred is non-nil (the AOE tracker is resolving sources for
// one agent) and Entity resolves to that agent (ctx.Target), the delta
// accumulates into the per-target scratch map instead of applying
// immediately, per spec §4.E/§4.G.
type ResourceDelta struct {
	Entity     queryspec.Entity
	ResourceID grid.ResourceID
	Delta      int
}

func (m *ResourceDelta) Apply(ctx *handler.Context) {
	obj := resolve(ctx, m.Entity)
	if obj == nil {
		return
	}
	if ctx.Deferred != nil && obj == ctx.Target {
		ctx.Deferred.Add(m.ResourceID, m.Delta)
		return
	}
	obj.AddResource(m.ResourceID, m.Delta)
}

// ResourceTransfer moves up to Amount (or the entire balance when
// Amount < 0) of ResourceID from Source to Destination; any part that
// Destination's capacity rejects stays with Source. DeleteSourceIfEmpty
// removes the source object once its balance reaches zero.
type ResourceTransfer struct {
	Source              queryspec.Entity
	Destination          queryspec.Entity
	ResourceID           grid.ResourceID
	Amount               int
	DeleteSourceIfEmpty  bool
}

func (m *ResourceTransfer) Apply(ctx *handler.Context) {
	src := resolve(ctx, m.Source)
	dst := resolve(ctx, m.Destination)
	if src == nil || dst == nil {
		return
	}
	avail := src.ResourceAmount(m.ResourceID)
	amount := m.Amount
	if amount < 0 || amount > avail {
		amount = avail
	}
	if amount <= 0 {
		return
	}
	taken := -src.AddResource(m.ResourceID, -amount)
	if given := dst.AddResource(m.ResourceID, taken); given < taken {
		src.AddResource(m.ResourceID, taken-given)
	}
	if m.DeleteSourceIfEmpty && src.ResourceAmount(m.ResourceID) == 0 && ctx.Grid != nil {
		ctx.Grid.RemoveObject(src.ID)
		if ctx.TagIndex != nil {
			ctx.TagIndex.UnregisterObject(src)
		}
	}
}

// AlignmentMode selects what an Alignment mutation sets a target's
// collective to.
type AlignmentMode uint8

const (
	AlignToActor AlignmentMode = iota
	AlignToNone
	AlignToExplicit
)

// Alignment sets Target's collective.
type Alignment struct {
	Mode     AlignmentMode
	Explicit grid.CollectiveID
}

func (m *Alignment) Apply(ctx *handler.Context) {
	if ctx.Target == nil {
		return
	}
	switch m.Mode {
	case AlignToActor:
		if ctx.Actor != nil {
			ctx.Target.Collective = ctx.Actor.Collective
		}
	case AlignToNone:
		ctx.Target.Collective = grid.NoCollective
	case AlignToExplicit:
		ctx.Target.Collective = m.Explicit
	}
}

// Freeze sets Target.frozen_until_step = current_step + Duration. Freeze
// only applies to agents (it is a no-op on non-agent targets).
type Freeze struct {
	Duration int
}

func (m *Freeze) Apply(ctx *handler.Context) {
	if ctx.Target == nil || ctx.Grid == nil {
		return
	}
	agent := ctx.Grid.AgentByID(ctx.Target.ID)
	if agent == nil {
		return
	}
	agent.FrozenUntilStep = ctx.CurrentStep + m.Duration
}

// ClearInventory zeroes the listed resources on Entity, or every resource
// currently held when Resources is empty.
type ClearInventory struct {
	Entity    queryspec.Entity
	Resources []grid.ResourceID
}

func (m *ClearInventory) Apply(ctx *handler.Context) {
	obj := resolve(ctx, m.Entity)
	if obj == nil {
		return
	}
	if len(m.Resources) == 0 {
		for id := range obj.Inventory {
			obj.SetResource(id, 0)
		}
		return
	}
	for _, id := range m.Resources {
		obj.SetResource(id, 0)
	}
}

// AddTag adds TagID to Entity's tag_bits and the tag index together. It
// does not dispatch on_tag_add handlers and does not read
// ctx.SkipOnUpdateTrigger, and no caller dispatches the registry's on_tag
// handlers either; the same holds for RemoveTag and RemoveTagsWithPrefix.
type AddTag struct {
	Entity queryspec.Entity
	TagID  grid.TagID
}

func (m *AddTag) Apply(ctx *handler.Context) {
	obj := resolve(ctx, m.Entity)
	if obj == nil || ctx.TagIndex == nil {
		return
	}
	ctx.TagIndex.OnTagAdded(obj, m.TagID)
}

// RemoveTag is AddTag's inverse.
type RemoveTag struct {
	Entity queryspec.Entity
	TagID  grid.TagID
}

func (m *RemoveTag) Apply(ctx *handler.Context) {
	obj := resolve(ctx, m.Entity)
	if obj == nil || ctx.TagIndex == nil {
		return
	}
	ctx.TagIndex.OnTagRemoved(obj, m.TagID)
}

// RemoveTagsWithPrefix removes every tag in Tags currently set on Entity.
type RemoveTagsWithPrefix struct {
	Entity queryspec.Entity
	Tags   []grid.TagID
}

func (m *RemoveTagsWithPrefix) Apply(ctx *handler.Context) {
	obj := resolve(ctx, m.Entity)
	if obj == nil || ctx.TagIndex == nil {
		return
	}
	for _, t := range m.Tags {
		if obj.HasTag(t) {
			ctx.TagIndex.OnTagRemoved(obj, t)
		}
	}
}

// GameValueMutation sets Target's resource/stat (named by Value's own
// write target) to the resolved Source value. Only Inventory and Stat
// write targets are supported, matching the Mutation entities GameValue
// can otherwise only be read from.
type GameValueMutation struct {
	Source queryspec.GameValue
	Target queryspec.GameValue
}

func (m *GameValueMutation) Apply(ctx *handler.Context) {
	v := int(m.Source.Read(ctx))
	switch m.Target.Kind {
	case queryspec.KindInventory:
		obj := resolveEntityValue(ctx, m.Target)
		if obj != nil {
			obj.SetResource(m.Target.Resource, v)
		}
	case queryspec.KindStat:
		writeStat(ctx, m.Target, float64(v))
	}
}

func resolveEntityValue(ctx *handler.Context, v queryspec.GameValue) *grid.GridObject {
	return resolve(ctx, v.Entity)
}

func writeStat(ctx *handler.Context, v queryspec.GameValue, value float64) {
	switch v.Scope {
	case queryspec.ScopeGame:
		if ctx.GameStats != nil {
			ctx.GameStats.Set(v.StatName, value)
		}
	case queryspec.ScopeAgent:
		obj := resolve(ctx, v.Entity)
		if obj == nil || ctx.Grid == nil {
			return
		}
		if a := ctx.Grid.AgentByID(obj.ID); a != nil {
			a.Stats.Set(v.StatName, value)
		}
	case queryspec.ScopeCollective:
		obj := resolve(ctx, v.Entity)
		if obj == nil {
			return
		}
		if c, ok := ctx.Collectives[obj.Collective]; ok {
			c.Stats.Set(v.StatName, value)
		}
	}
}

// RecomputeMaterializedQuery marks Query's cache dirty, forcing the next
// Evaluate to recompute it.
type RecomputeMaterializedQuery struct {
	Invalidator interface {
		Invalidate(handler.QueryID)
	}
	Query handler.QueryID
}

func (m *RecomputeMaterializedQuery) Apply(ctx *handler.Context) {
	if m.Invalidator != nil {
		m.Invalidator.Invalidate(m.Query)
	}
}

// QueryInventory applies a (resource, delta) list to every object returned
// by Query; when HasSource is set, it then subtracts each resource's total
// applied delta from Source.
type QueryInventory struct {
	Query   handler.QueryID
	Deltas  []ResourceDeltaPair
	Source  queryspec.Entity
	HasSource bool
}

// ResourceDeltaPair is one (resource, delta) entry of a QueryInventory
// mutation.
type ResourceDeltaPair struct {
	ResourceID grid.ResourceID
	Delta      int
}

func (m *QueryInventory) Apply(ctx *handler.Context) {
	if ctx.Queries == nil {
		return
	}
	members := ctx.Queries.Evaluate(m.Query, ctx)
	if len(members) == 0 {
		return
	}
	for _, pair := range m.Deltas {
		totalApplied := 0
		for _, id := range members {
			obj := ctx.Grid.ObjectByID(id)
			if obj == nil {
				continue
			}
			totalApplied += obj.AddResource(pair.ResourceID, pair.Delta)
		}
		if m.HasSource {
			src := resolve(ctx, m.Source)
			if src != nil {
				src.AddResource(pair.ResourceID, -totalApplied)
			}
		}
	}
}

func resolve(ctx *handler.Context, e queryspec.Entity) *grid.GridObject {
	if e == queryspec.EntityTarget {
		return ctx.Target
	}
	return ctx.Actor
}
