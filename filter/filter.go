// Package filter implements the pure boolean predicates of subsystem D.
// Every type here satisfies handler.Filter; none allocates or mutates in
// Evaluate.
package filter

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/queryspec"
)

// Tag passes when entity has tag.
type Tag struct {
	Entity queryspec.Entity
	TagID  grid.TagID
}

func (f *Tag) Evaluate(ctx *handler.Context) bool {
	obj := resolve(ctx, f.Entity)
	return obj != nil && obj.HasTag(f.TagID)
}

// TagPrefix passes when entity has any tag in the prefix set.
type TagPrefix struct {
	Entity queryspec.Entity
	Tags   []grid.TagID
}

func (f *TagPrefix) Evaluate(ctx *handler.Context) bool {
	obj := resolve(ctx, f.Entity)
	return obj != nil && obj.TagBits.HasAny(f.Tags)
}

// SharedTagPrefix passes when the actor and target share any tag in Tags.
type SharedTagPrefix struct {
	Tags []grid.TagID
}

func (f *SharedTagPrefix) Evaluate(ctx *handler.Context) bool {
	if ctx.Actor == nil || ctx.Target == nil {
		return false
	}
	for _, t := range f.Tags {
		if ctx.Actor.HasTag(t) && ctx.Target.HasTag(t) {
			return true
		}
	}
	return false
}

// Resource passes when entity's inventory of Resource >= MinAmount.
type Resource struct {
	Entity     queryspec.Entity
	ResourceID grid.ResourceID
	MinAmount  int
}

func (f *Resource) Evaluate(ctx *handler.Context) bool {
	obj := resolve(ctx, f.Entity)
	return obj != nil && obj.ResourceAmount(f.ResourceID) >= f.MinAmount
}

// Vibe passes when entity's vibe equals VibeID.
type Vibe struct {
	Entity queryspec.Entity
	VibeID uint8
}

func (f *Vibe) Evaluate(ctx *handler.Context) bool {
	obj := resolve(ctx, f.Entity)
	return obj != nil && obj.Vibe == f.VibeID
}

// Relation enumerates the Alignment filter's actor/target relationship
// tests.
type Relation uint8

const (
	RelationAligned Relation = iota
	RelationUnaligned
	RelationSameCollective
	RelationDifferentCollective
	RelationExplicit
)

// Alignment tests the relationship between actor and target collectives.
type Alignment struct {
	Relation Relation
	// Explicit names the collective to match against when Relation is
	// RelationExplicit; checked against the target's collective.
	Explicit grid.CollectiveID
}

func (f *Alignment) Evaluate(ctx *handler.Context) bool {
	if ctx.Actor == nil || ctx.Target == nil {
		return false
	}
	a, t := ctx.Actor.Collective, ctx.Target.Collective
	switch f.Relation {
	case RelationSameCollective:
		return a != grid.NoCollective && a == t
	case RelationDifferentCollective:
		return a != t
	case RelationAligned:
		return a != grid.NoCollective && a == t
	case RelationUnaligned:
		return a == grid.NoCollective || a != t
	case RelationExplicit:
		return t == f.Explicit
	}
	return false
}

// GameValueFilter passes when a resolved GameValue >= Threshold.
type GameValueFilter struct {
	Value     queryspec.GameValue
	Threshold float64
}

func (f *GameValueFilter) Evaluate(ctx *handler.Context) bool {
	return f.Value.Read(ctx) >= f.Threshold
}

func resolve(ctx *handler.Context, e queryspec.Entity) *grid.GridObject {
	if e == queryspec.EntityTarget {
		return ctx.Target
	}
	return ctx.Actor
}
