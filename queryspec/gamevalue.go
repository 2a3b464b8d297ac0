// Package queryspec holds the QueryConfig variants (subsystem C's
// configuration surface, §3) and GameValue (§3's scalar evaluation-context
// value), both of which are referenced from filter, mutation, reward, and
// query -- hence a standalone package, to keep those from depending on one
// another just to share these two data shapes.
package queryspec

import (
	"math"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// Entity selects which side of a Context a GameValue or Stats mutation
// reads from.
type Entity uint8

const (
	EntityActor Entity = iota
	EntityTarget
)

func (e Entity) resolve(ctx *handler.Context) *grid.GridObject {
	if e == EntityTarget {
		return ctx.Target
	}
	return ctx.Actor
}

// Scope selects which StatsTracker a Stat GameValue reads: the global game
// tracker, the selected entity's own agent tracker, or that entity's
// collective tracker.
type Scope uint8

const (
	ScopeGame Scope = iota
	ScopeAgent
	ScopeCollective
)

// Kind discriminates the GameValue sum type.
type Kind uint8

const (
	KindInventory Kind = iota
	KindStat
	KindTagCount
	KindConst
	KindQueryInventory
)

// GameValue is a scalar resolvable in a Context, per spec §3. Each variant
// is built once and reused across ticks; the Stat variant's optional delta
// mode keeps its own previous-reading state so repeated reads against the
// same GameValue instance return deltas. This is separate from the
// RewardHelper's own per-entry prevValue tracking (spec §4.J), which
// reward.Entry keeps itself.
type GameValue struct {
	Kind Kind

	// KindInventory / KindQueryInventory
	Resource grid.ResourceID
	Entity   Entity // KindInventory, and KindStat's agent/collective scopes

	// KindStat
	StatName string
	Scope    Scope
	Delta    bool
	prevSet  bool
	prevVal  float64

	// KindTagCount
	Tag grid.TagID

	// KindConst
	Const float64

	// KindQueryInventory: sum of Resource across Query's current results.
	Query handler.QueryID
}

// Inventory builds a GameValue reading an entity's inventory.
func Inventory(entity Entity, resource grid.ResourceID) GameValue {
	return GameValue{Kind: KindInventory, Entity: entity, Resource: resource}
}

// Stat builds a GameValue reading a named stat in the given scope.
func Stat(entity Entity, scope Scope, name string, delta bool) GameValue {
	return GameValue{Kind: KindStat, Entity: entity, Scope: scope, StatName: name, Delta: delta}
}

// TagCount builds a GameValue reading a tag's current cardinality.
func TagCount(tag grid.TagID) GameValue {
	return GameValue{Kind: KindTagCount, Tag: tag}
}

// ConstValue builds a constant GameValue.
func ConstValue(v float64) GameValue {
	return GameValue{Kind: KindConst, Const: v}
}

// QueryInventorySum builds a GameValue summing resource across a
// registered query's current result set.
func QueryInventorySum(query handler.QueryID, resource grid.ResourceID) GameValue {
	return GameValue{Kind: KindQueryInventory, Query: query, Resource: resource}
}

// Read resolves the current value of v against ctx. For Delta-mode Stat
// values, it returns the change since the previous Read call on this same
// GameValue instance (0 on the first call).
func (v *GameValue) Read(ctx *handler.Context) float64 {
	switch v.Kind {
	case KindInventory:
		obj := v.Entity.resolve(ctx)
		if obj == nil {
			return 0
		}
		return float64(obj.ResourceAmount(v.Resource))

	case KindStat:
		cur := v.readStat(ctx)
		if !v.Delta {
			return cur
		}
		prev := cur
		if v.prevSet {
			prev = v.prevVal
		}
		v.prevVal = cur
		v.prevSet = true
		return cur - prev

	case KindTagCount:
		if ctx.TagIndex == nil {
			return 0
		}
		return float64(ctx.TagIndex.Count(v.Tag))

	case KindConst:
		return v.Const

	case KindQueryInventory:
		if ctx.Queries == nil {
			return 0
		}
		total := 0
		for _, id := range ctx.Queries.Evaluate(v.Query, ctx) {
			if obj := ctx.Grid.ObjectByID(id); obj != nil {
				total += obj.ResourceAmount(v.Resource)
			}
		}
		return float64(total)
	}
	return 0
}

func (v *GameValue) readStat(ctx *handler.Context) float64 {
	switch v.Scope {
	case ScopeGame:
		if ctx.GameStats == nil {
			return 0
		}
		return ctx.GameStats.Get(v.StatName)
	case ScopeAgent:
		obj := v.Entity.resolve(ctx)
		if obj == nil {
			return 0
		}
		if agent := ctx.Grid.AgentByID(obj.ID); agent != nil {
			return agent.Stats.Get(v.StatName)
		}
		return 0
	case ScopeCollective:
		obj := v.Entity.resolve(ctx)
		if obj == nil {
			return 0
		}
		c, ok := ctx.Collectives[obj.Collective]
		if !ok {
			return 0
		}
		return c.Stats.Get(v.StatName)
	}
	return 0
}

// RoundReward rounds r*100 to the nearest integer for LastReward encoding
// (observation §4.K global tokens), shared here since both reward and
// observation packages need identical rounding semantics.
func RoundReward(r float32) int {
	return int(math.Round(float64(r) * 100))
}
