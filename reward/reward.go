// Package reward implements the RewardHelper (subsystem J): a per-agent
// list of reward entries, each a ratio of GameValues, aggregated into one
// scalar delta per tick.
package reward

import (
	"math"

	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/queryspec"
)

// Aggregation selects how an entry's value folds into the tick total.
type Aggregation uint8

const (
	// Sum adds the entry's raw value (accumulate mode) or its change since
	// the previous tick (non-accumulate) directly into the total.
	Sum Aggregation = iota
	// SumLogs adds log(1+v) instead of the plain delta, compressing large
	// swings the way the teacher's reward shaping compresses visit counts.
	SumLogs
)

// Entry is one RewardConfig entry. prevValue is per-instance reward state
// (the non-accumulate "delta since last tick" baseline); callers must use
// a distinct Entry (and thus Helper) per agent — Helper never shares
// entries across agents.
type Entry struct {
	Numerator    queryspec.GameValue
	Denominators []queryspec.GameValue
	Weight       float32
	MaxValue     float32
	HasMax       bool
	Accumulate   bool
	Aggregation  Aggregation

	prevValue float64
}

// Helper owns one agent's resolved reward entries in fixed, deterministic
// order.
type Helper struct {
	entries []Entry
}

// NewHelper copies entries (so each agent's Helper owns independent
// prevValue state even when built from a shared config template).
func NewHelper(entries []Entry) *Helper {
	owned := make([]Entry, len(entries))
	copy(owned, entries)
	return &Helper{entries: owned}
}

// Tick evaluates every entry against ctx (with ctx.Actor/Target bound to
// this agent) and returns the total reward delta for this tick.
func (h *Helper) Tick(ctx *handler.Context) float32 {
	var total float64
	for i := range h.entries {
		e := &h.entries[i]
		v := e.Numerator.Read(ctx) * float64(e.Weight)
		for _, d := range e.Denominators {
			if dv := d.Read(ctx); dv > 0 {
				v /= dv
			}
		}
		if e.HasMax && v > float64(e.MaxValue) {
			v = float64(e.MaxValue)
		}
		delta := v
		if !e.Accumulate {
			delta = v - e.prevValue
		}
		switch e.Aggregation {
		case SumLogs:
			total += math.Log(1 + v)
		default:
			total += delta
		}
		e.prevValue = v
	}
	return float32(total)
}

// Reset clears accumulated prevValue state, e.g. on episode reset.
func (h *Helper) Reset() {
	for i := range h.entries {
		h.entries[i].prevValue = 0
	}
}
