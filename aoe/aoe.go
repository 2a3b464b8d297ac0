// Package aoe implements the AOETracker (subsystem G): fixed and mobile
// area-of-effect sources, enter/exit presence accounting, and territory
// collapse between competing influence fields.
package aoe

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// TerritoryTipExclusionRadius is the radius at or above which a fixed
// territory AOE's cell mask excludes the four cardinal boundary tips
// (±r,0) and (0,±r), so the mask matches the renderer's overlay shape.
// Kept behind a named constant per spec §9's note that this is a
// rendering-coupled decision.
const TerritoryTipExclusionRadius = 2

// Side is the outcome of territory collapse or a source's relationship to
// an observer: Neutral, Friendly, or Enemy.
type Side uint8

const (
	Neutral Side = iota
	Friendly
	Enemy
)

// PresenceDelta is the resource adjustment fired when a target transitions
// into (Enter) or out of (Exit) a source's influence.
type PresenceDelta struct {
	ResourceID  grid.ResourceID
	EnterDelta  int
	ExitDelta   int
}

// Config is an AOEConfig: radius, storage mode, and the filter/mutation
// chain a source applies to anything inside it.
type Config struct {
	Radius            int
	IsStatic          bool
	EffectSelf        bool
	ControlsTerritory bool
	PresenceDeltas    []PresenceDelta
	Filters           []handler.Filter
	Mutations         []handler.Mutation
}

// SourceID identifies an AOESource in the tracker's arena.
type SourceID int32

// Source wraps a source object and its AOEConfig. Many cell buckets share
// one Source by reference (via SourceID into the arena), matching spec's
// shared-ownership note for AOESource.
type Source struct {
	ID     SourceID
	Object *grid.GridObject
	Config Config

	registeredFixed bool
}

// Tracker owns the AOESource arena and both storage modes.
type Tracker struct {
	sources []*Source

	// fixedBuckets[loc] lists every fixed source whose radius covers loc.
	fixedBuckets map[grid.GridLocation][]SourceID
	mobile       []SourceID

	// insideFixed[agentID][sourceID] / insideMobile[sourceID][agentID]
	// record last tick's inside/outside state for transition detection.
	insideFixed  map[grid.ObjectID]map[SourceID]bool
	insideMobile map[SourceID]map[grid.ObjectID]bool

	deferred *handler.DeferredDeltas
}

// NewTracker constructs an empty AOETracker.
func NewTracker() *Tracker {
	return &Tracker{
		fixedBuckets: make(map[grid.GridLocation][]SourceID),
		insideFixed:  make(map[grid.ObjectID]map[SourceID]bool),
		insideMobile: make(map[SourceID]map[grid.ObjectID]bool),
		deferred:     handler.NewDeferredDeltas(),
	}
}

// NewSource allocates a Source in the tracker's arena and returns its id.
func (t *Tracker) NewSource(obj *grid.GridObject, cfg Config) SourceID {
	id := SourceID(len(t.sources))
	src := &Source{ID: id, Object: obj, Config: cfg}
	t.sources = append(t.sources, src)
	if !cfg.IsStatic {
		t.mobile = append(t.mobile, id)
		t.insideMobile[id] = make(map[grid.ObjectID]bool)
	}
	return id
}

func (t *Tracker) source(id SourceID) *Source {
	if id < 0 || int(id) >= len(t.sources) {
		return nil
	}
	return t.sources[id]
}

// cellsInRadius enumerates every grid cell within dr²+dc² <= r² of center,
// clipped to the grid, excluding the four cardinal tips when r is at or
// above TerritoryTipExclusionRadius and the source controls territory.
func cellsInRadius(g *grid.Grid, center grid.GridLocation, radius int, excludeTips bool) []grid.GridLocation {
	var out []grid.GridLocation
	r2 := radius * radius
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			if dr*dr+dc*dc > r2 {
				continue
			}
			if excludeTips && radius >= TerritoryTipExclusionRadius {
				if (dr == radius || dr == -radius) && dc == 0 {
					continue
				}
				if (dc == radius || dc == -radius) && dr == 0 {
					continue
				}
			}
			row := int(center.Row) + dr
			col := int(center.Col) + dc
			if row < 0 || col < 0 || row >= int(g.Height) || col >= int(g.Width) {
				continue
			}
			out = append(out, grid.GridLocation{Row: uint16(row), Col: uint16(col)})
		}
	}
	return out
}

// RegisterFixed enumerates every cell within the source's radius and
// pushes a shared reference into each cell's bucket.
func (t *Tracker) RegisterFixed(g *grid.Grid, id SourceID) {
	src := t.source(id)
	if src == nil || src.registeredFixed {
		return
	}
	cells := cellsInRadius(g, src.Object.Location, src.Config.Radius, src.Config.ControlsTerritory)
	for _, loc := range cells {
		t.fixedBuckets[loc] = append(t.fixedBuckets[loc], id)
	}
	src.registeredFixed = true
}

// UnregisterFixed reverses RegisterFixed, removing id from every cell
// bucket it was pushed into and firing the balancing exit deltas for any
// agent still inside.
func (t *Tracker) UnregisterFixed(g *grid.Grid, id SourceID) {
	src := t.source(id)
	if src == nil || !src.registeredFixed {
		return
	}
	cells := cellsInRadius(g, src.Object.Location, src.Config.Radius, src.Config.ControlsTerritory)
	for _, loc := range cells {
		bucket := t.fixedBuckets[loc]
		for i, sid := range bucket {
			if sid == id {
				bucket = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
		t.fixedBuckets[loc] = bucket
	}
	for agentID, bySource := range t.insideFixed {
		if bySource[id] {
			if agent := g.AgentByID(agentID); agent != nil {
				t.firePresence(&agent.GridObject, src, false)
			}
			delete(bySource, id)
		}
	}
	src.registeredFixed = false
}

func (t *Tracker) firePresence(target *grid.GridObject, src *Source, entering bool) {
	for _, pd := range src.Config.PresenceDeltas {
		if entering {
			target.AddResource(pd.ResourceID, pd.EnterDelta)
		} else {
			target.AddResource(pd.ResourceID, pd.ExitDelta)
		}
	}
}
