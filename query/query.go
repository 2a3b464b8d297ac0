// Package query implements the QuerySystem (subsystem C): TagQuery,
// FilteredQuery, and ClosureQuery evaluation plus materialised caching.
package query

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/queryspec"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/tagindex"
)

// System holds query configs, their materialised caches, a per-query dirty
// set, and an index from each tag to the materialised queries it can
// dirty. System satisfies
// handler.QueryEvaluator.
type System struct {
	configs []queryspec.Config
	tags    *tagindex.Index

	cache map[handler.QueryID][]grid.ObjectID
	dirty map[handler.QueryID]bool

	// byTag maps a tag id to every materialised query it can dirty.
	byTag map[grid.TagID][]handler.QueryID

	rngSource *rng.Source
}

// NewSystem constructs a QuerySystem over tags, sourcing its OrderRandom
// draws from source.
func NewSystem(tags *tagindex.Index, source *rng.Source) *System {
	return &System{
		tags:      tags,
		cache:     make(map[handler.QueryID][]grid.ObjectID),
		dirty:     make(map[handler.QueryID]bool),
		byTag:     make(map[grid.TagID][]handler.QueryID),
		rngSource: source,
	}
}

// Register adds a query config and returns its stable QueryID.
func (s *System) Register(cfg queryspec.Config) handler.QueryID {
	id := handler.QueryID(len(s.configs))
	s.configs = append(s.configs, cfg)
	if cfg.Materialized {
		s.dirty[id] = true
		for _, t := range cfg.InvalidatedBy {
			s.byTag[t] = append(s.byTag[t], id)
		}
	}
	return id
}

// Invalidate marks every materialised query that depends on tag dirty.
func (s *System) Invalidate(tag grid.TagID) {
	for _, id := range s.byTag[tag] {
		s.dirty[id] = true
	}
}

// ComputeAll rebuilds every dirty materialised query's cache from scratch.
func (s *System) ComputeAll(ctx *handler.Context) {
	for id, cfg := range s.configs {
		qid := handler.QueryID(id)
		if cfg.Materialized && s.dirty[qid] {
			s.cache[qid] = s.compute(qid, ctx)
			s.dirty[qid] = false
		}
	}
}

// Evaluate returns id's current result set: the materialised cache if
// fresh, otherwise a fresh on-the-fly computation.
func (s *System) Evaluate(id handler.QueryID, ctx *handler.Context) []grid.ObjectID {
	if id == handler.NoQuery || int(id) >= len(s.configs) {
		return nil
	}
	cfg := s.configs[id]
	if cfg.Materialized && !s.dirty[id] {
		if cached, ok := s.cache[id]; ok {
			return cached
		}
	}
	result := s.compute(id, ctx)
	if cfg.Materialized {
		s.cache[id] = result
		s.dirty[id] = false
	}
	return result
}

func (s *System) compute(id handler.QueryID, ctx *handler.Context) []grid.ObjectID {
	cfg := s.configs[id]
	var result []grid.ObjectID
	switch cfg.Kind {
	case queryspec.KindTagQuery:
		result = s.evalTagQuery(cfg, ctx)
	case queryspec.KindFilteredQuery:
		result = s.evalFilteredQuery(id, cfg, ctx)
	case queryspec.KindClosureQuery:
		result = s.evalClosureQuery(cfg, ctx)
	}
	return s.order(result, cfg)
}

func (s *System) evalTagQuery(cfg queryspec.Config, ctx *handler.Context) []grid.ObjectID {
	bucket := s.tags.GetObjectsWithTag(cfg.Tag)
	out := make([]grid.ObjectID, 0, len(bucket))
	for _, id := range bucket {
		obj := ctx.Grid.ObjectByID(id)
		if obj == nil {
			continue
		}
		if passesInline(cfg.Filters, ctx.Actor, obj, ctx) {
			out = append(out, id)
			if cfg.Cap > 0 && len(out) >= cfg.Cap {
				break
			}
		}
	}
	return out
}

func (s *System) evalFilteredQuery(id handler.QueryID, cfg queryspec.Config, ctx *handler.Context) []grid.ObjectID {
	var source []grid.ObjectID
	if cfg.Source != handler.NoQuery {
		source = s.Evaluate(cfg.Source, ctx)
	} else {
		source = s.tags.GetObjectsWithTag(cfg.Tag)
	}
	out := make([]grid.ObjectID, 0, len(source))
	for _, oid := range source {
		obj := ctx.Grid.ObjectByID(oid)
		if obj == nil {
			continue
		}
		if passesInline(cfg.Filters, ctx.Actor, obj, ctx) {
			out = append(out, oid)
			if cfg.Cap > 0 && len(out) >= cfg.Cap {
				break
			}
		}
	}
	return out
}

// evalClosureQuery implements ClosureQuery semantics: start from Seed's
// result set, grow by union of Candidates reachable via at least one
// EdgeFilter-passing pair, with ResultFilters applied to the final set.
// This is a fixed-point computation capped at MaxClosureIterations.
func (s *System) evalClosureQuery(cfg queryspec.Config, ctx *handler.Context) []grid.ObjectID {
	seed := s.Evaluate(cfg.Seed, ctx)
	candidates := s.Evaluate(cfg.Candidates, ctx)

	inSet := make(map[grid.ObjectID]bool, len(seed))
	order := make([]grid.ObjectID, 0, len(seed))
	for _, id := range seed {
		if !inSet[id] {
			inSet[id] = true
			order = append(order, id)
		}
	}

	for iter := 0; iter < queryspec.MaxClosureIterations; iter++ {
		grew := false
		for _, cand := range candidates {
			if inSet[cand] {
				continue
			}
			candObj := ctx.Grid.ObjectByID(cand)
			if candObj == nil {
				continue
			}
			for _, memberID := range order {
				member := ctx.Grid.ObjectByID(memberID)
				if member == nil {
					continue
				}
				edgeCtx := ctx.WithActorTarget(member, candObj)
				if passesAll(cfg.EdgeFilters, edgeCtx) {
					inSet[cand] = true
					order = append(order, cand)
					grew = true
					break
				}
			}
		}
		if !grew {
			break
		}
	}

	out := order
	if len(cfg.ResultFilters) > 0 {
		filtered := make([]grid.ObjectID, 0, len(out))
		for _, id := range out {
			obj := ctx.Grid.ObjectByID(id)
			if obj == nil {
				continue
			}
			resultCtx := ctx.WithActorTarget(ctx.Actor, obj)
			if passesAll(cfg.ResultFilters, resultCtx) {
				filtered = append(filtered, id)
			}
		}
		out = filtered
	}
	return out
}

func (s *System) order(result []grid.ObjectID, cfg queryspec.Config) []grid.ObjectID {
	if cfg.Order == queryspec.OrderRandom && s.rngSource != nil && len(result) > 1 {
		shuffled := make([]grid.ObjectID, len(result))
		copy(shuffled, result)
		s.rngSource.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		result = shuffled
	}
	if cfg.Cap > 0 && len(result) > cfg.Cap {
		result = result[:cfg.Cap]
	}
	return result
}

func passesInline(filters []handler.Filter, actor, candidate *grid.GridObject, ctx *handler.Context) bool {
	candCtx := ctx.WithActorTarget(actor, candidate)
	return passesAll(filters, candCtx)
}

func passesAll(filters []handler.Filter, ctx *handler.Context) bool {
	for _, f := range filters {
		if !f.Evaluate(ctx) {
			return false
		}
	}
	return true
}
