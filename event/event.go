// Package event implements the EventScheduler (subsystem H): timestep-keyed
// events that scan a tag bucket, filter, cap, and mutate, with a fallback
// chain when nothing matched.
package event

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/tagindex"
)

// Config is one configured event: it fires on each listed timestep.
type Config struct {
	Name       string
	Timesteps  []int
	TargetTag  grid.TagID
	Filters    []handler.Filter
	Mutations  []handler.Mutation
	MaxTargets int
	Fallback   string
}

// Scheduler holds the configured events in declaration order and an index
// from timestep to the events that fire on it, preserving config order
// within a shared timestep.
type Scheduler struct {
	configs []Config
	byName  map[string]int
	byStep  map[int][]int
	tags    *tagindex.Index
}

// NewScheduler builds a Scheduler from configs, indexing them by the
// timesteps and names they declare.
func NewScheduler(tags *tagindex.Index, configs []Config) *Scheduler {
	s := &Scheduler{
		configs: configs,
		byName:  make(map[string]int, len(configs)),
		byStep:  make(map[int][]int),
		tags:    tags,
	}
	for i, cfg := range configs {
		s.byName[cfg.Name] = i
		for _, step := range cfg.Timesteps {
			s.byStep[step] = append(s.byStep[step], i)
		}
	}
	return s
}

// Fire runs every event configured for currentStep, in config order, each
// chaining to its fallback (immediately, same call) if it matched nothing.
func (s *Scheduler) Fire(currentStep int, ctx *handler.Context) {
	for _, idx := range s.byStep[currentStep] {
		s.fireOne(idx, ctx)
	}
}

func (s *Scheduler) fireOne(idx int, ctx *handler.Context) {
	cfg := s.configs[idx]
	matched := 0
	for _, oid := range s.tags.GetObjectsWithTag(cfg.TargetTag) {
		target := ctx.Grid.ObjectByID(oid)
		if target == nil {
			continue
		}
		candCtx := ctx.WithActorTarget(ctx.Actor, target)
		if !passesAll(cfg.Filters, candCtx) {
			continue
		}
		for _, m := range cfg.Mutations {
			m.Apply(candCtx)
		}
		matched++
		if cfg.MaxTargets > 0 && matched >= cfg.MaxTargets {
			break
		}
	}
	if matched == 0 && cfg.Fallback != "" {
		if fbIdx, ok := s.byName[cfg.Fallback]; ok {
			s.fireOne(fbIdx, ctx)
		}
	}
}

func passesAll(filters []handler.Filter, ctx *handler.Context) bool {
	for _, f := range filters {
		if !f.Evaluate(ctx) {
			return false
		}
	}
	return true
}
