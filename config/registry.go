package config

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// Registry maps a TypeID to its installed handler bundles, built once at
// construction from GameConfig.Objects. It satisfies action.TypeRegistry
// (duck-typed; action does not import config to avoid a cycle).
type Registry struct {
	onUse       map[grid.TypeID]*handler.Handler
	onTick      map[grid.TypeID]*handler.Handler
	onTagAdd    map[grid.TypeID]map[grid.TagID]*handler.Handler
	onTagRemove map[grid.TypeID]map[grid.TagID]*handler.Handler
}

// NewRegistry builds a Registry from cfg's object templates.
func NewRegistry(cfg *GameConfig) *Registry {
	r := &Registry{
		onUse:       make(map[grid.TypeID]*handler.Handler),
		onTick:      make(map[grid.TypeID]*handler.Handler),
		onTagAdd:    make(map[grid.TypeID]map[grid.TagID]*handler.Handler),
		onTagRemove: make(map[grid.TypeID]map[grid.TagID]*handler.Handler),
	}
	for _, tmpl := range cfg.Objects {
		tid := grid.TypeID(tmpl.TypeID)
		if tmpl.OnUse != nil {
			r.onUse[tid] = tmpl.OnUse
		}
		if tmpl.OnTick != nil {
			r.onTick[tid] = tmpl.OnTick
		}
		if len(tmpl.OnTagAdd) > 0 {
			m := make(map[grid.TagID]*handler.Handler, len(tmpl.OnTagAdd))
			for tag, h := range tmpl.OnTagAdd {
				m[grid.TagID(tag)] = h
			}
			r.onTagAdd[tid] = m
		}
		if len(tmpl.OnTagRemove) > 0 {
			m := make(map[grid.TagID]*handler.Handler, len(tmpl.OnTagRemove))
			for tag, h := range tmpl.OnTagRemove {
				m[grid.TagID(tag)] = h
			}
			r.onTagRemove[tid] = m
		}
	}
	return r
}

// OnUse returns the on_use handler bundle for typeID, or nil.
func (r *Registry) OnUse(typeID grid.TypeID) *handler.Handler {
	return r.onUse[typeID]
}

// OnTick returns the per-tick handler bundle for typeID, or nil.
func (r *Registry) OnTick(typeID grid.TypeID) *handler.Handler {
	return r.onTick[typeID]
}

// OnTagAdd returns the handler bundle to run when tag is added to an
// object of typeID, or nil.
func (r *Registry) OnTagAdd(typeID grid.TypeID, tag grid.TagID) *handler.Handler {
	return r.onTagAdd[typeID][tag]
}

// OnTagRemove returns the handler bundle to run when tag is removed from
// an object of typeID, or nil.
func (r *Registry) OnTagRemove(typeID grid.TypeID, tag grid.TagID) *handler.Handler {
	return r.onTagRemove[typeID][tag]
}
