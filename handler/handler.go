package handler

// Filter is a pure boolean predicate over a Context. Filters must not
// mutate state or allocate in the steady state; any impossibility is
// represented by returning false, never by panicking (spec §7).
type Filter interface {
	Evaluate(ctx *Context) bool
}

// Mutation is a world-mutating procedure over a Context. A mutation that
// cannot apply (e.g. an empty source) simply does nothing; it does not
// abort the surrounding chain unless the Handler contract says otherwise.
type Mutation interface {
	Apply(ctx *Context)
}

// Handler owns an ordered filter chain and an ordered mutation chain.
type Handler struct {
	Filters   []Filter
	Mutations []Mutation
}

// TryApply returns false if any filter fails; otherwise it applies every
// mutation in order and returns true.
func (h *Handler) TryApply(ctx *Context) bool {
	for _, f := range h.Filters {
		if !f.Evaluate(ctx) {
			return false
		}
	}
	for _, m := range h.Mutations {
		m.Apply(ctx)
	}
	return true
}

// DispatchMode selects how a MultiHandler resolves multiple candidate
// Handlers.
type DispatchMode uint8

const (
	// FirstMatch invokes handlers in order, stopping after the first one
	// that applies (e.g. on-use).
	FirstMatch DispatchMode = iota
	// All invokes every handler, returning true if at least one applied
	// (e.g. on-tag, events).
	All
)

// MultiHandler dispatches to a set of Handlers under a DispatchMode.
type MultiHandler struct {
	Handlers []Handler
	Mode     DispatchMode
}

// TryApply runs the dispatch policy and reports whether any handler
// applied.
func (mh *MultiHandler) TryApply(ctx *Context) bool {
	applied := false
	for i := range mh.Handlers {
		if mh.Handlers[i].TryApply(ctx) {
			applied = true
			if mh.Mode == FirstMatch {
				return true
			}
		}
	}
	return applied
}
