// Package action implements the per-tick action handlers (subsystem I):
// noop, move, rotate, attack, use, swap, gift, shield, change_vibe. The
// shuffle-and-dispatch-by-priority-class loop itself lives in the root
// simulation package, which owns the environment-global RNG draw; each
// handler here only validates its own preconditions and mutates the world.
package action

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// Priority classes, highest first. Combat resolves before an actor can
// reposition or be repositioned away from it; interactions (use/gift/swap/
// shield/vibe) resolve before plain movement so a "use" this tick sees the
// pre-move world; rotate/move share a class since orientation commonly
// precedes movement in the same action slot; noop is lowest by definition.
const (
	PriorityAttack   = 4
	PriorityInteract = 3
	PriorityMove     = 2
	PriorityNoop     = 0
)

// Handler is one action type: it knows its priority class and how to
// validate-and-apply itself for one acting agent.
type Handler interface {
	PriorityClass() int
	// Execute attempts the action for ctx.Actor (already bound into ctx),
	// with arg carrying the action's argument (direction index, resource
	// id, vibe id, ...). Returns whether the action succeeded.
	Execute(ctx *handler.Context, arg int32) bool
}

// TypeRegistry resolves a GridObject's installed on_use handler bundle by
// type id. Implemented by the config package's type registry; declared
// here (rather than imported) to keep action from depending upward on
// config.
type TypeRegistry interface {
	OnUse(typeID grid.TypeID) *handler.Handler
}

// targetInFront returns the object directly ahead of actor on its facing
// layer, or nil if out of bounds or empty.
func targetInFront(ctx *handler.Context, actor *grid.Agent, layer grid.Layer) *grid.GridObject {
	dr, dc := actor.Orientation.Offset()
	loc := actor.Location
	newRow, newCol := int(loc.Row)+dr, int(loc.Col)+dc
	if newRow < 0 || newCol < 0 {
		return nil
	}
	front := grid.GridLocation{Row: uint16(newRow), Col: uint16(newCol)}
	return ctx.Grid.ObjectAt(front, layer)
}

// Noop always succeeds and does nothing.
type Noop struct{}

func (Noop) PriorityClass() int { return PriorityNoop }
func (Noop) Execute(ctx *handler.Context, arg int32) bool {
	return true
}
