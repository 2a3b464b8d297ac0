package action

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// Use invokes the on_use handler bundle installed for the type of the
// object directly ahead of the actor (object layer), looked up through a
// TypeRegistry. Fails if there is nothing ahead or its type has no on_use
// handler, or the handler's own filters reject.
type Use struct {
	Registry TypeRegistry
}

func (Use) PriorityClass() int { return PriorityInteract }

func (u Use) Execute(ctx *handler.Context, arg int32) bool {
	agent := ctx.Grid.AgentByID(ctx.Actor.ID)
	if agent == nil || agent.Frozen(ctx.CurrentStep) {
		return false
	}
	target := targetInFront(ctx, agent, grid.LayerObject)
	if target == nil || u.Registry == nil {
		return false
	}
	h := u.Registry.OnUse(target.TypeID)
	if h == nil {
		return false
	}
	useCtx := ctx.WithActorTarget(&agent.GridObject, target)
	return h.TryApply(useCtx)
}
