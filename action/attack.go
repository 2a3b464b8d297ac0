package action

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/mutation"
)

// Attack resolves combat against the agent directly ahead of the actor, on
// the agent layer, via an AttackActionConfig-equivalent mutation.Attack.
type Attack struct {
	Config mutation.Attack
}

func (Attack) PriorityClass() int { return PriorityAttack }

func (a Attack) Execute(ctx *handler.Context, arg int32) bool {
	agent := ctx.Grid.AgentByID(ctx.Actor.ID)
	if agent == nil || agent.Frozen(ctx.CurrentStep) {
		return false
	}
	targetObj := targetInFront(ctx, agent, grid.LayerAgent)
	if targetObj == nil {
		return false
	}
	atkCtx := ctx.WithActorTarget(&agent.GridObject, targetObj)
	result := a.Config.ApplyResolved(atkCtx)
	return result.Attempted
}
