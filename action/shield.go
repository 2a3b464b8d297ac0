package action

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// Shield toggles an agent's vibe into a shielded state, charging an
// upkeep resource cost on activation. Deactivating (toggling back to vibe
// 0) is free. Ongoing per-tick upkeep, if configured, is the job of a
// per-tick handler installed on the agent's type, not this action.
type Shield struct {
	ShieldVibe     uint8
	UpkeepResource grid.ResourceID
	UpkeepCost     int
}

func (Shield) PriorityClass() int { return PriorityInteract }

func (s Shield) Execute(ctx *handler.Context, arg int32) bool {
	agent := ctx.Grid.AgentByID(ctx.Actor.ID)
	if agent == nil || agent.Frozen(ctx.CurrentStep) {
		return false
	}
	if agent.Vibe == s.ShieldVibe {
		agent.Vibe = 0
		return true
	}
	if s.UpkeepCost > 0 && agent.ResourceAmount(s.UpkeepResource) < s.UpkeepCost {
		return false
	}
	if s.UpkeepCost > 0 {
		agent.AddResource(s.UpkeepResource, -s.UpkeepCost)
	}
	agent.Vibe = s.ShieldVibe
	return true
}

// ChangeVibe sets the actor's vibe directly to arg.
type ChangeVibe struct{}

func (ChangeVibe) PriorityClass() int { return PriorityInteract }

func (ChangeVibe) Execute(ctx *handler.Context, arg int32) bool {
	agent := ctx.Grid.AgentByID(ctx.Actor.ID)
	if agent == nil || agent.Frozen(ctx.CurrentStep) {
		return false
	}
	if arg < 0 || arg > 255 {
		return false
	}
	agent.Vibe = uint8(arg)
	return true
}
