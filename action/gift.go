package action

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/mutation"
	"github.com/metta-ai/mettagrid/queryspec"
)

// Gift transfers Amount of ResourceID from the actor to the agent directly
// ahead of it. Amount<0 gifts the actor's entire balance, matching
// mutation.ResourceTransfer's convention.
type Gift struct {
	ResourceID grid.ResourceID
	Amount     int
}

func (Gift) PriorityClass() int { return PriorityInteract }

func (gft Gift) Execute(ctx *handler.Context, arg int32) bool {
	agent := ctx.Grid.AgentByID(ctx.Actor.ID)
	if agent == nil || agent.Frozen(ctx.CurrentStep) {
		return false
	}
	recipient := ctx.Grid.AgentAt(frontLoc(agent))
	if recipient == nil {
		return false
	}
	giftCtx := ctx.WithActorTarget(&agent.GridObject, &recipient.GridObject)
	m := &mutation.ResourceTransfer{
		Source: queryspec.EntityActor, Destination: queryspec.EntityTarget,
		ResourceID: gft.ResourceID, Amount: gft.Amount,
	}
	m.Apply(giftCtx)
	return true
}

func frontLoc(agent *grid.Agent) grid.GridLocation {
	dr, dc := agent.Orientation.Offset()
	return grid.GridLocation{Row: uint16(int(agent.Location.Row) + dr), Col: uint16(int(agent.Location.Col) + dc)}
}
