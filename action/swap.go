package action

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// Swap exchanges the actor's position with the object directly ahead of
// it, on the same layer as that object. Fails if there is nothing ahead.
type Swap struct{}

func (Swap) PriorityClass() int { return PriorityInteract }

func (Swap) Execute(ctx *handler.Context, arg int32) bool {
	agent := ctx.Grid.AgentByID(ctx.Actor.ID)
	if agent == nil || agent.Frozen(ctx.CurrentStep) {
		return false
	}
	dr, dc := agent.Orientation.Offset()
	newRow, newCol := int(agent.Location.Row)+dr, int(agent.Location.Col)+dc
	if newRow < 0 || newCol < 0 {
		return false
	}
	front := grid.GridLocation{Row: uint16(newRow), Col: uint16(newCol)}
	other := ctx.Grid.ObjectAt(front, agent.Layer)
	if other == nil {
		return false
	}
	return ctx.Grid.Swap(agent.ID, other.ID)
}
