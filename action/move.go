package action

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// Move steps an agent one cell in a direction drawn from a configured
// allowed subset; arg indexes into Allowed. Fails if the agent is frozen,
// arg is out of range, or the destination is out of bounds/occupied.
type Move struct {
	Allowed []grid.Direction
}

func (Move) PriorityClass() int { return PriorityMove }

func (m Move) Execute(ctx *handler.Context, arg int32) bool {
	agent := ctx.Grid.AgentByID(ctx.Actor.ID)
	if agent == nil || agent.Frozen(ctx.CurrentStep) {
		return false
	}
	if arg < 0 || int(arg) >= len(m.Allowed) {
		return false
	}
	dir := m.Allowed[arg]
	dr, dc := dir.Offset()
	newRow, newCol := int(agent.Location.Row)+dr, int(agent.Location.Col)+dc
	if newRow < 0 || newCol < 0 {
		return false
	}
	dest := grid.GridLocation{Row: uint16(newRow), Col: uint16(newCol)}
	moved := ctx.Grid.Move(agent.ID, dest)
	agent.LastActionMoved = moved
	return moved
}

// Rotate changes an agent's facing without moving it; arg is the new
// Direction value directly. Fails only if the agent is frozen.
type Rotate struct{}

func (Rotate) PriorityClass() int { return PriorityMove }

func (Rotate) Execute(ctx *handler.Context, arg int32) bool {
	agent := ctx.Grid.AgentByID(ctx.Actor.ID)
	if agent == nil || agent.Frozen(ctx.CurrentStep) {
		return false
	}
	dir := grid.Direction(arg)
	if dir != grid.North && dir != grid.South && dir != grid.East && dir != grid.West {
		return false
	}
	agent.Orientation = dir
	return true
}
