package telemetry

import (
	"github.com/metta-ai/mettagrid"
	"github.com/metta-ai/mettagrid/grid"
)

// AgentSnapshot is one agent's publishable state for a single tick.
type AgentSnapshot struct {
	Idx      int
	Location grid.GridLocation
	Reward   float32
	Episode  float64
}

// Snapshot is the whole-environment state the dashboard publishes, at
// whatever rate the driver calls BuildSnapshot; each call allocates a
// fresh per-agent slice.
type Snapshot struct {
	Step    int
	Agents  []AgentSnapshot
	Objects int
}

// BuildSnapshot reads env's current inspection surface into a Snapshot.
// Not on env's own hot path — called by whatever loop drives Step() and
// wants to publish, at whatever rate it chooses.
func BuildSnapshot(env *mettagrid.Environment) Snapshot {
	rewards := env.GetEpisodeRewards()
	agents := make([]AgentSnapshot, len(env.Agents))
	for i, a := range env.Agents {
		ep := 0.0
		if i < len(rewards) {
			ep = rewards[i]
		}
		agents[i] = AgentSnapshot{Idx: i, Location: a.Location, Reward: a.LastReward, Episode: ep}
	}
	return Snapshot{Step: env.CurrentStep, Agents: agents, Objects: len(env.GridObjects())}
}
