// Package mettagrid implements the step orchestrator (subsystem L): the
// Environment that owns a Grid and every subsystem package (B–K) and
// drives them through one tick in the exact sequence spec.md §4.L names.
package mettagrid

import (
	"fmt"

	"github.com/metta-ai/mettagrid/action"
	"github.com/metta-ai/mettagrid/aoe"
	"github.com/metta-ai/mettagrid/config"
	"github.com/metta-ai/mettagrid/event"
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/observation"
	"github.com/metta-ai/mettagrid/query"
	"github.com/metta-ai/mettagrid/reward"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/stats"
	"github.com/metta-ai/mettagrid/tagindex"
)

// ActionBinding pairs an action handler with the argument it is invoked
// with; the host's per-agent action index selects directly into
// Environment.ActionTable (e.g. "move-north" and "move-south" are
// distinct table entries sharing the Move handler type with different
// baked-in arguments, rather than one handler reading a second argument
// the host never supplies — the wire ABI is one int32 per agent).
type ActionBinding struct {
	Handler action.Handler
	Arg     int32
}

// ErrBufferShape is returned by SetBuffers when a host-supplied buffer's
// length does not match the environment's agent/token counts.
type ErrBufferShape struct{ Reason string }

func (e *ErrBufferShape) Error() string { return "mettagrid: buffer shape error: " + e.Reason }

// Environment owns the whole simulated world for one episode: the grid,
// every B–K subsystem, and the host-aliased I/O buffers.
type Environment struct {
	Grid        *grid.Grid
	TagIndex    *tagindex.Index
	Collectives map[grid.CollectiveID]*grid.Collective
	GameStats   *stats.Tracker
	Queries     *query.System
	AOE         *aoe.Tracker
	Events      *event.Scheduler
	RNG         *rng.Source
	Registry    *config.Registry
	Encoder     *observation.Encoder

	Agents        []*grid.Agent
	RewardHelpers []*reward.Helper
	ActionTable   []ActionBinding
	NumObsTokens  int

	MaxSteps         int
	EpisodeTruncates bool
	CurrentStep      int

	episodeRewards []float64
	success        []bool
	prevLocations  []grid.GridLocation
	diag           diagnostics

	observations []byte
	terminals    []bool
	truncations  []bool
	rewards      []float32
	actions      []int32
}

// NewEnvironment wires a pre-built set of subsystems into an Environment.
// Construction-time validation (GameConfig.Validate, ParseMap's BuildErrors)
// must already have happened by the time the caller reaches here — this
// constructor assumes a valid, internally-consistent world.
func NewEnvironment(
	g *grid.Grid,
	tags *tagindex.Index,
	collectives map[grid.CollectiveID]*grid.Collective,
	gameStats *stats.Tracker,
	queries *query.System,
	aoeTracker *aoe.Tracker,
	events *event.Scheduler,
	source *rng.Source,
	registry *config.Registry,
	encoder *observation.Encoder,
	agents []*grid.Agent,
	rewardHelpers []*reward.Helper,
	actionTable []ActionBinding,
	numObsTokens int,
	maxSteps int,
	episodeTruncates bool,
) *Environment {
	return &Environment{
		Grid: g, TagIndex: tags, Collectives: collectives, GameStats: gameStats,
		Queries: queries, AOE: aoeTracker, Events: events, RNG: source,
		Registry: registry, Encoder: encoder,
		Agents: agents, RewardHelpers: rewardHelpers, ActionTable: actionTable,
		NumObsTokens: numObsTokens, MaxSteps: maxSteps, EpisodeTruncates: episodeTruncates,
		episodeRewards: make([]float64, len(agents)),
		success:        make([]bool, len(agents)),
		prevLocations:  make([]grid.GridLocation, len(agents)),
		diag:           newDiagnostics(),
	}
}

// SetBuffers validates and attaches the host-owned I/O arrays, then
// initializes rewards to zero and computes the first observation for
// every agent (with each agent's initial action treated as noop).
func (e *Environment) SetBuffers(observations []byte, terminals, truncations []bool, rewards []float32, actions []int32) error {
	n := len(e.Agents)
	if len(observations) != n*e.NumObsTokens*3 {
		return &ErrBufferShape{Reason: fmt.Sprintf("observations: want %d bytes, got %d", n*e.NumObsTokens*3, len(observations))}
	}
	if len(terminals) != n || len(truncations) != n || len(rewards) != n || len(actions) != n {
		return &ErrBufferShape{Reason: fmt.Sprintf("terminals/truncations/rewards/actions must each have length %d", n)}
	}
	e.observations = observations
	e.terminals = terminals
	e.truncations = truncations
	e.rewards = rewards
	e.actions = actions

	for i := range e.rewards {
		e.rewards[i] = 0
		e.terminals[i] = false
		e.truncations[i] = false
		e.actions[i] = 0
	}
	e.writeObservations(0)
	return nil
}

// GridObjects returns every live object for inspection; not on the hot
// path.
func (e *Environment) GridObjects() []*grid.GridObject {
	return e.Grid.AllObjects()
}

// GetEpisodeRewards returns the running per-agent episode reward sum.
func (e *Environment) GetEpisodeRewards() []float64 {
	return e.episodeRewards
}

// GetAgentStat reads a named stat off one agent's tracker.
func (e *Environment) GetAgentStat(agentIdx grid.AgentID, name string) float64 {
	if int(agentIdx) < 0 || int(agentIdx) >= len(e.Agents) {
		return 0
	}
	return e.Agents[agentIdx].Stats.Get(name)
}

// GetCollectiveStat reads a named stat off a collective's tracker.
func (e *Environment) GetCollectiveStat(id grid.CollectiveID, name string) float64 {
	c, ok := e.Collectives[id]
	if !ok {
		return 0
	}
	return c.Stats.Get(name)
}

// GetEpisodeStats returns the game-scope stats tracker's current values.
func (e *Environment) GetEpisodeStats() map[string]float64 {
	if e.GameStats == nil {
		return nil
	}
	return e.GameStats.All()
}

// ActionSuccess reports whether agentIdx's last dispatched action
// succeeded.
func (e *Environment) ActionSuccess(agentIdx grid.AgentID) bool {
	if int(agentIdx) < 0 || int(agentIdx) >= len(e.success) {
		return false
	}
	return e.success[agentIdx]
}

// SetInventory directly sets a resource amount on an agent, clamped to
// capacity, for host-driven scenario scripting (e.g. test fixtures).
func (e *Environment) SetInventory(agentIdx grid.AgentID, resource grid.ResourceID, amount int) {
	if int(agentIdx) < 0 || int(agentIdx) >= len(e.Agents) {
		return
	}
	e.Agents[agentIdx].SetResource(resource, amount)
}
