package mettagrid

import (
	"fmt"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/observation"
)

// Step advances the simulation by one tick, in the exact order every
// tick follows: snapshot locations, clear per-tick buffers, fire
// scheduled events, dispatch actions by priority class, run on-tick
// handlers, resolve AOE, update held stats, compute observations, compute
// rewards, and finally check for episode end.
func (e *Environment) Step() {
	t := e.diag.now()

	// 1. Snapshot previous agent locations into a reused buffer (no
	// allocation on the steady-state path), read by anything downstream
	// that needs to distinguish "moved this tick" from current position.
	for i, a := range e.Agents {
		e.prevLocations[i] = a.Location
	}
	t = e.diag.mark("snapshot_locations", t)

	// 2. Clear rewards/observations/success flags for the tick about to run.
	for i := range e.rewards {
		e.rewards[i] = 0
	}
	for i := range e.success {
		e.success[i] = false
	}
	clearBytes(e.observations)
	t = e.diag.mark("clear_buffers", t)

	// 3. Advance the step counter.
	e.CurrentStep++

	ctx := handler.NewContext(e.Grid, e.TagIndex, e.Collectives, e.GameStats, e.Queries, e.RNG)
	ctx.CurrentStep = e.CurrentStep
	e.Queries.ComputeAll(ctx)
	t = e.diag.mark("queries", t)

	// 4. Fire scheduled events.
	e.Events.Fire(e.CurrentStep, ctx)
	t = e.diag.mark("events", t)

	// 5. Shuffle agent indices with the RNG; dispatch each agent's action,
	// one priority class at a time from high to low.
	order := e.RNG.Perm(len(e.Agents))
	for _, class := range priorityClassesDescending {
		for _, idx := range order {
			agent := e.Agents[idx]
			actionIdx := int(e.actions[idx])
			if actionIdx < 0 || actionIdx >= len(e.ActionTable) {
				continue
			}
			binding := e.ActionTable[actionIdx]
			if binding.Handler.PriorityClass() != class {
				continue
			}
			agent.LastAction = e.actions[idx]
			agent.LastActionMoved = false
			actx := ctx.WithActorTarget(&agent.GridObject, nil)
			e.success[idx] = binding.Handler.Execute(actx, binding.Arg)
		}
	}
	t = e.diag.mark("actions", t)

	// 6. Run on_tick handlers for each agent whose type has one installed.
	for _, agent := range e.Agents {
		h := e.Registry.OnTick(agent.TypeID)
		if h == nil {
			continue
		}
		actx := ctx.WithActorTarget(&agent.GridObject, nil)
		h.TryApply(actx)
	}
	t = e.diag.mark("on_tick", t)

	// 7. Resolve area-of-effect sources: fixed first per agent, then
	// mobile against all agents together.
	for _, agent := range e.Agents {
		actx := ctx.WithActorTarget(&agent.GridObject, nil)
		e.AOE.ApplyFixed(agent, actx)
	}
	e.AOE.ApplyMobile(e.Agents, ctx)
	t = e.diag.mark("aoe", t)

	// 8. Update held stats on all collectives: every agent's current
	// inventory contributes to its collective's running held totals.
	e.updateHeldStats()
	t = e.diag.mark("held_stats", t)

	// 9. Compute observations for all agents using current world state and
	// the action just executed.
	completionPct := e.completionPct()
	for i, agent := range e.Agents {
		actx := ctx.WithActorTarget(&agent.GridObject, nil)
		tokens := e.encodeAgent(agent, actx, completionPct)
		e.writeAgentTokens(i, tokens)
	}
	t = e.diag.mark("observations", t)

	// 10. Compute rewards; update per-episode reward sums.
	for i, agent := range e.Agents {
		actx := ctx.WithActorTarget(&agent.GridObject, nil)
		r := e.RewardHelpers[i].Tick(actx)
		agent.LastReward = r
		e.rewards[i] = r
		e.episodeRewards[i] += float64(r)
	}
	t = e.diag.mark("rewards", t)

	// 11. Terminate or truncate the episode once max_steps is reached.
	if e.MaxSteps > 0 && e.CurrentStep >= e.MaxSteps {
		for i := range e.Agents {
			if e.EpisodeTruncates {
				e.truncations[i] = true
			} else {
				e.terminals[i] = true
			}
		}
	}
	e.diag.mark("termination", t)
}

// priorityClassesDescending lists every action priority class from
// highest to lowest, matching the action package's Priority* constants
// (duplicated here as plain ints so this package need not import action
// just for four constants; action.Handler.PriorityClass() returns the
// same values).
var priorityClassesDescending = []int{4, 3, 2, 0}

func (e *Environment) completionPct() float64 {
	if e.MaxSteps <= 0 {
		return 0
	}
	return float64(e.CurrentStep) / float64(e.MaxSteps)
}

// updateHeldStats accumulates every agent's current per-resource inventory
// into its collective's stats tracker, under a "held.<resource_id>" name.
func (e *Environment) updateHeldStats() {
	for _, agent := range e.Agents {
		c, ok := e.Collectives[agent.Collective]
		if !ok {
			continue
		}
		for resID, amount := range agent.Inventory {
			c.Stats.Add(heldStatName(resID), float64(amount))
		}
	}
}

func heldStatName(id grid.ResourceID) string {
	return fmt.Sprintf("held.%d", int(id))
}

// writeObservations computes and writes the initial observation for every
// agent, used by SetBuffers before the first Step().
func (e *Environment) writeObservations(completionPct float64) {
	ctx := handler.NewContext(e.Grid, e.TagIndex, e.Collectives, e.GameStats, e.Queries, e.RNG)
	ctx.CurrentStep = e.CurrentStep
	for i, agent := range e.Agents {
		actx := ctx.WithActorTarget(&agent.GridObject, nil)
		tokens := e.encodeAgent(agent, actx, completionPct)
		e.writeAgentTokens(i, tokens)
	}
}

// writeAgentTokens packs one agent's token list into its slice of the
// shared C-contiguous observations buffer: num_tokens * 3 bytes per
// agent, with every slot past len(tokens) filled with EmptyLoc bytes.
// Tokens beyond NumObsTokens are dropped here (the encoder applies no cap
// of its own), and the dropped count is not recorded in any stat.
func (e *Environment) writeAgentTokens(agentIdx int, tokens []observation.Token) {
	base := agentIdx * e.NumObsTokens * 3
	n := len(tokens)
	if n > e.NumObsTokens {
		n = e.NumObsTokens
	}
	for i := 0; i < n; i++ {
		off := base + i*3
		e.observations[off] = tokens[i].Location
		e.observations[off+1] = tokens[i].FeatureID
		e.observations[off+2] = tokens[i].Value
	}
	for i := n * 3; i < e.NumObsTokens*3; i++ {
		e.observations[base+i] = observation.EmptyLoc
	}
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
