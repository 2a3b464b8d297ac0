package aoe

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// relation classifies src's relationship to the acting agent: Enemy when
// collectives differ (and both are aligned), Friendly when equal, Neutral
// when either side is unaligned.
func relation(agentCollective, srcCollective grid.CollectiveID) Side {
	if srcCollective == grid.NoCollective || agentCollective == grid.NoCollective {
		return Neutral
	}
	if srcCollective == agentCollective {
		return Friendly
	}
	return Enemy
}

// territoryWinner finds the nearest territory-controlling source per side
// at loc among bucket, returning the winning Side (ties go to Neutral).
func territoryWinner(bucket []*Source, loc grid.GridLocation, agentCollective grid.CollectiveID) Side {
	const unset = -1
	friendlyBest, enemyBest := unset, unset
	for _, src := range bucket {
		if !src.Config.ControlsTerritory {
			continue
		}
		d2 := loc.SqDist(src.Object.Location)
		switch relation(agentCollective, src.Object.Collective) {
		case Friendly:
			if friendlyBest == unset || d2 < friendlyBest {
				friendlyBest = d2
			}
		case Enemy:
			if enemyBest == unset || d2 < enemyBest {
				enemyBest = d2
			}
		}
	}
	switch {
	case friendlyBest == unset && enemyBest == unset:
		return Neutral
	case friendlyBest == unset:
		return Enemy
	case enemyBest == unset:
		return Friendly
	case friendlyBest < enemyBest:
		return Friendly
	case enemyBest < friendlyBest:
		return Enemy
	default:
		return Neutral
	}
}

// ApplyFixed resolves every fixed source covering agent's cell for one
// tick: enemy sources first, then unaligned ("other"), then friendly,
// firing enter/exit presence deltas on transition and applying each
// source's mutation chain while the agent remains inside. Net resource
// deltas queued via ctx.Deferred are applied once at the end.
func (t *Tracker) ApplyFixed(agent *grid.Agent, ctx *handler.Context) {
	loc := agent.Location
	bucket := t.fixedBuckets[loc]

	sources := make(map[SourceID]*Source, len(bucket))
	var enemy, other, friendly []*Source
	for _, id := range bucket {
		src := t.source(id)
		if src == nil {
			continue
		}
		sources[id] = src
		switch relation(agent.Collective, src.Object.Collective) {
		case Enemy:
			enemy = append(enemy, src)
		case Friendly:
			friendly = append(friendly, src)
		default:
			other = append(other, src)
		}
	}

	prevInside := t.insideFixed[agent.ID]
	if prevInside == nil {
		prevInside = make(map[SourceID]bool)
		t.insideFixed[agent.ID] = prevInside
	}
	for sid := range prevInside {
		if prevInside[sid] && sources[sid] == nil {
			if src := t.source(sid); src != nil {
				t.firePresence(&agent.GridObject, src, false)
			}
			delete(prevInside, sid)
		}
	}

	ordered := make([]*Source, 0, len(enemy)+len(other)+len(friendly))
	ordered = append(ordered, enemy...)
	ordered = append(ordered, other...)
	ordered = append(ordered, friendly...)

	winner := territoryWinner(ordered, loc, agent.Collective)

	if t.deferred == nil {
		t.deferred = handler.NewDeferredDeltas()
	}
	t.deferred.Reset(&agent.GridObject)
	savedDeferred := ctx.Deferred
	ctx.Deferred = t.deferred

	for _, src := range ordered {
		t.resolveOne(agent, src, ctx, prevInside, winner, relation(agent.Collective, src.Object.Collective))
	}

	t.deferred.Apply()
	ctx.Deferred = savedDeferred
}

func (t *Tracker) resolveOne(agent *grid.Agent, src *Source, ctx *handler.Context, prevInside map[SourceID]bool, winner Side, side Side) {
	skipSelf := src.Object.ID == agent.ID && !src.Config.EffectSelf
	srcCtx := ctx.WithActorTarget(src.Object, &agent.GridObject)

	nowPasses := !skipSelf && passesAll(src.Config.Filters, srcCtx)
	effectivePasses := nowPasses
	if src.Config.ControlsTerritory {
		effectivePasses = nowPasses && side == winner
	}

	wasInside := prevInside[src.ID]
	if effectivePasses && !wasInside {
		t.firePresence(&agent.GridObject, src, true)
	}
	if !effectivePasses && wasInside {
		t.firePresence(&agent.GridObject, src, false)
	}
	if effectivePasses {
		for _, m := range src.Config.Mutations {
			m.Apply(srcCtx)
		}
	}
	prevInside[src.ID] = effectivePasses
}

func passesAll(filters []handler.Filter, ctx *handler.Context) bool {
	for _, f := range filters {
		if !f.Evaluate(ctx) {
			return false
		}
	}
	return true
}

// FixedObservabilityAt reports, from observerCollective's perspective, the
// AOE mask (any source's relation at loc: Enemy if any enemy source
// touches loc, else Friendly if any friendly source does, else Neutral) and the
// territory collapse winner at loc.
func (t *Tracker) FixedObservabilityAt(loc grid.GridLocation, observerCollective grid.CollectiveID) (aoeMask, territory Side) {
	bucket := t.fixedBuckets[loc]
	sources := make([]*Source, 0, len(bucket))
	sawFriendly, sawEnemy := false, false
	for _, id := range bucket {
		src := t.source(id)
		if src == nil {
			continue
		}
		sources = append(sources, src)
		switch relation(observerCollective, src.Object.Collective) {
		case Friendly:
			sawFriendly = true
		case Enemy:
			sawEnemy = true
		}
	}
	switch {
	case sawEnemy:
		aoeMask = Enemy
	case sawFriendly:
		aoeMask = Friendly
	default:
		aoeMask = Neutral
	}
	territory = territoryWinner(sources, loc, observerCollective)
	return aoeMask, territory
}
