package aoe

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// RegisterMobile marks id as a mobile source, tracked by live distance
// rather than precomputed cell buckets. NewSource already does this when
// Config.IsStatic is false; RegisterMobile exists for symmetry with
// RegisterFixed and is safe to call more than once.
func (t *Tracker) RegisterMobile(id SourceID) {
	if _, ok := t.insideMobile[id]; !ok {
		t.insideMobile[id] = make(map[grid.ObjectID]bool)
	}
}

// ApplyMobile scans every mobile source against every agent, firing
// enter/exit presence deltas on distance-threshold transitions and
// applying the source's mutation chain while an agent is inside. Mobile
// sources do not participate in territory collapse.
func (t *Tracker) ApplyMobile(agents []*grid.Agent, ctx *handler.Context) {
	for _, id := range t.mobile {
		src := t.source(id)
		if src == nil {
			continue
		}
		inside := t.insideMobile[id]
		if inside == nil {
			inside = make(map[grid.ObjectID]bool)
			t.insideMobile[id] = inside
		}
		r2 := src.Config.Radius * src.Config.Radius

		if t.deferred == nil {
			t.deferred = handler.NewDeferredDeltas()
		}

		for _, agent := range agents {
			skipSelf := src.Object.ID == agent.ID && !src.Config.EffectSelf
			withinRange := agent.Location.SqDist(src.Object.Location) <= r2

			t.deferred.Reset(&agent.GridObject)
			savedDeferred := ctx.Deferred
			ctx.Deferred = t.deferred

			srcCtx := ctx.WithActorTarget(src.Object, &agent.GridObject)
			nowPasses := withinRange && !skipSelf && passesAll(src.Config.Filters, srcCtx)

			wasInside := inside[agent.ID]
			if nowPasses && !wasInside {
				t.firePresence(&agent.GridObject, src, true)
			}
			if !nowPasses && wasInside {
				t.firePresence(&agent.GridObject, src, false)
			}
			if nowPasses {
				for _, m := range src.Config.Mutations {
					m.Apply(srcCtx)
				}
			}
			inside[agent.ID] = nowPasses

			t.deferred.Apply()
			ctx.Deferred = savedDeferred
		}
	}
}
