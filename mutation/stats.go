package mutation

import "github.com/metta-ai/mettagrid/queryspec"
import "github.com/metta-ai/mettagrid/handler"

// Stats adds Delta to a named stat on {game, the selected entity's agent,
// the selected entity's collective} scope.
type Stats struct {
	Entity queryspec.Entity
	Scope  queryspec.Scope
	Name   string
	Delta  float64
}

func (m *Stats) Apply(ctx *handler.Context) {
	switch m.Scope {
	case queryspec.ScopeGame:
		if ctx.GameStats != nil {
			ctx.GameStats.Add(m.Name, m.Delta)
		}
	case queryspec.ScopeAgent:
		obj := resolve(ctx, m.Entity)
		if obj == nil || ctx.Grid == nil {
			return
		}
		if a := ctx.Grid.AgentByID(obj.ID); a != nil {
			a.Stats.Add(m.Name, m.Delta)
		}
	case queryspec.ScopeCollective:
		obj := resolve(ctx, m.Entity)
		if obj == nil {
			return
		}
		if c, ok := ctx.Collectives[obj.Collective]; ok {
			c.Stats.Add(m.Name, m.Delta)
		}
	}
}
