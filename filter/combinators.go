package filter

import (
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

// QueryResource passes when the sum of resourceID across Query's current
// results >= MinAmount. Short-circuits once the running sum reaches the
// threshold.
type QueryResource struct {
	Query      handler.QueryID
	ResourceID grid.ResourceID
	MinAmount  int
}

func (f *QueryResource) Evaluate(ctx *handler.Context) bool {
	if ctx.Queries == nil {
		return false
	}
	total := 0
	for _, id := range ctx.Queries.Evaluate(f.Query, ctx) {
		obj := ctx.Grid.ObjectByID(id)
		if obj == nil {
			continue
		}
		total += obj.ResourceAmount(f.ResourceID)
		if total >= f.MinAmount {
			return true
		}
	}
	return total >= f.MinAmount
}

// Neg is NOT(AND(inner...)): passes when at least one inner filter fails.
type Neg struct {
	Inner []handler.Filter
}

func (f *Neg) Evaluate(ctx *handler.Context) bool {
	return !allPass(f.Inner, ctx)
}

// Or passes when any inner filter passes.
type Or struct {
	Inner []handler.Filter
}

func (f *Or) Evaluate(ctx *handler.Context) bool {
	for _, inner := range f.Inner {
		if inner.Evaluate(ctx) {
			return true
		}
	}
	return false
}
