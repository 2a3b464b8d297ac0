package queryspec

import "github.com/metta-ai/mettagrid/grid"
import "github.com/metta-ai/mettagrid/handler"

// Order selects result ordering for a query.
type Order uint8

const (
	// OrderNone preserves the iteration order of the underlying bucket.
	OrderNone Order = iota
	// OrderRandom shuffles results with draws from the environment RNG the
	// query System was built with, so determinism is preserved (spec §4.C).
	OrderRandom
)

// ConfigKind discriminates the QueryConfig sum type.
type ConfigKind uint8

const (
	KindTagQuery ConfigKind = iota
	KindFilteredQuery
	KindClosureQuery
)

// Config is one of TagQuery, FilteredQuery, or ClosureQuery (spec §3).
// Queries are pure functions of current world state; Config only carries
// the declarative shape, evaluation lives in package query.
type Config struct {
	Kind ConfigKind

	// TagQuery
	Tag grid.TagID

	// Shared by TagQuery/FilteredQuery
	Order Order
	Cap   int // 0 means uncapped

	// FilteredQuery
	Source  handler.QueryID // NoQuery to start from the TagQuery's own tag bucket
	Filters []handler.Filter

	// ClosureQuery
	Seed         handler.QueryID
	Candidates   handler.QueryID
	EdgeFilters  []handler.Filter
	ResultFilters []handler.Filter

	// Materialized marks this query's result as cached and kept fresh by
	// Invalidate(tag) rather than recomputed on every Evaluate call.
	Materialized bool
	// InvalidatedBy lists the tag ids for which System.Invalidate(tag)
	// dirties this query's cache, used only when Materialized is true. Tag
	// add/remove mutations do not call Invalidate themselves.
	InvalidatedBy []grid.TagID
}

// MaxClosureIterations bounds ClosureQuery's fixed-point search (spec
// §4.C: "cap iterations at a constant and assert convergence").
const MaxClosureIterations = 64
