package mettagrid

import (
	"fmt"
	"os"
	"time"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/observation"
)

// diagnostics is the env-var-gated runtime hook set: METTAGRID_PROFILING
// turns on per-phase step timing, METTAGRID_OBS_VALIDATION turns on a
// shadow-path comparator between EncodeOptimized and EncodeOriginal, and
// METTAGRID_OBS_USE_OPTIMIZED selects which path's tokens actually feed the
// observation buffer. Read once at construction, not per-call, so a
// running Environment's behavior can't change mid-episode if the process
// environment is mutated out from under it.
type diagnostics struct {
	profiling     bool
	obsValidation bool
	useOptimized  bool
	phaseTimes    map[string]time.Duration
}

func newDiagnostics() diagnostics {
	return diagnostics{
		profiling:     os.Getenv("METTAGRID_PROFILING") == "1",
		obsValidation: os.Getenv("METTAGRID_OBS_VALIDATION") == "1",
		useOptimized:  os.Getenv("METTAGRID_OBS_USE_OPTIMIZED") != "0",
		phaseTimes:    make(map[string]time.Duration),
	}
}

// now returns the current time if profiling is enabled, else the zero
// time (mark is then a no-op, so disabled profiling costs one bool check
// per phase instead of a real clock read).
func (d *diagnostics) now() time.Time {
	if !d.profiling {
		return time.Time{}
	}
	return time.Now()
}

// mark accumulates the elapsed time since since into phase's running
// total and returns the new checkpoint.
func (d *diagnostics) mark(phase string, since time.Time) time.Time {
	if !d.profiling {
		return time.Time{}
	}
	now := time.Now()
	d.phaseTimes[phase] += now.Sub(since)
	return now
}

// ProfilingSnapshot returns the running per-phase step timings accumulated
// since construction. Empty unless METTAGRID_PROFILING=1 was set when the
// Environment was built.
func (e *Environment) ProfilingSnapshot() map[string]time.Duration {
	out := make(map[string]time.Duration, len(e.diag.phaseTimes))
	for phase, d := range e.diag.phaseTimes {
		out[phase] = d
	}
	return out
}

// encodeAgent resolves one agent's observation tokens per the
// METTAGRID_OBS_VALIDATION/METTAGRID_OBS_USE_OPTIMIZED env-var ABI:
// ordinarily it just runs EncodeOptimized, but under validation it also
// runs EncodeOriginal and panics (a debug assertion, per the internal
// invariant violations this repo reserves panic for) if the two disagree,
// since they are required to be byte-identical.
func (e *Environment) encodeAgent(agent *grid.Agent, actx *handler.Context, completionPct float64) []observation.Token {
	optimized := e.Encoder.EncodeOptimized(agent, actx, e.AOE, completionPct, e.CurrentStep)
	if !e.diag.obsValidation {
		if e.diag.useOptimized {
			return optimized
		}
		return observation.EncodeOriginal(agent, actx, e.AOE, e.Encoder.Config(), completionPct, e.CurrentStep)
	}

	optimizedCopy := append([]observation.Token(nil), optimized...)
	original := observation.EncodeOriginal(agent, actx, e.AOE, e.Encoder.Config(), completionPct, e.CurrentStep)
	if !tokensEqual(optimizedCopy, original) {
		panic(fmt.Sprintf("mettagrid: observation shadow-path mismatch for agent %d at step %d", agent.AgentIdx, e.CurrentStep))
	}
	if e.diag.useOptimized {
		return optimizedCopy
	}
	return original
}

func tokensEqual(a, b []observation.Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
