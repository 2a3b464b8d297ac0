// Package stats implements StatsTracker: string-keyed floats with a
// pre-resolved integer id cache, per spec §3. Addition is commutative and
// associative so accumulation order never affects the final value.
package stats

// ID is a pre-resolved integer handle for a stat name, populated lazily by
// ResolveID the first time a name is seen.
type ID int32

// Tracker is a string-keyed float accumulator with an id-cache fast path.
// The "original" code path calls Add(name, ...); the "optimised" path
// pre-resolves an ID once (at config-build time) and calls AddByID. Both
// must resolve the same name to the same ID (spec §9's open question about
// stat-id equality between the two observation/reward paths), which is
// exactly what ResolveID guarantees: it is idempotent and is the only
// place new ids are minted.
type Tracker struct {
	values []float64
	ids    map[string]ID
	names  []string
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{ids: make(map[string]ID)}
}

// ResolveID returns the stable id for name, minting one on first use.
func (t *Tracker) ResolveID(name string) ID {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := ID(len(t.values))
	t.ids[name] = id
	t.values = append(t.values, 0)
	t.names = append(t.names, name)
	return id
}

// Add adds delta to the named stat (the "original" path).
func (t *Tracker) Add(name string, delta float64) {
	t.values[t.ResolveID(name)] += delta
}

// AddByID adds delta to a pre-resolved id (the "optimised" path).
func (t *Tracker) AddByID(id ID, delta float64) {
	t.values[id] += delta
}

// Get returns the current value of the named stat.
func (t *Tracker) Get(name string) float64 {
	id, ok := t.ids[name]
	if !ok {
		return 0
	}
	return t.values[id]
}

// GetByID returns the current value for a pre-resolved id.
func (t *Tracker) GetByID(id ID) float64 {
	if int(id) >= len(t.values) {
		return 0
	}
	return t.values[id]
}

// Set forces the named stat to an exact value.
func (t *Tracker) Set(name string, value float64) {
	t.values[t.ResolveID(name)] = value
}

// All returns a snapshot of every resolved stat name to its current value.
// Not on the hot path; used by GetEpisodeStats / GetAgentStat /
// GetCollectiveStat.
func (t *Tracker) All() map[string]float64 {
	out := make(map[string]float64, len(t.names))
	for name, id := range t.ids {
		out[name] = t.values[id]
	}
	return out
}

// Reset zeroes every resolved stat without forgetting the name->id mapping,
// used between episodes so pre-resolved ids (e.g. those cached by
// RewardHelper) stay valid.
func (t *Tracker) Reset() {
	for i := range t.values {
		t.values[i] = 0
	}
}
