package grid

import "github.com/metta-ai/mettagrid/stats"

// GridObject is the base identity and cell state for every entity in the
// world: agents, walls, resources, and structures alike.
//
// Handler bundles (on_use, on_tag_add/remove, per-tick) are not stored on
// the instance: they are attached per TypeID and looked up through the
// type registry the config package builds, which keeps GridObject free of
// a dependency on the handler package and lets many instances of a type
// share one set of handler trees, matching spec's "owned by the object
// that installs them" for the common case where a type's instances behave
// identically.
type GridObject struct {
	ID       ObjectID
	TypeID   TypeID
	Location GridLocation
	Layer    Layer
	Vibe     uint8
	TagBits  BitSet256

	Inventory   map[ResourceID]int
	Capacities  map[ResourceID]int
	Collective  CollectiveID
	Visited     int // last step number an observer scanned this cell
	destroyed   bool
}

// NewGridObject constructs an object with empty inventory maps ready to use.
func NewGridObject(id ObjectID, typeID TypeID, layer Layer, loc GridLocation, capacities map[ResourceID]int) *GridObject {
	caps := make(map[ResourceID]int, len(capacities))
	for k, v := range capacities {
		caps[k] = v
	}
	return &GridObject{
		ID:         id,
		TypeID:     typeID,
		Location:   loc,
		Layer:      layer,
		Collective: NoCollective,
		Inventory:  make(map[ResourceID]int),
		Capacities: caps,
	}
}

// Destroyed reports whether RemoveObject has torn this object down.
func (o *GridObject) Destroyed() bool { return o.destroyed }

// ResourceAmount returns the current amount of resource id, 0 if absent.
func (o *GridObject) ResourceAmount(id ResourceID) int {
	return o.Inventory[id]
}

// Capacity returns the per-object capacity for resource id. It returns 0
// both when no capacity is declared for id (AddResource then lets the
// amount grow without bound) and when the declared capacity is 0.
func (o *GridObject) Capacity(id ResourceID) int {
	return o.Capacities[id]
}

// AddResource adds delta (which may be negative) to resource id, clamping
// to [0, capacity]. It returns the actually-applied delta, which may be
// smaller in magnitude than requested when clamped.
func (o *GridObject) AddResource(id ResourceID, delta int) int {
	cur := o.Inventory[id]
	cap := o.Capacities[id]
	next := cur + delta
	if next < 0 {
		next = 0
	}
	if cap > 0 && next > cap {
		next = cap
	} else if cap == 0 && delta > 0 {
		// Unbounded-capacity resources (capacity not declared) are allowed
		// to grow; only declared resources clamp to their cap.
		if _, declared := o.Capacities[id]; declared {
			next = cur
		}
	}
	applied := next - cur
	if next == 0 {
		delete(o.Inventory, id)
	} else {
		o.Inventory[id] = next
	}
	return applied
}

// SetResource forcibly sets resource id to amount, clamped to capacity.
func (o *GridObject) SetResource(id ResourceID, amount int) {
	if amount < 0 {
		amount = 0
	}
	if cap, declared := o.Capacities[id]; declared && amount > cap {
		amount = cap
	}
	if amount == 0 {
		delete(o.Inventory, id)
	} else {
		o.Inventory[id] = amount
	}
}

// HasTag reports tag membership.
func (o *GridObject) HasTag(id TagID) bool { return o.TagBits.Has(id) }

// Agent specializes GridObject with action/reward/orientation state.
type Agent struct {
	GridObject
	AgentIdx        AgentID
	SpawnLocation   GridLocation
	Orientation     Direction
	FrozenUntilStep int
	LastAction      int32
	LastActionMoved bool
	LastReward      float32

	// Stats is the per-agent tracker named in spec §3's Agent type.
	Stats *stats.Tracker
}

// NewAgent constructs an Agent wrapping a freshly built GridObject.
func NewAgent(id ObjectID, agentIdx AgentID, typeID TypeID, loc GridLocation, capacities map[ResourceID]int) *Agent {
	obj := NewGridObject(id, typeID, LayerAgent, loc, capacities)
	return &Agent{
		GridObject:    *obj,
		AgentIdx:      agentIdx,
		SpawnLocation: loc,
		Stats:         stats.NewTracker(),
	}
}

// Direction is a compass orientation used by move/rotate/attack.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

// Offset returns the (drow, dcol) unit step for a direction.
func (d Direction) Offset() (int, int) {
	switch d {
	case North:
		return -1, 0
	case South:
		return 1, 0
	case East:
		return 0, 1
	case West:
		return 0, -1
	}
	return 0, 0
}

// Frozen reports whether the agent cannot act at currentStep.
func (a *Agent) Frozen(currentStep int) bool {
	return currentStep < a.FrozenUntilStep
}

// Collective is a team/faction with shared inventory and alignment.
type Collective struct {
	ID        CollectiveID
	Name      string
	Inventory map[ResourceID]int

	// Stats holds both ordinary named stats (Mutation Stats with
	// scope=collective) and the "held_stats" counters that
	// Environment.updateHeldStats accumulates once per tick for each
	// aligned member, per spec §3.
	Stats *stats.Tracker
}

// NewCollective constructs an empty collective.
func NewCollective(id CollectiveID, name string) *Collective {
	return &Collective{
		ID:        id,
		Name:      name,
		Inventory: make(map[ResourceID]int),
		Stats:     stats.NewTracker(),
	}
}
