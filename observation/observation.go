// Package observation implements the ObservationEncoder (subsystem K):
// per-agent token encoding with two paths required to produce
// byte-identical output. Both call the same token builders; they differ in
// where the cell offsets come from (EncodeOriginal recomputes them per
// call; EncodeOptimized reuses a precomputed offset table and scratch
// buffer).
package observation

import (
	"sort"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/queryspec"
)

const (
	// GlobalLoc is the reserved location byte for global (non-spatial)
	// tokens.
	GlobalLoc uint8 = 0xFE
	// EmptyLoc marks a token slot as empty/unused.
	EmptyLoc uint8 = 0xFF
	// MaxObsDim is the largest odd obs_height/obs_width the 4-bit packed
	// coordinate can address (max packable coordinate is 14).
	MaxObsDim = 15
)

// Token is one ObservationToken: (location, feature_id, value).
type Token struct {
	Location  uint8
	FeatureID uint8
	Value     uint8
}

// FeatureIDs names every feature id this encoder emits, threaded in as a
// constructor argument rather than held as package globals (per the design
// note against hidden global state).
type FeatureIDs struct {
	EpisodeCompletionPct uint8
	LastAction           uint8
	LastActionMoveBit    uint8
	LastReward           uint8
	Goal                 uint8
	PositionNorth        uint8
	PositionSouth        uint8
	PositionEast         uint8
	PositionWest         uint8
	AOEMask              uint8
	Territory            uint8
	CollectiveID         uint8
	Vibe                 uint8
	Tag                  uint8
	InventoryBase        uint8
}

// ObsValue is one configured global feature resolved from a GameValue at
// encode time.
type ObsValue struct {
	FeatureID uint8
	Value     queryspec.GameValue
}

// Config parameterises an Encoder: window shape, feature ids, the
// reward-relevant "goal" resources, and any extra obs_value features.
type Config struct {
	ObsHeight      int
	ObsWidth       int
	Features       FeatureIDs
	GoalResources  []grid.ResourceID
	ObsValues      []ObsValue
	TokenValueBase int
}

type offset struct{ dr, dc int }

// Encoder holds the precomputed Manhattan-ordered offset table used by
// EncodeOptimized and a reusable scratch buffer.
type Encoder struct {
	cfg     Config
	offsets []offset
	scratch []Token
}

// Config returns the encoder's resolved configuration, for callers (the
// METTAGRID_OBS_VALIDATION shadow-path comparator) that need to invoke
// EncodeOriginal with the exact same settings EncodeOptimized was built
// from.
func (e *Encoder) Config() Config {
	return e.cfg
}

// NewEncoder validates the window shape (odd, <= MaxObsDim on each axis)
// and precomputes the Manhattan-distance-ordered offset table.
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.ObsHeight%2 == 0 || cfg.ObsWidth%2 == 0 {
		return nil, errOddWindow
	}
	if cfg.ObsHeight > MaxObsDim || cfg.ObsWidth > MaxObsDim {
		return nil, errWindowTooLarge
	}
	if cfg.TokenValueBase <= 0 {
		cfg.TokenValueBase = 1
	}
	return &Encoder{cfg: cfg, offsets: manhattanOffsets(cfg.ObsHeight, cfg.ObsWidth)}, nil
}

func manhattanOffsets(height, width int) []offset {
	rh, rw := (height-1)/2, (width-1)/2
	offs := make([]offset, 0, height*width)
	for dr := -rh; dr <= rh; dr++ {
		for dc := -rw; dc <= rw; dc++ {
			offs = append(offs, offset{dr, dc})
		}
	}
	sort.SliceStable(offs, func(i, j int) bool {
		di := abs(offs[i].dr) + abs(offs[i].dc)
		dj := abs(offs[j].dr) + abs(offs[j].dc)
		if di != dj {
			return di < dj
		}
		if offs[i].dr != offs[j].dr {
			return offs[i].dr < offs[j].dr
		}
		return offs[i].dc < offs[j].dc
	})
	return offs
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func pack(row, col int) uint8 {
	return uint8((row << 4) | col)
}

func clamp255(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
