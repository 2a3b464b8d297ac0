// Package config implements the construction-time configuration surface:
// GameConfig, construction validation (BuildError), the map-string parser,
// the per-type handler registry, and YAML scenario loading.
package config

import (
	"fmt"

	"github.com/metta-ai/mettagrid/event"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/observation"
	"github.com/metta-ai/mettagrid/queryspec"
)

// BuildError is a configuration error raised at construction time:
// unknown object type in the map, a duplicate type id bound to a
// different name, an oversized observation window, or contradictory
// feature ids. Construction must abort on any BuildError, never partially
// build a world.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string { return "mettagrid: configuration error: " + e.Reason }

func newBuildError(format string, args ...any) *BuildError {
	return &BuildError{Reason: fmt.Sprintf(format, args...)}
}

// ObjectTemplate is one entry in GameConfig.Objects: everything needed to
// stamp out a GridObject of a given type from the map.
type ObjectTemplate struct {
	TypeID      uint16
	Name        string
	Layer       int // grid.Layer, kept as int here to avoid importing grid for a 2-value enum
	Capacities  map[uint16]int
	Tags        []uint16
	OnUse       *handler.Handler
	OnTick      *handler.Handler
	OnTagAdd    map[uint16]*handler.Handler
	OnTagRemove map[uint16]*handler.Handler
}

// GameConfig is the full construction input: agent count, observation
// window, resource/vibe/tag naming, object templates, event/query configs,
// and collective roster.
type GameConfig struct {
	NumAgents            int
	ObsHeight, ObsWidth  int
	MaxSteps             int
	EpisodeTruncates     bool
	ResourceNames        map[uint16]string
	VibeNames            map[uint8]string
	NumObservationTokens int
	FeatureIDs           observation.FeatureIDs
	TokenValueBase       int
	Objects              map[string]ObjectTemplate
	TagIDMap             map[string]uint16
	CollectiveNames      []string
	Events               []event.Config
	Queries              []queryspec.Config
}

// Validate checks the configuration errors detectable without the map: an
// even obs_height or obs_width, an observation window larger than
// MaxObsDim, and a type id bound to two different object names. Resource
// and vibe naming tables are not checked.
func (c *GameConfig) Validate() error {
	if c.ObsHeight%2 == 0 || c.ObsWidth%2 == 0 {
		return newBuildError("obs_height and obs_width must both be odd, got %dx%d", c.ObsHeight, c.ObsWidth)
	}
	if c.ObsHeight > observation.MaxObsDim || c.ObsWidth > observation.MaxObsDim {
		return newBuildError("obs_height and obs_width must each be <= %d, got %dx%d", observation.MaxObsDim, c.ObsHeight, c.ObsWidth)
	}
	seen := make(map[uint16]string, len(c.Objects))
	for name, tmpl := range c.Objects {
		if other, ok := seen[tmpl.TypeID]; ok && other != name {
			return newBuildError("type_id %d is bound to both %q and %q", tmpl.TypeID, other, name)
		}
		seen[tmpl.TypeID] = name
	}
	return nil
}
