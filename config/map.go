package config

import (
	"github.com/metta-ai/mettagrid/grid"
)

// emptyCellKeys are the map-string tokens spec §6 reserves for "no
// object here".
var emptyCellKeys = map[string]bool{"empty": true, ".": true, " ": true}

// ParseMap builds a Grid from rows (a 2D array of cell strings) and cfg's
// object templates, returning a BuildError for any cell key that is
// neither an empty marker nor a registered object name. Initial tags are
// set directly on each object's TagBits; the caller must still register
// every placed object with a tagindex.Index (which reads TagBits, not the
// other way around) before the tag index is consistent.
func ParseMap(cfg *GameConfig, rows [][]string) (*grid.Grid, []*grid.GridObject, error) {
	if len(rows) == 0 {
		return nil, nil, newBuildError("map has zero rows")
	}
	height := uint16(len(rows))
	width := uint16(len(rows[0]))
	g := grid.NewGrid(height, width)

	var placed []*grid.GridObject
	for r, row := range rows {
		if uint16(len(row)) != width {
			return nil, nil, newBuildError("map row %d has width %d, expected %d", r, len(row), width)
		}
		for c, key := range row {
			if emptyCellKeys[key] {
				continue
			}
			tmpl, ok := cfg.Objects[key]
			if !ok {
				return nil, nil, newBuildError("unknown object type %q at (%d,%d)", key, r, c)
			}
			obj := grid.NewGridObject(
				grid.InvalidObjectID,
				grid.TypeID(tmpl.TypeID),
				grid.Layer(tmpl.Layer),
				grid.GridLocation{Row: uint16(r), Col: uint16(c)},
				toResourceCapacities(tmpl.Capacities),
			)
			for _, t := range tmpl.Tags {
				obj.TagBits.Set(grid.TagID(t))
			}
			if err := g.AddObject(obj); err != nil {
				return nil, nil, newBuildError("placing %q at (%d,%d): %v", key, r, c, err)
			}
			placed = append(placed, obj)
		}
	}
	return g, placed, nil
}

func toResourceCapacities(in map[uint16]int) map[grid.ResourceID]int {
	out := make(map[grid.ResourceID]int, len(in))
	for k, v := range in {
		out[grid.ResourceID(k)] = v
	}
	return out
}
