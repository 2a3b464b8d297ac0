package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
)

func baseConfig() *GameConfig {
	return &GameConfig{
		ObsHeight: 5, ObsWidth: 5,
		Objects: map[string]ObjectTemplate{
			"wall":  {TypeID: 1, Name: "wall", Layer: int(grid.LayerObject)},
			"altar": {TypeID: 2, Name: "altar", Layer: int(grid.LayerObject), Tags: []uint16{3}},
		},
	}
}

func TestValidateRejectsDuplicateTypeID(t *testing.T) {
	Convey("Given two object templates sharing a type id under different names", t, func() {
		cfg := baseConfig()
		cfg.Objects["rock"] = ObjectTemplate{TypeID: 1, Name: "rock", Layer: int(grid.LayerObject)}

		Convey("Validate reports a BuildError", func() {
			err := cfg.Validate()
			So(err, ShouldNotBeNil)
			_, ok := err.(*BuildError)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestValidateRejectsEvenObsWindow(t *testing.T) {
	Convey("Given an even obs_height", t, func() {
		cfg := baseConfig()
		cfg.ObsHeight = 4
		So(cfg.Validate(), ShouldNotBeNil)
	})
}

func TestParseMapBuildsGridAndRejectsUnknownKeys(t *testing.T) {
	Convey("Given a 3x3 map referencing a known and an unknown type", t, func() {
		cfg := baseConfig()

		Convey("a known key places an object with its tags set", func() {
			rows := [][]string{
				{".", ".", "."},
				{".", "altar", "."},
				{".", ".", "."},
			}
			g, placed, err := ParseMap(cfg, rows)
			So(err, ShouldBeNil)
			So(len(placed), ShouldEqual, 1)
			So(placed[0].HasTag(3), ShouldBeTrue)
			So(g.ObjectAt(grid.GridLocation{Row: 1, Col: 1}, grid.LayerObject), ShouldNotBeNil)
		})

		Convey("an unknown key fails with a BuildError", func() {
			rows := [][]string{{"bogus"}}
			_, _, err := ParseMap(cfg, rows)
			So(err, ShouldNotBeNil)
			_, ok := err.(*BuildError)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestRegistryResolvesOnUse(t *testing.T) {
	Convey("Given a type with an on_use handler installed", t, func() {
		cfg := baseConfig()
		tmpl := cfg.Objects["altar"]
		tmpl.OnUse = &handler.Handler{}
		cfg.Objects["altar"] = tmpl

		reg := NewRegistry(cfg)

		Convey("OnUse returns the installed bundle for that type", func() {
			So(reg.OnUse(2), ShouldNotBeNil)
			So(reg.OnUse(1), ShouldBeNil)
		})
	})
}
