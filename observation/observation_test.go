package observation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/tagindex"
)

func testConfig() Config {
	return Config{
		ObsHeight: 5,
		ObsWidth:  5,
		Features: FeatureIDs{
			EpisodeCompletionPct: 1, LastAction: 2, LastActionMoveBit: 3, LastReward: 4,
			Goal: 5, PositionNorth: 6, PositionSouth: 7, PositionEast: 8, PositionWest: 9,
			AOEMask: 10, Territory: 11, CollectiveID: 12, Vibe: 13, Tag: 14, InventoryBase: 100,
		},
		TokenValueBase: 1,
	}
}

func TestEncodersProduceIdenticalOutput(t *testing.T) {
	Convey("Given a populated grid and an agent with inventory, tags, and a neighbor", t, func() {
		g := grid.NewGrid(10, 10)
		idx := tagindex.NewIndex()
		agent := grid.NewAgent(grid.InvalidObjectID, 0, 1, grid.GridLocation{Row: 5, Col: 5}, map[grid.ResourceID]int{3: 10})
		agent.SetResource(3, 4)
		agent.LastAction = 2
		agent.LastActionMoved = true
		agent.LastReward = 0.5
		So(g.AddAgent(agent), ShouldBeNil)

		neighbor := grid.NewGridObject(grid.InvalidObjectID, 2, grid.LayerObject, grid.GridLocation{Row: 5, Col: 6}, map[grid.ResourceID]int{1: 5})
		neighbor.SetResource(1, 5)
		neighbor.Vibe = 9
		So(g.AddObject(neighbor), ShouldBeNil)
		idx.RegisterObject(neighbor)
		idx.OnTagAdded(neighbor, 7)

		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))
		cfg := testConfig()

		enc, err := NewEncoder(cfg)
		So(err, ShouldBeNil)

		Convey("EncodeOriginal and EncodeOptimized produce the same tokens", func() {
			original := EncodeOriginal(agent, ctx, nil, cfg, 0.42, 10)
			optimized := enc.EncodeOptimized(agent, ctx, nil, 0.42, 10)
			So(optimized, ShouldResemble, original)
			So(len(original), ShouldBeGreaterThan, 0)
		})

		Convey("calling EncodeOptimized twice does not leak state between calls", func() {
			first := append([]Token{}, enc.EncodeOptimized(agent, ctx, nil, 0.42, 10)...)
			second := enc.EncodeOptimized(agent, ctx, nil, 0.42, 10)
			So(second, ShouldResemble, first)
		})
	})
}

func TestSpatialInventoryTokensAreSortedByResourceID(t *testing.T) {
	Convey("Given a neighbor holding several inventory resources", t, func() {
		g := grid.NewGrid(10, 10)
		idx := tagindex.NewIndex()
		agent := grid.NewAgent(grid.InvalidObjectID, 0, 1, grid.GridLocation{Row: 5, Col: 5}, nil)
		So(g.AddAgent(agent), ShouldBeNil)

		neighbor := grid.NewGridObject(grid.InvalidObjectID, 2, grid.LayerObject, grid.GridLocation{Row: 5, Col: 6},
			map[grid.ResourceID]int{5: 1, 1: 1, 9: 1, 3: 1})
		neighbor.SetResource(5, 7)
		neighbor.SetResource(1, 3)
		neighbor.SetResource(9, 2)
		neighbor.SetResource(3, 4)
		So(g.AddObject(neighbor), ShouldBeNil)
		idx.RegisterObject(neighbor)

		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))
		cfg := testConfig()
		enc, err := NewEncoder(cfg)
		So(err, ShouldBeNil)

		Convey("every call emits the neighbor's inventory tokens in ascending resource id order", func() {
			for i := 0; i < 5; i++ {
				tokens := enc.EncodeOptimized(agent, ctx, nil, 0, 10)
				var featureIDs []uint8
				for _, tok := range tokens {
					if tok.FeatureID >= cfg.Features.InventoryBase {
						featureIDs = append(featureIDs, tok.FeatureID)
					}
				}
				So(featureIDs, ShouldResemble, []uint8{
					cfg.Features.InventoryBase + 1,
					cfg.Features.InventoryBase + 3,
					cfg.Features.InventoryBase + 5,
					cfg.Features.InventoryBase + 9,
				})
			}
		})
	})
}

func TestEncoderRejectsEvenWindow(t *testing.T) {
	Convey("Given an even obs_width", t, func() {
		_, err := NewEncoder(Config{ObsHeight: 5, ObsWidth: 4})
		So(err, ShouldNotBeNil)
	})
}

func TestVisitedStampedOnScan(t *testing.T) {
	Convey("Given an unvisited neighbor cell", t, func() {
		g := grid.NewGrid(10, 10)
		idx := tagindex.NewIndex()
		agent := grid.NewAgent(grid.InvalidObjectID, 0, 1, grid.GridLocation{Row: 5, Col: 5}, nil)
		So(g.AddAgent(agent), ShouldBeNil)
		neighbor := grid.NewGridObject(grid.InvalidObjectID, 2, grid.LayerObject, grid.GridLocation{Row: 5, Col: 6}, nil)
		So(g.AddObject(neighbor), ShouldBeNil)
		ctx := handler.NewContext(g, idx, nil, nil, nil, rng.New(1))
		cfg := testConfig()

		Convey("encoding stamps the neighbor's Visited with the current step", func() {
			EncodeOriginal(agent, ctx, nil, cfg, 0, 42)
			So(neighbor.Visited, ShouldEqual, 42)
		})
	})
}
