package mettagrid

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/metta-ai/mettagrid/action"
	"github.com/metta-ai/mettagrid/aoe"
	"github.com/metta-ai/mettagrid/config"
	"github.com/metta-ai/mettagrid/event"
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/observation"
	"github.com/metta-ai/mettagrid/query"
	"github.com/metta-ai/mettagrid/queryspec"
	"github.com/metta-ai/mettagrid/reward"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/stats"
	"github.com/metta-ai/mettagrid/tagindex"
)

const (
	resOre grid.ResourceID = 1
)

// newFixture builds a minimal 3x1 world: agent 0 at (0,0), an empty cell
// at (0,1), agent 1 at (0,2). Action table: 0=noop, 1=move-east, 2=move-west.
func newFixture(maxSteps int, truncates bool) *Environment {
	g := grid.NewGrid(1, 3)
	tags := tagindex.NewIndex()
	collectives := map[grid.CollectiveID]*grid.Collective{}
	gameStats := stats.NewTracker()
	source := rng.New(42)
	queries := query.NewSystem(tags, source)
	tracker := aoe.NewTracker()
	sched := event.NewScheduler(tags, nil)
	registry := config.NewRegistry(&config.GameConfig{})

	encCfg := observation.Config{
		ObsHeight: 1, ObsWidth: 3,
		Features:       observation.FeatureIDs{LastAction: 1, LastReward: 2},
		TokenValueBase: 1,
	}
	enc, err := observation.NewEncoder(encCfg)
	if err != nil {
		panic(err)
	}

	a0 := grid.NewAgent(0, 0, 10, grid.GridLocation{Row: 0, Col: 0}, map[grid.ResourceID]int{resOre: 10})
	a1 := grid.NewAgent(1, 1, 10, grid.GridLocation{Row: 0, Col: 2}, map[grid.ResourceID]int{resOre: 10})
	if err := g.AddAgent(a0); err != nil {
		panic(err)
	}
	if err := g.AddAgent(a1); err != nil {
		panic(err)
	}

	rewardEntries := []reward.Entry{{
		Numerator: queryspec.ConstValue(0),
		Weight:    0,
	}}
	helpers := []*reward.Helper{reward.NewHelper(rewardEntries), reward.NewHelper(rewardEntries)}

	actionTable := []ActionBinding{
		{Handler: action.Noop{}, Arg: 0},
		{Handler: action.Move{Allowed: []grid.Direction{grid.East}}, Arg: 0},
		{Handler: action.Move{Allowed: []grid.Direction{grid.West}}, Arg: 0},
	}

	env := NewEnvironment(g, tags, collectives, gameStats, queries, tracker, sched, source,
		registry, enc, []*grid.Agent{a0, a1}, helpers, actionTable, 9, maxSteps, truncates)
	return env
}

func TestEnvironmentStepNoopIsDeterministic(t *testing.T) {
	Convey("Given a fresh environment with every agent issuing noop", t, func() {
		env := newFixture(0, false)
		obs := make([]byte, 2*9*3)
		terms := make([]bool, 2)
		truncs := make([]bool, 2)
		rewards := make([]float32, 2)
		actions := make([]int32, 2)
		So(env.SetBuffers(obs, terms, truncs, rewards, actions), ShouldBeNil)

		Convey("stepping does not move either agent and leaves both inventories untouched", func() {
			env.Step()
			So(env.Agents[0].Location, ShouldResemble, grid.GridLocation{Row: 0, Col: 0})
			So(env.Agents[1].Location, ShouldResemble, grid.GridLocation{Row: 0, Col: 2})
			So(env.Agents[0].ResourceAmount(resOre), ShouldEqual, 0)
			So(env.Agents[1].ResourceAmount(resOre), ShouldEqual, 0)
			So(env.CurrentStep, ShouldEqual, 1)
		})
	})
}

func TestEnvironmentMoveActionRelocatesAgent(t *testing.T) {
	Convey("Given agent 0 issuing move-east into open ground", t, func() {
		env := newFixture(0, false)
		obs := make([]byte, 2*9*3)
		terms := make([]bool, 2)
		truncs := make([]bool, 2)
		rewards := make([]float32, 2)
		actions := make([]int32, 2)
		So(env.SetBuffers(obs, terms, truncs, rewards, actions), ShouldBeNil)

		actions[0] = 1 // move-east

		Convey("the agent's location updates and action_success is true", func() {
			env.Step()
			So(env.Agents[0].Location, ShouldResemble, grid.GridLocation{Row: 0, Col: 1})
			So(env.ActionSuccess(0), ShouldBeTrue)
		})
	})
}

func TestEnvironmentTruncatesAtMaxSteps(t *testing.T) {
	Convey("Given an environment with max_steps=2 and episode_truncates", t, func() {
		env := newFixture(2, true)
		obs := make([]byte, 2*9*3)
		terms := make([]bool, 2)
		truncs := make([]bool, 2)
		rewards := make([]float32, 2)
		actions := make([]int32, 2)
		So(env.SetBuffers(obs, terms, truncs, rewards, actions), ShouldBeNil)

		env.Step()
		So(truncs[0], ShouldBeFalse)
		env.Step()

		Convey("truncations are set and terminals stay false", func() {
			So(truncs[0], ShouldBeTrue)
			So(truncs[1], ShouldBeTrue)
			So(terms[0], ShouldBeFalse)
		})
	})
}

func TestSetBuffersRejectsWrongShape(t *testing.T) {
	Convey("Given an environment expecting 2 agents", t, func() {
		env := newFixture(0, false)

		Convey("a mismatched observations buffer is rejected", func() {
			err := env.SetBuffers(make([]byte, 10), make([]bool, 2), make([]bool, 2), make([]float32, 2), make([]int32, 2))
			So(err, ShouldNotBeNil)
			_, ok := err.(*ErrBufferShape)
			So(ok, ShouldBeTrue)
		})
	})
}
