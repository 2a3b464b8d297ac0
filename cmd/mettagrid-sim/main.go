/*
mettagrid-sim drives a handful of MettaGrid environments to completion and,
optionally, serves a live telemetry dashboard of the first one while it
runs. It exists to exercise the whole subsystem stack end to end outside
of a test fixture: a real GameConfig, a parsed map, and batch.Runner
stepping several environments concurrently, the way the teacher's
tabular/main.go drives its own racetrack trainer then serves its state
values.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/metta-ai/mettagrid"
	"github.com/metta-ai/mettagrid/action"
	"github.com/metta-ai/mettagrid/aoe"
	"github.com/metta-ai/mettagrid/batch"
	"github.com/metta-ai/mettagrid/config"
	"github.com/metta-ai/mettagrid/event"
	"github.com/metta-ai/mettagrid/filter"
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/mutation"
	"github.com/metta-ai/mettagrid/observation"
	"github.com/metta-ai/mettagrid/query"
	"github.com/metta-ai/mettagrid/queryspec"
	"github.com/metta-ai/mettagrid/reward"
	"github.com/metta-ai/mettagrid/rng"
	"github.com/metta-ai/mettagrid/stats"
	"github.com/metta-ai/mettagrid/tagindex"
	"github.com/metta-ai/mettagrid/telemetry"
)

const (
	resOre grid.ResourceID = 0

	typeWall      grid.TypeID = 1
	typeGenerator grid.TypeID = 2
)

var (
	dbg      *bool
	nenvs    *int
	steps    *int
	host     *string
	port     *string
	serve    *bool
	scenario *string
	addr     string
)

// TODO: per 12-factor rules these should come from env/flags-of-flags; KISS for now.
func init() {
	dbg = flag.Bool("debug", false, "use the small 5x5 debug arena instead of the 11x11 one")
	nenvs = flag.Int("nenvs", runtime.NumCPU(), "number of environments to step concurrently")
	steps = flag.Int("steps", 200, "steps per episode")
	host = flag.String("host", "", "telemetry host ip")
	port = flag.String("port", "8080", "telemetry host port")
	serve = flag.Bool("serve", false, "serve a live telemetry dashboard of environment 0 while running")
	scenario = flag.String("scenario", "", "path to a scenario YAML file whose max_steps, when positive, overrides -steps")
	flag.Parse()
	addr = *host + ":" + *port
}

// debugArena is a small hand-built map for quick iteration.
var debugArena = []string{
	"#####",
	"#..g#",
	"#...#",
	"#g..#",
	"#####",
}

// fullArena is a larger map with more generators spread across it.
var fullArena = []string{
	"###########",
	"#.........#",
	"#.g.....g.#",
	"#.........#",
	"#....#....#",
	"#.g..#..g.#",
	"#....#....#",
	"#.........#",
	"#.g.....g.#",
	"#.........#",
	"###########",
}

func selectArena() []string {
	if *dbg {
		return debugArena
	}
	return fullArena
}

func arenaRows(lines []string) [][]string {
	rows := make([][]string, len(lines))
	for i, line := range lines {
		row := make([]string, len(line))
		for j, r := range line {
			row[j] = string(r)
		}
		rows[i] = row
	}
	return rows
}

// gameConfig builds the construction-time configuration for the demo
// arena: a wall object and a generator object whose on_use handler hands
// the actor one unit of ore, gated on the generator itself holding a
// supply (mirrored here via a capacity-backed resource pool rather than
// an inexhaustible tap).
func gameConfig() *config.GameConfig {
	generatorUse := &handler.Handler{
		Filters: []handler.Filter{
			&filter.Resource{Entity: queryspec.EntityTarget, ResourceID: resOre, MinAmount: 1},
		},
		Mutations: []handler.Mutation{
			&mutation.ResourceTransfer{
				Source: queryspec.EntityTarget, Destination: queryspec.EntityActor,
				ResourceID: resOre, Amount: 1,
			},
		},
	}

	return &config.GameConfig{
		NumAgents:            2,
		ObsHeight:            5,
		ObsWidth:             5,
		MaxSteps:             *steps,
		EpisodeTruncates:     true,
		ResourceNames:        map[uint16]string{uint16(resOre): "ore"},
		NumObservationTokens: 25,
		TokenValueBase:       1,
		FeatureIDs: observation.FeatureIDs{
			EpisodeCompletionPct: 1,
			LastAction:           2,
			LastReward:           3,
			InventoryBase:        10,
		},
		Objects: map[string]config.ObjectTemplate{
			"wall": {TypeID: uint16(typeWall), Name: "wall", Layer: int(grid.LayerObject)},
			"generator": {
				TypeID: uint16(typeGenerator), Name: "generator", Layer: int(grid.LayerObject),
				Capacities: map[uint16]int{uint16(resOre): 50},
				OnUse:      generatorUse,
			},
		},
	}
}

// buildEnvironment parses the arena map, places the agents on its first
// empty interior cells in row-major order, and wires every subsystem into a ready-to-step Environment —
// the composition root a real host driver (or this CLI) performs once
// per episode.
func buildEnvironment(seed uint32) (*mettagrid.Environment, error) {
	cfg := gameConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rows := arenaRows(selectArena())
	for r := range rows {
		for c := range rows[r] {
			if rows[r][c] == "g" {
				rows[r][c] = "generator"
			} else if rows[r][c] == "#" {
				rows[r][c] = "wall"
			} else {
				rows[r][c] = "empty"
			}
		}
	}

	g, placed, err := config.ParseMap(cfg, rows)
	if err != nil {
		return nil, fmt.Errorf("mettagrid-sim: parsing arena: %w", err)
	}
	for _, obj := range placed {
		if obj.TypeID == typeGenerator {
			obj.SetResource(resOre, obj.Capacity(resOre))
		}
	}

	tags := tagindex.NewIndex()
	for _, obj := range placed {
		tags.RegisterObject(obj)
	}

	source := rng.New(seed)
	registry := config.NewRegistry(cfg)
	gameStats := stats.NewTracker()
	queries := query.NewSystem(tags, source)
	aoeTracker := aoe.NewTracker()
	sched := event.NewScheduler(tags, cfg.Events)

	enc, err := observation.NewEncoder(observation.Config{
		ObsHeight: cfg.ObsHeight, ObsWidth: cfg.ObsWidth,
		Features: cfg.FeatureIDs, GoalResources: []grid.ResourceID{resOre},
		TokenValueBase: cfg.TokenValueBase,
	})
	if err != nil {
		return nil, err
	}

	agents := make([]*grid.Agent, 0, cfg.NumAgents)
	locations := openLocations(rows, cfg.NumAgents)
	for i, loc := range locations {
		a := grid.NewAgent(grid.InvalidObjectID, grid.AgentID(i), 100, loc, nil)
		if err := g.AddAgent(a); err != nil {
			return nil, fmt.Errorf("mettagrid-sim: placing agent %d: %w", i, err)
		}
		agents = append(agents, a)
	}

	rewardEntries := []reward.Entry{{
		Numerator:  queryspec.Inventory(queryspec.EntityActor, resOre),
		Weight:     1,
		Accumulate: true,
	}}
	helpers := make([]*reward.Helper, len(agents))
	for i := range agents {
		helpers[i] = reward.NewHelper(rewardEntries)
	}

	actionTable := []mettagrid.ActionBinding{
		{Handler: action.Noop{}, Arg: 0},
		{Handler: action.Move{Allowed: []grid.Direction{grid.North}}, Arg: 0},
		{Handler: action.Move{Allowed: []grid.Direction{grid.South}}, Arg: 0},
		{Handler: action.Move{Allowed: []grid.Direction{grid.East}}, Arg: 0},
		{Handler: action.Move{Allowed: []grid.Direction{grid.West}}, Arg: 0},
		{Handler: action.Use{Registry: registry}, Arg: 0},
	}

	env := mettagrid.NewEnvironment(g, tags, map[grid.CollectiveID]*grid.Collective{}, gameStats,
		queries, aoeTracker, sched, source, registry, enc, agents, helpers, actionTable,
		cfg.NumObservationTokens, cfg.MaxSteps, cfg.EpisodeTruncates)

	n := len(agents)
	if err := env.SetBuffers(
		make([]byte, n*cfg.NumObservationTokens*3),
		make([]bool, n), make([]bool, n),
		make([]float32, n), make([]int32, n),
	); err != nil {
		return nil, err
	}
	return env, nil
}

// openLocations picks the first n empty interior cells for agent
// placement, scanning rows top to bottom and each row left to right.
func openLocations(rows [][]string, n int) []grid.GridLocation {
	var out []grid.GridLocation
	for r := 1; r < len(rows)-1 && len(out) < n; r++ {
		for c := 1; c < len(rows[r])-1 && len(out) < n; c++ {
			if rows[r][c] == "empty" {
				out = append(out, grid.GridLocation{Row: uint16(r), Col: uint16(c)})
			}
		}
	}
	return out
}

func runApp() error {
	if *scenario != "" {
		sc, err := config.LoadScenario(*scenario)
		if err != nil {
			return fmt.Errorf("mettagrid-sim: loading scenario: %w", err)
		}
		if sc.Game.MaxSteps > 0 {
			*steps = sc.Game.MaxSteps
		}
	}

	envs := make([]*mettagrid.Environment, *nenvs)
	for i := range envs {
		env, err := buildEnvironment(uint32(i) + 1)
		if err != nil {
			return err
		}
		envs[i] = env
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *serve {
		snapshots := make(chan telemetry.Snapshot, 1)
		dash := telemetry.NewDashboard(appCtx, snapshots)
		srv := telemetry.NewServer(addr, dash, nil)
		go pushSnapshots(appCtx, envs[0], snapshots)
		go func() {
			if err := srv.Serve(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}()
	}

	runner := batch.NewRunner(*nenvs)
	results, total, err := runner.RunEpisodes(appCtx, envs, *steps)
	if err != nil {
		return fmt.Errorf("mettagrid-sim: running episodes: %w", err)
	}

	fmt.Printf("ran %d environments for %d steps each, total reward %.2f\n", len(results), *steps, total)
	for _, res := range results {
		fmt.Printf("  env %d: %v\n", res.EnvIndex, res.AgentRewards)
	}
	return nil
}

// pushSnapshots feeds the dashboard from env's live state at a fixed rate
// until ctx is cancelled, the same periodic-export role as the teacher's
// exportStates callback.
func pushSnapshots(ctx context.Context, env *mettagrid.Environment, out chan<- telemetry.Snapshot) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case out <- telemetry.BuildSnapshot(env):
			case <-ctx.Done():
				return
			}
		}
	}
}

func main() {
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
