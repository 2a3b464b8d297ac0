package observation

import (
	"sort"

	"github.com/metta-ai/mettagrid/aoe"
	"github.com/metta-ai/mettagrid/grid"
	"github.com/metta-ai/mettagrid/handler"
	"github.com/metta-ai/mettagrid/queryspec"
)

// RoundReward rounds a reward to an int the way last-reward tokens and
// reward-adjacent stats both must, so the two agree bit-for-bit.
func RoundReward(r float32) int {
	return queryspec.RoundReward(r)
}

func globalTokens(agent *grid.Agent, ctx *handler.Context, cfg Config, episodeCompletionPct float64, gridHeight, gridWidth int) []Token {
	f := cfg.Features
	out := make([]Token, 0, 4+len(cfg.GoalResources)+4+len(cfg.ObsValues))

	out = append(out, Token{GlobalLoc, f.EpisodeCompletionPct, clamp255(int(episodeCompletionPct * 255))})
	out = append(out, Token{GlobalLoc, f.LastAction, clamp255(int(agent.LastAction))})
	moveBit := 0
	if agent.LastActionMoved {
		moveBit = 1
	}
	out = append(out, Token{GlobalLoc, f.LastActionMoveBit, clamp255(moveBit)})
	out = append(out, Token{GlobalLoc, f.LastReward, clamp255(RoundReward(agent.LastReward))})

	for _, res := range cfg.GoalResources {
		out = append(out, Token{GlobalLoc, f.Goal, clamp255(int(res))})
	}

	row, col := int(agent.Location.Row), int(agent.Location.Col)
	out = append(out, Token{GlobalLoc, f.PositionNorth, clamp255(row)})
	out = append(out, Token{GlobalLoc, f.PositionSouth, clamp255(gridHeight - 1 - row)})
	out = append(out, Token{GlobalLoc, f.PositionWest, clamp255(col)})
	out = append(out, Token{GlobalLoc, f.PositionEast, clamp255(gridWidth - 1 - col)})

	for _, ov := range cfg.ObsValues {
		v := ov.Value
		out = append(out, Token{GlobalLoc, ov.FeatureID, clamp255(int(v.Read(ctx)))})
	}
	return out
}

func spatialTokens(agent *grid.Agent, ctx *handler.Context, tracker *aoe.Tracker, offsets []offset, cfg Config, currentStep int) []Token {
	f := cfg.Features
	out := make([]Token, 0, len(offsets)*4)
	g := ctx.Grid

	for _, off := range offsets {
		row := int(agent.Location.Row) + off.dr
		col := int(agent.Location.Col) + off.dc
		if row < 0 || col < 0 || row >= int(g.Height) || col >= int(g.Width) {
			continue
		}
		loc := grid.GridLocation{Row: uint16(row), Col: uint16(col)}
		packedLoc := packRelative(off.dr, off.dc, cfg.ObsHeight, cfg.ObsWidth)

		if tracker != nil {
			mask, territory := tracker.FixedObservabilityAt(loc, agent.Collective)
			if mask != aoe.Neutral {
				out = append(out, Token{packedLoc, f.AOEMask, uint8(mask)})
			}
			if territory != aoe.Neutral {
				out = append(out, Token{packedLoc, f.Territory, uint8(territory)})
			}
		}

		for _, layer := range []grid.Layer{grid.LayerObject, grid.LayerAgent} {
			obj := g.ObjectAt(loc, layer)
			if obj == nil {
				continue
			}
			obj.Visited = currentStep
			if obj.Collective != grid.NoCollective {
				out = append(out, Token{packedLoc, f.CollectiveID, clamp255(int(obj.Collective))})
			}
			obj.TagBits.ForEach(func(tag grid.TagID) {
				out = append(out, Token{packedLoc, f.Tag, clamp255(int(tag))})
			})
			if obj.Vibe != 0 {
				out = append(out, Token{packedLoc, f.Vibe, obj.Vibe})
			}
			// obj.Inventory is a map; range order is runtime-randomized, so
			// resource ids are sorted before emission to keep spatial
			// inventory tokens byte-identical across runs (Testable
			// Property 1) once an object holds 2+ resources.
			resIDs := make([]grid.ResourceID, 0, len(obj.Inventory))
			for resID := range obj.Inventory {
				resIDs = append(resIDs, resID)
			}
			sort.Slice(resIDs, func(i, j int) bool { return resIDs[i] < resIDs[j] })
			for _, resID := range resIDs {
				amount := obj.Inventory[resID]
				packedVal := clamp255(amount / cfg.TokenValueBase)
				out = append(out, Token{packedLoc, f.InventoryBase + uint8(resID), packedVal})
			}
		}
	}
	return out
}

// packRelative packs the cell's position within the observation window
// (not its absolute grid coordinate) into the 4-bit-per-axis byte.
func packRelative(dr, dc, obsHeight, obsWidth int) uint8 {
	rh, rw := (obsHeight-1)/2, (obsWidth-1)/2
	return pack(dr+rh, dc+rw)
}

// EncodeOriginal is the pattern-generator path: it recomputes the
// Manhattan-ordered offset table on every call rather than reusing a
// precomputed one.
func EncodeOriginal(agent *grid.Agent, ctx *handler.Context, tracker *aoe.Tracker, cfg Config, episodeCompletionPct float64, currentStep int) []Token {
	offsets := manhattanOffsets(cfg.ObsHeight, cfg.ObsWidth)
	tokens := globalTokens(agent, ctx, cfg, episodeCompletionPct, int(ctx.Grid.Height), int(ctx.Grid.Width))
	tokens = append(tokens, spatialTokens(agent, ctx, tracker, offsets, cfg, currentStep)...)
	return tokens
}

// EncodeOptimized reuses the Encoder's precomputed offset table and
// scratch buffer. Must produce output byte-identical to EncodeOriginal.
func (e *Encoder) EncodeOptimized(agent *grid.Agent, ctx *handler.Context, tracker *aoe.Tracker, episodeCompletionPct float64, currentStep int) []Token {
	e.scratch = e.scratch[:0]
	e.scratch = append(e.scratch, globalTokens(agent, ctx, e.cfg, episodeCompletionPct, int(ctx.Grid.Height), int(ctx.Grid.Width))...)
	e.scratch = append(e.scratch, spatialTokens(agent, ctx, tracker, e.offsets, e.cfg, currentStep)...)
	return e.scratch
}
