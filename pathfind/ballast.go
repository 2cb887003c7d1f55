package pathfind

import (
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// BallastRules transforms a mover's state after it steps onto a cell
// (spec §4.4: "permanent ballast rules... may flip the unit's
// amphibious mode, consume fuel, rotate direction, etc.") — which
// transformation applies depends on the terrain entered, so the rule
// table itself is external configuration, not hard-coded here.
type BallastRules interface {
	Apply(g *event.Game, rb *rulebook.Rulebook, mover MoverState, at maps.Point) MoverState
}

// NoBallast is the identity rule set, used by callers that don't model
// terrain-driven unit transformation.
type NoBallast struct{}

func (NoBallast) Apply(g *event.Game, rb *rulebook.Rulebook, mover MoverState, at maps.Point) MoverState {
	return mover
}

// TerrainMovementTypeRules swaps a mover's movement type whenever it
// enters a terrain type with a configured override — the concrete
// shape of "permanent ballast" the spec names (e.g. a unit wading into
// water that switches it from a wheeled to an amphibious movement
// type).
type TerrainMovementTypeRules struct {
	// OverrideByTerrain maps terrain type index -> movement type to
	// switch the mover to upon entry.
	OverrideByTerrain map[int]int
}

func (r TerrainMovementTypeRules) Apply(g *event.Game, rb *rulebook.Rulebook, mover MoverState, at maps.Point) MoverState {
	terrain := g.Cell(at).Terrain
	if terrain == nil {
		return mover
	}
	if mt, ok := r.OverrideByTerrain[terrain.TypeIndex]; ok {
		mover.MovementType = mt
	}
	return mover
}

// EffectStepKind discriminates EffectStep's Replace marker (spec §4.4:
// "an effect path records per-step EffectStep entries that can carry
// Replace(old, step, Some(new_unit)) markers at exactly those
// transitions").
type EffectStepKind uint8

const (
	EffectPlain EffectStepKind = iota
	EffectReplace
)

// EffectStep is one annotated step of a resolved path, built by
// BuildEffectPath by diffing consecutive MoverState snapshots along a
// Result path.
type EffectStep struct {
	Node EffectStepKind
	Step Step
	Old  *entity.Unit
	New  *entity.Unit
}

// BuildEffectPath walks path, re-deriving the mover state at each node
// through rules and emitting a Replace entry at every step that
// changed the unit's effective type (spec §4.4's "Replace(old, step,
// Some(new_unit))"). buildUnit maps a (owner, movementType) pair to the
// concrete unit snapshot that movement type represents, since the core
// keeps unit-type <-> movement-type association as external config.
func BuildEffectPath(g *event.Game, rb *rulebook.Rulebook, origin *entity.Unit, path []PathNode, rules BallastRules, buildUnit func(movementType int) *entity.Unit) []EffectStep {
	mover := MoverState{Owner: origin.Owner(), MovementType: origin.TypeIndex}
	out := make([]EffectStep, 0, len(path))
	prevType := mover.MovementType
	for _, node := range path {
		next := rules.Apply(g, rb, mover, node.At.Point)
		if next.MovementType != prevType {
			out = append(out, EffectStep{
				Node: EffectReplace,
				Step: node.Step,
				Old:  buildUnit(prevType),
				New:  buildUnit(next.MovementType),
			})
			prevType = next.MovementType
		} else {
			out = append(out, EffectStep{Node: EffectPlain, Step: node.Step})
		}
		mover = next
	}
	return out
}
