package pathfind

import (
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// MoverState is the part of a unit's in-progress movement that a step
// can legally depend on and that ballast rules may rewrite en route
// (spec §4.4: "consult permanent ballast rules... that may flip the
// unit's amphibious mode").
type MoverState struct {
	Owner          int
	MovementType   int
	MovementPattern rulebook.MovementPattern
}

func invisibleToMover(g *event.Game, ownerTeam int, p maps.Point) bool {
	tf := g.TeamFog[ownerTeam]
	if tf == nil {
		return true
	}
	intensity, visible := tf.Intensity[p]
	return !visible || intensity == fogmap.Dark
}

// StepLegal reports whether stepping onto dest is legal for a mover in
// the given state (spec §4.4 "Step legality"): the destination
// terrain's movement-cost table must accept the mover's current
// movement type, and an enemy unit occupying the cell blocks the step
// unless it is currently invisible to the mover's team.
func StepLegal(g *event.Game, rb *rulebook.Rulebook, mover MoverState, moverTeam int, dest maps.Point) (Cost, bool) {
	cell := g.Cell(dest)
	cost, ok := terrainCost(rb, cell.Terrain, mover.MovementType)
	if !ok {
		return Cost{}, false
	}
	if cell.Unit == nil {
		return cost, true
	}
	if cell.Unit.Owner() == mover.Owner {
		return cost, passableByPattern(mover.MovementPattern)
	}
	if invisibleToMover(g, moverTeam, dest) {
		return cost, true
	}
	return cost, false
}

func terrainCost(rb *rulebook.Rulebook, terrain *entity.Terrain, movementType int) (Cost, bool) {
	if terrain == nil {
		return rational.Zero, true
	}
	row, ok := rb.Terrains.Row(terrain.TypeIndex)
	if !ok {
		return Cost{}, false
	}
	cost, ok := row.MovementCost[movementType]
	return cost, ok
}

func passableByPattern(p rulebook.MovementPattern) bool {
	return p == rulebook.MovementStandard || p == rulebook.MovementStandardLoopLess
}
