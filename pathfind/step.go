// Package pathfind implements movement path search (spec §4.4): a
// rational-cost Dijkstra over a small vocabulary of directed steps,
// with per-step legality checks and en-route unit transformation via
// ballast rules.
//
// Grounded on maps.WrappingMap's neighbor/distortion primitives (the
// same adjacency graph combat/displace.go walks) and on
// combat/queue.go's container/heap pattern for the open-set priority
// queue — no third-party graph-search library appears anywhere in the
// retrieval pack, so the search itself is standard-library (justified
// in DESIGN.md); only the domain vocabulary (step kinds, ballast,
// terrain cost lookup) is spec-specific.
package pathfind

import (
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
)

// StepKind discriminates Step's sum type (spec §4.4: "Dir(d), Jump(d),
// Diagonal(d), Knight(d, turn_left), Point(p)").
type StepKind uint8

const (
	StepDir StepKind = iota
	StepJump
	StepDiagonal
	StepKnight
	StepPoint
)

// Step is one directed movement primitive a path may use.
type Step struct {
	Kind      StepKind
	Direction maps.Direction
	TurnLeft  bool       // meaningful iff Kind == StepKnight
	Point     maps.Point // meaningful iff Kind == StepPoint, replay only
}

// Dest resolves one step from `from` facing `dir` against m, returning
// the landing point, the direction a subsequent step should use (after
// cancelling any wrap distortion), and whether the step lands on a
// valid cell at all.
//
// Diagonal and Knight compose two (or two-plus-one) orthogonal hops so
// they can be expressed purely in terms of WrappingMap.Neighbor without
// the maps package needing its own diagonal/knight primitive — exactly
// the same "express a derived shape via two primitive hops" approach
// GetLine/RangeLayers use for line and ring queries.
func (s Step) Dest(m maps.WrappingMap, from Point) (Point, bool) {
	switch s.Kind {
	case StepDir:
		return hop(m, from, s.Direction, 1)
	case StepJump:
		return hop(m, from, s.Direction, 2)
	case StepDiagonal:
		return diagonalHop(m, from, s.Direction)
	case StepKnight:
		return knightHop(m, from, s.Direction, s.TurnLeft)
	case StepPoint:
		return Point{Point: s.Point, Dir: from.Dir, Dist: from.Dist}, m.Contains(s.Point)
	default:
		return Point{}, false
	}
}

// Point is a path node: a grid cell plus the accumulated distortion
// and facing direction a unit has after reaching it, mirroring
// ObservationTable's (point, distortion) pair in the combat package.
type Point struct {
	Point maps.Point
	Dir   maps.Direction
	Dist  maps.Distortion
}

func hop(m maps.WrappingMap, from Point, dir maps.Direction, n int) (Point, bool) {
	cur := from.Point
	curDir := dir
	dist := from.Dist
	for i := 0; i < n; i++ {
		np, d, ok := m.Neighbor(cur, curDir)
		if !ok {
			return Point{}, false
		}
		cur = np
		dist = maps.Compose(dist, d)
		curDir = m.ShapeKind.Apply(curDir, d)
	}
	return Point{Point: cur, Dir: curDir, Dist: dist}, true
}

// diagonalHop steps one cell diagonally by composing the two adjacent
// orthogonal directions around dir (chess-style bishop move).
func diagonalHop(m maps.WrappingMap, from Point, dir maps.Direction) (Point, bool) {
	mid, ok := hop(m, from, dir, 1)
	if !ok {
		return Point{}, false
	}
	side := m.ShapeKind.Rotate(dir, 1, false)
	return hop(m, mid, side, 1)
}

// knightHop steps two cells in dir then one cell turned left or right
// (chess-style knight move).
func knightHop(m maps.WrappingMap, from Point, dir maps.Direction, turnLeft bool) (Point, bool) {
	mid, ok := hop(m, from, dir, 2)
	if !ok {
		return Point{}, false
	}
	turn := 1
	if turnLeft {
		turn = -1
	}
	side := m.ShapeKind.Rotate(mid.Dir, turn, false)
	return hop(m, mid, side, 1)
}

// Cost is the rational movement-point price of taking one step,
// looked up from the destination terrain's per-movement-type cost
// table (rulebook.TerrainTypeRow.MovementCost).
type Cost = rational.Rat
