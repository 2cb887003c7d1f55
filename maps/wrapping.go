package maps

// Distortion is the orientation correction (mirror bit + rotation)
// introduced when a step crosses a wrapped edge. It composes
// cumulatively as a unit traverses the map (spec glossary:
// "Distortion").
type Distortion struct {
	Mirror bool
	Rotate int
}

// Identity is the no-op distortion.
var Identity = Distortion{}

// Compose combines two distortions in traversal order: a applied
// first, then b.
func Compose(a, b Distortion) Distortion {
	return Distortion{
		Mirror: a.Mirror != b.Mirror,
		Rotate: a.Rotate + b.Rotate,
	}
}

// Apply corrects a direction for accumulated distortion.
func (shape Shape) Apply(d Direction, dist Distortion) Direction {
	return shape.Rotate(d, dist.Rotate, dist.Mirror)
}

// WrappingMap describes a rectangular grid that may wrap on either
// axis. A map that does not wrap on an axis never produces distortion
// on that axis; one that wraps produces Identity unless MirrorOnWrapX
// or MirrorOnWrapY is set for that axis (a Möbius-style wrap), matching the source engine's
// wrapping_map module, generalized here to both shapes.
type WrappingMap struct {
	Width, Height int
	WrapX, WrapY  bool
	// MirrorOnWrapX/Y flip orientation (mirror bit) whenever an X/Y
	// wrap occurs, modeling a Möbius-wrapped map.
	MirrorOnWrapX, MirrorOnWrapY bool
	ShapeKind                    Shape
}

// Contains reports whether p addresses a valid (in-bounds, pre-wrap)
// cell.
func (m WrappingMap) Contains(p Point) bool {
	return p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height
}

// wrapAxis folds a coordinate into [0, size) if wrap is enabled,
// reporting whether a wrap actually occurred.
func wrapAxis(v, size int, wrap bool) (int, bool) {
	if !wrap {
		return v, false
	}
	if v >= 0 && v < size {
		return v, false
	}
	w := v % size
	if w < 0 {
		w += size
	}
	return w, true
}

// Neighbor returns the cell adjacent to p in direction d, the
// distortion incurred by any wrap, and whether the result lands on a
// valid cell at all (false for an out-of-bounds step on a
// non-wrapping axis).
func (m WrappingMap) Neighbor(p Point, d Direction) (Point, Distortion, bool) {
	off := m.ShapeKind.Offset(d)
	raw := p.Add(off)

	x, wrappedX := wrapAxis(raw.X, m.Width, m.WrapX)
	y, wrappedY := wrapAxis(raw.Y, m.Height, m.WrapY)

	if !m.WrapX && (raw.X < 0 || raw.X >= m.Width) {
		return Point{}, Identity, false
	}
	if !m.WrapY && (raw.Y < 0 || raw.Y >= m.Height) {
		return Point{}, Identity, false
	}

	dist := Identity
	if wrappedX && m.MirrorOnWrapX {
		dist = Compose(dist, Distortion{Mirror: true})
	}
	if wrappedY && m.MirrorOnWrapY {
		dist = Compose(dist, Distortion{Mirror: true})
	}
	return Point{X: x, Y: y}, dist, true
}

// Neighbors returns every valid neighbor of p together with the
// direction and distortion that produced it.
type NeighborInfo struct {
	Point      Point
	Direction  Direction
	Distortion Distortion
}

func (m WrappingMap) Neighbors(p Point) []NeighborInfo {
	n := m.ShapeKind.DirectionCount()
	out := make([]NeighborInfo, 0, n)
	for d := 0; d < n; d++ {
		np, dist, ok := m.Neighbor(p, Direction(d))
		if !ok {
			continue
		}
		out = append(out, NeighborInfo{Point: np, Direction: Direction(d), Distortion: dist})
	}
	return out
}

// OrientedPoint is a point carrying a facing direction and accumulated
// mirror state, used for displacement/targeting resolution that must
// cancel intervening wrap distortions (spec §4.1 re-targeting).
type OrientedPoint struct {
	Point     Point
	Direction Direction
	Mirrored  bool
}

// Walk produces the sequence of `steps` points obtained by repeatedly
// stepping from `from` in direction `dir`, re-deriving the direction
// at each hop by cancelling accumulated distortion. It stops early
// (returning a shorter slice) if a step leaves the map on a
// non-wrapping edge.
func (m WrappingMap) Walk(from Point, dir Direction, steps int) []Point {
	out := make([]Point, 0, steps)
	cur := from
	curDir := dir
	for i := 0; i < steps; i++ {
		np, dist, ok := m.Neighbor(cur, curDir)
		if !ok {
			break
		}
		out = append(out, np)
		cur = np
		curDir = m.ShapeKind.Apply(curDir, dist)
	}
	return out
}

// GetLine walks `length` cells starting at `from` in direction `dir`,
// including the distortion-corrected direction at each step. This is
// the line-walking primitive used by ray-shaped splash patterns and by
// the Relative attack-targeting policy.
func (m WrappingMap) GetLine(from Point, dir Direction, length int) []Point {
	return m.Walk(from, dir, length)
}

// RangeLayers performs a breadth-first expansion from center and
// returns cells grouped by their distance layer, layers[0] == {center},
// up to maxRange. It is the primitive behind vision rings (fogmap) and
// splash-ring resolution (combat), and works identically for square
// and hex shapes since both are expressed as a neighbor graph.
func (m WrappingMap) RangeLayers(center Point, maxRange int) [][]Point {
	layers := make([][]Point, maxRange+1)
	layers[0] = []Point{center}
	visited := map[Point]bool{center: true}
	frontier := []Point{center}
	for dist := 1; dist <= maxRange; dist++ {
		var next []Point
		for _, p := range frontier {
			for _, ni := range m.Neighbors(p) {
				if visited[ni.Point] {
					continue
				}
				visited[ni.Point] = true
				next = append(next, ni.Point)
			}
		}
		layers[dist] = next
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return layers
}

// Ring returns exactly the cells at distance `dist` from center
// (an empty slice if that layer has no cells, e.g. dist beyond the
// connected component).
func (m WrappingMap) Ring(center Point, dist int) []Point {
	layers := m.RangeLayers(center, dist)
	if dist >= len(layers) {
		return nil
	}
	return layers[dist]
}

// AllPoints enumerates every in-bounds cell of the map, row by row.
// Fog recomputation uses this to ambient-fill the whole board with the
// active fog setting's floor intensity before layering contributor
// vision fields on top (original_source's game.rs::recalculate_fog).
func (m WrappingMap) AllPoints() []Point {
	out := make([]Point, 0, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}
