package maps

import "testing"

func TestSquareNeighborsNoWrap(t *testing.T) {
	m := WrappingMap{Width: 5, Height: 5, ShapeKind: Square}
	ns := m.Neighbors(Point{X: 0, Y: 0})
	if len(ns) != 2 {
		t.Fatalf("corner cell without wrap should have 2 neighbors, got %d", len(ns))
	}
}

func TestSquareNeighborsWithWrap(t *testing.T) {
	m := WrappingMap{Width: 5, Height: 5, WrapX: true, WrapY: true, ShapeKind: Square}
	ns := m.Neighbors(Point{X: 0, Y: 0})
	if len(ns) != 4 {
		t.Fatalf("wrapped corner cell should have 4 neighbors, got %d", len(ns))
	}
}

func TestHexDirectionCount(t *testing.T) {
	m := WrappingMap{Width: 10, Height: 10, ShapeKind: Hex}
	ns := m.Neighbors(Point{X: 5, Y: 5})
	if len(ns) != 6 {
		t.Fatalf("interior hex cell should have 6 neighbors, got %d", len(ns))
	}
}

func TestWrapProducesMirrorDistortion(t *testing.T) {
	m := WrappingMap{Width: 4, Height: 4, WrapX: true, MirrorOnWrapX: true, ShapeKind: Square}
	_, dist, ok := m.Neighbor(Point{X: 3, Y: 0}, Direction(1)) // East, wraps to X=0
	if !ok {
		t.Fatalf("expected wrap to succeed")
	}
	if !dist.Mirror {
		t.Fatalf("expected wrap to introduce mirror distortion")
	}
}

func TestWalkStopsAtEdgeWithoutWrap(t *testing.T) {
	m := WrappingMap{Width: 3, Height: 3, ShapeKind: Square}
	path := m.Walk(Point{X: 0, Y: 0}, Direction(3), 5) // West repeatedly, off the left edge immediately
	if len(path) != 0 {
		t.Fatalf("expected walk off a non-wrapping edge to stop immediately, got %v", path)
	}
}

func TestRangeLayersRingSizes(t *testing.T) {
	m := WrappingMap{Width: 20, Height: 20, ShapeKind: Hex}
	layers := m.RangeLayers(Point{X: 10, Y: 10}, 2)
	if len(layers[0]) != 1 {
		t.Fatalf("layer 0 must be just the center")
	}
	if len(layers[1]) != 6 {
		t.Fatalf("hex ring 1 should have 6 cells, got %d", len(layers[1]))
	}
	if len(layers[2]) != 12 {
		t.Fatalf("hex ring 2 should have 12 cells, got %d", len(layers[2]))
	}
}

func TestRotateDegeneratesCorrectlyOnSquare(t *testing.T) {
	d := Square.Rotate(Direction(0), 2, false)
	if d != Direction(2) {
		t.Fatalf("rotating by 2 on a 4-direction shape should flip to opposite, got %d", d)
	}
}
