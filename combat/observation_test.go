package combat

import (
	"testing"

	"github.com/nicoberrocal/gridwar/maps"
)

func TestObservationTableRememberAndResolve(t *testing.T) {
	obs := NewObservationTable()
	p := maps.Point{X: 1, Y: 1}
	id := obs.Remember(p, nil)

	got, cargo, dist, ok := obs.Resolve(id)
	if !ok || got != p || cargo != nil || dist != maps.Identity {
		t.Fatalf("expected fresh id to resolve to %v with no cargo, got %v/%v", p, got, cargo)
	}
}

func TestObservationTableUpdateAfterMoveTracksPoint(t *testing.T) {
	obs := NewObservationTable()
	p := maps.Point{X: 0, Y: 0}
	id := obs.Remember(p, nil)

	moved := maps.Point{X: 1, Y: 0}
	obs.UpdateAfterMove(id, moved, maps.Identity)

	got, _, _, ok := obs.Resolve(id)
	if !ok || got != moved {
		t.Fatalf("expected id to track moved point %v, got %v", moved, got)
	}
}

func TestObservationTableByPointFindsUntransportedUnit(t *testing.T) {
	obs := NewObservationTable()
	p := maps.Point{X: 2, Y: 2}
	id := obs.Remember(p, nil)

	found, ok := obs.ByPoint(p)
	if !ok || found != id {
		t.Fatalf("expected ByPoint to find id %d at %v, got %d/%v", id, p, found, ok)
	}

	idx := 0
	obs.Remember(p, &idx)
	if _, ok := obs.ByPoint(maps.Point{X: 9, Y: 9}); ok {
		t.Fatalf("expected ByPoint to miss an unobserved point")
	}
}

func TestObservationTableResolveUnknownIDFails(t *testing.T) {
	obs := NewObservationTable()
	if _, _, _, ok := obs.Resolve(999); ok {
		t.Fatalf("expected resolving an unknown id to fail")
	}
}
