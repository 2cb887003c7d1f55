package entity

import (
	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// CaptureState tracks an in-progress capture of a terrain cell by a
// new owner (spec §3.1 "Terrain").
type CaptureState struct {
	NewOwner int
	Progress int
}

// Terrain is the single per-cell terrain entity (spec §3.1
// "Terrain"). Movement cost and attack/defense bonuses are looked up
// from the terrain table at use time rather than cached here, so a
// config reload never leaves a stale value behind.
type Terrain struct {
	TypeIndex      int
	Owner          int // NoOwner if unowned
	Capture        *CaptureState
	Anger          int
	BuiltThisTurn  int
	Exhausted      bool
	Bag            *attribute.Bag
}

// NewTerrain builds a terrain entity seeded from its type's attribute
// schema.
func NewTerrain(typeIndex int, rb *rulebook.Rulebook) (*Terrain, bool) {
	row, ok := rb.Terrains.Row(typeIndex)
	if !ok {
		return nil, false
	}
	return &Terrain{
		TypeIndex: typeIndex,
		Owner:     NoOwner,
		Bag:       attribute.NewBag(row.AttributeSchema),
	}, true
}

// StartCapture begins or overwrites a capture attempt by newOwner.
func (t *Terrain) StartCapture(newOwner int) {
	t.Capture = &CaptureState{NewOwner: newOwner, Progress: 0}
}

// AdvanceCapture increments progress and reports whether the capture
// just completed against the terrain's capture resistance.
func (t *Terrain) AdvanceCapture(resistance int) (completed bool) {
	if t.Capture == nil {
		return false
	}
	t.Capture.Progress++
	if t.Capture.Progress >= resistance {
		t.Owner = t.Capture.NewOwner
		t.Capture = nil
		return true
	}
	return false
}

// CancelCapture clears an in-progress capture without completing it.
func (t *Terrain) CancelCapture() {
	t.Capture = nil
}
