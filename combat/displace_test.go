package combat

import (
	"testing"

	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
)

const east = maps.Direction(1)

func countEventKinds(h *event.EventHandler) (moves, fogSurprises, chainAnims int) {
	for _, e := range h.Server {
		switch ev := e.(type) {
		case event.UnitMoveEvent:
			moves++
		case event.EffectEvent:
			if ev.Effect.TypeIndex == event.FogSurpriseEffectTypeIndex {
				fogSurprises++
			}
		case event.EffectsEvent:
			chainAnims++
		}
	}
	return moves, fogSurprises, chainAnims
}

func TestDisplacePushChainShiftsWholeChain(t *testing.T) {
	g, rb := newCombatTestGame()
	defenderPos := maps.Point{X: 2, Y: 2}
	defender := placeCombatUnit(t, g, rb, 2, defenderPos)
	second := placeCombatUnit(t, g, rb, 2, maps.Point{X: 3, Y: 2})
	third := placeCombatUnit(t, g, rb, 2, maps.Point{X: 4, Y: 2})

	obs := NewObservationTable()
	obsID := obs.Remember(defenderPos, nil)
	h := event.NewEventHandler(g, nil)

	ExecuteDisplace(g, h, obs, Config{}, DisplaceArgs{
		TargetObservation: obsID,
		Direction:         east,
		Distance:          1,
		PushLimit:         2,
	}, 1)

	if g.Cell(defenderPos).Unit != nil {
		t.Fatalf("expected the defender's cell vacated")
	}
	if got := g.Cell(maps.Point{X: 3, Y: 2}).Unit; got != defender {
		t.Fatalf("expected the defender shifted one cell east")
	}
	if got := g.Cell(maps.Point{X: 4, Y: 2}).Unit; got != second {
		t.Fatalf("expected the second unit shifted one cell east")
	}
	if got := g.Cell(maps.Point{X: 5, Y: 2}).Unit; got != third {
		t.Fatalf("expected the third unit shifted into the empty cell")
	}

	moves, surprises, anims := countEventKinds(h)
	if moves != 3 {
		t.Fatalf("expected 3 move events for the simultaneous chain shift, got %d", moves)
	}
	if surprises != 0 {
		t.Fatalf("expected no fog surprises on an unobstructed push, got %d", surprises)
	}
	if anims != 1 {
		t.Fatalf("expected one chain animation event, got %d", anims)
	}

	// Observation stability: the id minted before the push still
	// resolves to the defender's new cell.
	p, _, _, ok := obs.Resolve(obsID)
	if !ok || p != (maps.Point{X: 3, Y: 2}) {
		t.Fatalf("expected observation id to track the defender to (3,2), got %v ok=%v", p, ok)
	}
}

func TestDisplacePushBlockedByLimitFiresFogSurprise(t *testing.T) {
	g, rb := newCombatTestGame()
	defenderPos := maps.Point{X: 2, Y: 2}
	defender := placeCombatUnit(t, g, rb, 2, defenderPos)
	placeCombatUnit(t, g, rb, 2, maps.Point{X: 3, Y: 2})
	placeCombatUnit(t, g, rb, 2, maps.Point{X: 4, Y: 2})

	obs := NewObservationTable()
	obsID := obs.Remember(defenderPos, nil)
	h := event.NewEventHandler(g, nil)

	// PushLimit 1 bounds the walk at distance+push_limit = 2 cells,
	// both occupied: the chain is too long to shift, so nothing moves
	// and every probed cell invisible to the attacker's team surfaces
	// a fog surprise (team 1 has no fog map here, so everything is
	// dark to it).
	ExecuteDisplace(g, h, obs, Config{}, DisplaceArgs{
		TargetObservation: obsID,
		Direction:         east,
		Distance:          1,
		PushLimit:         1,
	}, 1)

	if got := g.Cell(defenderPos).Unit; got != defender {
		t.Fatalf("expected the blocked defender to stay put")
	}
	moves, surprises, _ := countEventKinds(h)
	if moves != 0 {
		t.Fatalf("expected no movement on a blocked push, got %d moves", moves)
	}
	if surprises != 2 {
		t.Fatalf("expected fog surprises at both probed dark cells, got %d", surprises)
	}
}

func TestDisplacePushBlockedVisibleCellsStaySilent(t *testing.T) {
	g, rb := newCombatTestGame()
	defenderPos := maps.Point{X: 2, Y: 2}
	placeCombatUnit(t, g, rb, 2, defenderPos)
	placeCombatUnit(t, g, rb, 2, maps.Point{X: 3, Y: 2})
	placeCombatUnit(t, g, rb, 2, maps.Point{X: 4, Y: 2})

	tf := fogmap.NewTeamFog()
	for _, p := range []maps.Point{{X: 3, Y: 2}, {X: 4, Y: 2}} {
		tf.Visible.Add(p)
		tf.Intensity[p] = fogmap.NormalVision
	}
	g.TeamFog[1] = tf

	obs := NewObservationTable()
	obsID := obs.Remember(defenderPos, nil)
	h := event.NewEventHandler(g, nil)

	ExecuteDisplace(g, h, obs, Config{}, DisplaceArgs{
		TargetObservation: obsID,
		Direction:         east,
		Distance:          1,
		PushLimit:         1,
	}, 1)

	_, surprises, _ := countEventKinds(h)
	if surprises != 0 {
		t.Fatalf("expected no fog surprise for blockers the attacker's team already sees, got %d", surprises)
	}
}

func TestDisplaceThrowSkipsBlockersAndIgnoresPushLimit(t *testing.T) {
	g, rb := newCombatTestGame()
	defenderPos := maps.Point{X: 2, Y: 2}
	defender := placeCombatUnit(t, g, rb, 2, defenderPos)
	blockerA := placeCombatUnit(t, g, rb, 2, maps.Point{X: 3, Y: 2})
	blockerB := placeCombatUnit(t, g, rb, 2, maps.Point{X: 4, Y: 2})

	obs := NewObservationTable()
	obsID := obs.Remember(defenderPos, nil)
	h := event.NewEventHandler(g, nil)

	ExecuteDisplace(g, h, obs, Config{}, DisplaceArgs{
		TargetObservation: obsID,
		Direction:         east,
		Distance:          3,
		PushLimit:         0,
		Throw:             true,
	}, 1)

	if got := g.Cell(maps.Point{X: 5, Y: 2}).Unit; got != defender {
		t.Fatalf("expected the thrown defender to land exactly three cells away")
	}
	if g.Cell(maps.Point{X: 3, Y: 2}).Unit != blockerA || g.Cell(maps.Point{X: 4, Y: 2}).Unit != blockerB {
		t.Fatalf("expected the skipped-over blockers untouched")
	}
	moves, surprises, _ := countEventKinds(h)
	if moves != 1 || surprises != 0 {
		t.Fatalf("expected exactly one move and no surprises, got %d moves %d surprises", moves, surprises)
	}
	p, _, _, ok := obs.Resolve(obsID)
	if !ok || p != (maps.Point{X: 5, Y: 2}) {
		t.Fatalf("expected observation id to track the thrown defender, got %v ok=%v", p, ok)
	}
}

func TestDisplaceThrowBlockedLandingFiresFogSurprise(t *testing.T) {
	g, rb := newCombatTestGame()
	defenderPos := maps.Point{X: 2, Y: 2}
	defender := placeCombatUnit(t, g, rb, 2, defenderPos)
	placeCombatUnit(t, g, rb, 2, maps.Point{X: 5, Y: 2})

	obs := NewObservationTable()
	obsID := obs.Remember(defenderPos, nil)
	h := event.NewEventHandler(g, nil)

	ExecuteDisplace(g, h, obs, Config{}, DisplaceArgs{
		TargetObservation: obsID,
		Direction:         east,
		Distance:          3,
		Throw:             true,
	}, 1)

	if got := g.Cell(defenderPos).Unit; got != defender {
		t.Fatalf("expected a blocked throw to leave the defender in place")
	}
	moves, surprises, _ := countEventKinds(h)
	if moves != 0 || surprises != 1 {
		t.Fatalf("expected no move and one fog surprise at the dark landing cell, got %d moves %d surprises", moves, surprises)
	}
}
