package combat

import (
	"context"
	"testing"

	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/scripthost"
)

type fakeScriptTable map[int]string

func (f fakeScriptTable) BuildScriptSource(index int) (string, bool) {
	s, ok := f[index]
	return s, ok
}

func singleTargetPattern(target maps.Point) *fakePattern {
	return &fakePattern{
		dirs: []maps.Direction{east},
		targets: map[maps.Direction][][]maps.OrientedPoint{
			east: {{{Point: target, Direction: east}}},
		},
	}
}

func displaceInstance(priority rational.Rat, splashDistance int) AttackInstance {
	return AttackInstance{
		SplashDistance: splashDistance,
		Priority:       priority,
		ScriptKind:     ScriptDisplace,
		Displace:       DisplaceSpec{Distance: rational.New(1, 1), PushLimit: rational.New(0, 1)},
	}
}

func positionAttack(patternID int, priority int8, target maps.Point, splash []AttackInstance) (ConfiguredAttack, AttackTargeting) {
	attack := ConfiguredAttack{
		AttackPatternID: patternID,
		Priority:        priority,
		Focus:           FocusPosition,
		Splash:          splash,
	}
	targeting := AttackTargeting{Target: maps.OrientedPoint{Point: target}, DirectionHint: east}
	return attack, targeting
}

func moveEvents(h *event.EventHandler) []event.UnitMoveEvent {
	var out []event.UnitMoveEvent
	for _, e := range h.Server {
		if mv, ok := e.(event.UnitMoveEvent); ok {
			out = append(out, mv)
		}
	}
	return out
}

func TestResolveOrdersOuterPriorityDescending(t *testing.T) {
	g, rb := newCombatTestGame()
	attackerPos := maps.Point{X: 0, Y: 0}
	placeCombatUnit(t, g, rb, 1, attackerPos)
	defA := maps.Point{X: 2, Y: 0}
	defB := maps.Point{X: 2, Y: 2}
	placeCombatUnit(t, g, rb, 2, defA)
	placeCombatUnit(t, g, rb, 2, defB)

	cfg := Config{AttackPattern: &fakePatternTable{patterns: map[int]AttackPattern{
		1: singleTargetPattern(defA),
		2: singleTargetPattern(defB),
	}}}

	obs := NewObservationTable()
	h := event.NewEventHandler(g, nil)

	attackHigh, targetingHigh := positionAttack(1, 5, defA, []AttackInstance{displaceInstance(rational.New(1, 1), 0)})
	attackLow, targetingLow := positionAttack(2, 2, defB, []AttackInstance{displaceInstance(rational.New(1, 1), 0)})

	// Deliberately queue the low-priority attack first: the queue, not
	// insertion order, decides resolution order.
	initial := []AttackerInfo{
		{Position: AttackerPosition{Kind: AttackerReal, ObservationID: obs.Remember(attackerPos, nil)}, Attack: attackLow, Targeting: targetingLow},
		{Position: AttackerPosition{Kind: AttackerReal, ObservationID: obs.Remember(attackerPos, nil)}, Attack: attackHigh, Targeting: targetingHigh},
	}

	Resolve(context.Background(), g, h, cfg, nil, nil, nil, obs, initial, 1, false)

	moves := moveEvents(h)
	if len(moves) != 2 {
		t.Fatalf("expected both displacements to fire, got %d moves", len(moves))
	}
	if moves[0].From != defA {
		t.Fatalf("expected the priority-5 attack's displacement first, got move from %v", moves[0].From)
	}
	if moves[1].From != defB {
		t.Fatalf("expected the priority-2 attack's displacement second, got move from %v", moves[1].From)
	}
}

func TestResolveOrdersInnerPriorityAscendingWithinLevel(t *testing.T) {
	g, rb := newCombatTestGame()
	attackerPos := maps.Point{X: 0, Y: 0}
	placeCombatUnit(t, g, rb, 1, attackerPos)
	defA := maps.Point{X: 2, Y: 0}
	defB := maps.Point{X: 2, Y: 2}
	placeCombatUnit(t, g, rb, 2, defA)
	placeCombatUnit(t, g, rb, 2, defB)

	pattern := &fakePattern{
		dirs: []maps.Direction{east},
		targets: map[maps.Direction][][]maps.OrientedPoint{
			east: {
				{{Point: defA, Direction: east}},
				{{Point: defB, Direction: east}},
			},
		},
	}
	cfg := Config{AttackPattern: &fakePatternTable{patterns: map[int]AttackPattern{1: pattern}}}

	obs := NewObservationTable()
	h := event.NewEventHandler(g, nil)

	// The ring at splash distance 0 carries the higher rational
	// priority, so the outer ring's executable must run first.
	attack, targeting := positionAttack(1, 0, defA, []AttackInstance{
		displaceInstance(rational.New(2, 1), 0),
		displaceInstance(rational.New(1, 1), 1),
	})
	initial := []AttackerInfo{{
		Position:  AttackerPosition{Kind: AttackerReal, ObservationID: obs.Remember(attackerPos, nil)},
		Attack:    attack,
		Targeting: targeting,
	}}

	Resolve(context.Background(), g, h, cfg, nil, nil, nil, obs, initial, 1, false)

	moves := moveEvents(h)
	if len(moves) != 2 {
		t.Fatalf("expected two displacements, got %d", len(moves))
	}
	if moves[0].From != defB || moves[1].From != defA {
		t.Fatalf("expected inner priority 1/1 before 2/1, got moves from %v then %v", moves[0].From, moves[1].From)
	}
}

const strikeAndRetaliateScript = `
import "combathost"

func Build(ctx int64) {
	combathost.AddScript(ctx, 1, 1, "Strike")
	combathost.OnDefend(ctx, -1, "Retaliate")
}

func Strike(ctx int64) {
	combathost.Damage(ctx, 2, 0, 30)
}

func Retaliate(ctx int64) {
	combathost.Damage(ctx, 2, 0, 10)
}
`

const zeroHintScript = `
import "combathost"

func Build(ctx int64) {
	combathost.AddScript(ctx, 1, 1, "Strike")
	combathost.OnDefend(ctx, 0, "Retaliate")
}

func Strike(ctx int64) {
	combathost.Damage(ctx, 2, 0, 30)
}

func Retaliate(ctx int64) {
	combathost.Damage(ctx, 2, 0, 10)
}
`

const recursiveRetaliateScript = `
import "combathost"

func Build(ctx int64) {
	combathost.AddScript(ctx, 1, 1, "Strike")
	combathost.OnDefend(ctx, -1, "Retaliate")
}

func Strike(ctx int64) {
	combathost.Damage(ctx, 2, 0, 30)
}

func Retaliate(ctx int64) {
	combathost.Damage(ctx, 2, 0, 10)
	combathost.OnDefend(ctx, -1, "Retaliate")
}
`

func runScriptedAttack(t *testing.T, source string) (*event.Game, maps.Point) {
	t.Helper()
	g, rb := newCombatTestGame()
	attackerPos := maps.Point{X: 0, Y: 0}
	placeCombatUnit(t, g, rb, 1, attackerPos)
	defenderPos := maps.Point{X: 2, Y: 0}
	placeCombatUnit(t, g, rb, 2, defenderPos)

	cfg := Config{
		AttackPattern: &fakePatternTable{patterns: map[int]AttackPattern{1: singleTargetPattern(defenderPos)}},
		Scripts:       fakeScriptTable{7: source},
	}

	table := scripthost.NewTable()
	host, err := NewScriptHost(table)
	if err != nil {
		t.Fatalf("building script host: %v", err)
	}

	obs := NewObservationTable()
	h := event.NewEventHandler(g, nil)
	attack, targeting := positionAttack(1, 5, defenderPos, []AttackInstance{{
		SplashDistance: 0,
		Priority:       rational.New(1, 1),
		ScriptKind:     ScriptRhai,
		Rhai:           RhaiSpec{BuildScript: 7},
	}})
	initial := []AttackerInfo{{
		Position:  AttackerPosition{Kind: AttackerReal, ObservationID: obs.Remember(attackerPos, nil)},
		Attack:    attack,
		Targeting: targeting,
	}}

	Resolve(context.Background(), g, h, cfg, table, host, nil, obs, initial, 1, false)
	return g, defenderPos
}

func TestResolveOnDefendFollowupFiresAtStrictlyLowerPriority(t *testing.T) {
	g, defenderPos := runScriptedAttack(t, strikeAndRetaliateScript)
	u := g.Cell(defenderPos).Unit
	if u == nil {
		t.Fatalf("expected the defender to survive")
	}
	if got := u.HP(); got != 60 {
		t.Fatalf("expected 30 strike + 10 retaliation = hp 60, got %d", got)
	}
}

func TestResolveOnDefendZeroHintNeverFires(t *testing.T) {
	g, defenderPos := runScriptedAttack(t, zeroHintScript)
	u := g.Cell(defenderPos).Unit
	if u == nil {
		t.Fatalf("expected the defender to survive")
	}
	if got := u.HP(); got != 70 {
		t.Fatalf("expected only the 30-damage strike (a zero hint is not strictly lower), got hp %d", got)
	}
}

func TestResolveOnDefendCascadeBoundedByDepthCap(t *testing.T) {
	g, defenderPos := runScriptedAttack(t, recursiveRetaliateScript)
	u := g.Cell(defenderPos).Unit
	if u == nil {
		t.Fatalf("expected the defender to survive the capped cascade")
	}
	// Strike at priority 5, then retaliations at 4, 3, 2, 1; the
	// registration made at depth MaxOnDefendDepth is refused, so the
	// chain stops after four retaliations: 100 - 30 - 4*10.
	if got := u.HP(); got != 30 {
		t.Fatalf("expected the cascade capped at %d retaliations (hp 30), got hp %d", MaxOnDefendDepth, got)
	}
}
