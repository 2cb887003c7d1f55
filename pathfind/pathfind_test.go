package pathfind

import (
	"testing"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/rulebook"
	"github.com/nicoberrocal/gridwar/rulebook/configfake"
)

func testRulebookAndGame() (*rulebook.Rulebook, *event.Game) {
	rb := configfake.NewRulebook()
	terrains := rb.Terrains.(*configfake.MemoryTerrainTypes)
	terrains.Put(1, rulebook.TerrainTypeRow{
		Name:         "plain",
		MovementCost: map[int]rational.Rat{0: rational.FromInt(1)},
	})
	terrains.Put(2, rulebook.TerrainTypeRow{
		Name:         "mountain",
		MovementCost: map[int]rational.Rat{}, // impassable for every movement type
	})
	units := rb.Units.(*configfake.MemoryUnitTypes)
	units.Put(1, rulebook.UnitTypeRow{
		Name: "infantry",
		AttributeSchema: attribute.Schema{
			attribute.KeyOwner: attribute.Int(entity.NoOwner),
		},
	})

	m := maps.WrappingMap{Width: 5, Height: 5, ShapeKind: maps.Square}
	g := event.NewGame(m, rb)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			p := maps.Point{X: x, Y: y}
			terrain, _ := entity.NewTerrain(1, rb)
			g.Cell(p).Terrain = terrain
		}
	}
	return rb, g
}

func TestSearchReachesEveryCellWithinBudget(t *testing.T) {
	rb, g := testRulebookAndGame()
	mover := MoverState{Owner: 1, MovementType: 0, MovementPattern: rulebook.MovementStandard}

	result := Search(g, rb, maps.Point{X: 2, Y: 2}, mover, 1, rational.FromInt(2), nil, NoBallast{})

	adjacent := maps.Point{X: 2, Y: 1}
	path, ok := result.Paths[adjacent]
	if !ok || len(path) == 0 {
		t.Fatalf("expected a reachable path to the adjacent cell %v", adjacent)
	}
	if rational.Cmp(path[len(path)-1].Cost, rational.FromInt(1)) != 0 {
		t.Fatalf("expected cost 1 to an adjacent plain cell, got %v", path[len(path)-1].Cost)
	}

	tooFar := maps.Point{X: 2, Y: 2} // origin itself has no path entry
	if _, ok := result.Paths[tooFar]; ok {
		t.Fatalf("expected no path entry recorded for the origin itself")
	}
}

func TestSearchRespectsImpassableTerrain(t *testing.T) {
	rb, g := testRulebookAndGame()
	blocked := maps.Point{X: 2, Y: 1}
	mountain, _ := entity.NewTerrain(2, rb)
	g.Cell(blocked).Terrain = mountain

	mover := MoverState{Owner: 1, MovementType: 0}
	result := Search(g, rb, maps.Point{X: 2, Y: 2}, mover, 1, rational.FromInt(3), nil, NoBallast{})

	if _, ok := result.Paths[blocked]; ok {
		t.Fatalf("expected impassable mountain cell %v to be unreachable", blocked)
	}
}

func TestSearchBudgetCutsOffDistantCells(t *testing.T) {
	rb, g := testRulebookAndGame()
	mover := MoverState{Owner: 1, MovementType: 0}
	result := Search(g, rb, maps.Point{X: 0, Y: 0}, mover, 1, rational.FromInt(1), nil, NoBallast{})

	far := maps.Point{X: 4, Y: 4}
	if _, ok := result.Paths[far]; ok {
		t.Fatalf("expected a far cell to exceed the movement budget")
	}
}

func TestDiagonalAndKnightStepsComposeOrthogonalHops(t *testing.T) {
	m := maps.WrappingMap{Width: 8, Height: 8, ShapeKind: maps.Square}
	origin := Point{Point: maps.Point{X: 3, Y: 3}}

	diag := Step{Kind: StepDiagonal, Direction: maps.Direction(0)}
	dest, ok := diag.Dest(m, origin)
	if !ok {
		t.Fatalf("expected diagonal step to land on a valid cell")
	}
	if dest.Point == origin.Point {
		t.Fatalf("expected diagonal step to actually move")
	}

	knight := Step{Kind: StepKnight, Direction: maps.Direction(0), TurnLeft: true}
	kdest, ok := knight.Dest(m, origin)
	if !ok {
		t.Fatalf("expected knight step to land on a valid cell")
	}
	if kdest.Point == origin.Point {
		t.Fatalf("expected knight step to actually move")
	}
}

func TestTerrainMovementTypeRulesSwapsOnEntry(t *testing.T) {
	rb, g := testRulebookAndGame()
	rules := TerrainMovementTypeRules{OverrideByTerrain: map[int]int{1: 9}}
	mover := MoverState{Owner: 1, MovementType: 0}

	next := rules.Apply(g, rb, mover, maps.Point{X: 0, Y: 0})
	if next.MovementType != 9 {
		t.Fatalf("expected movement type swapped to 9, got %d", next.MovementType)
	}
}
