package command

import (
	"testing"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/players"
	"github.com/nicoberrocal/gridwar/rulebook"
	"github.com/nicoberrocal/gridwar/rulebook/configfake"
)

const zombiePowerScript = `
import "powerhost"

func Effect(ctx int64) {
	raise(ctx, 0, 4)
	raise(ctx, 1, 4)
}

func raise(ctx int64, x, y int32) {
	powerhost.ReplaceUnitType(ctx, x, y, 4)
	powerhost.SetUnitHP(ctx, x, y, 50)
	powerhost.SetUnitFlag(ctx, x, y, "zombified", true)
}
`

// TestCommanderPowerRaisesSkullsIntoZombifiedMarines drives a full
// resurrection power on a 5x5 hex map: both skulls become marines at
// half hp with the zombified flag set, each keeping its own amphibious
// mode, through a real effect script.
func TestCommanderPowerRaisesSkullsIntoZombifiedMarines(t *testing.T) {
	rb := configfake.NewRulebook()
	units := rb.Units.(*configfake.MemoryUnitTypes)
	units.Put(3, rulebook.UnitTypeRow{
		Name: "skull",
		AttributeSchema: attribute.Schema{
			attribute.KeyOwner:      attribute.Int(entity.NoOwner),
			attribute.KeyHP:         attribute.Int(100),
			attribute.KeyAmphibious: attribute.Bool(false),
		},
	})
	units.Put(4, rulebook.UnitTypeRow{
		Name: "marine",
		AttributeSchema: attribute.Schema{
			attribute.KeyOwner:      attribute.Int(entity.NoOwner),
			attribute.KeyHP:         attribute.Int(100),
			attribute.KeyAmphibious: attribute.Bool(false),
			attribute.KeyZombified:  attribute.Bool(false),
		},
	})
	commanders := rb.Commanders.(*configfake.MemoryCommanderTypes)
	commanders.Put(2, rulebook.CommanderTypeRow{
		Name:      "zombie",
		MaxCharge: 10,
		Powers: []rulebook.PowerRow{
			{Name: "shamble", ChargeCost: 2},
			{Name: "raise dead", ChargeCost: 10, EffectScript: zombiePowerScript},
		},
	})

	m := maps.WrappingMap{Width: 5, Height: 5, ShapeKind: maps.Hex}
	g := event.NewGame(m, rb)
	g.Players = []*players.Player{
		players.NewPlayer(0, 1, 1, 50, nil),
		players.NewPlayer(1, 2, 2, 50, nil),
	}
	g.Player(1).Commander = &entity.Commander{TypeIndex: 2, Charge: 10}

	skullA := placeUnit(t, g, rb, 3, 1, maps.Point{X: 0, Y: 4})
	skullA.Bag.Set(attribute.KeyAmphibious, attribute.Bool(true))
	placeUnit(t, g, rb, 3, 1, maps.Point{X: 1, Y: 4})
	placeUnit(t, g, rb, 4, 2, maps.Point{X: 4, Y: 0})

	ctx := newTestContext(g, rb)
	if _, err := CommanderPower(ctx, 1, 1, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := g.Player(1).Commander.Charge; got != 0 {
		t.Fatalf("expected the full charge spent, got %d", got)
	}
	for i, tc := range []struct {
		pos        maps.Point
		amphibious bool
	}{
		{maps.Point{X: 0, Y: 4}, true},
		{maps.Point{X: 1, Y: 4}, false},
	} {
		u := g.Cell(tc.pos).Unit
		if u == nil {
			t.Fatalf("skull %d: expected a unit at %v", i, tc.pos)
		}
		if u.TypeIndex != 4 {
			t.Fatalf("skull %d: expected a marine, got type %d", i, u.TypeIndex)
		}
		if u.Owner() != 1 {
			t.Fatalf("skull %d: expected the caster to own the marine, got owner %d", i, u.Owner())
		}
		if u.HP() != 50 {
			t.Fatalf("skull %d: expected hp 50, got %d", i, u.HP())
		}
		z, _ := u.Bag.Get(attribute.KeyZombified)
		if !z.Bool {
			t.Fatalf("skull %d: expected the zombified flag set", i)
		}
		amph, _ := u.Bag.Get(attribute.KeyAmphibious)
		if amph.Bool != tc.amphibious {
			t.Fatalf("skull %d: expected amphibious mode %v preserved across resurrection, got %v", i, tc.amphibious, amph.Bool)
		}
	}
}
