package entity

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rulebook"
	"github.com/nicoberrocal/gridwar/rulebook/configfake"
)

func newObjectID() bson.ObjectID {
	return bson.NewObjectID()
}

func point(x, y int) maps.Point {
	return maps.Point{X: x, Y: y}
}

func testRulebook() *rulebook.Rulebook {
	rb := configfake.NewRulebook()
	units := rb.Units.(*configfake.MemoryUnitTypes)
	units.Put(1, rulebook.UnitTypeRow{
		Name: "infantry",
		AttributeSchema: attribute.Schema{
			attribute.KeyOwner: attribute.Int(NoOwner),
			attribute.KeyHP:    attribute.Int(100),
		},
	})
	commanders := rb.Commanders.(*configfake.MemoryCommanderTypes)
	commanders.Put(1, rulebook.CommanderTypeRow{
		Name: "warlord",
		Powers: []rulebook.PowerRow{
			{Name: "rally", ChargeCost: 1, AttributeOverlay: attribute.Schema{
				attribute.KeyLevel: attribute.Int(0),
			}},
		},
	})
	return rb
}

func TestNewUnitSeedsSchema(t *testing.T) {
	rb := testRulebook()
	u, err := NewUnit(newObjectID(), 1, point(0, 0), rb, 3, 0, false, 0, false, -1)
	if err != nil {
		t.Fatalf("NewUnit: %v", err)
	}
	if u.Owner() != 3 {
		t.Fatalf("expected owner 3, got %d", u.Owner())
	}
	if u.HP() != 100 {
		t.Fatalf("expected hp to default to the schema's default value, got %d", u.HP())
	}
}

func TestReconcileAddsCommanderOverlay(t *testing.T) {
	rb := testRulebook()
	u, err := NewUnit(newObjectID(), 1, point(0, 0), rb, 3, 0, false, 0, false, -1)
	if err != nil {
		t.Fatalf("NewUnit: %v", err)
	}
	if u.Bag.Has(attribute.KeyLevel) {
		t.Fatalf("level should not be present before a commander power grants it")
	}
	if err := u.Reconcile(rb, 0, false, 1, true, 0); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !u.Bag.Has(attribute.KeyLevel) {
		t.Fatalf("expected level attribute after reconciling with active commander power")
	}
}

func TestTokenStackReplacesSameTypeOwner(t *testing.T) {
	var s TokenStack
	s = s.Insert(Token{TypeIndex: 1, Owner: 2})
	s = s.Insert(Token{TypeIndex: 1, Owner: 2, Tags: attribute.NewBag(nil)})
	if len(s) != 1 {
		t.Fatalf("expected in-place replacement, got %d entries", len(s))
	}
}

func TestTokenStackDropsOldestOnOverflow(t *testing.T) {
	var s TokenStack
	for i := 0; i < MaxStackSize+1; i++ {
		s = s.Insert(Token{TypeIndex: i, Owner: 0})
	}
	if len(s) != MaxStackSize {
		t.Fatalf("expected stack capped at %d, got %d", MaxStackSize, len(s))
	}
	if s[0].TypeIndex != 1 {
		t.Fatalf("expected oldest entry (type 0) to have been dropped, stack starts at type %d", s[0].TypeIndex)
	}
}

func TestValidateUnitRejectsOverflowingCargo(t *testing.T) {
	rb := testRulebook()
	u, err := NewUnit(newObjectID(), 1, point(0, 0), rb, 3, 0, false, 0, false, -1)
	if err != nil {
		t.Fatalf("NewUnit: %v", err)
	}
	u.Bag.Schema()[attribute.KeyTransportedCargo] = attribute.IDListVal(nil)
	ids := make([]bson.ObjectID, 3)
	for i := range ids {
		ids[i] = bson.NewObjectID()
	}
	u.Bag.Set(attribute.KeyTransportedCargo, attribute.IDListVal(ids))
	if err := ValidateUnit(u, rb, 2); err == nil {
		t.Fatalf("expected cargo-overflow validation error")
	}
}
