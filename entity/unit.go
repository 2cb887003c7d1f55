// Package entity holds the per-cell game objects (spec §3.1): units,
// terrain, token stacks, heroes and commanders. Every entity that
// needs a stable identity across a command carries a bson.ObjectID,
// the same universal-identity convention the teacher uses for ships
// and players. None of these types know how to mutate themselves in
// response to an event — that belongs to the event package, which
// treats entities as plain data it reads and rewrites.
package entity

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// NoOwner is the sentinel owner value for an unowned entity.
const NoOwner = -1

// Unit is a typed bag of attributes sitting on a single cell (spec
// §3.1 "Unit").
type Unit struct {
	ID        bson.ObjectID  `bson:"_id"`
	TypeIndex int            `bson:"typeIndex"`
	Position  maps.Point     `bson:"position"`
	Bag       *attribute.Bag `bson:"bag"`
	// Hero is non-nil when a hero is attached to this unit (spec
	// §3.1 "Hero": "attached to at most one unit per owner"). The
	// KeyHero attribute tracks the hero's type index for
	// schema/reconciliation purposes; this field carries the actual
	// mutable charge/active-power state.
	Hero *Hero `bson:"hero,omitempty"`
}

// NewUnit builds a unit whose attribute bag is seeded from the
// effective schema for its type, owner, hero and commander power
// (spec §3.3). Callers that need a unit with no hero/commander may
// pass zero values for those rows.
func NewUnit(id bson.ObjectID, typeIndex int, pos maps.Point, rb *rulebook.Rulebook, owner int, heroTypeIndex int, hasHero bool, commanderTypeIndex int, hasCommander bool, activeCommanderPower int) (*Unit, error) {
	row, ok := rb.Units.Row(typeIndex)
	if !ok {
		return nil, fmt.Errorf("entity: unknown unit type %d", typeIndex)
	}
	schema := EffectiveSchema(rb, row.AttributeSchema, heroTypeIndex, hasHero, commanderTypeIndex, hasCommander, activeCommanderPower)
	bag := attribute.NewBag(schema)
	bag.Set(attribute.KeyOwner, attribute.Int(owner))
	return &Unit{ID: id, TypeIndex: typeIndex, Position: pos, Bag: bag}, nil
}

// Owner reads the owner attribute, or NoOwner if the schema doesn't
// carry one.
func (u *Unit) Owner() int {
	v, ok := u.Bag.Get(attribute.KeyOwner)
	if !ok {
		return NoOwner
	}
	return v.Int
}

// HP reads the hp attribute, or 0 if the schema doesn't carry one
// (a unit type without an hp attribute is never subject to the
// cleanup sweep's death check).
func (u *Unit) HP() int {
	v, ok := u.Bag.Get(attribute.KeyHP)
	if !ok {
		return 0
	}
	return v.Int
}

// CargoLen returns how many units are currently transported.
func (u *Unit) CargoLen() int {
	v, ok := u.Bag.Get(attribute.KeyTransportedCargo)
	if !ok {
		return 0
	}
	return len(v.IDList)
}

// EffectiveSchema computes the override chain from spec §3.3: the
// type-default schema, union commander attributes filtered by the
// currently active power, union hero attributes. hasHero/hasCommander
// gate whether the hero/commander rows contribute at all.
func EffectiveSchema(rb *rulebook.Rulebook, base attribute.Schema, heroTypeIndex int, hasHero bool, commanderTypeIndex int, hasCommander bool, activeCommanderPower int) attribute.Schema {
	schemas := []attribute.Schema{base}
	if hasCommander {
		if row, ok := rb.Commanders.Row(commanderTypeIndex); ok {
			schemas = append(schemas, row.AttributeSchema)
			if activeCommanderPower >= 0 && activeCommanderPower < len(row.Powers) {
				schemas = append(schemas, row.Powers[activeCommanderPower].AttributeOverlay)
			}
		}
	}
	if hasHero {
		if row, ok := rb.Heroes.Row(heroTypeIndex); ok {
			schemas = append(schemas, row.AttributeSchema)
		}
	}
	return attribute.Union(schemas...)
}

// Reconcile recomputes a unit's effective schema and applies it
// through Bag.Reconcile (spec §3.3: "changing owner, hero, or
// commander power must reconcile the attribute map").
func (u *Unit) Reconcile(rb *rulebook.Rulebook, heroTypeIndex int, hasHero bool, commanderTypeIndex int, hasCommander bool, activeCommanderPower int) error {
	row, ok := rb.Units.Row(u.TypeIndex)
	if !ok {
		return fmt.Errorf("entity: unknown unit type %d", u.TypeIndex)
	}
	schema := EffectiveSchema(rb, row.AttributeSchema, heroTypeIndex, hasHero, commanderTypeIndex, hasCommander, activeCommanderPower)
	u.Bag.Reconcile(schema)
	return nil
}

// ValidateUnit checks the invariants of spec §3.1(a-c): cargo length
// within declared capacity, hp within 0..=100. It does not check (b)
// (cargo schema subset), which is enforced at the moment cargo is
// loaded, not as a standing invariant re-checked on every read.
func ValidateUnit(u *Unit, rb *rulebook.Rulebook, capacity int) error {
	if u.CargoLen() > capacity {
		return fmt.Errorf("entity: unit %s carries %d cargo, exceeds capacity %d", u.ID.Hex(), u.CargoLen(), capacity)
	}
	if v, ok := u.Bag.Get(attribute.KeyHP); ok {
		if v.Int < 0 || v.Int > 100 {
			return fmt.Errorf("entity: unit %s has hp %d out of range 0..=100", u.ID.Hex(), v.Int)
		}
	}
	return nil
}

// IsDead delegates to the config-declared predicate for this unit's
// type (spec §7 cleanup sweep).
func (u *Unit) IsDead(rb *rulebook.Rulebook) bool {
	return rb.Units.IsDead(u.TypeIndex, u.Bag)
}
