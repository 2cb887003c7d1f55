// Package rulebook declares the narrow, read-only interfaces the core
// uses to consult external configuration vocabularies (spec §6.1):
// attack_types, unit_types, terrain_types, token_types, hero_types,
// commander_types, effect_types. The core never parses a config file —
// it only calls these interfaces by name, grounded on the
// Provider/MemoryProvider split the teacher uses for diplomacy
// relations (one narrow interface, one in-memory implementation for
// tests — see the configfake subpackage).
package rulebook

import (
	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/rational"
)

// MovementPattern governs whether and how a unit may pass through
// other units while moving.
type MovementPattern string

const (
	MovementStandard          MovementPattern = "Standard"
	MovementStandardLoopLess  MovementPattern = "StandardLoopLess"
)

// VisionMode selects how a unit's vision field is computed (spec
// §4.3): Normal is concentric rings, Movement is the unit's reachable
// path graph.
type VisionMode uint8

const (
	VisionNormal VisionMode = iota
	VisionMovement
)

// SeeWhileMoving reports whether a unit with this vision mode
// contributes its own vision while mid-path (ported from
// original_source: Normal -> true, Movement -> false).
func (v VisionMode) SeeWhileMoving() bool {
	return v == VisionNormal
}

// DisplacementPolicy controls whether a unit type may be pushed,
// thrown over, or moved through by other units' movement.
type DisplacementPolicy struct {
	Displaceable     bool
	Transportable    bool
	Takeable         bool
	PassableWhenMoving bool
}

// UnitTypeRow is one row of the unit_types table.
type UnitTypeRow struct {
	Name                    string
	TransportableCargoTypes []int
	DefaultMovementPattern  MovementPattern
	DefaultMovementType     int
	BaseMovementPoints      rational.Rat
	VisionMode              VisionMode
	VisionRange             int
	TrueVisionRange         int
	WeaponID                int
	AttackPatternID         int
	Displacement            DisplacementPolicy
	CargoCapacity           int
	AttributeSchema         attribute.Schema
	// DeathScript is the on_death reaction fired by the cleanup sweep
	// while the dying unit is still on the board (spec §7 step 2,
	// original_source's DeathScript family); empty means none.
	DeathScript string
}

// TerrainTypeRow is one row of the terrain_types table. Movement cost
// is keyed by movement-type index rather than stored as a single
// value, since the same terrain costs differently for e.g. infantry
// vs. tracked vehicles.
type TerrainTypeRow struct {
	Name             string
	MovementCost     map[int]rational.Rat // movement type -> cost; absent = impassable
	AttackBonus      rational.Rat
	DefenseBonus     rational.Rat
	CaptureResistance int
	// VisionRange is the terrain's contribution to its owner's fog
	// field (spec §4.3); <= 0 means the terrain contributes no vision
	// of its own (original_source's terrain.rs::vision_range, which
	// returns None for most terrain types).
	VisionRange     int
	AttributeSchema attribute.Schema
}

// TokenTypeRow is one row of the token_types table.
type TokenTypeRow struct {
	Name          string
	OwnerPolicy   TokenOwnerPolicy
	VisionRange   int
}

// TokenOwnerPolicy constrains whether a token may carry an owner.
type TokenOwnerPolicy uint8

const (
	TokenOwnerNever TokenOwnerPolicy = iota
	TokenOwnerEither
	TokenOwnerAlways
)

// HeroTypeRow is one row of the hero_types table.
type HeroTypeRow struct {
	Name            string
	MaxCharge       int
	BaseCapacityBonus int
	AttributeSchema attribute.Schema
	Powers          []PowerRow
}

// CommanderTypeRow is one row of the commander_types table.
type CommanderTypeRow struct {
	Name            string
	MaxCharge       int
	AttributeSchema attribute.Schema
	Powers          []PowerRow
}

// PowerRow describes one commander or hero power: an input script that
// validates/collects arguments and an effect script that mutates state
// through the EventHandler proxy (spec §6.4).
type PowerRow struct {
	Name          string
	ChargeCost    int
	InputScript   string
	EffectScript  string
	AttributeOverlay attribute.Schema
}

// AttackTypeRow is one row of the attack_types table: the static shape
// of a ConfiguredAttack before it's bound to a specific unit instance.
type AttackTypeRow struct {
	Name string
}

// EffectTypeRow is one row of the effect_types table (pure
// visual/audio effects, spec glossary "Effect").
type EffectTypeRow struct {
	Name string
}

// UnitTypeTable is the read-only view over unit_types plus the
// "is dead" predicate (spec §7 cleanup sweep: "the config-declared 'is
// dead' predicate").
type UnitTypeTable interface {
	Row(typeIndex int) (UnitTypeRow, bool)
	IsDead(typeIndex int, bag *attribute.Bag) bool
}

// TerrainTypeTable is the read-only view over terrain_types.
type TerrainTypeTable interface {
	Row(typeIndex int) (TerrainTypeRow, bool)
}

// TokenTypeTable is the read-only view over token_types.
type TokenTypeTable interface {
	Row(typeIndex int) (TokenTypeRow, bool)
}

// HeroTypeTable is the read-only view over hero_types.
type HeroTypeTable interface {
	Row(typeIndex int) (HeroTypeRow, bool)
}

// CommanderTypeTable is the read-only view over commander_types.
type CommanderTypeTable interface {
	Row(typeIndex int) (CommanderTypeRow, bool)
}

// AttackTypeTable is the read-only view over attack_types.
type AttackTypeTable interface {
	Row(typeIndex int) (AttackTypeRow, bool)
}

// EffectTypeTable is the read-only view over effect_types.
type EffectTypeTable interface {
	Row(typeIndex int) (EffectTypeRow, bool)
}

// Rulebook aggregates every vocabulary table the core consults. It is
// injected once per Game and threaded through combat/event/fog code —
// nothing in the core ever constructs one itself.
type Rulebook struct {
	Units       UnitTypeTable
	Terrains    TerrainTypeTable
	Tokens      TokenTypeTable
	Heroes      HeroTypeTable
	Commanders  CommanderTypeTable
	AttackTypes AttackTypeTable
	Effects     EffectTypeTable
}
