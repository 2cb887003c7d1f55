// Package combat implements the priority-ordered attack resolution
// pipeline (spec §4.1 — "the hardest subsystem"): a queue of
// configured attacks bucketed by outer priority, splash-ring expansion
// into displace/script executables stamped with an inner rational
// priority, counter-attack discovery, and a script embedding surface
// for on-defend reactions and scripted follow-up attacks.
//
// Grounded on original_source's src/combat/{mod,attack,rhai_combat}.rs:
// ConfiguredAttack/AttackInstance/AttackExecutable keep the source's
// field shapes; AttackContext's remember_unit/attacker_bonus/
// defender_bonus/attack_bonus/add_script/on_defend callbacks are
// realized through scripthost.Token instead of a raw &mut EventHandler
// pointer (spec §9).
package combat

import (
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
)

// BonusContext is the read-only context bonus functions compute over:
// the attacker, the (optional) defender, both positions, and whether
// this resolution is a counter-attack. It is a plain struct rather
// than *entity.Unit pointers threaded through rulebook, because
// rulebook must not import entity (entity already imports rulebook)
// — these interfaces live in combat instead, which already depends on
// both.
type BonusContext struct {
	Attacker    *entity.Unit
	Defender    *entity.Unit
	AttackerPos maps.Point
	DefenderPos maps.Point
	IsCounter   bool

	// Heroes is the read-only (point, owner) -> hero snapshot taken
	// once per resolve_equal_priority batch (spec §4.1 step 1), so a
	// BonusTable can weigh a hero's influence over the attacker's or
	// defender's cell without querying the live board itself.
	Heroes []HeroInfluence
}

// BonusTable computes the three named bonus columns through
// config-declared functions (spec §4.1: "attacker_bonus",
// "defender_bonus", "attack_bonus... through the config tables") plus
// the two displacement-specific columns ("PushDistance", "PushLimit")
// used by Displace executables.
type BonusTable interface {
	AttackerBonus(column string, base rational.Rat, ctx BonusContext) rational.Rat
	DefenderBonus(column string, base rational.Rat, ctx BonusContext) rational.Rat
	AttackBonus(column string, base rational.Rat, ctx BonusContext) rational.Rat
}

// AttackPattern reports, for one attacker instance, which directions
// it may attack in and — per direction — the oriented target points
// at each range layer (index 0 = adjacent/minimum range).
type AttackPattern interface {
	AllowedDirections(u *entity.Unit, pos maps.Point) []maps.Direction
	TargetsByRange(u *entity.Unit, pos maps.Point, dir maps.Direction) [][]maps.OrientedPoint
}

// AttackPatternTable resolves a unit type's configured attack pattern
// id (rulebook.UnitTypeRow.AttackPatternID) to an AttackPattern.
type AttackPatternTable interface {
	Pattern(attackPatternID int) (AttackPattern, bool)
}

// SplashPatternKind distinguishes where an attack's splash-ring points
// come from: the attack pattern's own target layers, or a separate
// geometric splash shape centered on the chosen target (spec §4.1
// "splash pattern... parametric on the attack direction").
type SplashPatternKind uint8

const (
	SplashFromAttackPattern SplashPatternKind = iota
	SplashFromShape
)

// SplashShape computes the oriented points at splashDistance rings
// away from a chosen target point, given the attack direction. The
// resolution pipeline does not consult it: splash rings always come
// from the attack pattern's own target layers, whatever the attack's
// SplashPatternKind.
type SplashShape interface {
	RingPoints(m maps.WrappingMap, target maps.OrientedPoint, dir maps.Direction, distance int) []maps.OrientedPoint
}

// SplashPatternTable resolves a configured attack's splash shape id.
type SplashPatternTable interface {
	Shape(splashPatternID int) (SplashShape, bool)
}

// ScriptTable resolves a Rhai build-script index (RhaiSpec.BuildScript)
// to interpretable source code (spec §6.1: "attack_types... are
// loaded from tabular configuration" — the source column for a Rhai
// cell is itself a script body).
type ScriptTable interface {
	BuildScriptSource(index int) (string, bool)
}

// WeaponTable resolves a unit type's WeaponID
// (rulebook.UnitTypeRow.WeaponID) to the ConfiguredAttack it fires —
// the static attack shape a unit instance is bound to (spec §4.1
// "ConfiguredAttack: per-attack shape").
type WeaponTable interface {
	ConfiguredAttack(weaponID int) (ConfiguredAttack, bool)
}

// Config aggregates every external table the combat package consults
// beyond rulebook.Rulebook (spec §6.1's vocabulary plus the
// combat-specific bonus/pattern/script tables named in §4.1/§6.4).
type Config struct {
	Bonus         BonusTable
	AttackPattern AttackPatternTable
	SplashPattern SplashPatternTable
	Scripts       ScriptTable
	Weapons       WeaponTable

	// Walkers supplies a non-default adjacency graph for displacement
	// (spec §4.1 push/throw over NeighborMode). Nil means every mode
	// falls back to the plain wrapped grid.
	Walkers WalkerProvider
}
