package combat

import (
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
)

// DirectionModifier rotates a splash ring's push direction relative to
// the attack direction (spec §4.1). The sharp/blunt variants rotate by
// 2 or 1 hex steps and degenerate to a single rotate-by-one on square
// grids, matching DisplaceDirectionModifier::modify in
// original_source/src/combat/attack.rs.
type DirectionModifier uint8

const (
	ModKeep DirectionModifier = iota
	ModReverse
	ModSharpLeft
	ModBluntLeft
	ModSharpRight
	ModBluntRight
)

// Apply returns the direction dp.Direction should resolve to after
// this modifier, given the shape (hex sharp/blunt steps degenerate to
// a single rotate on square grids) and dp's accumulated mirror state.
func (m DirectionModifier) Apply(shape maps.Shape, dp maps.OrientedPoint) maps.Direction {
	switch m {
	case ModKeep:
		return dp.Direction
	case ModReverse:
		return shape.Opposite(dp.Direction)
	case ModSharpLeft:
		if shape == maps.Hex {
			return shape.Rotate(dp.Direction, 2, dp.Mirrored)
		}
		return shape.Rotate(dp.Direction, 1, dp.Mirrored)
	case ModBluntLeft:
		if shape == maps.Hex {
			return shape.Rotate(dp.Direction, 1, dp.Mirrored)
		}
		return shape.Rotate(dp.Direction, 1, dp.Mirrored)
	case ModSharpRight:
		if shape == maps.Hex {
			return shape.Rotate(dp.Direction, 2, !dp.Mirrored)
		}
		return shape.Rotate(dp.Direction, 1, !dp.Mirrored)
	case ModBluntRight:
		if shape == maps.Hex {
			return shape.Rotate(dp.Direction, 1, !dp.Mirrored)
		}
		return shape.Rotate(dp.Direction, 1, !dp.Mirrored)
	default:
		return dp.Direction
	}
}

// AttackTargetingFocus selects how a configured attack re-targets at
// resolution time (spec §4.1 "Re-targeting").
type AttackTargetingFocus uint8

const (
	FocusUnit AttackTargetingFocus = iota
	FocusPosition
	FocusRelative
)

// DisplaceSpec moves the defender along a resolved direction (spec
// §4.1 "Displace"). Distance/PushLimit are the pre-bonus base values;
// the effective values are computed at resolution time through
// BonusTable's "PushDistance"/"PushLimit" columns.
type DisplaceSpec struct {
	Distance     rational.Rat
	PushLimit    rational.Rat
	Throw        bool
	NeighborMode maps.NeighborMode
}

// RhaiSpec names a build script that populates AttackExecutables by
// calling the injected add_script/on_defend host API (spec §4.1
// "Rhai").
type RhaiSpec struct {
	BuildScript int
}

// ScriptSpecKind discriminates AttackInstance.Script's sum type.
type ScriptSpecKind uint8

const (
	ScriptDisplace ScriptSpecKind = iota
	ScriptRhai
)

// AttackInstance is one ring of a ConfiguredAttack's splash (spec
// §4.1).
type AttackInstance struct {
	SplashDistance      int
	Priority            rational.Rat
	DirectionModifier    DirectionModifier
	AllowsCounterAttack bool
	ScriptKind          ScriptSpecKind
	Displace            DisplaceSpec // meaningful iff ScriptKind == ScriptDisplace
	Rhai                RhaiSpec     // meaningful iff ScriptKind == ScriptRhai
}

// ConfiguredAttack is one static attack shape bound to a unit instance
// (spec §4.1).
type ConfiguredAttack struct {
	AttackPatternID   int
	SplashPatternKind SplashPatternKind
	SplashPatternID   int
	SplashRange       int
	Priority          int8
	Focus             AttackTargetingFocus
	Splash            []AttackInstance
}

// AttackExecutableKind discriminates the flattened unit of work (spec
// §4.1 "AttackExecutable").
type AttackExecutableKind uint8

const (
	ExecDisplace AttackExecutableKind = iota
	ExecRhai
)

// DisplaceArgs is the resolved (post-bonus, integer) payload for a
// displace executable.
type DisplaceArgs struct {
	TargetObservation int
	Direction         maps.Direction
	Distance          int
	PushLimit         int
	Throw             bool
	NeighborMode      maps.NeighborMode
}

// RhaiArgs is the payload for a script executable: the function to
// call (by name, exported from the build script's own add_script
// calls) plus its argument list, opaque to the combat package.
type RhaiArgs struct {
	FunctionName string
	Arguments    []any
}

// AttackExecutable is the flattened, priority-stamped unit of work
// produced by expanding one AttackInstance against one set of
// targets (spec §4.1). Executables from every instance in a priority
// group are stable-sorted by Priority before any of them run.
type AttackExecutable struct {
	Kind     AttackExecutableKind
	Priority rational.Rat
	Displace DisplaceArgs
	Rhai     RhaiArgs
}
