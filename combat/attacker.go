package combat

import (
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/maps"
)

// AttackerPositionKind discriminates AttackerPosition's sum type.
type AttackerPositionKind uint8

const (
	// AttackerReal tracks a live unit through the observation table —
	// the common case.
	AttackerReal AttackerPositionKind = iota
	// AttackerGhost carries a detached unit snapshot with no map
	// position of its own, used for scripted attacks against a unit
	// that has already been removed from the board (e.g. a final-blow
	// effect computed from the dead unit's stats).
	AttackerGhost
)

// AttackerPosition names the attacker of one queued attack (spec
// §4.1's AttackerPosition::{Real, Ghost}).
type AttackerPosition struct {
	Kind              AttackerPositionKind
	ObservationID     int // meaningful iff Kind == AttackerReal
	GhostPoint        maps.Point
	GhostUnit         *entity.Unit
}

// AttackTargeting carries the pre-resolution aim: the originally
// selected point/direction, refined at resolution time by Retarget
// according to the attack's AttackTargetingFocus.
type AttackTargeting struct {
	Target             maps.OrientedPoint
	DirectionHint      maps.Direction
	DefenderObservation *int // set when Focus == FocusUnit
}

// Ballast is transient or persistent per-unit state accrued while
// moving (spec glossary "Ballast"). The combat package treats it as an
// opaque, forwardable slice — only pathfind/movement code interprets
// individual entries.
type Ballast struct {
	Kind  string
	Value int
}

// CounterStateKind discriminates CounterState's sum type (spec §4.1,
// ported from original_source's AttackCounterState).
type CounterStateKind uint8

const (
	NoCounter CounterStateKind = iota
	AllowCounter
	FakeCounter
	RealCounter
)

// CounterState records whether and how the current attack is itself a
// counter-attack. Per the resolved Open Question in SPEC_FULL
// §4.1.1, a RealCounter carries the *original attacker's* ballast
// chain forward rather than starting empty.
type CounterState struct {
	Kind                CounterStateKind
	Attacker            *entity.Unit
	AttackerPos         maps.Point
	Ballast             []Ballast
	OriginalTransporter *TransporterRef
}

// IsCounter reports whether this resolution is any kind of
// counter-attack.
func (c CounterState) IsCounter() bool {
	return c.Kind == RealCounter || c.Kind == FakeCounter
}

// TransporterRef names the transporter a unit was aboard at the
// moment its counter-attack was queued, kept for bonus computations
// that consult the carrying unit.
type TransporterRef struct {
	Unit *entity.Unit
	Pos  maps.Point
}

// AttackerInfo is one queued attack: who is attacking, what they are
// aiming at, and under what counter-attack framing (spec §4.1's
// AttackerInfo).
type AttackerInfo struct {
	Position         AttackerPosition
	Attack           ConfiguredAttack
	Targeting        AttackTargeting
	Transporter      *TransporterRef
	TemporaryBallast []Ballast
	CounterState     CounterState

	// Followup is set instead of a normal Attack when this queue entry
	// is a script-spawned follow-up from an on_defend registration
	// (spec §4.1 main loop, "for each followup"). A follow-up already
	// knows exactly which named script to run against which defender —
	// it skips re-targeting and splash expansion entirely and is run
	// as a single direct script call.
	Followup *FollowupCall
}

// FollowupCall names a script-spawned follow-up attack queued from an
// on_defend registration: the function to call, the defender it fires
// against, and how many on_defend re-registrations deep the chain
// already is.
type FollowupCall struct {
	ScriptName  string
	Args        []any
	DefenderPos maps.Point
	Depth       int
}
