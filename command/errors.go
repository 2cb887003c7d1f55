// Package command implements the command surface named in spec §6.3:
// EndTurn, UnitCommand, TerrainAction, TokenAction, CommanderPower.
// Each translates one player intent into an ordered sequence of
// events through an event.EventHandler scoped to that single command
// (spec §2: "Command handler translates a player intent into an
// ordered sequence of events via an EventHandler scoped to one
// command; on failure the handler rolls back"), calling out to
// pathfind for movement legality, combat for attack resolution, and
// combat.CleanupSweep for the post-command dead-material/fog pass
// (spec §7).
//
// Grounded on the teacher's diplomacy command surface
// (diplomacy/relations.go's Accept/Reject/Propose trio: validate
// preconditions against read-only state, mutate via a narrow
// recorder, return a typed error on any precondition failure) and, for
// the error taxonomy itself, on CommandError as a plain comparable
// struct in the stdlib errors.Is/As style the teacher never needed
// (the teacher's diplomacy package returns plain fmt.Errorf strings;
// this core's CommandError is the one ambient piece built without a
// pack dependency, since no errors-taxonomy library appears anywhere
// in the retrieval pack — justified in DESIGN.md).
package command

import "fmt"

// ErrorKind enumerates spec §7's "Command errors" taxonomy: returned
// to the caller, and trigger a full rollback of any events already
// recorded by the failing command.
type ErrorKind uint8

const (
	ErrNoVision ErrorKind = iota
	ErrMissingUnit
	ErrNotYourUnit
	ErrUnitCannotMove
	ErrUnitCannotCapture
	ErrUnitCannotBeBoarded
	ErrUnitCannotPull
	ErrUnitTypeWrong
	ErrInvalidPath
	ErrInvalidPoint
	ErrInvalidTarget
	ErrInvalidUnitType
	ErrInvalidAction
	ErrPowerNotUsable
	ErrBlocked
	ErrNotEnoughMoney
	ErrNotYourProperty
	ErrBuildLimitReached
	ErrCannotCaptureHere
	ErrInvalidCommanderPower
	ErrNotEnoughCharge
	ErrCannotRepairHere
	ErrCannotBuildHere
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNoVision:
		return "NoVision"
	case ErrMissingUnit:
		return "MissingUnit"
	case ErrNotYourUnit:
		return "NotYourUnit"
	case ErrUnitCannotMove:
		return "UnitCannotMove"
	case ErrUnitCannotCapture:
		return "UnitCannotCapture"
	case ErrUnitCannotBeBoarded:
		return "UnitCannotBeBoarded"
	case ErrUnitCannotPull:
		return "UnitCannotPull"
	case ErrUnitTypeWrong:
		return "UnitTypeWrong"
	case ErrInvalidPath:
		return "InvalidPath"
	case ErrInvalidPoint:
		return "InvalidPoint"
	case ErrInvalidTarget:
		return "InvalidTarget"
	case ErrInvalidUnitType:
		return "InvalidUnitType"
	case ErrInvalidAction:
		return "InvalidAction"
	case ErrPowerNotUsable:
		return "PowerNotUsable"
	case ErrBlocked:
		return "Blocked"
	case ErrNotEnoughMoney:
		return "NotEnoughMoney"
	case ErrNotYourProperty:
		return "NotYourProperty"
	case ErrBuildLimitReached:
		return "BuildLimitReached"
	case ErrCannotCaptureHere:
		return "CannotCaptureHere"
	case ErrInvalidCommanderPower:
		return "InvalidCommanderPower"
	case ErrNotEnoughCharge:
		return "NotEnoughCharge"
	case ErrCannotRepairHere:
		return "CannotRepairHere"
	case ErrCannotBuildHere:
		return "CannotBuildHere"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// CommandError is the typed, comparable error every command function
// returns on a rejected intent (spec §7). Point carries the cell the
// error concerns, when one is meaningful (e.g. Blocked(p)); it is the
// zero point otherwise.
type CommandError struct {
	Kind  ErrorKind
	Point PointRef
	Msg   string
}

// PointRef is a minimal coordinate pair so this package doesn't need
// to import maps just to carry an optional point on an error (kept
// distinct from maps.Point so CommandError stays comparable with ==
// the way errors.Is expects for a sentinel-shaped error).
type PointRef struct {
	X, Y int
}

func (e CommandError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("command: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("command: %s", e.Kind)
}

// Is supports errors.Is(err, command.CommandError{Kind: ...}) without
// requiring every field to match, so callers can test for a kind
// without constructing the exact same Msg/Point.
func (e CommandError) Is(target error) bool {
	t, ok := target.(CommandError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind ErrorKind, msg string) error {
	return CommandError{Kind: kind, Msg: msg}
}

func newErrAt(kind ErrorKind, x, y int, msg string) error {
	return CommandError{Kind: kind, Point: PointRef{X: x, Y: y}, Msg: msg}
}
