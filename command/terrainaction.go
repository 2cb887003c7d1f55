package command

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/combat"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
)

// TerrainActionKind discriminates the input a TerrainAction carries
// (spec §6.3 "TerrainAction(point, [input])").
type TerrainActionKind uint8

const (
	TerrainCapture TerrainActionKind = iota
	TerrainCancelCapture
	TerrainBuild
	TerrainRepair
)

// MaxBuildsPerTurn caps how many units one property may produce in a
// single turn, enforced against entity.Terrain.BuiltThisTurn (reset
// by EndTurn).
const MaxBuildsPerTurn = 1

// RepairAmount is the fixed HP a repair action restores to the unit
// standing on owner's property.
const RepairAmount = 2

// TerrainActionRequest is one player's terrain-targeted intent.
type TerrainActionRequest struct {
	Owner int
	Pos   maps.Point
	Kind  TerrainActionKind

	// BuildUnitType names the unit type to produce; meaningful iff
	// Kind == TerrainBuild.
	BuildUnitType int
}

// TerrainAction performs one of the capture/build/repair operations a
// property-owning (or property-capturing) player may take against the
// terrain at req.Pos (spec §6.3).
func TerrainAction(ctx *Context, req TerrainActionRequest) (Outcome, error) {
	g := ctx.Game
	terrain := g.Cell(req.Pos).Terrain
	h := begin(g)

	switch req.Kind {
	case TerrainCapture:
		unit := g.Cell(req.Pos).Unit
		if unit == nil {
			return fail(h, newErrAt(ErrMissingUnit, req.Pos.X, req.Pos.Y, "no unit there"))
		}
		if unit.Owner() != req.Owner {
			return fail(h, newErrAt(ErrNotYourUnit, req.Pos.X, req.Pos.Y, ""))
		}
		if err := doCapture(ctx, h, unit, req.Pos); err != nil {
			return fail(h, err)
		}

	case TerrainCancelCapture:
		if terrain == nil || terrain.Capture == nil {
			return fail(h, newErrAt(ErrCannotCaptureHere, req.Pos.X, req.Pos.Y, "no capture in progress"))
		}
		h.AddEvent(event.TerrainCaptureEvent{
			Pos:        req.Pos,
			OldCapture: cloneCapture(terrain.Capture),
			NewCapture: nil,
			OldOwner:   terrain.Owner,
			NewOwner:   terrain.Owner,
		})

	case TerrainBuild:
		if terrain == nil || terrain.Owner != req.Owner {
			return fail(h, newErrAt(ErrNotYourProperty, req.Pos.X, req.Pos.Y, ""))
		}
		if terrain.Exhausted || terrain.BuiltThisTurn >= MaxBuildsPerTurn {
			return fail(h, newErrAt(ErrBuildLimitReached, req.Pos.X, req.Pos.Y, ""))
		}
		if g.Cell(req.Pos).Unit != nil {
			return fail(h, newErrAt(ErrBlocked, req.Pos.X, req.Pos.Y, "cell occupied"))
		}
		if _, ok := ctx.Rules.Units.Row(req.BuildUnitType); !ok {
			return fail(h, newErrAt(ErrCannotBuildHere, req.Pos.X, req.Pos.Y, "unit type not buildable"))
		}
		unit, err := entity.NewUnit(bson.NewObjectID(), req.BuildUnitType, req.Pos, ctx.Rules, req.Owner, 0, false, 0, false, -1)
		if err != nil {
			return fail(h, newErrAt(ErrCannotBuildHere, req.Pos.X, req.Pos.Y, err.Error()))
		}
		h.AddEvent(event.UnitAddEvent{Pos: req.Pos, Unit: unit})
		h.AddEvent(event.TerrainCounterEvent{Pos: req.Pos, Field: event.TerrainBuiltThisTurn, Delta: 1})

	case TerrainRepair:
		if terrain == nil || terrain.Owner != req.Owner {
			return fail(h, newErrAt(ErrNotYourProperty, req.Pos.X, req.Pos.Y, ""))
		}
		unit := g.Cell(req.Pos).Unit
		if unit == nil || unit.Owner() != req.Owner {
			return fail(h, newErrAt(ErrCannotRepairHere, req.Pos.X, req.Pos.Y, "no friendly unit to repair"))
		}
		h.AddEvent(event.UnitHPChangeEvent{Pos: req.Pos, Delta: RepairAmount})

	default:
		return fail(h, newErr(ErrInvalidAction, "unrecognized terrain action"))
	}

	combat.CleanupSweep(ctx.scriptContext(), g, h, ctx.Table, ctx.Host, ctx.logger())
	return outcomeOf(h), nil
}
