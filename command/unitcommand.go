package command

import (
	"context"

	"github.com/nicoberrocal/gridwar/combat"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/pathfind"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// UnitActionKind discriminates the action a UnitCommand may take once
// it reaches the end of its path (spec §6.3 "UnitCommand {
// unload_index, path, action }").
type UnitActionKind uint8

const (
	ActionWait UnitActionKind = iota
	ActionAttack
	ActionCapture
	ActionUnload
)

// UnitCommandRequest is one player's move-then-act intent.
type UnitCommandRequest struct {
	Owner int
	From  maps.Point
	Path  []pathfind.Step

	Action       UnitActionKind
	AttackTarget maps.Point // ActionAttack

	// UnloadIndex names the cargo slot to disembark (ActionUnload); the
	// unit lands at UnloadTo, which must be empty.
	UnloadIndex *int
	UnloadTo    maps.Point
}

// UnitCommand walks req.Path one step at a time, validating each hop
// against pathfind's legality and budget rules, then performs req.Action
// at the destination (spec §6.3). Any failure — an illegal step, an
// over-budget path, an invalid action target — rolls back every event
// already recorded, including any completed hops.
func UnitCommand(ctx *Context, req UnitCommandRequest) (Outcome, error) {
	g := ctx.Game
	unit := g.Cell(req.From).Unit
	if unit == nil {
		return Outcome{}, newErrAt(ErrMissingUnit, req.From.X, req.From.Y, "no unit there")
	}
	if unit.Owner() != req.Owner {
		return Outcome{}, newErrAt(ErrNotYourUnit, req.From.X, req.From.Y, "")
	}
	row, ok := ctx.Rules.Units.Row(unit.TypeIndex)
	if !ok {
		return Outcome{}, newErr(ErrInvalidUnitType, "unit type not in rulebook")
	}
	player := g.Player(req.Owner)
	if player == nil {
		return Outcome{}, newErr(ErrInvalidAction, "unknown owner")
	}

	h := begin(g)

	dest, destOk := walkPath(g, ctx.Rules, h, unit, row, req.From, req.Path, player.TeamID)
	if !destOk {
		return fail(h, newErrAt(ErrInvalidPath, req.From.X, req.From.Y, "path not legal within movement budget"))
	}

	switch req.Action {
	case ActionWait:
		// no-op beyond the move itself
	case ActionAttack:
		if err := doAttack(ctx, h, unit, dest, row, req.AttackTarget, player.TeamID); err != nil {
			return fail(h, err)
		}
	case ActionCapture:
		if err := doCapture(ctx, h, unit, dest); err != nil {
			return fail(h, err)
		}
	case ActionUnload:
		if err := doUnload(ctx, h, dest, req.UnloadIndex, req.UnloadTo); err != nil {
			return fail(h, err)
		}
	default:
		return fail(h, newErr(ErrInvalidAction, "unrecognized action"))
	}

	combat.CleanupSweep(ctx.scriptContext(), g, h, ctx.Table, ctx.Host, ctx.logger())
	return outcomeOf(h), nil
}

// walkPath replays path one step at a time from origin, emitting a
// UnitMoveEvent per accepted hop and returning the final point. It
// reports ok=false on the first illegal or over-budget step; nothing
// needs undoing here directly since the caller's fail() unwinds h.
func walkPath(g *event.Game, rb *rulebook.Rulebook, h *event.EventHandler, unit *entity.Unit, row rulebook.UnitTypeRow, origin maps.Point, path []pathfind.Step, moverTeam int) (maps.Point, bool) {
	cur := pathfind.Point{Point: origin}
	mover := pathfind.MoverState{Owner: unit.Owner(), MovementType: row.DefaultMovementType, MovementPattern: row.DefaultMovementPattern}
	budget := row.BaseMovementPoints
	spent := rational.Zero

	for _, step := range path {
		dest, ok := step.Dest(g.Map, cur)
		if !ok {
			return maps.Point{}, false
		}
		cost, legal := pathfind.StepLegal(g, rb, mover, moverTeam, dest.Point)
		if !legal {
			return maps.Point{}, false
		}
		spent = rational.Add(spent, cost)
		if rational.Cmp(spent, budget) > 0 {
			return maps.Point{}, false
		}
		h.AddEvent(event.UnitMoveEvent{From: cur.Point, To: dest.Point})
		cur = dest
	}
	return cur.Point, true
}

// doAttack builds the single AttackerInfo for unit's configured weapon
// aimed at target and hands it to combat.Resolve (spec §4.1).
func doAttack(ctx *Context, h *event.EventHandler, unit *entity.Unit, at maps.Point, row rulebook.UnitTypeRow, target maps.Point, attackerTeam int) error {
	attack, ok := ctx.Combat.Weapons.ConfiguredAttack(row.WeaponID)
	if !ok {
		return newErr(ErrInvalidUnitType, "unit has no configured weapon")
	}
	if ctx.Game.Cell(target).Unit == nil {
		return newErrAt(ErrInvalidTarget, target.X, target.Y, "no defender there")
	}

	obs := combat.NewObservationTable()
	attackerObs := obs.Remember(at, nil)

	info := combat.AttackerInfo{
		Position: combat.AttackerPosition{Kind: combat.AttackerReal, ObservationID: attackerObs},
		Attack:   attack,
		Targeting: combat.AttackTargeting{
			Target: maps.OrientedPoint{Point: target},
		},
	}

	runCtx := ctx.scriptContext()
	combat.Resolve(runCtx, ctx.Game, h, ctx.Combat, ctx.Table, ctx.Host, ctx.logger(), obs, []combat.AttackerInfo{info}, attackerTeam, true)
	return nil
}

// doCapture advances or starts a capture attempt by unit's owner
// against the terrain at at, emitting a TerrainCaptureEvent (spec
// §6.3's capture action; grounded on entity.Terrain's
// StartCapture/AdvanceCapture, wrapped so the mutation stays an
// undoable event — see DESIGN.md).
func doCapture(ctx *Context, h *event.EventHandler, unit *entity.Unit, at maps.Point) error {
	terrain := ctx.Game.Cell(at).Terrain
	if terrain == nil {
		return newErrAt(ErrCannotCaptureHere, at.X, at.Y, "no terrain there")
	}
	if terrain.Owner == unit.Owner() {
		return newErrAt(ErrNotYourProperty, at.X, at.Y, "already owned by this player")
	}
	row, ok := ctx.Rules.Terrains.Row(terrain.TypeIndex)
	if !ok || row.CaptureResistance <= 0 {
		return newErrAt(ErrCannotCaptureHere, at.X, at.Y, "terrain cannot be captured")
	}

	oldCapture := cloneCapture(terrain.Capture)
	oldOwner := terrain.Owner

	progress := 0
	if terrain.Capture != nil && terrain.Capture.NewOwner == unit.Owner() {
		progress = terrain.Capture.Progress
	}
	progress++

	var newCapture *entity.CaptureState
	newOwner := oldOwner
	if progress >= row.CaptureResistance {
		newOwner = unit.Owner()
	} else {
		newCapture = &entity.CaptureState{NewOwner: unit.Owner(), Progress: progress}
	}

	h.AddEvent(event.TerrainCaptureEvent{
		Pos:        at,
		OldCapture: oldCapture,
		NewCapture: newCapture,
		OldOwner:   oldOwner,
		NewOwner:   newOwner,
	})
	return nil
}

func cloneCapture(c *entity.CaptureState) *entity.CaptureState {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// doUnload disembarks the transporter-at-at's cargo at unloadIndex
// onto unloadTo, which must be empty. The cargo unit's Position field
// is set directly before the add event — UnitAddEvent only rewires the
// cell map, the same way UnitMoveEvent sets Position as a side effect
// of relocating a unit already on the board.
func doUnload(ctx *Context, h *event.EventHandler, at maps.Point, unloadIndex *int, unloadTo maps.Point) error {
	if unloadIndex == nil {
		return newErr(ErrInvalidAction, "no cargo index given")
	}
	cargo := ctx.Game.CargoAt(at, *unloadIndex)
	if cargo == nil {
		return newErrAt(ErrMissingUnit, at.X, at.Y, "no cargo at that index")
	}
	if ctx.Game.Cell(unloadTo).Unit != nil {
		return newErrAt(ErrBlocked, unloadTo.X, unloadTo.Y, "destination occupied")
	}

	h.AddEvent(event.UnitRemoveBoardedEvent{TransporterPos: at, Index: *unloadIndex, Unit: cargo})
	cargo.Position = unloadTo
	h.AddEvent(event.UnitAddEvent{Pos: unloadTo, Unit: cargo})
	return nil
}

// scriptContext returns the context.Context a combat.Resolve call runs
// scripts under, defaulting to context.Background() since command
// functions don't themselves carry one (spec §5: a command is a pure
// function of game state, the command, and an RNG closure — no
// deadline/cancellation concept is named for it).
func (c *Context) scriptContext() context.Context {
	return context.Background()
}
