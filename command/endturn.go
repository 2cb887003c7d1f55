package command

import (
	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/combat"
	"github.com/nicoberrocal/gridwar/event"
)

// exhaustedFlag is the config-defined boolean flag cleared for every
// unit belonging to the player whose turn is starting (spec §4.2
// "UnitFlag", SPEC_FULL §4.2: "the turn-rollover event sequence:
// exhaust flags clear, NextTurn fires...").
var exhaustedFlag = attribute.FlagKey("exhausted")

// EndTurn advances the turn counter for owner (who must be the
// current player), clears the incoming player's exhausted flags and
// per-turn property counters, collects their income, ticks commander
// charge, and runs the cleanup sweep (spec §6.3 "EndTurn", §7 cleanup
// sweep).
//
// Income collection is applied directly rather than through a logged
// event: it is a pure function of state already visible in the NextTurn
// event (the player's configured Income), so a client replaying the
// team's event projection recomputes the same number without needing a
// wire event for it; the commander's per-turn charge tick, by contrast,
// is logged as a CommanderChargeEvent. This follows the same reasoning
// event.CommanderPowerIndexEvent's doc comment gives for leaving
// attribute-schema reconciliation out of the logged event. See
// DESIGN.md.
func EndTurn(ctx *Context, owner int) (Outcome, error) {
	g := ctx.Game
	current := g.CurrentPlayer()
	if current == nil || current.OwnerID != owner {
		return Outcome{}, newErr(ErrInvalidAction, "it is not this player's turn")
	}

	h := begin(g)

	// Board order, not map order: the logged event sequence must come
	// out identical every time this command resolves from this state.
	incoming := g.Players[(g.CurrentTurn+1)%len(g.Players)].OwnerID
	for _, pos := range g.Map.AllPoints() {
		cell, ok := g.Cells[pos]
		if !ok || cell.Unit == nil || cell.Unit.Owner() != incoming {
			continue
		}
		if v, ok := cell.Unit.Bag.Get(exhaustedFlag); ok && v.Bool {
			h.AddEvent(event.UnitFlagEvent{Pos: pos, Flag: exhaustedFlag})
		}
	}

	h.AddEvent(event.NextTurnEvent{})

	next := g.CurrentPlayer()
	if next != nil {
		next.CollectIncome()
		if next.Commander != nil {
			h.AddEvent(event.CommanderChargeEvent{Owner: next.OwnerID, Delta: 1})
		}
		for _, pos := range g.Map.AllPoints() {
			cell, ok := g.Cells[pos]
			if !ok || cell.Terrain == nil || cell.Terrain.Owner != next.OwnerID {
				continue
			}
			if cell.Terrain.Exhausted {
				h.AddEvent(event.TerrainExhaustedEvent{Pos: pos})
			}
			if cell.Terrain.BuiltThisTurn != 0 {
				h.AddEvent(event.TerrainCounterEvent{Pos: pos, Field: event.TerrainBuiltThisTurn, Delta: -cell.Terrain.BuiltThisTurn})
			}
		}
	}

	combat.CleanupSweep(ctx.scriptContext(), g, h, ctx.Table, ctx.Host, ctx.logger())
	return outcomeOf(h), nil
}
