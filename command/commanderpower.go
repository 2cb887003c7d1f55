package command

import (
	"context"

	"github.com/nicoberrocal/gridwar/combat"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/rulebook"
	"github.com/nicoberrocal/gridwar/scripthost"
)

// CommanderPower activates power index for owner's commander (spec
// §6.3 "CommanderPower(index, [input])"): validates the index and
// charge cost, switches the active power, spends charge, reconciles
// every unit owner controls against the new schema (spec §3.3), and
// runs the power's effect script with inputs bound as its argument
// list.
//
// A non-empty InputScript runs first as a pure validity check (spec
// §6.4's "input script that validates/collects arguments") — it may
// reject the call (PowerNotUsable) before anything is mutated, but
// unlike EffectScript it has no EventHandler access, since validation
// must not itself be a source of state change.
func CommanderPower(ctx *Context, owner, index int, inputs []any) (Outcome, error) {
	g := ctx.Game
	player := g.Player(owner)
	if player == nil || player.Commander == nil {
		return Outcome{}, newErr(ErrInvalidCommanderPower, "no commander for this player")
	}
	row, ok := ctx.Rules.Commanders.Row(player.Commander.TypeIndex)
	if !ok || index < 0 || index >= len(row.Powers) {
		return Outcome{}, newErr(ErrInvalidCommanderPower, "power index out of range")
	}
	power := row.Powers[index]
	if !player.Commander.CanAfford(power.ChargeCost) {
		return Outcome{}, newErr(ErrNotEnoughCharge, "")
	}

	table := scripthost.NewTable()
	host, err := newPowerHost(table)
	if err != nil {
		return Outcome{}, newErr(ErrInvalidAction, "failed to start script host: "+err.Error())
	}
	runCtx := context.Background()

	if power.InputScript != "" {
		inputSess := &powerSession{Log: ctx.logger(), Owner: owner, CallArgs: inputs, Game: g, Rules: ctx.Rules}
		if ok := checkInputScript(runCtx, host, table, power.InputScript, inputSess); !ok {
			return Outcome{}, newErr(ErrPowerNotUsable, "input validation rejected this power")
		}
	}

	h := begin(g)

	h.AddEvent(event.CommanderPowerIndexEvent{Owner: owner, OldIndex: player.Commander.ActivePower, NewIndex: index})
	h.AddEvent(event.CommanderChargeEvent{Owner: owner, Delta: -power.ChargeCost})
	reconcileCommanderUnits(g, ctx.Rules, owner, player.Commander.TypeIndex, index)

	sess := &powerSession{Log: ctx.logger(), Owner: owner, CallArgs: inputs, Game: g, Rules: ctx.Rules, Handler: h}
	runEffectScript(runCtx, host, table, power.EffectScript, sess)
	if sess.Glitched {
		h.AddEvent(event.EffectEvent{Effect: event.GlitchEffect()})
	}

	combat.CleanupSweep(ctx.scriptContext(), g, h, ctx.Table, ctx.Host, ctx.logger())
	return outcomeOf(h), nil
}

// checkInputScript evaluates an input script's Input entry point as a
// pure predicate. Any failure to eval/resolve/type-assert it is
// treated as rejection rather than a glitch, since an input script
// gates whether the power runs at all.
func checkInputScript(ctx context.Context, host *scripthost.Host, table *scripthost.Table, source string, sess *powerSession) bool {
	tok := table.Register(sess)
	defer table.Release(tok)

	fnVal, err := host.Eval(source, "Input")
	if err != nil {
		return false
	}
	fn, ok := fnVal.(func(int64) bool)
	if !ok {
		return false
	}
	result, err := scripthost.CallTimeout(ctx, func() (any, error) {
		return fn(int64(tok)), nil
	})
	if err != nil {
		return false
	}
	ok, _ = result.(bool)
	return ok
}

// reconcileCommanderUnits recomputes the attribute schema of every
// unit owner controls after a commander power switch (spec §3.3:
// "changing owner, hero, or commander power must reconcile the
// attribute map"), applied directly rather than through a logged event
// — the same design CommanderPowerIndexEvent's own doc comment
// describes, since the reconciled schema is a pure function of state
// the NewIndex event already exposes.
func reconcileCommanderUnits(g *event.Game, rb *rulebook.Rulebook, owner, commanderTypeIndex, activePower int) {
	for _, cell := range g.Cells {
		if cell.Unit == nil || cell.Unit.Owner() != owner {
			continue
		}
		heroTypeIndex, hasHero := 0, false
		if cell.Unit.Hero != nil {
			heroTypeIndex, hasHero = cell.Unit.Hero.TypeIndex, true
		}
		cell.Unit.Reconcile(rb, heroTypeIndex, hasHero, commanderTypeIndex, true, activePower)
	}
}
