package command

import (
	"go.uber.org/zap"

	"github.com/nicoberrocal/gridwar/combat"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/rulebook"
	"github.com/nicoberrocal/gridwar/scripthost"
)

// Context bundles the dependencies every command function needs
// beyond the Game itself: the rulebook, the combat pipeline's own
// Config (bonus/pattern/splash/script/weapon tables), a script host
// bound fresh per command, and a logger. One Context is built per
// command the same way one event.EventHandler is (spec §5: "Command
// resolution is a pure function of (game state, command, RNG
// closure)") — nothing here outlives the command that built it.
type Context struct {
	Game    *event.Game
	Rules   *rulebook.Rulebook
	Combat  combat.Config
	Host    *scripthost.Host
	Table   *scripthost.Table
	Log     *zap.Logger
	RNG     func() float64
}

func (c *Context) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}

// Outcome is what every successful command returns: the per-
// perspective event projections an EventHandler accumulated, handed
// back instead of the handler itself so a caller can't keep mutating
// a command that has already been accepted.
type Outcome struct {
	Server  []event.Event
	Neutral []event.Event
	PerTeam map[int][]event.Event
}

func outcomeOf(h *event.EventHandler) Outcome {
	return Outcome{Server: h.Server, Neutral: h.Neutral, PerTeam: h.PerTeam}
}

// begin starts an EventHandler over every currently living team, the
// scope spec §4.2 describes an EventHandler as owning "for the span
// of one command".
func begin(g *event.Game) *event.EventHandler {
	return event.NewEventHandler(g, g.LivingTeams())
}

// fail cancels every event the handler has recorded so far (spec §5
// "Cancellation": "all emitted events are undone in reverse order and
// no partial state leaks") and returns err unchanged, so every command
// function can write `return fail(h, err)` at its one rollback point.
func fail(h *event.EventHandler, err error) (Outcome, error) {
	h.CancelAll()
	return Outcome{}, err
}
