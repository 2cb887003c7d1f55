package event

// Event is one atomic, invertible state mutation (spec §4.2). Every
// concrete event type implements forward ApplyTo and an exact inverse
// UndoFrom: UndoFrom after ApplyTo must restore structural equality,
// ported from original_source's paired Event::apply/Event::undo.
type Event interface {
	ApplyTo(g *Game)
	UndoFrom(g *Game)
	// ForPerspective returns the (possibly redacted, possibly absent)
	// projection of this event for persp. ok is false when the event
	// is entirely invisible from that perspective (e.g. a unit move
	// inside another team's fog).
	ForPerspective(g *Game, persp Perspective) (ev Event, ok bool)
}

// EventHandler records one command's worth of events: the unredacted
// server log plus one projected list per perspective, all the same
// length and index-aligned so Cancel can undo a prefix coherently
// (spec §4.2: "An EventHandler owned for the span of one command").
type EventHandler struct {
	Game    *Game
	Server  []Event
	Neutral []Event // index i is nil if Server[i] is invisible to Neutral
	PerTeam map[int][]Event
}

// NewEventHandler starts a log for g. teams lists the team ids to
// track per-perspective logs for (typically Game.LivingTeams at
// command start).
func NewEventHandler(g *Game, teams []int) *EventHandler {
	h := &EventHandler{Game: g, PerTeam: make(map[int][]Event, len(teams))}
	for _, t := range teams {
		h.PerTeam[t] = nil
	}
	return h
}

// AddEvent applies e to the game and appends it (and its per-
// perspective projections) to every tracked log.
func (h *EventHandler) AddEvent(e Event) {
	e.ApplyTo(h.Game)
	h.Server = append(h.Server, e)

	if proj, ok := e.ForPerspective(h.Game, Neutral); ok {
		h.Neutral = append(h.Neutral, proj)
	} else {
		h.Neutral = append(h.Neutral, nil)
	}
	for team := range h.PerTeam {
		if proj, ok := e.ForPerspective(h.Game, Team(team)); ok {
			h.PerTeam[team] = append(h.PerTeam[team], proj)
		} else {
			h.PerTeam[team] = append(h.PerTeam[team], nil)
		}
	}
}

// Cancel undoes the last n events, in reverse order, popping them
// (and their projections) off every log.
func (h *EventHandler) Cancel(n int) {
	for i := 0; i < n && len(h.Server) > 0; i++ {
		last := len(h.Server) - 1
		h.Server[last].UndoFrom(h.Game)
		h.Server = h.Server[:last]
		if len(h.Neutral) > 0 {
			h.Neutral = h.Neutral[:len(h.Neutral)-1]
		}
		for team, log := range h.PerTeam {
			if len(log) > 0 {
				h.PerTeam[team] = log[:len(log)-1]
			}
		}
	}
}

// CancelAll undoes every event recorded so far, leaving the handler
// empty (used when a command surfaces a CommandError after partially
// applying itself).
func (h *EventHandler) CancelAll() {
	h.Cancel(len(h.Server))
}

// Degenerate reports whether the neutral log is identical to the
// server log in length and every entry non-nil — i.e. a fog-off game,
// matching spec §4.2's "If server == neutral it degenerates to a
// single public list".
func (h *EventHandler) Degenerate() bool {
	if len(h.Neutral) != len(h.Server) {
		return false
	}
	for _, e := range h.Neutral {
		if e == nil {
			return false
		}
	}
	return true
}
