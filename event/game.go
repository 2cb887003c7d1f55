// Package event implements the event-sourced state machine (spec
// §4.2): a mutable Game, an Event interface with forward apply and
// exact inverse undo, and an EventHandler that records a server log
// plus per-perspective (neutral and per-team) projections for the
// span of one command, the way original_source's game/events.rs pairs
// Event::apply/Event::undo over its own Game type.
package event

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/players"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// Game is the single source of truth for one in-progress match: the
// map's cells, the players, per-team fog, and the turn counter. Every
// Event reads and rewrites it directly — nothing else is allowed to
// mutate it.
type Game struct {
	Map         maps.WrappingMap
	Cells       map[maps.Point]*entity.Cell
	Players     []*players.Player
	TeamFog     map[int]*fogmap.TeamFog
	NeutralFog  *fogmap.TeamFog
	FogMode     fogmap.FogMode
	CurrentTurn int
	Over        bool
	Rulebook    *rulebook.Rulebook

	// Cargo holds every currently-transported unit, keyed by its own
	// ID. A transported unit has no Position of its own — its
	// transporter's KeyTransportedCargo attribute is the only
	// reference to it (spec §3.2: "there are no back-pointers" beyond
	// that forward link).
	Cargo map[bson.ObjectID]*entity.Unit
}

// NewGame builds an empty game over the given map.
func NewGame(m maps.WrappingMap, rb *rulebook.Rulebook) *Game {
	return &Game{
		Map:        m,
		Cells:      make(map[maps.Point]*entity.Cell),
		TeamFog:    make(map[int]*fogmap.TeamFog),
		NeutralFog: fogmap.NewTeamFog(),
		Rulebook:   rb,
		Cargo:      make(map[bson.ObjectID]*entity.Unit),
	}
}

// Cell returns the cell at p, creating an empty one if none exists
// yet (a cell with no terrain/unit/tokens is a legal, if unusual,
// state — e.g. space beyond a hex map's playable area).
func (g *Game) Cell(p maps.Point) *entity.Cell {
	c, ok := g.Cells[p]
	if !ok {
		c = &entity.Cell{}
		g.Cells[p] = c
	}
	return c
}

// CargoAt returns the cargo index-th unit transported aboard the
// transporter at transporterPos, or nil if there is no transporter
// there or the index is out of range. Exported so packages outside
// event (combat's re-targeting, in particular) can resolve a
// transported unit the same way the event kinds themselves do.
func (g *Game) CargoAt(transporterPos maps.Point, index int) *entity.Unit {
	return cargoAt(g, transporterPos, index)
}

// Player looks up a player by owner id.
func (g *Game) Player(owner int) *players.Player {
	for _, p := range g.Players {
		if p.OwnerID == owner {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, by the usual
// round-robin over CurrentTurn.
func (g *Game) CurrentPlayer() *players.Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.CurrentTurn%len(g.Players)]
}

// LivingTeams returns the distinct team ids with at least one player
// still alive, the set the EventHandler projects a perspective log
// for.
func (g *Game) LivingTeams() []int {
	seen := make(map[int]bool)
	var out []int
	for _, p := range g.Players {
		if p.Dead {
			continue
		}
		if !seen[p.TeamID] {
			seen[p.TeamID] = true
			out = append(out, p.TeamID)
		}
	}
	return out
}
