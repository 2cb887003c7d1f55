// Package players holds the per-game player state (spec §3.1
// "Player"): color, team, income/funds, and the attached commander.
// Unlike the teacher's players.Player (an account record), this is
// per-game state, closer in shape to the teacher's
// PlayerGameState — denormalized fields the event machine rewrites
// directly rather than a row fetched from an accounts service.
package players

import (
	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/entity"
)

// MaxColors is the number of distinct player colors a map supports
// (spec §3.1: "Color id 0..15").
const MaxColors = 16

// Player is one game's worth of a participant's state.
type Player struct {
	ColorID   int
	OwnerID   int
	TeamID    int
	Income    int64
	Funds     int64 // hidden from other teams in fog (spec §3.1)
	Dead      bool
	Commander *entity.Commander
	// Tags holds config-defined per-player flags/tags (spec §4.2's
	// PlayerFlag/PlayerSet/Replace/RemoveTag events), addressed by the
	// same Key/Value vocabulary as unit and terrain attributes.
	Tags *attribute.Bag
}

// NewPlayer builds a player in its starting state: alive, zero
// accrued funds.
func NewPlayer(colorID, ownerID, teamID int, income int64, tagSchema attribute.Schema) *Player {
	return &Player{ColorID: colorID, OwnerID: ownerID, TeamID: teamID, Income: income, Tags: attribute.NewBag(tagSchema)}
}

// CollectIncome adds this turn's income to the player's funds. It is
// a no-op for a dead player.
func (p *Player) CollectIncome() {
	if p.Dead {
		return
	}
	p.Funds += p.Income
}

// Eliminate marks the player dead. Dead players no longer collect
// income or act, but their entities remain on the map until the
// cleanup sweep removes them.
func (p *Player) Eliminate() {
	p.Dead = true
}

// SameTeam reports whether two players share a team, the predicate
// fog-of-war and friendly-fire checks consult throughout the core.
func SameTeam(a, b *Player) bool {
	return a.TeamID == b.TeamID
}
