package event

import (
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
)

// PerspectiveKind discriminates a viewing perspective: the
// unredacted server view, the public/neutral view, or a specific
// team's view.
type PerspectiveKind uint8

const (
	PerspectiveServer PerspectiveKind = iota
	PerspectiveNeutral
	PerspectiveTeam
)

// Perspective identifies who an event projection is being computed
// for. TeamID is only meaningful when Kind == PerspectiveTeam.
type Perspective struct {
	Kind   PerspectiveKind
	TeamID int
}

// Server is the unredacted perspective — every event is visible.
var Server = Perspective{Kind: PerspectiveServer}

// Neutral is the public, no-team perspective (spec §4.2: "neutral —
// public projection").
var Neutral = Perspective{Kind: PerspectiveNeutral}

// Team builds the perspective for a specific team id.
func Team(id int) Perspective {
	return Perspective{Kind: PerspectiveTeam, TeamID: id}
}

// VisibleAt reports whether a perspective currently has vision of p,
// and at what intensity. The server perspective always sees
// TrueSight.
func VisibleAt(g *Game, persp Perspective, p maps.Point) (fogmap.FogIntensity, bool) {
	switch persp.Kind {
	case PerspectiveServer:
		return fogmap.TrueSight, true
	case PerspectiveNeutral:
		if g.NeutralFog == nil {
			return fogmap.Dark, false
		}
		return g.NeutralFog.IntensityAt(p), g.NeutralFog.Visible.Contains(p)
	default:
		tf, ok := g.TeamFog[persp.TeamID]
		if !ok {
			return fogmap.Dark, false
		}
		return tf.IntensityAt(p), tf.Visible.Contains(p)
	}
}
