package event

import (
	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/maps"
)

// GlitchEffectTypeIndex is the effect type substituted for a script
// error (spec §7: "replaced with a single glitch effect").
const GlitchEffectTypeIndex = -1

// FogSurpriseEffectTypeIndex marks a displacement that probed a cell
// invisible to the acting team and found it blocked (spec §4.1: "a
// fog surprise visual... if the blocker is invisible to it").
const FogSurpriseEffectTypeIndex = -2

// Effect is a pure visual/audio event with no state side-effects
// (spec glossary "Effect"). Path-shaped effects (animations along a
// displacement or movement) carry every cell they pass through so
// ForPerspective can clip the path to what a perspective sees.
type Effect struct {
	TypeIndex int
	Path      []maps.Point // len 1 for a point effect
	Args      map[string]attribute.Value
}

// EffectEvent carries one Effect (spec §4.2 "Effect(Effect)").
type EffectEvent struct {
	Effect Effect
}

func (e EffectEvent) ApplyTo(g *Game)  {}
func (e EffectEvent) UndoFrom(g *Game) {}

// ForPerspective keeps only the longest contiguous run of path cells
// visible to persp (ties keep the first run); any other visible runs
// are dropped, not sent as separate fragments, and perspectives with
// no visibility into any of the path see nothing at all. When the kept
// run starts partway along the path, the projected effect simply
// begins at that cell; it carries no marker that its leading edge was
// clipped.
func (e EffectEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if len(e.Effect.Path) == 0 {
		return e, true
	}
	visible := make([]bool, len(e.Effect.Path))
	anyVisible := false
	for i, p := range e.Effect.Path {
		_, ok := VisibleAt(g, persp, p)
		visible[i] = ok
		anyVisible = anyVisible || ok
	}
	if !anyVisible {
		return nil, false
	}
	// Longest contiguous visible run; ties keep the first.
	bestStart, bestLen, curStart, curLen := 0, 0, 0, 0
	for i, v := range visible {
		if v {
			if curLen == 0 {
				curStart = i
			}
			curLen++
			if curLen > bestLen {
				bestStart, bestLen = curStart, curLen
			}
		} else {
			curLen = 0
		}
	}
	projected := e.Effect
	projected.Path = append([]maps.Point(nil), e.Effect.Path[bestStart:bestStart+bestLen]...)
	return EffectEvent{Effect: projected}, true
}

// EffectsEvent batches several simultaneous effects (spec §4.2
// "Effects([...])") — e.g. the one push-chain animation event plus the
// per-unit creation events a multi-unit shove fires together.
type EffectsEvent struct {
	Effects []Effect
}

func (e EffectsEvent) ApplyTo(g *Game)  {}
func (e EffectsEvent) UndoFrom(g *Game) {}
func (e EffectsEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	var kept []Effect
	for _, eff := range e.Effects {
		if proj, ok := (EffectEvent{Effect: eff}).ForPerspective(g, persp); ok {
			kept = append(kept, proj.(EffectEvent).Effect)
		}
	}
	if len(kept) == 0 {
		return nil, false
	}
	return EffectsEvent{Effects: kept}, true
}

// GlitchEffect builds the effect substituted for a failed script (spec
// §7).
func GlitchEffect() Effect {
	return Effect{TypeIndex: GlitchEffectTypeIndex}
}

// FogSurpriseEffect builds the effect fired at a blocked-push probe
// cell invisible to the attacker's team (spec §4.1).
func FogSurpriseEffect(p maps.Point) Effect {
	return Effect{TypeIndex: FogSurpriseEffectTypeIndex, Path: []maps.Point{p}}
}
