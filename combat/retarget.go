package combat

import (
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
)

// resolvedAttacker is the attacker unit/position looked up fresh at
// resolution time, through the observation table for a Real position
// or directly from the ghost snapshot.
type resolvedAttacker struct {
	Unit *entity.Unit
	Pos  maps.Point
}

func resolveAttacker(g *event.Game, obs *ObservationTable, pos AttackerPosition) (resolvedAttacker, bool) {
	switch pos.Kind {
	case AttackerGhost:
		return resolvedAttacker{Unit: pos.GhostUnit, Pos: pos.GhostPoint}, pos.GhostUnit != nil
	default:
		p, cargoIdx, _, ok := obs.Resolve(pos.ObservationID)
		if !ok {
			return resolvedAttacker{}, false
		}
		if cargoIdx != nil {
			u := g.CargoAt(p, *cargoIdx)
			if u == nil {
				return resolvedAttacker{}, false
			}
			return resolvedAttacker{Unit: u, Pos: p}, true
		}
		u := g.Cell(p).Unit
		if u == nil {
			return resolvedAttacker{}, false
		}
		return resolvedAttacker{Unit: u, Pos: p}, true
	}
}

// RetargetResult is the outcome of re-targeting one attacker info at
// resolution time (spec §4.1 "Re-targeting").
type RetargetResult struct {
	Direction     maps.Direction
	TargetsByDist [][]maps.OrientedPoint // index = splash distance from main target
}

// Retarget implements spec §4.1's re-targeting algorithm: across
// every direction the attacker's configured pattern allows, it prefers
// the smallest range; a perfect match on direction and exact target
// returns immediately, otherwise the first candidate found in
// ascending-range order wins.
func Retarget(g *event.Game, obs *ObservationTable, cfg Config, info AttackerInfo) (RetargetResult, bool) {
	attacker, ok := resolveAttacker(g, obs, info.Position)
	if !ok {
		return RetargetResult{}, false
	}
	pattern, ok := cfg.AttackPattern.Pattern(info.Attack.AttackPatternID)
	if !ok {
		return RetargetResult{}, false
	}

	allowedDirections := pattern.AllowedDirections(attacker.Unit, attacker.Pos)
	directionHint := info.Targeting.DirectionHint
	allowedDirections = preferDirection(allowedDirections, directionHint)

	var exactTarget *maps.Point
	switch info.Attack.Focus {
	case FocusUnit:
		if info.Targeting.DefenderObservation == nil {
			return RetargetResult{}, false
		}
		p, _, _, ok := obs.Resolve(*info.Targeting.DefenderObservation)
		if !ok {
			return RetargetResult{}, false
		}
		exactTarget = &p
	case FocusPosition:
		p := info.Targeting.Target.Point
		exactTarget = &p
	case FocusRelative:
		found := false
		for _, d := range allowedDirections {
			if d == directionHint {
				found = true
				break
			}
		}
		if !found {
			return RetargetResult{}, false
		}
		allowedDirections = []maps.Direction{directionHint}
	}

	type dirLayers struct {
		dir    maps.Direction
		layers [][]maps.OrientedPoint
	}
	var candidates []dirLayers
	maxRange := 0
	for _, d := range allowedDirections {
		layers := pattern.TargetsByRange(attacker.Unit, attacker.Pos, d)
		candidates = append(candidates, dirLayers{dir: d, layers: layers})
		if len(layers) > maxRange {
			maxRange = len(layers)
		}
	}

	var best *dirLayers
	for r := 0; r < maxRange; r++ {
		for i := range candidates {
			c := &candidates[i]
			if r >= len(c.layers) {
				continue
			}
			for _, dp := range c.layers[r] {
				if exactTarget != nil && dp.Point != *exactTarget {
					continue
				}
				if c.dir == directionHint && (exactTarget == nil || dp.Point == *exactTarget) {
					return RetargetResult{Direction: c.dir, TargetsByDist: c.layers}, true
				}
				if best == nil {
					best = c
				}
			}
		}
		if best != nil {
			break
		}
	}
	if best == nil {
		return RetargetResult{}, false
	}
	return RetargetResult{Direction: best.dir, TargetsByDist: best.layers}, true
}

func preferDirection(dirs []maps.Direction, hint maps.Direction) []maps.Direction {
	out := make([]maps.Direction, 0, len(dirs))
	found := false
	for _, d := range dirs {
		if d == hint {
			found = true
			continue
		}
		out = append(out, d)
	}
	if found {
		out = append([]maps.Direction{hint}, out...)
	}
	return out
}
