package combat

import (
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
)

// WalkerProvider supplies the adjacency graph a displacement walk
// should use for a given NeighborMode (spec §4.1: "some configurations
// allow displacement through pipes"). The pipe-adjacency table itself
// is part of the external terrain vocabulary (spec §6.1, out of
// scope); a caller that has one wires it in here, otherwise every
// mode falls back to the plain wrapped grid.
type WalkerProvider interface {
	Walker(mode maps.NeighborMode) (maps.Walker, bool)
}

func (c Config) walkerFor(m maps.WrappingMap, mode maps.NeighborMode) maps.Walker {
	if c.Walkers != nil {
		if w, ok := c.Walkers.Walker(mode); ok {
			return w
		}
	}
	return maps.StandardWalker{Map: m}
}

// walkHop is one step of a displacement walk: the landing point and
// the distortion incurred getting there from the previous hop.
type walkHop struct {
	Point      maps.Point
	Distortion maps.Distortion
}

func walkWithDistortion(w maps.Walker, shape maps.Shape, from maps.Point, dir maps.Direction, steps int) []walkHop {
	out := make([]walkHop, 0, steps)
	cur := from
	curDir := dir
	for i := 0; i < steps; i++ {
		np, dist, ok := w.Neighbor(cur, curDir)
		if !ok {
			break
		}
		out = append(out, walkHop{Point: np, Distortion: dist})
		cur = np
		curDir = shape.Apply(curDir, dist)
	}
	return out
}

func invisibleToTeam(g *event.Game, teamID int, p maps.Point) bool {
	intensity, visible := event.VisibleAt(g, event.Team(teamID), p)
	return !visible || intensity == fogmap.Dark
}

// ExecuteDisplace runs one Displace executable (spec §4.1 "Executable
// execution"): it looks the target up by observation id (which may
// have moved since the id was minted), walks the resolved direction,
// and either throws the target over any blockers or pushes a chain of
// up to PushLimit units ahead of it.
func ExecuteDisplace(g *event.Game, h *event.EventHandler, obs *ObservationTable, cfg Config, args DisplaceArgs, attackerTeamID int) {
	targetPoint, _, _, ok := obs.Resolve(args.TargetObservation)
	if !ok {
		return
	}
	walker := cfg.walkerFor(g.Map, args.NeighborMode)
	totalSteps := args.Distance + args.PushLimit
	if args.Throw {
		totalSteps = args.Distance
	}
	if totalSteps <= 0 {
		return
	}
	path := walkWithDistortion(walker, g.Map.ShapeKind, targetPoint, args.Direction, totalSteps)

	if args.Throw {
		executeThrow(g, h, obs, path, args, targetPoint, attackerTeamID)
		return
	}
	executePush(g, h, obs, path, args, targetPoint, attackerTeamID)
}

func executeThrow(g *event.Game, h *event.EventHandler, obs *ObservationTable, path []walkHop, args DisplaceArgs, targetPoint maps.Point, attackerTeamID int) {
	if len(path) < args.Distance {
		return
	}
	dest := path[args.Distance-1]
	if g.Cell(dest.Point).Unit != nil {
		if invisibleToTeam(g, attackerTeamID, dest.Point) {
			h.AddEvent(event.EffectEvent{Effect: event.FogSurpriseEffect(dest.Point)})
		}
		return
	}
	moveAndTrack(g, h, obs, args.TargetObservation, targetPoint, dest.Point, dest.Distortion)
}

func executePush(g *event.Game, h *event.EventHandler, obs *ObservationTable, path []walkHop, args DisplaceArgs, targetPoint maps.Point, attackerTeamID int) {
	cur := targetPoint
	idx := -1 // cur sits one step before path[idx+1]; idx==-1 means cur==targetPoint
	for step := 0; step < args.Distance; step++ {
		maxScan := args.PushLimit + 2
		landingOffset := -1
		for k := 0; k < maxScan && idx+1+k < len(path); k++ {
			if g.Cell(path[idx+1+k].Point).Unit == nil {
				landingOffset = k
				break
			}
		}
		if landingOffset == -1 || landingOffset > args.PushLimit+1 {
			for k := 0; k < maxScan && idx+1+k < len(path); k++ {
				cand := path[idx+1+k].Point
				if invisibleToTeam(g, attackerTeamID, cand) {
					h.AddEvent(event.EffectEvent{Effect: event.FogSurpriseEffect(cand)})
				}
			}
			return
		}

		// chainCells[0]=cur ... chainCells[landingOffset]=path[idx+landingOffset]; landing=path[idx+1+landingOffset]
		chainPoints := make([]maps.Point, landingOffset+1)
		chainPoints[0] = cur
		for i := 0; i < landingOffset; i++ {
			chainPoints[i+1] = path[idx+1+i].Point
		}
		landing := path[idx+1+landingOffset]

		var effects []event.Effect
		for i := landingOffset; i >= 0; i-- {
			src := chainPoints[i]
			var dst maps.Point
			var dist maps.Distortion
			if i == landingOffset {
				dst, dist = landing.Point, landing.Distortion
			} else {
				dst, dist = chainPoints[i+1], path[idx+1+i].Distortion
			}
			effects = append(effects, event.Effect{TypeIndex: 0, Path: []maps.Point{src, dst}})
			moveAndTrack(g, h, obs, 0, src, dst, dist)
		}
		if len(effects) > 0 {
			h.AddEvent(event.EffectsEvent{Effects: effects})
		}

		if landingOffset == 0 {
			cur = landing.Point
		} else {
			cur = chainPoints[1]
		}
		idx++
	}
}

// moveAndTrack relocates whichever unit sits at `from` to `to` via the
// event log and updates the observation table — obsID (0 means "not
// tracked, find by point") plus every other untransported observation
// of `from` — so later executables in this resolution keep resolving
// to the right cell.
func moveAndTrack(g *event.Game, h *event.EventHandler, obs *ObservationTable, obsID int, from, to maps.Point, dist maps.Distortion) {
	h.AddEvent(event.UnitMoveEvent{From: from, To: to})
	for id, r := range obs.records {
		if id == obsID || (r.CargoIndex == nil && r.Point == from) {
			obs.UpdateAfterMove(id, to, dist)
		}
	}
}
