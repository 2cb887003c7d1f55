package combat

import (
	"context"

	"go.uber.org/zap"

	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/pathfind"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/rulebook"
	"github.com/nicoberrocal/gridwar/scripthost"
)

// maxCleanupPasses bounds the cleanup sweep's fixed-point iteration
// (spec §7: "repeat up to 100 times or until a fixed point is
// reached") — a mass-death event can itself make another unit's
// viability predicate fail (e.g. a transporter carrying a unit whose
// survival depends on it), so one pass is not always enough.
const maxCleanupPasses = 100

type deadUnit struct {
	Point maps.Point
	Unit  *entity.Unit
}

// CleanupSweep runs after every top-level command and after each
// resolved priority level in the combat pipeline (spec §7): mark dead
// units, run their on_death scripts, remove whatever stayed dead,
// recompute player viability, end the game if fewer than two teams
// remain, then recompute fog. Dead units are found, scripted, and
// removed in board order (row by row), never map-iteration order —
// the event log must replay identically from the same state (spec §5).
//
// table/host are the command's combat script host; either may be nil,
// in which case on_death scripts are skipped (a caller with no
// scripting surface still gets the removal/viability/fog passes).
func CleanupSweep(ctx context.Context, g *event.Game, h *event.EventHandler, table *scripthost.Table, host *scripthost.Host, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	if g.Rulebook == nil || g.Rulebook.Units == nil {
		recomputeFog(g, h)
		return
	}
	for pass := 0; pass < maxCleanupPasses; pass++ {
		dead := findDead(g)
		if len(dead) == 0 {
			break
		}
		log.Debug("combat: cleanup sweep removing dead units", zap.Int("pass", pass), zap.Int("count", len(dead)))
		for _, d := range dead {
			runOnDeath(ctx, g, h, table, host, log, d)
			// An on_death script may have revived its unit (or a
			// script earlier in this pass may have displaced it);
			// only remove what is still dead and still here.
			u := g.Cell(d.Point).Unit
			if u != d.Unit || !g.Rulebook.Units.IsDead(u.TypeIndex, u.Bag) {
				continue
			}
			h.AddEvent(event.UnitRemoveEvent{Pos: d.Point, Unit: d.Unit})
		}
		recomputeViability(g, h)
	}
	recomputeFog(g, h)
}

// runOnDeath fires the dying unit's configured on_death script (spec
// §7 step 2) with the unit still on the board. A script error is
// logged and substituted with a glitch effect, never surfaced.
func runOnDeath(ctx context.Context, g *event.Game, h *event.EventHandler, table *scripthost.Table, host *scripthost.Host, log *zap.Logger, d deadUnit) {
	if table == nil || host == nil {
		return
	}
	row, ok := g.Rulebook.Units.Row(d.Unit.TypeIndex)
	if !ok || row.DeathScript == "" {
		return
	}
	sess := &buildSession{
		Log: log, Obs: NewObservationTable(), Game: g, Handler: h,
		Defender: d.Unit, DefenderPos: d.Point,
	}
	RunDeathScript(ctx, host, table, row.DeathScript, sess)
	if sess.Glitched {
		h.AddEvent(event.EffectEvent{Effect: event.GlitchEffect()})
	}
}

// findDead scans the board in row order — not g.Cells map order — so
// that the mass-death events (and the on_death scripts before them)
// fire in the same sequence every time the same command resolves.
func findDead(g *event.Game) []deadUnit {
	var dead []deadUnit
	for _, p := range g.Map.AllPoints() {
		cell, ok := g.Cells[p]
		if !ok || cell.Unit == nil {
			continue
		}
		if g.Rulebook.Units.IsDead(cell.Unit.TypeIndex, cell.Unit.Bag) {
			dead = append(dead, deadUnit{Point: p, Unit: cell.Unit})
		}
	}
	return dead
}

// recomputeViability marks any no-longer-viable player dead and ends
// the game once fewer than two teams remain (spec §7 steps 4-5).
// Returns whether anything changed, so a caller iterating to a fixed
// point knows whether another pass could matter.
func recomputeViability(g *event.Game, h *event.EventHandler) bool {
	changed := false
	for _, p := range g.Players {
		if p.Dead {
			continue
		}
		if !playerViable(g, p.OwnerID) {
			h.AddEvent(event.PlayerDiesEvent{Owner: p.OwnerID})
			changed = true
		}
	}
	if g.Over {
		return changed
	}
	if len(g.LivingTeams()) < 2 {
		h.AddEvent(event.GameEndsEvent{})
		changed = true
	}
	return changed
}

func playerViable(g *event.Game, owner int) bool {
	for _, cell := range g.Cells {
		if cell.Unit != nil && cell.Unit.Owner() == owner {
			return true
		}
	}
	return false
}

// recomputeFog rebuilds every perspective's visibility from the board
// (spec §7 step 5, ported from original_source's
// game.rs::recalculate_fog): the whole map is first ambient-filled at
// the active fog setting's floor intensity, then every owned unit,
// terrain and token layers its own graded vision field on top via
// Combine. When the setting is None (not foggy), the floor is
// TrueSight everywhere and no contributor scan is needed at all.
func recomputeFog(g *event.Game, h *event.EventHandler) {
	if g.Rulebook == nil || g.Rulebook.Units == nil {
		return
	}
	setting := g.FogMode.FogSetting(g.CurrentTurn, len(g.Players))
	ambient := setting.Intensity()

	perspectives := make([]event.Perspective, 0, len(g.LivingTeams())+1)
	for _, t := range g.LivingTeams() {
		perspectives = append(perspectives, event.Team(t))
	}
	perspectives = append(perspectives, event.Neutral)

	fields := make(map[event.Perspective][]map[maps.Point]fogmap.FogIntensity)
	if g.FogMode.IsFoggy(g.CurrentTurn, len(g.Players)) {
		for p, cell := range g.Cells {
			contributeUnitVision(g, cell, p, setting, fields)
			contributeTerrainVision(g, cell, p, setting, fields)
			contributeTokenVision(g, cell, p, setting, perspectives, fields)
		}
	}

	allPoints := g.Map.AllPoints()
	for _, persp := range perspectives {
		next := make(map[maps.Point]fogmap.FogIntensity, len(allPoints))
		for _, p := range allPoints {
			next[p] = ambient
		}
		for _, field := range fields[persp] {
			for p, intensity := range field {
				if existing, ok := next[p]; ok {
					next[p] = fogmap.Combine(existing, intensity)
				} else {
					next[p] = intensity
				}
			}
		}
		tf := teamFogFor(g, persp)
		gained, lost := tf.Recompute(next)
		if len(gained) > 0 || len(lost) > 0 {
			h.AddEvent(event.PureFogChangeEvent{Perspective: persp, Gained: gained, Lost: lost})
		}
	}
}

// teamFogFor returns (creating on demand) the TeamFog backing a
// perspective: g.NeutralFog for the neutral perspective, g.TeamFog[id]
// for a team one.
func teamFogFor(g *event.Game, persp event.Perspective) *fogmap.TeamFog {
	if persp.Kind == event.PerspectiveNeutral {
		if g.NeutralFog == nil {
			g.NeutralFog = fogmap.NewTeamFog()
		}
		return g.NeutralFog
	}
	tf, ok := g.TeamFog[persp.TeamID]
	if !ok {
		tf = fogmap.NewTeamFog()
		g.TeamFog[persp.TeamID] = tf
	}
	return tf
}

// contributorRange applies a fog setting's bonus-vision addition to a
// contributor's configured base range (original_source's repeated
// "range += bonus" match arm in unit.rs/terrain.rs/token.rs: every
// setting but None adds the bonus).
func contributorRange(setting fogmap.FogSetting, base int) int {
	if setting.Kind == fogmap.SettingNone {
		return base
	}
	return base + int(setting.BonusVision)
}

// contributeUnitVision adds one cell's unit to its owner's team field,
// using concentric-ring GradedVision for VisionMode.Normal units and
// the reachable-path-graph GradedPath for VisionMode.Movement units
// (spec §4.3).
func contributeUnitVision(g *event.Game, cell *entity.Cell, p maps.Point, setting fogmap.FogSetting, fields map[event.Perspective][]map[maps.Point]fogmap.FogIntensity) {
	if cell.Unit == nil {
		return
	}
	row, ok := g.Rulebook.Units.Row(cell.Unit.TypeIndex)
	if !ok {
		return
	}
	owner := g.Player(cell.Unit.Owner())
	if owner == nil {
		return
	}
	visionRange := contributorRange(setting, row.VisionRange)
	normalRange := setting.NormalRange(visionRange)

	var field map[maps.Point]fogmap.FogIntensity
	if row.VisionMode == rulebook.VisionMovement {
		field = movementVisionField(g, p, cell.Unit, row, visionRange, row.TrueVisionRange, normalRange)
	} else {
		field = fogmap.GradedVision(g.Map, p, visionRange, row.TrueVisionRange, normalRange)
	}
	persp := event.Team(owner.TeamID)
	fields[persp] = append(fields[persp], field)
}

// movementVisionField implements VisionMode.Movement (spec §4.3: "the
// unit's reachable path graph... produces the intensity per reachable
// cell"): it runs the same Dijkstra search movement uses, but ignoring
// unit occupancy (original_source wraps the game in IgnoreUnits before
// probing vision) and budgeted by the unit's own vision range, tiering
// each reached cell by hop count the way GradedVision tiers by ring
// distance.
func movementVisionField(g *event.Game, origin maps.Point, u *entity.Unit, row rulebook.UnitTypeRow, visionRange, trueRange, normalRange int) map[maps.Point]fogmap.FogIntensity {
	mover := pathfind.MoverState{Owner: u.Owner(), MovementType: row.DefaultMovementType, MovementPattern: row.DefaultMovementPattern}
	result := pathfind.SearchIgnoringUnits(g, g.Rulebook, origin, mover, rational.FromInt(int32(visionRange)), nil, pathfind.NoBallast{})
	steps := make(map[maps.Point]int, len(result.Paths))
	for p, path := range result.Paths {
		steps[p] = len(path)
	}
	return fogmap.GradedPath(origin, steps, trueRange, normalRange)
}

// contributeTerrainVision adds one cell's terrain to its owner's team
// field, or to the neutral field if the terrain is unowned
// (original_source's terrain.rs::get_vision compares the terrain's own
// team to the perspective being computed).
func contributeTerrainVision(g *event.Game, cell *entity.Cell, p maps.Point, setting fogmap.FogSetting, fields map[event.Perspective][]map[maps.Point]fogmap.FogIntensity) {
	if cell.Terrain == nil || g.Rulebook.Terrains == nil {
		return
	}
	row, ok := g.Rulebook.Terrains.Row(cell.Terrain.TypeIndex)
	if !ok || row.VisionRange <= 0 {
		return
	}
	visionRange := contributorRange(setting, row.VisionRange)
	normalRange := setting.NormalRange(visionRange)
	field := fogmap.GradedVision(g.Map, p, visionRange, 0, normalRange)

	persp := ownerPerspective(g, cell.Terrain.Owner)
	fields[persp] = append(fields[persp], field)
}

// contributeTokenVision adds one cell's tokens to their owner's team
// field, or to every living perspective (every team plus neutral) when
// unowned (original_source's token.rs::get_vision: an unowned token's
// own team reads as Neutral, which never fails the perspective check).
func contributeTokenVision(g *event.Game, cell *entity.Cell, p maps.Point, setting fogmap.FogSetting, perspectives []event.Perspective, fields map[event.Perspective][]map[maps.Point]fogmap.FogIntensity) {
	if g.Rulebook.Tokens == nil {
		return
	}
	for _, tok := range cell.Tokens {
		row, ok := g.Rulebook.Tokens.Row(tok.TypeIndex)
		if !ok || row.VisionRange <= 0 {
			continue
		}
		visionRange := contributorRange(setting, row.VisionRange)
		normalRange := setting.NormalRange(visionRange)
		field := fogmap.GradedVision(g.Map, p, visionRange, 0, normalRange)

		if tok.Owner == entity.NoOwner {
			for _, persp := range perspectives {
				fields[persp] = append(fields[persp], field)
			}
			continue
		}
		persp := ownerPerspective(g, tok.Owner)
		fields[persp] = append(fields[persp], field)
	}
}

// ownerPerspective resolves an owner id to the team perspective that
// should see its vision contribution, falling back to Neutral for an
// unowned or unresolvable owner.
func ownerPerspective(g *event.Game, owner int) event.Perspective {
	if owner == entity.NoOwner {
		return event.Neutral
	}
	p := g.Player(owner)
	if p == nil {
		return event.Neutral
	}
	return event.Team(p.TeamID)
}
