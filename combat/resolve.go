package combat

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/scripthost"
)

// HeroInfluence is one hero's contribution to the read-only snapshot
// bonus computations consult (spec §4.1 step 1 of
// resolve_equal_priority: "a read-only map (point, owner) -> [hero
// records]"). Gathering it is a pure read over the board and does not
// depend on anything combat-specific, so callers build it once per
// resolve_equal_priority call from whatever hero bookkeeping they keep
// (heroes live on entity.Unit, so this is just a board scan).
type HeroInfluence struct {
	Point maps.Point
	Owner int
	Hero  *entity.Hero
}

// snapshotHeroInfluence scans in board order, not g.Cells map order:
// scripts address the snapshot by index (HeroPosAt et al.), so the
// order is observable and must replay identically (spec §5).
func snapshotHeroInfluence(g *event.Game) []HeroInfluence {
	var out []HeroInfluence
	for _, p := range g.Map.AllPoints() {
		cell, ok := g.Cells[p]
		if !ok || cell.Unit == nil || cell.Unit.Hero == nil {
			continue
		}
		out = append(out, HeroInfluence{Point: p, Owner: cell.Unit.Owner(), Hero: cell.Unit.Hero})
	}
	return out
}

func floorRat(r rational.Rat) int {
	return int(math.Floor(r.Float64()))
}

// Resolve runs the full combat pipeline's main resolution loop (spec
// §4.1 "Main resolution loop"): drains the queue in descending outer
// priority order, expanding and executing each batch, re-enqueuing
// any on_defend-triggered follow-ups strictly below the priority that
// spawned them, and sweeping dead material after every level.
//
// obs must already carry a Remember'd observation id for every
// AttackerPosition referenced by initial — the caller mints those ids
// (typically one per attacking unit, right before building its
// AttackerInfo) because the queue, not Resolve, is the only thing
// that needs a fresh table per command.
func Resolve(ctx context.Context, g *event.Game, h *event.EventHandler, cfg Config, table *scripthost.Table, host *scripthost.Host, log *zap.Logger, obs *ObservationTable, initial []AttackerInfo, attackerTeam int, allowCounter bool) {
	if log == nil {
		log = zap.NewNop()
	}
	queue := NewQueue()
	for _, info := range initial {
		queue.Push(info.Attack.Priority, info)
	}

	for !queue.Empty() {
		priority, batch := queue.PopHighest()
		followups, counters := resolveEqualPriority(ctx, g, h, cfg, table, host, log, obs, priority, batch, attackerTeam, allowCounter)
		for _, f := range followups {
			effective := rational.ClampInt8(int(priority) + f.priorityHint)
			if int(effective) >= int(priority) {
				continue // strictly lower only, prevents infinite loops
			}
			queue.Push(effective, AttackerInfo{
				Position: AttackerPosition{Kind: AttackerReal, ObservationID: f.attackerObs},
				Attack:   ConfiguredAttack{Priority: effective},
				Followup: &FollowupCall{ScriptName: f.reg.ScriptName, Args: f.reg.Args, DefenderPos: f.defenderPos, Depth: f.reg.Depth},
			})
		}
		for _, c := range counters {
			queue.Push(c.Attack.Priority, c)
		}
		CleanupSweep(ctx, g, h, table, host, log)
	}
}

// queuedFollowup pairs an on_defend registration with the defender it
// fires against and the attacker observation id it runs as, ready to
// be clamped into the outer queue by Resolve.
type queuedFollowup struct {
	reg          OnDefendRegistration
	attackerObs  int
	defenderPos  maps.Point
	priorityHint int
}

// resolveEqualPriority implements spec §4.1's resolve_equal_priority:
// retarget each queued attack, expand every AttackInstance into
// executables, stable-sort by inner priority, execute, and collect
// the on_defend follow-ups that fired because their defender took
// damage during this batch.
func resolveEqualPriority(ctx context.Context, g *event.Game, h *event.EventHandler, cfg Config, table *scripthost.Table, host *scripthost.Host, log *zap.Logger, obs *ObservationTable, priority int8, batch []AttackerInfo, attackerTeam int, allowCounter bool) ([]queuedFollowup, []AttackerInfo) {
	heroes := snapshotHeroInfluence(g)
	attackPriority := rational.New(int32(priority), 1)

	var executables []AttackExecutable
	var sessions []*buildSession
	var followups []queuedFollowup
	var extraCounters []AttackerInfo

	for _, info := range batch {
		if info.Followup != nil {
			sess := &buildSession{Cfg: cfg, Log: log, Obs: obs, Game: g, Handler: h, Heroes: heroes, Depth: info.Followup.Depth, AttackPriority: attackPriority}
			if attacker, ok := resolveAttacker(g, obs, info.Position); ok {
				sess.Attacker = attacker.Unit
				sess.AttackerPos = attacker.Pos
			}
			sess.Defender = g.Cell(info.Followup.DefenderPos).Unit
			sess.DefenderPos = info.Followup.DefenderPos
			sess.CallArgs = info.Followup.Args
			RunRhaiExecutable(ctx, host, table, info.Followup.ScriptName, sess)
			if sess.Glitched {
				h.AddEvent(event.EffectEvent{Effect: event.GlitchEffect()})
			}
			sessions = append(sessions, sess)
			continue
		}

		result, ok := Retarget(g, obs, cfg, info)
		if !ok {
			continue
		}
		attacker, ok := resolveAttacker(g, obs, info.Position)
		if !ok {
			continue
		}

		for _, instance := range info.Attack.Splash {
			switch instance.ScriptKind {
			case ScriptDisplace:
				executables = append(executables, expandDisplaceInstance(g, obs, cfg, attacker, instance, result, info, heroes)...)
			case ScriptRhai:
				source, ok := cfg.Scripts.BuildScriptSource(instance.Rhai.BuildScript)
				if !ok {
					continue
				}
				sess := &buildSession{
					Cfg: cfg, Log: log, Obs: obs, Game: g, Handler: h,
					Attacker: attacker.Unit, AttackerPos: attacker.Pos,
					Direction:  result.Direction,
					SplashDist: instance.SplashDistance,
					IsCounter:  info.CounterState.IsCounter(),
					Targets:    ringAt(result, instance.SplashDistance),
					Heroes:     heroes,
				}
				RunBuildScript(ctx, host, table, source, sess)
				if sess.Glitched {
					h.AddEvent(event.EffectEvent{Effect: event.GlitchEffect()})
					continue
				}
				executables = append(executables, sess.Executables...)
				sessions = append(sessions, sess)
			}
		}

		if allowCounter {
			extraCounters = append(extraCounters, DiscoverCounters(g, obs, cfg, info, result, attackerTeam)...)
		}
	}

	sort.SliceStable(executables, func(i, j int) bool {
		return rational.Less(executables[i].Priority, executables[j].Priority)
	})

	for _, ex := range executables {
		switch ex.Kind {
		case ExecDisplace:
			ExecuteDisplace(g, h, obs, cfg, ex.Displace, attackerTeam)
		case ExecRhai:
			sess := &buildSession{Cfg: cfg, Log: log, Obs: obs, Game: g, Handler: h, CallArgs: ex.Rhai.Arguments, Heroes: heroes, AttackPriority: attackPriority}
			RunRhaiExecutable(ctx, host, table, ex.Rhai.FunctionName, sess)
			if sess.Glitched {
				h.AddEvent(event.EffectEvent{Effect: event.GlitchEffect()})
			}
			sessions = append(sessions, sess)
		}
	}

	// A registration fires for damage dealt anywhere in this batch, not
	// just by the session that registered it — the build session that
	// calls on_defend is never the executable session that calls Damage.
	var damaged []maps.Point
	seenDamaged := make(map[maps.Point]bool)
	for _, sess := range sessions {
		for _, dp := range sess.Damaged {
			if seenDamaged[dp] {
				continue
			}
			seenDamaged[dp] = true
			damaged = append(damaged, dp)
		}
	}
	for _, sess := range sessions {
		if len(sess.OnDefends) == 0 {
			continue
		}
		for _, dp := range damaged {
			for _, reg := range sess.OnDefends {
				if reg.Depth > MaxOnDefendDepth {
					continue
				}
				obsID := obs.Remember(sess.AttackerPos, nil)
				followups = append(followups, queuedFollowup{reg: reg, attackerObs: obsID, defenderPos: dp, priorityHint: reg.PriorityHint})
			}
		}
	}

	return followups, extraCounters
}

func ringAt(r RetargetResult, distance int) []maps.OrientedPoint {
	if distance < 0 || distance >= len(r.TargetsByDist) {
		return nil
	}
	return r.TargetsByDist[distance]
}

func expandDisplaceInstance(g *event.Game, obs *ObservationTable, cfg Config, attacker resolvedAttacker, instance AttackInstance, result RetargetResult, info AttackerInfo, heroes []HeroInfluence) []AttackExecutable {
	var out []AttackExecutable
	for _, dp := range ringAt(result, instance.SplashDistance) {
		direction := instance.DirectionModifier.Apply(g.Map.ShapeKind, dp)
		defender := g.Cell(dp.Point).Unit
		bctx := BonusContext{
			Attacker:    attacker.Unit,
			Defender:    defender,
			AttackerPos: attacker.Pos,
			DefenderPos: dp.Point,
			IsCounter:   info.CounterState.IsCounter(),
			Heroes:      heroes,
		}
		distRat, limitRat := instance.Displace.Distance, instance.Displace.PushLimit
		if cfg.Bonus != nil {
			distRat = cfg.Bonus.AttackBonus("PushDistance", distRat, bctx)
			limitRat = cfg.Bonus.AttackBonus("PushLimit", limitRat, bctx)
		}
		distance, limit := floorRat(distRat), floorRat(limitRat)
		if distance <= 0 || limit < 0 {
			continue
		}
		targetObs := obs.Remember(dp.Point, nil)
		out = append(out, AttackExecutable{
			Kind:     ExecDisplace,
			Priority: instance.Priority,
			Displace: DisplaceArgs{
				TargetObservation: targetObs,
				Direction:         direction,
				Distance:          distance,
				PushLimit:         limit,
				Throw:             instance.Displace.Throw,
				NeighborMode:      instance.Displace.NeighborMode,
			},
		})
	}
	return out
}
