package combat

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"go.uber.org/zap"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/scripthost"
)

// MaxOnDefendDepth caps how many times an on-defend reaction may
// itself register further on-defend scripts (spec §4.1.2, resolved
// Open Question): deep enough for legitimate chains (counter ->
// retaliate -> final-blow effect), shallow enough to bound the
// quadratic blow-up a source script could otherwise cause.
const MaxOnDefendDepth = 4

// OnDefendRegistration is a follow-up script a build (or on-defend)
// script asked to fire once its defender takes damage in this
// resolution ("on_defend(OnDefendScript)"). PriorityHint is the
// registration's own priority, added to the spawning level when the
// follow-up is re-enqueued; the clamp rule only admits strictly lower
// results, so a hint of zero or more means the follow-up never fires.
type OnDefendRegistration struct {
	ScriptName   string
	Args         []any
	PriorityHint int
	Depth        int
}

// buildSession is the live state behind one build-script call's token
// — the scope a Rhai build script runs in ("constants for splash
// distance, attacker id, attacker, attacker position, attack
// direction, hero map, and target list") plus the results it
// accumulates through add_script/on_defend.
type buildSession struct {
	Cfg         Config
	Log         *zap.Logger
	Attacker    *entity.Unit
	AttackerPos maps.Point
	Defender    *entity.Unit
	DefenderPos maps.Point
	Direction   maps.Direction
	SplashDist  int
	IsCounter   bool
	Targets     []maps.OrientedPoint
	Depth       int // nesting level of on-defend re-registration

	// Heroes is the read-only hero-influence snapshot taken once per
	// resolve_equal_priority batch, exposed to a build script's scope
	// as the "hero map" named in spec §4.1 step 2b / §6.4.
	Heroes []HeroInfluence

	Obs     *ObservationTable
	Game    *event.Game
	Handler *event.EventHandler

	// CallArgs and AttackPriority are only populated for a Rhai
	// executable call (spec §4.1 "Rhai executable": "a scope containing
	// attacker id, attacker, attacker position, is_counter,
	// attack_priority, plus the arguments").
	CallArgs       []any
	AttackPriority rational.Rat

	Executables []AttackExecutable
	OnDefends   []OnDefendRegistration
	Glitched    bool

	// Damaged records every point an executed script dealt net-negative
	// HP damage to, so the caller can decide which on_defend
	// registrations actually fire (spec §4.1: "when a defender receives
	// damage in this resolution").
	Damaged []maps.Point
}

func (s *buildSession) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

func (s *buildSession) bonusCtx() BonusContext {
	return BonusContext{
		Attacker:    s.Attacker,
		Defender:    s.Defender,
		AttackerPos: s.AttackerPos,
		DefenderPos: s.DefenderPos,
		IsCounter:   s.IsCounter,
		Heroes:      s.Heroes,
	}
}

var errUnknownContext = errors.New("combathost: unknown or expired script context")

func lookupSession(table *scripthost.Table, ctx int64) (*buildSession, bool) {
	obj, ok := table.Resolve(scripthost.Token(ctx))
	if !ok {
		return nil, false
	}
	sess, ok := obj.(*buildSession)
	return sess, ok
}

// hostSymbols builds the yaegi symbol table for package "combathost":
// the free functions a build script imports and calls, each keyed by
// the opaque int64 token it was handed (spec §9: "a token type...
// defines precisely which host methods each script binding may
// invoke"). Every function resolves the session fresh through table,
// so a token from a finished command simply fails to resolve instead
// of touching freed state.
func hostSymbols(table *scripthost.Table) interp.Exports {
	return interp.Exports{
		"combathost/combathost": map[string]reflect.Value{
			"SplashDistance": reflect.ValueOf(func(ctx int64) int {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0
				}
				return sess.SplashDist
			}),
			"IsCounter": reflect.ValueOf(func(ctx int64) bool {
				sess, ok := lookupSession(table, ctx)
				return ok && sess.IsCounter
			}),
			"AttackerPos": reflect.ValueOf(func(ctx int64) (int32, int32) {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0, 0
				}
				return int32(sess.AttackerPos.X), int32(sess.AttackerPos.Y)
			}),
			"DefenderPos": reflect.ValueOf(func(ctx int64) (int32, int32) {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0, 0
				}
				return int32(sess.DefenderPos.X), int32(sess.DefenderPos.Y)
			}),
			"Direction": reflect.ValueOf(func(ctx int64) int {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0
				}
				return int(sess.Direction)
			}),
			"TargetCount": reflect.ValueOf(func(ctx int64) int {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0
				}
				return len(sess.Targets)
			}),
			"TargetAt": reflect.ValueOf(func(ctx int64, i int) (int32, int32) {
				sess, ok := lookupSession(table, ctx)
				if !ok || i < 0 || i >= len(sess.Targets) {
					return 0, 0
				}
				p := sess.Targets[i].Point
				return int32(p.X), int32(p.Y)
			}),
			"HeroCount": reflect.ValueOf(func(ctx int64) int {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0
				}
				return len(sess.Heroes)
			}),
			"HeroPosAt": reflect.ValueOf(func(ctx int64, i int) (int32, int32) {
				sess, ok := lookupSession(table, ctx)
				if !ok || i < 0 || i >= len(sess.Heroes) {
					return 0, 0
				}
				p := sess.Heroes[i].Point
				return int32(p.X), int32(p.Y)
			}),
			"HeroOwnerAt": reflect.ValueOf(func(ctx int64, i int) int32 {
				sess, ok := lookupSession(table, ctx)
				if !ok || i < 0 || i >= len(sess.Heroes) {
					return int32(entity.NoOwner)
				}
				return int32(sess.Heroes[i].Owner)
			}),
			"HeroTypeAt": reflect.ValueOf(func(ctx int64, i int) int32 {
				sess, ok := lookupSession(table, ctx)
				if !ok || i < 0 || i >= len(sess.Heroes) {
					return 0
				}
				return int32(sess.Heroes[i].Hero.TypeIndex)
			}),
			"RememberUnit": reflect.ValueOf(func(ctx int64, x, y int32, cargoIndex int32, hasCargo bool) (int64, error) {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0, errUnknownContext
				}
				var idx *int
				if hasCargo {
					v := int(cargoIndex)
					idx = &v
				}
				return int64(sess.Obs.Remember(maps.Point{X: int(x), Y: int(y)}, idx)), nil
			}),
			"AttackerBonus": reflect.ValueOf(func(ctx int64, column string, baseNum, baseDen int32) (int32, int32, error) {
				return applyBonus(table, ctx, column, baseNum, baseDen, func(sess *buildSession) BonusTable { return sess.Cfg.Bonus },
					func(bt BonusTable, col string, base rational.Rat, bc BonusContext) rational.Rat { return bt.AttackerBonus(col, base, bc) })
			}),
			"DefenderBonus": reflect.ValueOf(func(ctx int64, column string, baseNum, baseDen int32) (int32, int32, error) {
				return applyBonus(table, ctx, column, baseNum, baseDen, func(sess *buildSession) BonusTable { return sess.Cfg.Bonus },
					func(bt BonusTable, col string, base rational.Rat, bc BonusContext) rational.Rat { return bt.DefenderBonus(col, base, bc) })
			}),
			"AttackBonus": reflect.ValueOf(func(ctx int64, column string, baseNum, baseDen int32) (int32, int32, error) {
				return applyBonus(table, ctx, column, baseNum, baseDen, func(sess *buildSession) BonusTable { return sess.Cfg.Bonus },
					func(bt BonusTable, col string, base rational.Rat, bc BonusContext) rational.Rat { return bt.AttackBonus(col, base, bc) })
			}),
			"AddScript": reflect.ValueOf(func(ctx int64, priorityNum, priorityDen int32, functionName string, args ...any) error {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return errUnknownContext
				}
				sess.Executables = append(sess.Executables, AttackExecutable{
					Kind:     ExecRhai,
					Priority: rational.New(priorityNum, priorityDen),
					Rhai:     RhaiArgs{FunctionName: functionName, Arguments: args},
				})
				return nil
			}),
			"ArgCount": reflect.ValueOf(func(ctx int64) int {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0
				}
				return len(sess.CallArgs)
			}),
			"ArgString": reflect.ValueOf(func(ctx int64, i int) string {
				sess, ok := lookupSession(table, ctx)
				if !ok || i < 0 || i >= len(sess.CallArgs) {
					return ""
				}
				return fmt.Sprint(sess.CallArgs[i])
			}),
			"AttackPriority": reflect.ValueOf(func(ctx int64) (int32, int32) {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return 0, 1
				}
				return sess.AttackPriority.Num, sess.AttackPriority.Den
			}),
			"AttackerID": reflect.ValueOf(func(ctx int64) string {
				sess, ok := lookupSession(table, ctx)
				if !ok || sess.Attacker == nil {
					return ""
				}
				return sess.Attacker.ID.Hex()
			}),
			"Damage": reflect.ValueOf(func(ctx int64, x, y int32, amount int32) error {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return errUnknownContext
				}
				p := maps.Point{X: int(x), Y: int(y)}
				sess.Handler.AddEvent(event.UnitHPChangeEvent{Pos: p, Delta: -int(amount)})
				if amount > 0 {
					sess.Damaged = append(sess.Damaged, p)
				}
				return nil
			}),
			"Heal": reflect.ValueOf(func(ctx int64, x, y int32, amount int32) error {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return errUnknownContext
				}
				sess.Handler.AddEvent(event.UnitHPChangeEvent{Pos: maps.Point{X: int(x), Y: int(y)}, Delta: int(amount)})
				return nil
			}),
			"SetUnitTag": reflect.ValueOf(func(ctx int64, x, y int32, key string, on bool) error {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return errUnknownContext
				}
				p := maps.Point{X: int(x), Y: int(y)}
				u := sess.Game.Cell(p).Unit
				if u == nil {
					return nil
				}
				k := attribute.TagKey(key)
				old, had := u.Bag.Get(k)
				sess.Handler.AddEvent(event.UnitTagEvent{Pos: p, Key: k, New: attribute.Bool(on), Old: old, HadOld: had})
				return nil
			}),
			"OnDefend": reflect.ValueOf(func(ctx int64, priorityHint int32, scriptName string, args ...any) error {
				sess, ok := lookupSession(table, ctx)
				if !ok {
					return errUnknownContext
				}
				if sess.Depth >= MaxOnDefendDepth {
					sess.logger().Warn("combat: on_defend re-registration exceeded max depth",
						zap.Int("depth", sess.Depth), zap.String("script", scriptName))
					return nil
				}
				sess.OnDefends = append(sess.OnDefends, OnDefendRegistration{
					ScriptName:   scriptName,
					Args:         args,
					PriorityHint: int(priorityHint),
					Depth:        sess.Depth + 1,
				})
				return nil
			}),
		},
	}
}

func applyBonus(table *scripthost.Table, ctx int64, column string, baseNum, baseDen int32,
	pick func(*buildSession) BonusTable, call func(BonusTable, string, rational.Rat, BonusContext) rational.Rat) (int32, int32, error) {
	sess, ok := lookupSession(table, ctx)
	if !ok {
		return baseNum, baseDen, errUnknownContext
	}
	bt := pick(sess)
	if bt == nil {
		return baseNum, baseDen, nil
	}
	result := call(bt, column, rational.New(baseNum, baseDen), sess.bonusCtx())
	return result.Num, result.Den, nil
}

// NewScriptHost builds a yaegi host with the combathost package
// loaded, bound to table for the lifetime of one command.
func NewScriptHost(table *scripthost.Table) (*scripthost.Host, error) {
	h, err := scripthost.New()
	if err != nil {
		return nil, err
	}
	if err := h.Use(hostSymbols(table)); err != nil {
		return nil, err
	}
	return h, nil
}

// RunBuildScript evaluates one Rhai-equivalent build script against
// sess (spec §4.1 step 3, "Rhai" case): the script calls back through
// the combathost functions to read its scope, compute bonuses, and
// emit executables/on-defend registrations, all accumulated on sess.
//
// A script error — bad source, a missing/mis-typed Build entry point,
// a panic inside the script, or a timeout — is logged and marks
// sess.Glitched; the caller substitutes a glitch effect and continues
// the command (spec §7), it never propagates as a Go error.
func RunBuildScript(ctx context.Context, host *scripthost.Host, table *scripthost.Table, source string, sess *buildSession) {
	tok := table.Register(sess)
	defer table.Release(tok)

	fnVal, err := host.Eval(source, "Build")
	if err != nil {
		sess.logger().Warn("combat: build script eval failed", zap.Error(err))
		sess.Glitched = true
		return
	}
	fn, ok := fnVal.(func(int64))
	if !ok {
		sess.logger().Warn("combat: build script has no func(int64) Build entry point")
		sess.Glitched = true
		return
	}
	if _, err := scripthost.CallTimeout(ctx, func() (any, error) {
		fn(int64(tok))
		return nil, nil
	}); err != nil {
		sess.logger().Warn("combat: build script call failed", zap.Error(err))
		sess.Glitched = true
	}
}

// RunDeathScript evaluates a unit type's on_death script against the
// dying unit (spec §7 step 2, original_source's DeathScript family):
// the scope's Defender is the unit about to be removed, still on the
// board, so the script can copy its stats, spawn a replacement, or
// revive it outright by healing it back above the death predicate.
// Error handling matches RunBuildScript: log, mark Glitched, continue.
func RunDeathScript(ctx context.Context, host *scripthost.Host, table *scripthost.Table, source string, sess *buildSession) {
	tok := table.Register(sess)
	defer table.Release(tok)

	fnVal, err := host.Eval(source, "OnDeath")
	if err != nil {
		sess.logger().Warn("combat: death script eval failed", zap.Error(err))
		sess.Glitched = true
		return
	}
	fn, ok := fnVal.(func(int64))
	if !ok {
		sess.logger().Warn("combat: death script has no func(int64) OnDeath entry point")
		sess.Glitched = true
		return
	}
	if _, err := scripthost.CallTimeout(ctx, func() (any, error) {
		fn(int64(tok))
		return nil, nil
	}); err != nil {
		sess.logger().Warn("combat: death script call failed", zap.Error(err))
		sess.Glitched = true
	}
}

// RunRhaiExecutable calls a function a build script already defined
// (named by a prior add_script call) without re-evaluating the
// script's source (spec §4.1 "Rhai executable"): the function runs in
// a scope containing attacker id, attacker, attacker position,
// is_counter, attack_priority, plus the executable's own arguments,
// and calls back through Damage/Heal/SetUnitTag to mutate state.
func RunRhaiExecutable(ctx context.Context, host *scripthost.Host, table *scripthost.Table, functionName string, sess *buildSession) {
	tok := table.Register(sess)
	defer table.Release(tok)

	fnVal, err := host.ResolveFunc(functionName)
	if err != nil {
		sess.logger().Warn("combat: rhai executable not found", zap.String("function", functionName), zap.Error(err))
		sess.Glitched = true
		return
	}
	fn, ok := fnVal.(func(int64))
	if !ok {
		sess.logger().Warn("combat: rhai executable has wrong signature", zap.String("function", functionName))
		sess.Glitched = true
		return
	}
	if _, err := scripthost.CallTimeout(ctx, func() (any, error) {
		fn(int64(tok))
		return nil, nil
	}); err != nil {
		sess.logger().Warn("combat: rhai executable call failed", zap.String("function", functionName), zap.Error(err))
		sess.Glitched = true
	}
}
