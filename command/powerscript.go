package command

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"go.uber.org/zap"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rulebook"
	"github.com/nicoberrocal/gridwar/scripthost"
)

// powerSession is the live state behind one commander/hero power
// effect script call, the §6.4 "EventHandler proxy for mutators"
// analogue of combat's buildSession — scoped to the cells a power
// script is allowed to touch rather than an attack's splash targets.
type powerSession struct {
	Log      *zap.Logger
	Owner    int
	CallArgs []any

	Game    *event.Game
	Rules   *rulebook.Rulebook
	Handler *event.EventHandler

	Glitched bool
}

func (s *powerSession) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

var errUnknownPowerContext = errors.New("powerhost: unknown or expired script context")

func lookupPowerSession(table *scripthost.Table, ctx int64) (*powerSession, bool) {
	obj, ok := table.Resolve(scripthost.Token(ctx))
	if !ok {
		return nil, false
	}
	sess, ok := obj.(*powerSession)
	return sess, ok
}

// powerHostSymbols builds the yaegi symbol table for package
// "powerhost", the effect-script counterpart to combat/script.go's
// hostSymbols: a fixed set of token-scoped free functions a power's
// EffectScript calls back through to read its arguments and mutate
// units/terrain through the enclosing EventHandler.
func powerHostSymbols(table *scripthost.Table) interp.Exports {
	return interp.Exports{
		"powerhost/powerhost": map[string]reflect.Value{
			"Owner": reflect.ValueOf(func(ctx int64) int32 {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return int32(entity.NoOwner)
				}
				return int32(sess.Owner)
			}),
			"ArgCount": reflect.ValueOf(func(ctx int64) int {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return 0
				}
				return len(sess.CallArgs)
			}),
			"ArgString": reflect.ValueOf(func(ctx int64, i int) string {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok || i < 0 || i >= len(sess.CallArgs) {
					return ""
				}
				return fmt.Sprint(sess.CallArgs[i])
			}),
			"UnitOwner": reflect.ValueOf(func(ctx int64, x, y int32) int32 {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return int32(entity.NoOwner)
				}
				u := sess.Game.Cell(maps.Point{X: int(x), Y: int(y)}).Unit
				if u == nil {
					return int32(entity.NoOwner)
				}
				return int32(u.Owner())
			}),
			"Damage": reflect.ValueOf(func(ctx int64, x, y int32, amount int32) error {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return errUnknownPowerContext
				}
				sess.Handler.AddEvent(event.UnitHPChangeEvent{Pos: maps.Point{X: int(x), Y: int(y)}, Delta: -int(amount)})
				return nil
			}),
			"Heal": reflect.ValueOf(func(ctx int64, x, y int32, amount int32) error {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return errUnknownPowerContext
				}
				sess.Handler.AddEvent(event.UnitHPChangeEvent{Pos: maps.Point{X: int(x), Y: int(y)}, Delta: int(amount)})
				return nil
			}),
			"SetUnitTag": reflect.ValueOf(func(ctx int64, x, y int32, key string, on bool) error {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return errUnknownPowerContext
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
			// SetUnitHP writes an absolute hp value, expressed as the
			// delta event the log already knows how to invert.
			"SetUnitHP": reflect.ValueOf(func(ctx int64, x, y int32, hp int32) error {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return errUnknownPowerContext
				}
				p := maps.Point{X: int(x), Y: int(y)}
				u := sess.Game.Cell(p).Unit
				if u == nil {
					return nil
				}
				sess.Handler.AddEvent(event.UnitHPChangeEvent{Pos: p, Delta: int(hp) - u.HP()})
				return nil
			}),
			// SetUnitFlag writes a boolean attribute by its raw schema
			// key ("zombified", "amphibious", ...), unlike SetUnitTag,
			// which stays inside the config-defined tag: namespace. A
			// key outside the unit's schema is a silent no-op, the same
			// contract Bag.Set itself gives.
			"SetUnitFlag": reflect.ValueOf(func(ctx int64, x, y int32, key string, on bool) error {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return errUnknownPowerContext
				}
				p := maps.Point{X: int(x), Y: int(y)}
				u := sess.Game.Cell(p).Unit
				if u == nil {
					return nil
				}
				k := attribute.Key(key)
				if !u.Bag.Has(k) {
					return nil
				}
				old, had := u.Bag.Get(k)
				sess.Handler.AddEvent(event.UnitTagEvent{Pos: p, Key: k, New: attribute.Bool(on), Old: old, HadOld: had})
				return nil
			}),
			// ReplaceUnitType swaps the unit at (x, y) for a fresh one of
			// newTypeIndex under the same owner (spec scenario 1, "Zombie
			// resurrection": turning a token/skull into a different unit
			// type). Implemented as a remove+add pair rather than a
			// dedicated event, since a full type swap is already exactly
			// representable by the two events that already exist for it.
			// Attribute values whose keys survive into the new type's
			// schema carry over (the resurrected unit keeps the skull's
			// amphibious mode); everything else takes the new default.
			"ReplaceUnitType": reflect.ValueOf(func(ctx int64, x, y int32, newTypeIndex int32) error {
				sess, ok := lookupPowerSession(table, ctx)
				if !ok {
					return errUnknownPowerContext
				}
				p := maps.Point{X: int(x), Y: int(y)}
				old := sess.Game.Cell(p).Unit
				if old == nil {
					return nil
				}
				next, err := entity.NewUnit(bson.NewObjectID(), int(newTypeIndex), p, sess.Rules, old.Owner(), 0, false, 0, false, -1)
				if err != nil {
					return err
				}
				for _, k := range next.Bag.Schema().Keys() {
					if k == attribute.KeyOwner {
						continue
					}
					if v, ok := old.Bag.Get(k); ok {
						next.Bag.Set(k, v)
					}
				}
				sess.Handler.AddEvent(event.UnitRemoveEvent{Pos: p, Unit: old})
				sess.Handler.AddEvent(event.UnitAddEvent{Pos: p, Unit: next})
				return nil
			}),
		},
	}
}

// newPowerHost builds a yaegi host with the powerhost package loaded,
// bound to table for the lifetime of one CommanderPower command.
func newPowerHost(table *scripthost.Table) (*scripthost.Host, error) {
	h, err := scripthost.New()
	if err != nil {
		return nil, err
	}
	if err := h.Use(powerHostSymbols(table)); err != nil {
		return nil, err
	}
	return h, nil
}

// runEffectScript evaluates a power's EffectScript (spec §6.4): the
// script calls back through powerhost functions to read its arguments
// and emit mutating events. Like combat's build scripts, a script
// error never aborts the command — it is logged and the caller
// substitutes a glitch effect (spec §7).
func runEffectScript(ctx context.Context, host *scripthost.Host, table *scripthost.Table, source string, sess *powerSession) {
	tok := table.Register(sess)
	defer table.Release(tok)

	fnVal, err := host.Eval(source, "Effect")
	if err != nil {
		sess.logger().Warn("command: power effect script eval failed", zap.Error(err))
		sess.Glitched = true
		return
	}
	fn, ok := fnVal.(func(int64))
	if !ok {
		sess.logger().Warn("command: power effect script has no func(int64) Effect entry point")
		sess.Glitched = true
		return
	}
	if _, err := scripthost.CallTimeout(ctx, func() (any, error) {
		fn(int64(tok))
		return nil, nil
	}); err != nil {
		sess.logger().Warn("command: power effect script call failed", zap.Error(err))
		sess.Glitched = true
	}
}
