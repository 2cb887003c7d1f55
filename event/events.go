package event

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
)

// NextTurnEvent advances the turn counter (spec §4.2 "NextTurn").
type NextTurnEvent struct{}

func (e NextTurnEvent) ApplyTo(g *Game)  { g.CurrentTurn++ }
func (e NextTurnEvent) UndoFrom(g *Game) { g.CurrentTurn-- }
func (e NextTurnEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	return e, true
}

// PlayerDiesEvent eliminates a player (spec §4.2 "PlayerDies").
type PlayerDiesEvent struct {
	Owner int
}

func (e PlayerDiesEvent) ApplyTo(g *Game) {
	if p := g.Player(e.Owner); p != nil {
		p.Dead = true
	}
}
func (e PlayerDiesEvent) UndoFrom(g *Game) {
	if p := g.Player(e.Owner); p != nil {
		p.Dead = false
	}
}
func (e PlayerDiesEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) { return e, true }

// GameEndsEvent marks the match over (spec §4.2 "GameEnds"). The
// winner, if any, is derivable from which players are not dead; this
// event only flips the Game.Over flag itself.
type GameEndsEvent struct{}

func (e GameEndsEvent) ApplyTo(g *Game)  { g.Over = true }
func (e GameEndsEvent) UndoFrom(g *Game) { g.Over = false }
func (e GameEndsEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) { return e, true }

// PlayerFlagEvent toggles a config-defined boolean flag on a player
// (spec §4.2 "PlayerFlag"). Apply and undo are the same operation
// since toggling twice is the identity.
type PlayerFlagEvent struct {
	Owner int
	Flag  attribute.Key
}

func (e PlayerFlagEvent) ApplyTo(g *Game)  { e.toggle(g) }
func (e PlayerFlagEvent) UndoFrom(g *Game) { e.toggle(g) }
func (e PlayerFlagEvent) toggle(g *Game) {
	p := g.Player(e.Owner)
	if p == nil || p.Tags == nil {
		return
	}
	if v, ok := p.Tags.Get(e.Flag); ok {
		p.Tags.Set(e.Flag, attribute.Bool(!v.Bool))
	}
}
func (e PlayerFlagEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) { return e, true }

// PlayerTagEvent sets a config-defined tag attribute on a player,
// remembering the old value so UndoFrom can restore it exactly (spec
// §4.2's PlayerSet/Replace/RemoveTag family, unified into a single
// set-with-old-value event since all three reduce to "write this
// value, remember what was there before").
//
// The unification leans on a schema invariant shared by the whole tag
// family (Unit/Terrain/UnitTagBoarded included): attribute.NewBag
// seeds every schema key with its default and Bag has no delete, so a
// key in the schema always has a value — HadOld is true for every
// event these commands produce, and Remove reduces to Set(default).
// An event hand-built with HadOld=false undoes to a no-op, which is
// only sound because there is no bag state it could have shadowed.
type PlayerTagEvent struct {
	Owner  int
	Key    attribute.Key
	New    attribute.Value
	Old    attribute.Value
	HadOld bool
}

func (e PlayerTagEvent) ApplyTo(g *Game) {
	if p := g.Player(e.Owner); p != nil && p.Tags != nil {
		p.Tags.Set(e.Key, e.New)
	}
}
func (e PlayerTagEvent) UndoFrom(g *Game) {
	p := g.Player(e.Owner)
	if p == nil || p.Tags == nil {
		return
	}
	if e.HadOld {
		p.Tags.Set(e.Key, e.Old)
	}
}
func (e PlayerTagEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) { return e, true }

// CommanderChargeEvent adjusts a player's commander charge by delta
// (spec §4.2 "CommanderCharge").
type CommanderChargeEvent struct {
	Owner int
	Delta int
}

func (e CommanderChargeEvent) ApplyTo(g *Game)  { e.adjust(g, e.Delta) }
func (e CommanderChargeEvent) UndoFrom(g *Game) { e.adjust(g, -e.Delta) }
func (e CommanderChargeEvent) adjust(g *Game, delta int) {
	p := g.Player(e.Owner)
	if p == nil || p.Commander == nil {
		return
	}
	p.Commander.Charge += delta
}
func (e CommanderChargeEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	return e, true
}

// CommanderPowerIndexEvent switches a player's active commander power
// (spec §4.2 "CommanderPowerIndex"). Reconciling the attribute schema
// of units under this commander is the caller's responsibility
// (typically performed as a follow-up command step, not folded into
// this event, so that undo stays a pure index swap).
type CommanderPowerIndexEvent struct {
	Owner    int
	OldIndex int
	NewIndex int
}

func (e CommanderPowerIndexEvent) ApplyTo(g *Game) {
	if p := g.Player(e.Owner); p != nil && p.Commander != nil {
		p.Commander.ActivePower = e.NewIndex
	}
}
func (e CommanderPowerIndexEvent) UndoFrom(g *Game) {
	if p := g.Player(e.Owner); p != nil && p.Commander != nil {
		p.Commander.ActivePower = e.OldIndex
	}
}
func (e CommanderPowerIndexEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	return e, true
}

// TerrainChangeEvent replaces the terrain at p (spec §4.2
// "TerrainChange").
type TerrainChangeEvent struct {
	Pos     maps.Point
	OldType int
	NewType int
}

func (e TerrainChangeEvent) ApplyTo(g *Game) {
	if t := g.Cell(e.Pos).Terrain; t != nil {
		t.TypeIndex = e.NewType
	}
}
func (e TerrainChangeEvent) UndoFrom(g *Game) {
	if t := g.Cell(e.Pos).Terrain; t != nil {
		t.TypeIndex = e.OldType
	}
}
func (e TerrainChangeEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// TerrainFlagEvent toggles a config-defined boolean flag on a
// terrain cell (spec §4.2 "TerrainFlag").
type TerrainFlagEvent struct {
	Pos  maps.Point
	Flag attribute.Key
}

func (e TerrainFlagEvent) ApplyTo(g *Game)  { e.toggle(g) }
func (e TerrainFlagEvent) UndoFrom(g *Game) { e.toggle(g) }
func (e TerrainFlagEvent) toggle(g *Game) {
	t := g.Cell(e.Pos).Terrain
	if t == nil || t.Bag == nil {
		return
	}
	if v, ok := t.Bag.Get(e.Flag); ok {
		t.Bag.Set(e.Flag, attribute.Bool(!v.Bool))
	}
}
func (e TerrainFlagEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// TerrainTagEvent sets a config-defined tag attribute on terrain,
// remembering the old value so UndoFrom can restore it exactly
// (spec §4.2's TerrainSet/Replace/RemoveTag family, unified the same
// way as PlayerTagEvent).
type TerrainTagEvent struct {
	Pos    maps.Point
	Key    attribute.Key
	New    attribute.Value
	Old    attribute.Value
	HadOld bool
}

func (e TerrainTagEvent) ApplyTo(g *Game) {
	if t := g.Cell(e.Pos).Terrain; t != nil && t.Bag != nil {
		t.Bag.Set(e.Key, e.New)
	}
}
func (e TerrainTagEvent) UndoFrom(g *Game) {
	t := g.Cell(e.Pos).Terrain
	if t == nil || t.Bag == nil || !e.HadOld {
		return
	}
	t.Bag.Set(e.Key, e.Old)
}
func (e TerrainTagEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// UnitTagEvent sets a config-defined tag attribute on a unit,
// remembering the old value so UndoFrom can restore it exactly
// (spec §4.2's UnitSet/Replace/RemoveTag family, unified the same way
// as PlayerTagEvent).
type UnitTagEvent struct {
	Pos    maps.Point
	Key    attribute.Key
	New    attribute.Value
	Old    attribute.Value
	HadOld bool
}

func (e UnitTagEvent) ApplyTo(g *Game) {
	if u := g.Cell(e.Pos).Unit; u != nil {
		u.Bag.Set(e.Key, e.New)
	}
}
func (e UnitTagEvent) UndoFrom(g *Game) {
	u := g.Cell(e.Pos).Unit
	if u == nil || !e.HadOld {
		return
	}
	u.Bag.Set(e.Key, e.Old)
}
func (e UnitTagEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// UnitAddEvent places a unit on the map (spec §4.2 "UnitAdd").
type UnitAddEvent struct {
	Pos  maps.Point
	Unit *entity.Unit
}

func (e UnitAddEvent) ApplyTo(g *Game)  { g.Cell(e.Pos).Unit = e.Unit }
func (e UnitAddEvent) UndoFrom(g *Game) { g.Cell(e.Pos).Unit = nil }
func (e UnitAddEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	intensity, visible := VisibleAt(g, persp, e.Pos)
	if !visible {
		return nil, false
	}
	projected := redactUnit(e.Unit, intensity)
	if projected == nil {
		return nil, false
	}
	return UnitAddEvent{Pos: e.Pos, Unit: projected}, true
}

// UnitRemoveEvent takes a unit off the map (spec §4.2 "UnitRemove").
// It carries the removed unit so UndoFrom can restore it exactly.
type UnitRemoveEvent struct {
	Pos  maps.Point
	Unit *entity.Unit
}

func (e UnitRemoveEvent) ApplyTo(g *Game)  { g.Cell(e.Pos).Unit = nil }
func (e UnitRemoveEvent) UndoFrom(g *Game) { g.Cell(e.Pos).Unit = e.Unit }
func (e UnitRemoveEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	intensity, visible := VisibleAt(g, persp, e.Pos)
	if !visible {
		return nil, false
	}
	projected := redactUnit(e.Unit, intensity)
	if projected == nil {
		return nil, false
	}
	return UnitRemoveEvent{Pos: e.Pos, Unit: projected}, true
}

// UnitMoveEvent relocates a unit from one cell to another (the
// flattened replay primitive behind original_source's UnitPath: the
// combat/pathfind layer walks a full path and emits one of these per
// hop so that each intermediate cell gets its own fog projection).
type UnitMoveEvent struct {
	From, To maps.Point
}

func (e UnitMoveEvent) ApplyTo(g *Game) {
	from := g.Cell(e.From)
	to := g.Cell(e.To)
	to.Unit = from.Unit
	from.Unit = nil
	if to.Unit != nil {
		to.Unit.Position = e.To
	}
}
func (e UnitMoveEvent) UndoFrom(g *Game) {
	from := g.Cell(e.From)
	to := g.Cell(e.To)
	from.Unit = to.Unit
	to.Unit = nil
	if from.Unit != nil {
		from.Unit.Position = e.From
	}
}
func (e UnitMoveEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	_, fromVisible := VisibleAt(g, persp, e.From)
	_, toVisible := VisibleAt(g, persp, e.To)
	if !fromVisible && !toVisible {
		return nil, false
	}
	return e, true
}

// UnitFlagEvent toggles a config-defined boolean flag on a unit
// (spec §4.2 "UnitFlag"), e.g. the exhausted flag set at end of turn.
type UnitFlagEvent struct {
	Pos  maps.Point
	Flag attribute.Key
}

func (e UnitFlagEvent) ApplyTo(g *Game)  { e.toggle(g) }
func (e UnitFlagEvent) UndoFrom(g *Game) { e.toggle(g) }
func (e UnitFlagEvent) toggle(g *Game) {
	u := g.Cell(e.Pos).Unit
	if u == nil {
		return
	}
	if v, ok := u.Bag.Get(e.Flag); ok {
		u.Bag.Set(e.Flag, attribute.Bool(!v.Bool))
	}
}
func (e UnitFlagEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// UnitAddBoardedEvent loads a unit into a transporter's cargo list
// (spec §4.2 "UnitAddBoarded"). The transported unit has no Position
// of its own; it lives only in Game.Cargo and in the transporter's
// KeyTransportedCargo attribute (spec §3.2).
type UnitAddBoardedEvent struct {
	TransporterPos maps.Point
	Unit           *entity.Unit
}

func (e UnitAddBoardedEvent) ApplyTo(g *Game) {
	g.Cargo[e.Unit.ID] = e.Unit
	appendCargoID(g, e.TransporterPos, e.Unit.ID)
}
func (e UnitAddBoardedEvent) UndoFrom(g *Game) {
	removeCargoID(g, e.TransporterPos, e.Unit.ID)
	delete(g.Cargo, e.Unit.ID)
}
func (e UnitAddBoardedEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	intensity, visible := VisibleAt(g, persp, e.TransporterPos)
	if !visible {
		return nil, false
	}
	projected := redactUnit(e.Unit, intensity)
	if projected == nil {
		return nil, false
	}
	return UnitAddBoardedEvent{TransporterPos: e.TransporterPos, Unit: projected}, true
}

// UnitRemoveBoardedEvent unloads cargo index i from a transporter
// (spec §4.2 "UnitRemoveBoarded").
type UnitRemoveBoardedEvent struct {
	TransporterPos maps.Point
	Index          int
	Unit           *entity.Unit
}

func (e UnitRemoveBoardedEvent) ApplyTo(g *Game) {
	removeCargoID(g, e.TransporterPos, e.Unit.ID)
	delete(g.Cargo, e.Unit.ID)
}
func (e UnitRemoveBoardedEvent) UndoFrom(g *Game) {
	g.Cargo[e.Unit.ID] = e.Unit
	insertCargoIDAt(g, e.TransporterPos, e.Index, e.Unit.ID)
}
func (e UnitRemoveBoardedEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	intensity, visible := VisibleAt(g, persp, e.TransporterPos)
	if !visible {
		return nil, false
	}
	projected := redactUnit(e.Unit, intensity)
	if projected == nil {
		return nil, false
	}
	return UnitRemoveBoardedEvent{TransporterPos: e.TransporterPos, Index: e.Index, Unit: projected}, true
}

// UnitFlagBoardedEvent toggles a config-defined boolean flag on cargo
// index i of the transporter at Pos (spec §4.2 "UnitFlagBoarded").
type UnitFlagBoardedEvent struct {
	TransporterPos maps.Point
	Index          int
	Flag           attribute.Key
}

func (e UnitFlagBoardedEvent) ApplyTo(g *Game)  { e.toggle(g) }
func (e UnitFlagBoardedEvent) UndoFrom(g *Game) { e.toggle(g) }
func (e UnitFlagBoardedEvent) toggle(g *Game) {
	cargo := cargoAt(g, e.TransporterPos, e.Index)
	if cargo == nil {
		return
	}
	if v, ok := cargo.Bag.Get(e.Flag); ok {
		cargo.Bag.Set(e.Flag, attribute.Bool(!v.Bool))
	}
}
func (e UnitFlagBoardedEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.TransporterPos); !visible {
		return nil, false
	}
	return e, true
}

// UnitTagBoardedEvent sets a config-defined tag attribute on cargo
// index i of the transporter at Pos, remembering the old value so
// UndoFrom can restore it exactly (spec §4.2's UnitSet/Replace/
// RemoveTagBoarded family, unified the same way as UnitTagEvent is for
// a unit standing on the map).
type UnitTagBoardedEvent struct {
	TransporterPos maps.Point
	Index          int
	Key            attribute.Key
	New            attribute.Value
	Old            attribute.Value
	HadOld         bool
}

func (e UnitTagBoardedEvent) ApplyTo(g *Game) {
	if cargo := cargoAt(g, e.TransporterPos, e.Index); cargo != nil {
		cargo.Bag.Set(e.Key, e.New)
	}
}
func (e UnitTagBoardedEvent) UndoFrom(g *Game) {
	cargo := cargoAt(g, e.TransporterPos, e.Index)
	if cargo == nil || !e.HadOld {
		return
	}
	cargo.Bag.Set(e.Key, e.Old)
}
func (e UnitTagBoardedEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.TransporterPos); !visible {
		return nil, false
	}
	return e, true
}

func transporterCargoIDs(u *entity.Unit) []bson.ObjectID {
	v, ok := u.Bag.Get(attribute.KeyTransportedCargo)
	if !ok {
		return nil
	}
	return v.IDList
}

func appendCargoID(g *Game, transporterPos maps.Point, id bson.ObjectID) {
	u := g.Cell(transporterPos).Unit
	if u == nil {
		return
	}
	ids := append(transporterCargoIDs(u), id)
	u.Bag.Set(attribute.KeyTransportedCargo, attribute.IDListVal(ids))
}

func insertCargoIDAt(g *Game, transporterPos maps.Point, index int, id bson.ObjectID) {
	u := g.Cell(transporterPos).Unit
	if u == nil {
		return
	}
	ids := transporterCargoIDs(u)
	if index < 0 || index > len(ids) {
		index = len(ids)
	}
	next := make([]bson.ObjectID, 0, len(ids)+1)
	next = append(next, ids[:index]...)
	next = append(next, id)
	next = append(next, ids[index:]...)
	u.Bag.Set(attribute.KeyTransportedCargo, attribute.IDListVal(next))
}

func removeCargoID(g *Game, transporterPos maps.Point, id bson.ObjectID) {
	u := g.Cell(transporterPos).Unit
	if u == nil {
		return
	}
	ids := transporterCargoIDs(u)
	for i, existing := range ids {
		if existing == id {
			next := append(append([]bson.ObjectID{}, ids[:i]...), ids[i+1:]...)
			u.Bag.Set(attribute.KeyTransportedCargo, attribute.IDListVal(next))
			return
		}
	}
}

func cargoAt(g *Game, transporterPos maps.Point, index int) *entity.Unit {
	u := g.Cell(transporterPos).Unit
	if u == nil {
		return nil
	}
	ids := transporterCargoIDs(u)
	if index < 0 || index >= len(ids) {
		return nil
	}
	return g.Cargo[ids[index]]
}

// UnitHPChangeEvent adjusts a unit's hp by delta, clamped to
// 0..=100 (spec §4.2, ported from original_source's UnitHpChange).
type UnitHPChangeEvent struct {
	Pos   maps.Point
	Delta int
}

func (e UnitHPChangeEvent) ApplyTo(g *Game)  { e.adjust(g, e.Delta) }
func (e UnitHPChangeEvent) UndoFrom(g *Game) { e.adjust(g, -e.Delta) }
func (e UnitHPChangeEvent) adjust(g *Game, delta int) {
	u := g.Cell(e.Pos).Unit
	if u == nil {
		return
	}
	if v, ok := u.Bag.Get(attribute.KeyHP); ok {
		next := v.Int + delta
		if next < 0 {
			next = 0
		}
		if next > 100 {
			next = 100
		}
		u.Bag.Set(attribute.KeyHP, attribute.Int(next))
	}
}
func (e UnitHPChangeEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// HeroSetEvent attaches or detaches a hero from a unit (spec §4.2
// "HeroSet").
type HeroSetEvent struct {
	Pos     maps.Point
	OldHero *entity.Hero
	NewHero *entity.Hero
}

func (e HeroSetEvent) ApplyTo(g *Game) {
	if u := g.Cell(e.Pos).Unit; u != nil {
		setHeroAttr(u, e.NewHero)
	}
}
func (e HeroSetEvent) UndoFrom(g *Game) {
	if u := g.Cell(e.Pos).Unit; u != nil {
		setHeroAttr(u, e.OldHero)
	}
}
func (e HeroSetEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

func setHeroAttr(u *entity.Unit, h *entity.Hero) {
	u.Hero = h
	if !u.Bag.Has(attribute.KeyHero) {
		return
	}
	if h == nil {
		u.Bag.Set(attribute.KeyHero, attribute.Int(-1))
		return
	}
	u.Bag.Set(attribute.KeyHero, attribute.Int(h.TypeIndex))
}

// HeroChargeEvent adjusts the charge of the hero attached to the unit
// at Pos (spec §4.2 "HeroCharge").
type HeroChargeEvent struct {
	Pos   maps.Point
	Delta int
}

func (e HeroChargeEvent) ApplyTo(g *Game)  { e.adjust(g, e.Delta) }
func (e HeroChargeEvent) UndoFrom(g *Game) { e.adjust(g, -e.Delta) }
func (e HeroChargeEvent) adjust(g *Game, delta int) {
	if u := g.Cell(e.Pos).Unit; u != nil && u.Hero != nil {
		u.Hero.Charge += delta
	}
}
func (e HeroChargeEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// HeroPowerEvent switches the active power index of the hero attached
// to the unit at Pos.
type HeroPowerEvent struct {
	Pos      maps.Point
	OldIndex int
	NewIndex int
}

func (e HeroPowerEvent) ApplyTo(g *Game) {
	if u := g.Cell(e.Pos).Unit; u != nil && u.Hero != nil {
		u.Hero.ActivePower = e.NewIndex
	}
}
func (e HeroPowerEvent) UndoFrom(g *Game) {
	if u := g.Cell(e.Pos).Unit; u != nil && u.Hero != nil {
		u.Hero.ActivePower = e.OldIndex
	}
}
func (e HeroPowerEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// HeroChargeTransportedEvent adjusts the charge of the hero attached
// to transported cargo unit index i aboard the transporter at Pos
// (spec §4.2 "HeroChargeTransported", the boarded counterpart of
// HeroChargeEvent).
type HeroChargeTransportedEvent struct {
	TransporterPos maps.Point
	Index          int
	Delta          int
}

func (e HeroChargeTransportedEvent) ApplyTo(g *Game)  { e.adjust(g, e.Delta) }
func (e HeroChargeTransportedEvent) UndoFrom(g *Game) { e.adjust(g, -e.Delta) }
func (e HeroChargeTransportedEvent) adjust(g *Game, delta int) {
	cargo := cargoAt(g, e.TransporterPos, e.Index)
	if cargo == nil || cargo.Hero == nil {
		return
	}
	cargo.Hero.Charge += delta
}
func (e HeroChargeTransportedEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.TransporterPos); !visible {
		return nil, false
	}
	return e, true
}

// ReplaceTokenEvent swaps a cell's whole token stack (spec §4.2
// "ReplaceToken").
type ReplaceTokenEvent struct {
	Pos      maps.Point
	OldStack entity.TokenStack
	NewStack entity.TokenStack
}

func (e ReplaceTokenEvent) ApplyTo(g *Game)  { g.Cell(e.Pos).Tokens = e.NewStack }
func (e ReplaceTokenEvent) UndoFrom(g *Game) { g.Cell(e.Pos).Tokens = e.OldStack }
func (e ReplaceTokenEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// TerrainCaptureEvent advances or completes a capture attempt on the
// terrain at Pos, carrying both the old and new CaptureState/owner so
// it can be undone exactly. Not one of spec §4.2's named Terrain
// events (TerrainChange is type-only) — capture progress and owner
// are plain entity.Terrain fields rather than attribute-bag tags, so
// they need their own forward/inverse pair to stay rollback-safe
// (spec §1: "every state mutation expressed as a forward/inverse
// event pair"); see DESIGN.md.
type TerrainCaptureEvent struct {
	Pos        maps.Point
	OldCapture *entity.CaptureState
	NewCapture *entity.CaptureState
	OldOwner   int
	NewOwner   int
}

func (e TerrainCaptureEvent) ApplyTo(g *Game) {
	if t := g.Cell(e.Pos).Terrain; t != nil {
		t.Capture = e.NewCapture
		t.Owner = e.NewOwner
	}
}
func (e TerrainCaptureEvent) UndoFrom(g *Game) {
	if t := g.Cell(e.Pos).Terrain; t != nil {
		t.Capture = e.OldCapture
		t.Owner = e.OldOwner
	}
}
func (e TerrainCaptureEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// TerrainCounterField names one of Terrain's small per-turn integer
// counters, so a single delta-adjust event shape can cover both
// (mirrors CommanderChargeEvent's adjust pattern).
type TerrainCounterField uint8

const (
	TerrainAnger TerrainCounterField = iota
	TerrainBuiltThisTurn
)

// TerrainCounterEvent adjusts one of terrain's counters by Delta,
// undone by the inverse delta. Not named directly in spec §4.2's
// Terrain event list; added so entity.Terrain.Anger/BuiltThisTurn
// (already round-tripped by the snapshot codec) have a rollback-safe
// mutation path for the command layer — see DESIGN.md.
type TerrainCounterEvent struct {
	Pos   maps.Point
	Field TerrainCounterField
	Delta int
}

func (e TerrainCounterEvent) ApplyTo(g *Game)  { e.adjust(g, e.Delta) }
func (e TerrainCounterEvent) UndoFrom(g *Game) { e.adjust(g, -e.Delta) }
func (e TerrainCounterEvent) adjust(g *Game, delta int) {
	t := g.Cell(e.Pos).Terrain
	if t == nil {
		return
	}
	switch e.Field {
	case TerrainAnger:
		t.Anger += delta
	case TerrainBuiltThisTurn:
		t.BuiltThisTurn += delta
	}
}
func (e TerrainCounterEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// TerrainExhaustedEvent toggles terrain.Exhausted, the cell-level
// counterpart to UnitFlagEvent, used for property types that can only
// act (repair, spawn) once per turn.
type TerrainExhaustedEvent struct {
	Pos maps.Point
}

func (e TerrainExhaustedEvent) ApplyTo(g *Game)  { e.toggle(g) }
func (e TerrainExhaustedEvent) UndoFrom(g *Game) { e.toggle(g) }
func (e TerrainExhaustedEvent) toggle(g *Game) {
	t := g.Cell(e.Pos).Terrain
	if t == nil {
		return
	}
	t.Exhausted = !t.Exhausted
}
func (e TerrainExhaustedEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if _, visible := VisibleAt(g, persp, e.Pos); !visible {
		return nil, false
	}
	return e, true
}

// PureFogChangeEvent records that a perspective's visible-cell set
// changed shape, without touching any other game state (spec §4.2
// "PureFogChange"). It is produced by TeamFog.Recompute and is itself
// only ever visible to the perspective it names.
type PureFogChangeEvent struct {
	Perspective Perspective
	Gained      []maps.Point
	Lost        []maps.Point
}

func (e PureFogChangeEvent) ApplyTo(g *Game)  {}
func (e PureFogChangeEvent) UndoFrom(g *Game) {}
func (e PureFogChangeEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if persp != e.Perspective {
		return nil, false
	}
	return e, true
}

// PurePlayerFogEvent marks the turn a team's "do we currently have
// secrets from this perspective" state flips, so a client can hide or
// reveal hidden-in-fog fields (funds, etc.) atomically (spec §4.2
// "PurePlayerFog").
type PurePlayerFogEvent struct {
	Perspective Perspective
	HasSecrets  bool
}

func (e PurePlayerFogEvent) ApplyTo(g *Game)  {}
func (e PurePlayerFogEvent) UndoFrom(g *Game) {}
func (e PurePlayerFogEvent) ForPerspective(g *Game, persp Perspective) (Event, bool) {
	if persp != e.Perspective {
		return nil, false
	}
	return e, true
}

// UnknownUnitTypeIndex is the placeholder type index a redacted unit
// projection carries: "something is here, but not what" (spec §4.2:
// "type possibly replaced by an unknown placeholder").
const UnknownUnitTypeIndex = -1

// redactUnit returns the projection of u visible at the given
// intensity: unchanged at TrueSight/NormalVision, type-and-owner
// hidden at Light (fog.rs: "unit types and owners are hidden"), and
// nil at Dark — a non-structure unit simply isn't rendered (fog.rs:
// "other units are hidden"). Structures are terrain, not units, so
// Dark's "you still see structures" carve-out never applies here.
func redactUnit(u *entity.Unit, intensity fogmap.FogIntensity) *entity.Unit {
	switch intensity {
	case fogmap.TrueSight, fogmap.NormalVision:
		return u
	case fogmap.Light:
		clone := *u
		clone.TypeIndex = UnknownUnitTypeIndex
		clone.Bag = u.Bag.Clone()
		clone.Bag.Set(attribute.KeyOwner, attribute.Int(entity.NoOwner))
		return &clone
	default: // Dark
		return nil
	}
}
