// Package snapshot builds and restores the three export artifacts
// named in spec §6.2 — public, server, and per-team — over the
// bit-packed Writer/Reader in bitio.go. The three differ only in which
// optional sections get written, so Export always walks the same cell
// order and lets a Visibility predicate decide, per cell, whether to
// reveal full field data or just the fog reading.
package snapshot

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/players"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// formatVersion is bumped whenever the wire layout changes, so Import
// can refuse a stream from an incompatible build rather than
// misinterpret its bytes (spec §6.2 "Import errors": "version
// mismatch").
const formatVersion = 1

// Audience discriminates which of the three artifacts Export produces.
type Audience uint8

const (
	// Public is what an external spectator sees: no team fog maps, no
	// hidden player funds, only cells bright enough for every team to
	// agree on (spec §6.2 "public").
	Public Audience = iota
	// Server is the complete, authoritative state: every team's fog
	// map and every player's funds (spec §6.2 "server").
	Server
	// Team is one team's perspective: that team's own fog map, its own
	// players' funds revealed, every other player's funds hidden, and
	// full field data on any cell that team sees brighter than the
	// neutral observer does (spec §6.2 "team[T]").
	Team
)

// Options configures one Export call.
type Options struct {
	Audience Audience
	// TeamID is meaningful only when Audience == Team.
	TeamID int
}

// Export serializes g per opts into the matching artifact.
func Export(g *event.Game, opts Options) []byte {
	w := NewWriter()
	w.WriteBits(uint64(formatVersion), 8)
	w.WriteBits(uint64(opts.Audience), 2)

	writeMapHeader(w, g.Map)
	writeFogMode(w, g.FogMode)
	w.WriteBits(uint64(int32(g.CurrentTurn)), 32)
	w.WriteBool(g.Over)

	writePlayers(w, g, opts)

	if opts.Audience == Server {
		w.WriteBits(uint64(len(g.TeamFog)), 16)
		// Deterministic order: ascending team id, since map iteration
		// order is not stable.
		for _, teamID := range sortedTeamIDs(g.TeamFog) {
			w.WriteBits(uint64(int32(teamID)), 32)
			writeTeamFog(w, g.TeamFog[teamID])
		}
		writeTeamFog(w, g.NeutralFog)
	} else if opts.Audience == Team {
		tf := g.TeamFog[opts.TeamID]
		if tf == nil {
			tf = fogmap.NewTeamFog()
		}
		writeTeamFog(w, tf)
	} else {
		writeTeamFog(w, g.NeutralFog)
	}

	writeCells(w, g, opts)

	return w.Bytes()
}

// Import decodes an artifact written by Export back into a Game. rb
// must be the same rulebook the exporting side used — unit/terrain
// schemas are re-derived from it, not carried on the wire.
func Import(data []byte, rb *rulebook.Rulebook) (*event.Game, Audience, error) {
	r := NewReader(data)
	version, err := r.ReadBits(8)
	if err != nil {
		return nil, 0, err
	}
	if version != formatVersion {
		return nil, 0, fmt.Errorf("snapshot: version mismatch: got %d, want %d", version, formatVersion)
	}
	audBits, err := r.ReadBits(2)
	if err != nil {
		return nil, 0, err
	}
	audience := Audience(audBits)

	m, err := readMapHeader(r)
	if err != nil {
		return nil, 0, err
	}
	g := event.NewGame(m, rb)

	g.FogMode, err = readFogMode(r)
	if err != nil {
		return nil, 0, err
	}
	turnBits, err := r.ReadBits(32)
	if err != nil {
		return nil, 0, err
	}
	g.CurrentTurn = int(int32(turnBits))
	g.Over, err = r.ReadBool()
	if err != nil {
		return nil, 0, err
	}

	if err := readPlayers(r, g); err != nil {
		return nil, 0, err
	}

	switch audience {
	case Server:
		n, err := r.ReadBits(16)
		if err != nil {
			return nil, 0, err
		}
		for i := uint64(0); i < n; i++ {
			idBits, err := r.ReadBits(32)
			if err != nil {
				return nil, 0, err
			}
			tf, err := readTeamFog(r)
			if err != nil {
				return nil, 0, err
			}
			g.TeamFog[int(int32(idBits))] = tf
		}
		g.NeutralFog, err = readTeamFog(r)
		if err != nil {
			return nil, 0, err
		}
	default:
		tf, err := readTeamFog(r)
		if err != nil {
			return nil, 0, err
		}
		g.NeutralFog = tf
	}

	if err := readCells(r, g, rb); err != nil {
		return nil, 0, err
	}

	return g, audience, nil
}

func sortedTeamIDs(m map[int]*fogmap.TeamFog) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func writeMapHeader(w *Writer, m maps.WrappingMap) {
	w.WriteBits(uint64(int32(m.Width)), 32)
	w.WriteBits(uint64(int32(m.Height)), 32)
	w.WriteBool(m.WrapX)
	w.WriteBool(m.WrapY)
	w.WriteBool(m.MirrorOnWrapX)
	w.WriteBool(m.MirrorOnWrapY)
	w.WriteBits(uint64(m.ShapeKind), 1)
}

func readMapHeader(r *Reader) (maps.WrappingMap, error) {
	var m maps.WrappingMap
	width, err := r.ReadBits(32)
	if err != nil {
		return m, err
	}
	height, err := r.ReadBits(32)
	if err != nil {
		return m, err
	}
	m.Width = int(int32(width))
	m.Height = int(int32(height))
	if m.WrapX, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.WrapY, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.MirrorOnWrapX, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.MirrorOnWrapY, err = r.ReadBool(); err != nil {
		return m, err
	}
	shape, err := r.ReadBits(1)
	if err != nil {
		return m, err
	}
	m.ShapeKind = maps.Shape(shape)
	return m, nil
}

func writeFogMode(w *Writer, fm fogmap.FogMode) {
	w.WriteBits(uint64(fm.Kind), 3)
	w.WriteBits(uint64(fm.Constant.Kind), 3)
	w.WriteBits(uint64(fm.Constant.BonusVision), 8)
	w.WriteBits(uint64(fm.BrightDuration), 8)
	w.WriteBits(uint64(fm.DarkDuration), 8)
	w.WriteBool(fm.StartDark)
}

func readFogMode(r *Reader) (fogmap.FogMode, error) {
	var fm fogmap.FogMode
	kind, err := r.ReadBits(3)
	if err != nil {
		return fm, err
	}
	fm.Kind = fogmap.FogModeKind(kind)
	constKind, err := r.ReadBits(3)
	if err != nil {
		return fm, err
	}
	fm.Constant.Kind = fogmap.FogSettingKind(constKind)
	bonus, err := r.ReadBits(8)
	if err != nil {
		return fm, err
	}
	fm.Constant.BonusVision = uint8(bonus)
	bright, err := r.ReadBits(8)
	if err != nil {
		return fm, err
	}
	fm.BrightDuration = uint8(bright)
	dark, err := r.ReadBits(8)
	if err != nil {
		return fm, err
	}
	fm.DarkDuration = uint8(dark)
	if fm.StartDark, err = r.ReadBool(); err != nil {
		return fm, err
	}
	return fm, nil
}

func writePlayers(w *Writer, g *event.Game, opts Options) {
	w.WriteBits(uint64(len(g.Players)), 8)
	for _, p := range g.Players {
		w.WriteBits(uint64(int32(p.ColorID)), 32)
		w.WriteBits(uint64(int32(p.OwnerID)), 32)
		w.WriteBits(uint64(int32(p.TeamID)), 32)
		w.WriteBits(uint64(p.Income), 64)
		w.WriteBool(p.Dead)

		reveal := opts.Audience == Server || (opts.Audience == Team && p.TeamID == opts.TeamID)
		w.WriteBool(reveal)
		if reveal {
			w.WriteBits(uint64(p.Funds), 64)
		}

		hasCommander := p.Commander != nil
		w.WriteBool(hasCommander)
		if hasCommander {
			w.WriteBits(uint64(int32(p.Commander.TypeIndex)), 32)
			w.WriteBits(uint64(int32(p.Commander.Charge)), 32)
			w.WriteBits(uint64(int32(p.Commander.ActivePower)), 32)
		}
	}
}

func readPlayers(r *Reader, g *event.Game) error {
	n, err := r.ReadBits(8)
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		colorID, err := r.ReadBits(32)
		if err != nil {
			return err
		}
		ownerID, err := r.ReadBits(32)
		if err != nil {
			return err
		}
		teamID, err := r.ReadBits(32)
		if err != nil {
			return err
		}
		income, err := r.ReadBits(64)
		if err != nil {
			return err
		}
		p := players.NewPlayer(int(int32(colorID)), int(int32(ownerID)), int(int32(teamID)), int64(income), nil)
		if p.Dead, err = r.ReadBool(); err != nil {
			return err
		}
		revealed, err := r.ReadBool()
		if err != nil {
			return err
		}
		if revealed {
			funds, err := r.ReadBits(64)
			if err != nil {
				return err
			}
			p.Funds = int64(funds)
		}
		hasCommander, err := r.ReadBool()
		if err != nil {
			return err
		}
		if hasCommander {
			typeIdx, err := r.ReadBits(32)
			if err != nil {
				return err
			}
			charge, err := r.ReadBits(32)
			if err != nil {
				return err
			}
			active, err := r.ReadBits(32)
			if err != nil {
				return err
			}
			p.Commander = &entity.Commander{
				TypeIndex:   int(int32(typeIdx)),
				Charge:      int(int32(charge)),
				ActivePower: int(int32(active)),
			}
		}
		g.Players = append(g.Players, p)
	}
	return nil
}

func writeTeamFog(w *Writer, tf *fogmap.TeamFog) {
	blob, err := tf.Visible.MarshalBinary()
	if err != nil {
		// RoaringBitmap serialization failing means the bitmap itself
		// is corrupt in memory; there is no recovery, only a glitched
		// artifact, so this is the one place snapshot panics rather
		// than threading an error up through every write* helper.
		panic(fmt.Sprintf("snapshot: visible set marshal: %v", err))
	}
	w.WriteBytes(blob)
	w.WriteBits(uint64(len(tf.Intensity)), 32)
	for _, p := range sortedPoints(tf.Intensity) {
		w.WriteBits(uint64(int32(p.X)), 32)
		w.WriteBits(uint64(int32(p.Y)), 32)
		w.WriteBits(uint64(tf.Intensity[p]), 3)
	}
}

func readTeamFog(r *Reader) (*fogmap.TeamFog, error) {
	blob, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	visible, err := fogmap.UnmarshalBinaryVisibleSet(blob)
	if err != nil {
		return nil, err
	}
	tf := &fogmap.TeamFog{Visible: visible, Intensity: make(map[maps.Point]fogmap.FogIntensity)}
	n, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		x, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		y, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		intensity, err := r.ReadBits(3)
		if err != nil {
			return nil, err
		}
		tf.Intensity[maps.Point{X: int(int32(x)), Y: int(int32(y))}] = fogmap.FogIntensity(intensity)
	}
	return tf, nil
}

func sortedPoints(m map[maps.Point]fogmap.FogIntensity) []maps.Point {
	out := make([]maps.Point, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && lessPoint(out[j], out[j-1]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func lessPoint(a, b maps.Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// visibility decides, per cell, whether opts' audience may see full
// field data there or only that it is blanked out by fog (spec §6.2:
// "fully-revealed field data for cells where the team's intensity is
// brighter than the neutral observer's").
func visibility(g *event.Game, opts Options, p maps.Point) bool {
	switch opts.Audience {
	case Server:
		return true
	case Team:
		tf := g.TeamFog[opts.TeamID]
		if tf == nil {
			return false
		}
		return tf.IntensityAt(p) < g.NeutralFog.IntensityAt(p) || tf.Visible.Contains(p)
	default:
		return g.NeutralFog.IntensityAt(p) != fogmap.Dark
	}
}

func writeCells(w *Writer, g *event.Game, opts Options) {
	points := sortedCellPoints(g.Cells)
	w.WriteBits(uint64(len(points)), 32)
	for _, p := range points {
		w.WriteBits(uint64(int32(p.X)), 32)
		w.WriteBits(uint64(int32(p.Y)), 32)
		cell := g.Cells[p]
		reveal := visibility(g, opts, p)
		w.WriteBool(reveal)
		if !reveal {
			continue
		}
		writeTerrain(w, cell.Terrain)
		writeUnit(w, cell.Unit)
		writeTokens(w, cell.Tokens)
	}
}

func readCells(r *Reader, g *event.Game, rb *rulebook.Rulebook) error {
	n, err := r.ReadBits(32)
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		x, err := r.ReadBits(32)
		if err != nil {
			return err
		}
		y, err := r.ReadBits(32)
		if err != nil {
			return err
		}
		p := maps.Point{X: int(int32(x)), Y: int(int32(y))}
		revealed, err := r.ReadBool()
		if err != nil {
			return err
		}
		cell := g.Cell(p)
		if !revealed {
			continue
		}
		if cell.Terrain, err = readTerrain(r, rb); err != nil {
			return err
		}
		if cell.Unit, err = readUnit(r, rb); err != nil {
			return err
		}
		if cell.Tokens, err = readTokens(r); err != nil {
			return err
		}
	}
	return nil
}

func sortedCellPoints(cells map[maps.Point]*entity.Cell) []maps.Point {
	out := make([]maps.Point, 0, len(cells))
	for p := range cells {
		out = append(out, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && lessPoint(out[j], out[j-1]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func writeTerrain(w *Writer, t *entity.Terrain) {
	w.WriteBool(t != nil)
	if t == nil {
		return
	}
	w.WriteBits(uint64(int32(t.TypeIndex)), 32)
	w.WriteBits(uint64(int32(t.Owner)), 32)
	w.WriteBool(t.Capture != nil)
	if t.Capture != nil {
		w.WriteBits(uint64(int32(t.Capture.NewOwner)), 32)
		w.WriteBits(uint64(int32(t.Capture.Progress)), 32)
	}
	w.WriteBits(uint64(int32(t.Anger)), 32)
	w.WriteBits(uint64(int32(t.BuiltThisTurn)), 32)
	w.WriteBool(t.Exhausted)
	writeBag(w, t.Bag)
}

func readTerrain(r *Reader, rb *rulebook.Rulebook) (*entity.Terrain, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	typeIdx, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	t, ok := entity.NewTerrain(int(int32(typeIdx)), rb)
	if !ok {
		return nil, fmt.Errorf("snapshot: unknown terrain type %d", int32(typeIdx))
	}
	owner, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	t.Owner = int(int32(owner))
	hasCapture, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasCapture {
		newOwner, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		progress, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		t.Capture = &entity.CaptureState{NewOwner: int(int32(newOwner)), Progress: int(int32(progress))}
	}
	anger, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	t.Anger = int(int32(anger))
	built, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	t.BuiltThisTurn = int(int32(built))
	if t.Exhausted, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if t.Bag, err = readBag(r); err != nil {
		return nil, err
	}
	return t, nil
}

func writeUnit(w *Writer, u *entity.Unit) {
	w.WriteBool(u != nil)
	if u == nil {
		return
	}
	w.WriteBytes(u.ID[:])
	w.WriteBits(uint64(int32(u.TypeIndex)), 32)
	w.WriteBits(uint64(int32(u.Position.X)), 32)
	w.WriteBits(uint64(int32(u.Position.Y)), 32)
	w.WriteBool(u.Hero != nil)
	if u.Hero != nil {
		w.WriteBits(uint64(int32(u.Hero.TypeIndex)), 32)
		w.WriteBits(uint64(int32(u.Hero.Charge)), 32)
		w.WriteBits(uint64(int32(u.Hero.ActivePower)), 32)
	}
	writeBag(w, u.Bag)
}

func readUnit(r *Reader, rb *rulebook.Rulebook) (*entity.Unit, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	idBytes, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	var id bson.ObjectID
	copy(id[:], idBytes)
	typeIdx, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	x, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	y, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	hasHero, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	var hero *entity.Hero
	heroTypeIndex := 0
	if hasHero {
		htIdx, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		charge, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		active, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		heroTypeIndex = int(int32(htIdx))
		hero = &entity.Hero{TypeIndex: heroTypeIndex, Charge: int(int32(charge)), ActivePower: int(int32(active))}
	}

	u, err := entity.NewUnit(id, int(int32(typeIdx)), maps.Point{X: int(int32(x)), Y: int(int32(y))}, rb, entity.NoOwner, heroTypeIndex, hasHero, 0, false, -1)
	if err != nil {
		return nil, err
	}
	u.Hero = hero
	// The bag is self-describing on the wire (schema defaults travel
	// alongside values), so the one NewUnit just built is discarded
	// wholesale rather than reconciled key by key — this also sidesteps
	// needing the owning player's commander state, which isn't known
	// until the bag itself has been read.
	if u.Bag, err = readBag(r); err != nil {
		return nil, err
	}
	return u, nil
}

func writeTokens(w *Writer, tokens entity.TokenStack) {
	w.WriteBits(uint64(len(tokens)), 8)
	for _, tok := range tokens {
		w.WriteBits(uint64(int32(tok.TypeIndex)), 32)
		w.WriteBits(uint64(int32(tok.Owner)), 32)
		writeBag(w, tok.Tags)
	}
}

func readTokens(r *Reader) (entity.TokenStack, error) {
	n, err := r.ReadBits(8)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make(entity.TokenStack, 0, n)
	for i := uint64(0); i < n; i++ {
		typeIdx, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		owner, err := r.ReadBits(32)
		if err != nil {
			return nil, err
		}
		tags, err := readBag(r)
		if err != nil {
			return nil, err
		}
		out = append(out, entity.Token{TypeIndex: int(int32(typeIdx)), Owner: int(int32(owner)), Tags: tags})
	}
	return out, nil
}

// writeBag dumps the bag's full schema (key plus default) alongside
// its current values, in the bag's own deterministic key order, so
// readBag can rebuild an equivalent bag from scratch without consulting
// a rulebook — token tags in particular have no config-table backing
// the way unit/terrain schemas do.
func writeBag(w *Writer, b *attribute.Bag) {
	if b == nil {
		w.WriteBits(0, 16)
		return
	}
	schema := b.Schema()
	keys := schema.Keys()
	w.WriteBits(uint64(len(keys)), 16)
	for _, k := range keys {
		w.WriteBytes([]byte(k))
		writeValue(w, schema[k])
		v, _ := b.Get(k)
		writeValue(w, v)
	}
}

// readBag reads back a bag written by writeBag, reconstructing its
// schema from the embedded defaults.
func readBag(r *Reader) (*attribute.Bag, error) {
	n, err := r.ReadBits(16)
	if err != nil {
		return nil, err
	}
	schema := make(attribute.Schema, n)
	values := make(map[attribute.Key]attribute.Value, n)
	for i := uint64(0); i < n; i++ {
		keyBytes, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		def, err := readValue(r)
		if err != nil {
			return nil, err
		}
		v, err := readValue(r)
		if err != nil {
			return nil, err
		}
		key := attribute.Key(keyBytes)
		schema[key] = def
		values[key] = v
	}
	b := attribute.NewBag(schema)
	for k, v := range values {
		b.Set(k, v)
	}
	return b, nil
}

func writeValue(w *Writer, v attribute.Value) {
	w.WriteBits(uint64(v.Kind), 3)
	switch v.Kind {
	case attribute.KindInt:
		w.WriteBits(uint64(int64(v.Int)), 64)
	case attribute.KindBool:
		w.WriteBool(v.Bool)
	case attribute.KindString:
		w.WriteBytes([]byte(v.Str))
	case attribute.KindPoint:
		w.WriteBits(uint64(int32(v.Pt.X)), 32)
		w.WriteBits(uint64(int32(v.Pt.Y)), 32)
	case attribute.KindID:
		w.WriteBytes(v.ID[:])
	case attribute.KindIDList:
		w.WriteBits(uint64(len(v.IDList)), 16)
		for _, id := range v.IDList {
			w.WriteBytes(id[:])
		}
	case attribute.KindUnset:
		// nothing further to write
	}
}

func readValue(r *Reader) (attribute.Value, error) {
	kindBits, err := r.ReadBits(3)
	if err != nil {
		return attribute.Unset, err
	}
	switch attribute.Kind(kindBits) {
	case attribute.KindInt:
		n, err := r.ReadBits(64)
		if err != nil {
			return attribute.Unset, err
		}
		return attribute.Int(int(int64(n))), nil
	case attribute.KindBool:
		b, err := r.ReadBool()
		if err != nil {
			return attribute.Unset, err
		}
		return attribute.Bool(b), nil
	case attribute.KindString:
		b, err := r.ReadBytes()
		if err != nil {
			return attribute.Unset, err
		}
		return attribute.String(string(b)), nil
	case attribute.KindPoint:
		x, err := r.ReadBits(32)
		if err != nil {
			return attribute.Unset, err
		}
		y, err := r.ReadBits(32)
		if err != nil {
			return attribute.Unset, err
		}
		return attribute.PointVal(attribute.Point{X: int(int32(x)), Y: int(int32(y))}), nil
	case attribute.KindID:
		b, err := r.ReadBytes()
		if err != nil {
			return attribute.Unset, err
		}
		var id bson.ObjectID
		copy(id[:], b)
		return attribute.IDVal(id), nil
	case attribute.KindIDList:
		n, err := r.ReadBits(16)
		if err != nil {
			return attribute.Unset, err
		}
		ids := make([]bson.ObjectID, 0, n)
		for i := uint64(0); i < n; i++ {
			b, err := r.ReadBytes()
			if err != nil {
				return attribute.Unset, err
			}
			var id bson.ObjectID
			copy(id[:], b)
			ids = append(ids, id)
		}
		return attribute.IDListVal(ids), nil
	default:
		return attribute.Unset, nil
	}
}
