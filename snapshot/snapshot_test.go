package snapshot

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/players"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/rulebook"
	"github.com/nicoberrocal/gridwar/rulebook/configfake"
)

func testGameWithFog() (*event.Game, *rulebook.Rulebook) {
	rb := configfake.NewRulebook()
	units := rb.Units.(*configfake.MemoryUnitTypes)
	units.Put(1, rulebook.UnitTypeRow{
		Name: "infantry",
		AttributeSchema: attribute.Schema{
			attribute.KeyOwner: attribute.Int(entity.NoOwner),
			attribute.KeyHP:    attribute.Int(100),
		},
	})
	terrains := rb.Terrains.(*configfake.MemoryTerrainTypes)
	terrains.Put(1, rulebook.TerrainTypeRow{Name: "plain", MovementCost: map[int]rational.Rat{}})

	m := maps.WrappingMap{Width: 4, Height: 4, ShapeKind: maps.Square}
	g := event.NewGame(m, rb)
	g.CurrentTurn = 3

	p1 := players.NewPlayer(0, 1, 1, 100, nil)
	p1.Funds = 500
	p2 := players.NewPlayer(1, 2, 2, 100, nil)
	p2.Funds = 750
	g.Players = []*players.Player{p1, p2}

	terrain, _ := entity.NewTerrain(1, rb)
	pos := maps.Point{X: 1, Y: 1}
	g.Cell(pos).Terrain = terrain

	u, err := entity.NewUnit(bson.NewObjectID(), 1, pos, rb, 1, 0, false, 0, false, -1)
	if err != nil {
		panic(err)
	}
	g.Cell(pos).Unit = u

	team1 := fogmap.NewTeamFog()
	team1.Visible.Add(pos)
	team1.Intensity[pos] = fogmap.TrueSight
	g.TeamFog[1] = team1

	team2 := fogmap.NewTeamFog()
	g.TeamFog[2] = team2

	g.NeutralFog.Visible.Add(pos)
	g.NeutralFog.Intensity[pos] = fogmap.Dark

	return g, rb
}

func TestServerRoundTripPreservesEverything(t *testing.T) {
	g, rb := testGameWithFog()
	data := Export(g, Options{Audience: Server})

	back, aud, err := Import(data, rb)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if aud != Server {
		t.Fatalf("expected Server audience, got %v", aud)
	}
	if back.CurrentTurn != 3 {
		t.Fatalf("expected turn 3, got %d", back.CurrentTurn)
	}
	if len(back.Players) != 2 || back.Players[0].Funds != 500 || back.Players[1].Funds != 750 {
		t.Fatalf("expected both players' funds preserved, got %+v", back.Players)
	}
	pos := maps.Point{X: 1, Y: 1}
	cell, ok := back.Cells[pos]
	if !ok || cell.Unit == nil {
		t.Fatalf("expected unit preserved at %v", pos)
	}
	if cell.Unit.HP() != 100 {
		t.Fatalf("expected hp 100, got %d", cell.Unit.HP())
	}
	if len(back.TeamFog) != 2 {
		t.Fatalf("expected both teams' fog preserved, got %d", len(back.TeamFog))
	}
}

func TestPublicExportHidesFundsAndDarkCells(t *testing.T) {
	g, rb := testGameWithFog()
	data := Export(g, Options{Audience: Public})

	back, aud, err := Import(data, rb)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if aud != Public {
		t.Fatalf("expected Public audience, got %v", aud)
	}
	for _, p := range back.Players {
		if p.Funds != 0 {
			t.Fatalf("expected funds hidden in public export, got %d for owner %d", p.Funds, p.OwnerID)
		}
	}
	pos := maps.Point{X: 1, Y: 1}
	if cell, ok := back.Cells[pos]; ok && (cell.Terrain != nil || cell.Unit != nil) {
		t.Fatalf("expected the dark-to-neutral cell's field data blanked in the public export, got %+v", cell)
	}
}

func TestTeamExportRevealsOwnFundsAndBrighterCells(t *testing.T) {
	g, rb := testGameWithFog()
	data := Export(g, Options{Audience: Team, TeamID: 1})

	back, aud, err := Import(data, rb)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if aud != Team {
		t.Fatalf("expected Team audience, got %v", aud)
	}
	for _, p := range back.Players {
		if p.TeamID == 1 && p.Funds != 500 {
			t.Fatalf("expected team 1's own funds revealed, got %d", p.Funds)
		}
		if p.TeamID == 2 && p.Funds != 0 {
			t.Fatalf("expected team 2's funds hidden from team 1, got %d", p.Funds)
		}
	}
	pos := maps.Point{X: 1, Y: 1}
	cell, ok := back.Cells[pos]
	if !ok || cell.Unit == nil {
		t.Fatalf("expected the true-sight cell revealed to its own team, got %+v", cell)
	}
}

func TestImportRejectsVersionMismatch(t *testing.T) {
	g, rb := testGameWithFog()
	data := Export(g, Options{Audience: Server})
	data[0] = 99 // corrupt the version byte

	if _, _, err := Import(data, rb); err == nil {
		t.Fatalf("expected a version mismatch error")
	}
}

func TestImportRejectsTruncatedStream(t *testing.T) {
	g, rb := testGameWithFog()
	data := Export(g, Options{Audience: Server})

	if _, _, err := Import(data[:len(data)/2], rb); err == nil {
		t.Fatalf("expected a truncated-stream error")
	}
}

func TestBitioWriterReaderRoundTripsMixedFields(t *testing.T) {
	w := NewWriter()
	w.WriteBits(5, 3)
	w.WriteBool(true)
	w.WriteBits(12345, 16)
	w.WriteBytes([]byte("hello"))
	w.WriteBool(false)

	r := NewReader(w.Bytes())
	if v, err := r.ReadBits(3); err != nil || v != 5 {
		t.Fatalf("expected 5, got %d err %v", v, err)
	}
	if b, err := r.ReadBool(); err != nil || !b {
		t.Fatalf("expected true, got %v err %v", b, err)
	}
	if v, err := r.ReadBits(16); err != nil || v != 12345 {
		t.Fatalf("expected 12345, got %d err %v", v, err)
	}
	if blob, err := r.ReadBytes(); err != nil || string(blob) != "hello" {
		t.Fatalf("expected hello, got %q err %v", blob, err)
	}
	if b, err := r.ReadBool(); err != nil || b {
		t.Fatalf("expected false, got %v err %v", b, err)
	}
}
