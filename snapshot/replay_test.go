package snapshot

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/fogmap"
	"github.com/nicoberrocal/gridwar/maps"
)

// TestReplayFromPublicConvergesToTeamView drives the replay-
// equivalence property: a client initialized from the public artifact
// and fed team T's event projection ends up agreeing with the server
// everywhere team T has vision, and learns nothing anywhere else.
func TestReplayFromPublicConvergesToTeamView(t *testing.T) {
	g, rb := testGameWithFog()

	// Team 1 additionally sees (2,1); the neutral observer does not,
	// so the public artifact carries nothing about that cell.
	litPos := maps.Point{X: 2, Y: 1}
	g.TeamFog[1].Visible.Add(litPos)
	g.TeamFog[1].Intensity[litPos] = fogmap.NormalVision

	client, aud, err := Import(Export(g, Options{Audience: Public}), rb)
	if err != nil {
		t.Fatalf("importing public artifact: %v", err)
	}
	if aud != Public {
		t.Fatalf("expected Public audience, got %v", aud)
	}

	// The server now resolves a command: one unit appears where team 1
	// has vision, another deep in team 1's dark. Each event is streamed
	// to the client as it is emitted, the way a transport would deliver
	// it — unit payloads are cloned at that boundary so the client
	// never shares live state with the server.
	h := event.NewEventHandler(g, []int{1, 2})
	stream := func(e event.Event) {
		h.AddEvent(e)
		proj := h.PerTeam[1][len(h.PerTeam[1])-1]
		if proj == nil {
			return
		}
		if add, ok := proj.(event.UnitAddEvent); ok {
			clone := *add.Unit
			clone.Bag = add.Unit.Bag.Clone()
			proj = event.UnitAddEvent{Pos: add.Pos, Unit: &clone}
		}
		proj.ApplyTo(client)
	}

	visible, err := entity.NewUnit(bson.NewObjectID(), 1, litPos, rb, 1, 0, false, 0, false, -1)
	if err != nil {
		t.Fatalf("building unit: %v", err)
	}
	darkPos := maps.Point{X: 3, Y: 3}
	hidden, err := entity.NewUnit(bson.NewObjectID(), 1, darkPos, rb, 2, 0, false, 0, false, -1)
	if err != nil {
		t.Fatalf("building unit: %v", err)
	}
	stream(event.UnitAddEvent{Pos: litPos, Unit: visible})
	stream(event.UnitAddEvent{Pos: darkPos, Unit: hidden})
	stream(event.UnitHPChangeEvent{Pos: litPos, Delta: -40})

	got := client.Cell(litPos).Unit
	if got == nil {
		t.Fatalf("expected the replayed client to materialize the unit team 1 watched appear")
	}
	if got.ID != visible.ID || got.HP() != 60 {
		t.Fatalf("expected the client's unit to match the server's (id %v hp 60), got id %v hp %d", visible.ID, got.ID, got.HP())
	}
	if server := g.Cell(litPos).Unit; server == nil || server.HP() != got.HP() {
		t.Fatalf("expected client and server to agree inside team 1's vision")
	}

	if client.Cell(darkPos).Unit != nil {
		t.Fatalf("expected the dark-cell unit to stay unknown to the replayed client")
	}
	if g.Cell(darkPos).Unit == nil {
		t.Fatalf("expected the server to keep the dark-cell unit")
	}
}
