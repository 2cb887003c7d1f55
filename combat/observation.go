package combat

import "github.com/nicoberrocal/gridwar/maps"

// ObservationTable is the transient id -> unit lookup described in
// spec §3.2/§9: a generational integer that survives displacement and
// push chains for the duration of one command, so a script or
// executable that captured an id earlier in the resolution still
// finds the right unit even if it has since moved. Ids are never
// reused (spec §9).
type ObservationTable struct {
	next    int
	records map[int]*observationRecord
}

type observationRecord struct {
	Point       maps.Point
	CargoIndex  *int // nil for a non-transported unit
	Distortion  maps.Distortion
}

// NewObservationTable returns an empty table, created fresh per
// command.
func NewObservationTable() *ObservationTable {
	return &ObservationTable{records: make(map[int]*observationRecord)}
}

// Remember mints a fresh observation id for the unit at p (or at
// cargoIndex within the transporter at p, if cargoIndex is non-nil)
// and returns it (spec §4.1 "remember_unit").
func (t *ObservationTable) Remember(p maps.Point, cargoIndex *int) int {
	t.next++
	id := t.next
	var idx *int
	if cargoIndex != nil {
		v := *cargoIndex
		idx = &v
	}
	t.records[id] = &observationRecord{Point: p, CargoIndex: idx, Distortion: maps.Identity}
	return id
}

// Resolve returns the current point, cargo index (nil if not
// transported) and accumulated distortion for id, or ok=false if id
// is unknown.
func (t *ObservationTable) Resolve(id int) (p maps.Point, cargoIndex *int, dist maps.Distortion, ok bool) {
	r, ok := t.records[id]
	if !ok {
		return maps.Point{}, nil, maps.Identity, false
	}
	return r.Point, r.CargoIndex, r.Distortion, true
}

// UpdateAfterMove rewrites id's tracked point and composes the new
// distortion onto its accumulated one, called after every push/move
// event so later executables in the same resolution still resolve
// correctly (spec §9: "a small side-table... is updated after every
// push/move event").
//
// Per the resolved Open Question in SPEC_FULL §4.1.3, a cargo index is
// never rewritten here even if the transported unit's position within
// its transporter later changes — this matches original_source, which
// leaves remember_unit's cargo index stale by design.
func (t *ObservationTable) UpdateAfterMove(id int, newPoint maps.Point, incrementalDistortion maps.Distortion) {
	r, ok := t.records[id]
	if !ok {
		return
	}
	r.Point = newPoint
	r.Distortion = maps.Compose(r.Distortion, incrementalDistortion)
}

// ByPoint finds the observation id (if any) already tracking p with no
// cargo index. If several ids track p, which one is returned is not
// defined.
func (t *ObservationTable) ByPoint(p maps.Point) (int, bool) {
	for id, r := range t.records {
		if r.CargoIndex == nil && r.Point == p {
			return id, true
		}
	}
	return 0, false
}
