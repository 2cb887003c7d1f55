package fogmap

import (
	"bytes"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/nicoberrocal/gridwar/maps"
)

// encode packs a point into the uint32 domain RoaringBitmap indexes,
// high 16 bits for X and low 16 for Y. Maps larger than 65535 on
// either axis are not supported by this encoding.
func encode(p maps.Point) uint32 {
	return uint32(uint16(p.X))<<16 | uint32(uint16(p.Y))
}

func decode(code uint32) maps.Point {
	return maps.Point{X: int(int16(code >> 16)), Y: int(int16(code & 0xffff))}
}

// VisibleSet is a sparse set of visible cells, backed by a
// RoaringBitmap so that the common case (a small fraction of a large
// map is visible to one team) stays compact both in memory and in the
// snapshot wire format (spec §6.2).
type VisibleSet struct {
	bm *roaring.Bitmap
}

// NewVisibleSet returns an empty set.
func NewVisibleSet() *VisibleSet {
	return &VisibleSet{bm: roaring.New()}
}

// Add marks p visible.
func (s *VisibleSet) Add(p maps.Point) {
	s.bm.Add(encode(p))
}

// Contains reports whether p is currently visible.
func (s *VisibleSet) Contains(p maps.Point) bool {
	return s.bm.Contains(encode(p))
}

// ToSlice returns every visible cell. Order is not meaningful.
func (s *VisibleSet) ToSlice() []maps.Point {
	codes := s.bm.ToArray()
	out := make([]maps.Point, len(codes))
	for i, c := range codes {
		out[i] = decode(c)
	}
	return out
}

// Clone deep-copies the set.
func (s *VisibleSet) Clone() *VisibleSet {
	return &VisibleSet{bm: s.bm.Clone()}
}

// Len reports how many cells are visible.
func (s *VisibleSet) Len() int {
	return int(s.bm.GetCardinality())
}

// MarshalBinary writes the set in RoaringBitmap's own compact wire
// format, the representation the snapshot codec embeds directly (spec
// §6.2) rather than re-deriving a bitmap format of its own.
func (s *VisibleSet) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.bm.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinaryVisibleSet reads back a set written by MarshalBinary.
func UnmarshalBinaryVisibleSet(data []byte) (*VisibleSet, error) {
	bm := roaring.New()
	if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &VisibleSet{bm: bm}, nil
}

// Diff computes which cells became visible and which stopped being
// visible going from s (old) to next (new); this is the basis of the
// PureFogChange-shaped diffs the event machine emits on recompute.
func (s *VisibleSet) Diff(next *VisibleSet) (gained, lost []maps.Point) {
	gainedBM := roaring.AndNot(next.bm, s.bm)
	lostBM := roaring.AndNot(s.bm, next.bm)
	for _, c := range gainedBM.ToArray() {
		gained = append(gained, decode(c))
	}
	for _, c := range lostBM.ToArray() {
		lost = append(lost, decode(c))
	}
	return gained, lost
}

// GradedVision builds one contributor's graded vision field anchored
// at pos (spec §4.3's VisionMode.Normal): every cell within
// visionRange rings of pos is tiered into TrueSight (distance <=
// trueRange), NormalVision (distance <= normalRange) or Light
// (everything else in range), and pos itself always reads as
// TrueSight. Ported from original_source's units/unit.rs, terrain.rs
// and token.rs, which all share this exact tiering (normalRange is the
// setting-shrunk range from FogSetting.NormalRange, trueRange is 0 for
// contributors without their own true-sight radius).
func GradedVision(m maps.WrappingMap, pos maps.Point, visionRange, trueRange, normalRange int) map[maps.Point]FogIntensity {
	result := map[maps.Point]FogIntensity{pos: TrueSight}
	layers := m.RangeLayers(pos, visionRange)
	for dist, layer := range layers {
		var tier FogIntensity
		switch {
		case dist <= trueRange:
			tier = TrueSight
		case dist <= normalRange:
			tier = NormalVision
		default:
			tier = Light
		}
		for _, p := range layer {
			if existing, ok := result[p]; ok {
				result[p] = Combine(existing, tier)
			} else {
				result[p] = tier
			}
		}
	}
	return result
}

// GradedPath builds one unit's VisionMode.Movement vision field: steps
// maps every cell reachable on the unit's ignore-occupancy path graph
// to the number of hops it took to get there (as returned by the
// pathfind package), tiered by the same true/normal/Light thresholds
// GradedVision uses for ring distance (original_source's
// units/unit.rs::get_vision, VisionMode::Movement branch).
func GradedPath(pos maps.Point, steps map[maps.Point]int, trueRange, normalRange int) map[maps.Point]FogIntensity {
	result := map[maps.Point]FogIntensity{pos: TrueSight}
	for p, hops := range steps {
		var tier FogIntensity
		switch {
		case hops <= trueRange:
			tier = TrueSight
		case hops <= normalRange:
			tier = NormalVision
		default:
			tier = Light
		}
		if existing, ok := result[p]; ok {
			result[p] = Combine(existing, tier)
		} else {
			result[p] = tier
		}
	}
	return result
}

// TeamFog is the per-team (or per-player, or neutral-observer)
// visibility state: which cells are visible at all, and at what
// intensity (spec §4.3's graded model — a cell can be in a
// VisibleSet yet only seen at Light or Dark intensity when e.g.
// covered by a structure-only sightline).
type TeamFog struct {
	Visible   *VisibleSet
	Intensity map[maps.Point]FogIntensity
}

// NewTeamFog returns an empty fog state.
func NewTeamFog() *TeamFog {
	return &TeamFog{Visible: NewVisibleSet(), Intensity: make(map[maps.Point]FogIntensity)}
}

// Recompute replaces this team's visibility with next — a per-point
// intensity map the caller has already built by ambient-filling the
// whole map at the setting's floor intensity and layering every
// contributor's GradedVision/GradedPath field on top via Combine
// (original_source's game.rs::recalculate_fog) — and returns the
// gained/lost cells relative to the previous state so the event
// machine can stamp a fog-change event (spec §4.2: "recompute fog if
// foggy"). Points at Dark are dropped from both Visible and Intensity,
// keeping the common case (most of a large map invisible) sparse;
// IntensityAt already treats a missing point as Dark.
func (t *TeamFog) Recompute(next map[maps.Point]FogIntensity) (gained, lost []maps.Point) {
	merged := NewVisibleSet()
	nextIntensity := make(map[maps.Point]FogIntensity, len(next))
	for p, intensity := range next {
		if intensity == Dark {
			continue
		}
		merged.Add(p)
		nextIntensity[p] = intensity
	}
	gained, lost = t.Visible.Diff(merged)
	t.Visible = merged
	t.Intensity = nextIntensity
	return gained, lost
}

// IntensityAt reports the fog intensity at p, or Dark if p is not
// currently visible at all (the darkest possible reading, matching
// the spec's "you see structures, other units are hidden" floor).
func (t *TeamFog) IntensityAt(p maps.Point) FogIntensity {
	if !t.Visible.Contains(p) {
		return Dark
	}
	return t.Intensity[p]
}
