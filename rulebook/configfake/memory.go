// Package configfake provides in-memory implementations of every
// rulebook table, for tests and tools that need a Rulebook without a
// real config-file loader. The shape is lifted directly from the
// teacher's diplomacy.MemoryProvider: a map keyed by index, an
// EnsureX-style constructor, and small setters used by tests to build
// up scenarios.
package configfake

import (
	"github.com/nicoberrocal/gridwar/attribute"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// MemoryUnitTypes is an in-memory unit_types table.
type MemoryUnitTypes struct {
	rows    map[int]rulebook.UnitTypeRow
	isDead  func(typeIndex int, bag *attribute.Bag) bool
}

// NewMemoryUnitTypes builds an empty table. isDead may be nil, in
// which case the default predicate is "hp attribute present and <= 0".
func NewMemoryUnitTypes(isDead func(int, *attribute.Bag) bool) *MemoryUnitTypes {
	if isDead == nil {
		isDead = defaultIsDead
	}
	return &MemoryUnitTypes{rows: make(map[int]rulebook.UnitTypeRow), isDead: isDead}
}

func defaultIsDead(_ int, bag *attribute.Bag) bool {
	v, ok := bag.Get(attribute.KeyHP)
	return ok && v.Int <= 0
}

// Put registers or overwrites a row.
func (m *MemoryUnitTypes) Put(typeIndex int, row rulebook.UnitTypeRow) {
	m.rows[typeIndex] = row
}

func (m *MemoryUnitTypes) Row(typeIndex int) (rulebook.UnitTypeRow, bool) {
	r, ok := m.rows[typeIndex]
	return r, ok
}

func (m *MemoryUnitTypes) IsDead(typeIndex int, bag *attribute.Bag) bool {
	return m.isDead(typeIndex, bag)
}

// MemoryTerrainTypes is an in-memory terrain_types table.
type MemoryTerrainTypes struct {
	rows map[int]rulebook.TerrainTypeRow
}

func NewMemoryTerrainTypes() *MemoryTerrainTypes {
	return &MemoryTerrainTypes{rows: make(map[int]rulebook.TerrainTypeRow)}
}

func (m *MemoryTerrainTypes) Put(typeIndex int, row rulebook.TerrainTypeRow) {
	m.rows[typeIndex] = row
}

func (m *MemoryTerrainTypes) Row(typeIndex int) (rulebook.TerrainTypeRow, bool) {
	r, ok := m.rows[typeIndex]
	return r, ok
}

// MemoryTokenTypes is an in-memory token_types table.
type MemoryTokenTypes struct {
	rows map[int]rulebook.TokenTypeRow
}

func NewMemoryTokenTypes() *MemoryTokenTypes {
	return &MemoryTokenTypes{rows: make(map[int]rulebook.TokenTypeRow)}
}

func (m *MemoryTokenTypes) Put(typeIndex int, row rulebook.TokenTypeRow) {
	m.rows[typeIndex] = row
}

func (m *MemoryTokenTypes) Row(typeIndex int) (rulebook.TokenTypeRow, bool) {
	r, ok := m.rows[typeIndex]
	return r, ok
}

// MemoryHeroTypes is an in-memory hero_types table.
type MemoryHeroTypes struct {
	rows map[int]rulebook.HeroTypeRow
}

func NewMemoryHeroTypes() *MemoryHeroTypes {
	return &MemoryHeroTypes{rows: make(map[int]rulebook.HeroTypeRow)}
}

func (m *MemoryHeroTypes) Put(typeIndex int, row rulebook.HeroTypeRow) {
	m.rows[typeIndex] = row
}

func (m *MemoryHeroTypes) Row(typeIndex int) (rulebook.HeroTypeRow, bool) {
	r, ok := m.rows[typeIndex]
	return r, ok
}

// MemoryCommanderTypes is an in-memory commander_types table.
type MemoryCommanderTypes struct {
	rows map[int]rulebook.CommanderTypeRow
}

func NewMemoryCommanderTypes() *MemoryCommanderTypes {
	return &MemoryCommanderTypes{rows: make(map[int]rulebook.CommanderTypeRow)}
}

func (m *MemoryCommanderTypes) Put(typeIndex int, row rulebook.CommanderTypeRow) {
	m.rows[typeIndex] = row
}

func (m *MemoryCommanderTypes) Row(typeIndex int) (rulebook.CommanderTypeRow, bool) {
	r, ok := m.rows[typeIndex]
	return r, ok
}

// MemoryAttackTypes is an in-memory attack_types table.
type MemoryAttackTypes struct {
	rows map[int]rulebook.AttackTypeRow
}

func NewMemoryAttackTypes() *MemoryAttackTypes {
	return &MemoryAttackTypes{rows: make(map[int]rulebook.AttackTypeRow)}
}

func (m *MemoryAttackTypes) Put(typeIndex int, row rulebook.AttackTypeRow) {
	m.rows[typeIndex] = row
}

func (m *MemoryAttackTypes) Row(typeIndex int) (rulebook.AttackTypeRow, bool) {
	r, ok := m.rows[typeIndex]
	return r, ok
}

// MemoryEffectTypes is an in-memory effect_types table.
type MemoryEffectTypes struct {
	rows map[int]rulebook.EffectTypeRow
}

func NewMemoryEffectTypes() *MemoryEffectTypes {
	return &MemoryEffectTypes{rows: make(map[int]rulebook.EffectTypeRow)}
}

func (m *MemoryEffectTypes) Put(typeIndex int, row rulebook.EffectTypeRow) {
	m.rows[typeIndex] = row
}

func (m *MemoryEffectTypes) Row(typeIndex int) (rulebook.EffectTypeRow, bool) {
	r, ok := m.rows[typeIndex]
	return r, ok
}

// NewRulebook assembles a fully in-memory Rulebook with empty tables,
// ready for a test to Put() rows into.
func NewRulebook() *rulebook.Rulebook {
	return &rulebook.Rulebook{
		Units:       NewMemoryUnitTypes(nil),
		Terrains:    NewMemoryTerrainTypes(),
		Tokens:      NewMemoryTokenTypes(),
		Heroes:      NewMemoryHeroTypes(),
		Commanders:  NewMemoryCommanderTypes(),
		AttackTypes: NewMemoryAttackTypes(),
		Effects:     NewMemoryEffectTypes(),
	}
}
