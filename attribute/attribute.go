// Package attribute implements the data-driven attribute bag shared by
// Unit, Terrain, and Token (spec §3.1, §9 "deep, nested attribute
// bags"). Rather than one Go struct field per possible attribute, every
// entity carries a single Map<AttributeKey, AttributeValue> whose
// legal keys are declared by a Schema; this keeps schemas config-data
// driven and serialization a direct loop over the declared order,
// mirroring the additive StatDelta-merge shape the teacher uses for
// its own stat bags.
package attribute

import "go.mongodb.org/mongo-driver/v2/bson"

// Key names an attribute slot. Core keys are fixed by the spec; config
// rows may also declare arbitrary flag/tag keys, which are plain
// strings prefixed by "flag:" or "tag:" to keep them out of the core
// key namespace.
type Key string

const (
	KeyOwner            Key = "owner"
	KeyHero              Key = "hero"
	KeyHP                 Key = "hp"
	KeyStatus             Key = "status"
	KeyDirection          Key = "direction"
	KeyTransportedCargo   Key = "transported_cargo"
	KeyDroneIDs           Key = "drone_ids"
	KeyAmphibious         Key = "amphibious"
	KeyLevel              Key = "level"
	KeyZombified          Key = "zombified"
	KeyEnPassantTarget    Key = "en_passant_target"
)

// Kind discriminates the tagged union stored in Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindPoint
	KindID
	KindIDList
	KindUnset
)

// Point is a minimal coordinate pair; attribute does not depend on the
// map package so it can be imported by both without a cycle.
type Point struct {
	X, Y int
}

// Value is a tagged-union attribute value. Only the field matching Kind
// is meaningful.
type Value struct {
	Kind    Kind
	Int     int
	Bool    bool
	Str     string
	Pt      Point
	ID      bson.ObjectID
	IDList  []bson.ObjectID
}

// Unset is the sentinel absent-value, distinct from a zero Int/Bool so
// that Schema defaults can legitimately be zero.
var Unset = Value{Kind: KindUnset}

func Int(n int) Value           { return Value{Kind: KindInt, Int: n} }
func Bool(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func String(s string) Value     { return Value{Kind: KindString, Str: s} }
func PointVal(p Point) Value    { return Value{Kind: KindPoint, Pt: p} }
func IDVal(id bson.ObjectID) Value { return Value{Kind: KindID, ID: id} }
func IDListVal(ids []bson.ObjectID) Value {
	return Value{Kind: KindIDList, IDList: ids}
}

// FlagKey names a config-defined boolean flag attribute, kept out of
// the fixed core-key namespace by the "flag:" prefix (spec §3.1:
// "plus arbitrary config-defined flags and tags").
func FlagKey(name string) Key { return Key("flag:" + name) }

// TagKey names a config-defined non-boolean tag attribute.
func TagKey(name string) Key { return Key("tag:" + name) }

// Schema is the set of keys an entity's effective type admits, each
// mapped to its default value. A key absent from the schema cannot be
// read or written (spec §3.1: "Attributes that are absent from the
// schema cannot be read or written").
type Schema map[Key]Value

// Union returns a new schema containing every key in any of the inputs.
// Later schemas win on conflicting defaults, matching the override
// order in spec §3.3: base type -> commander -> hero.
func Union(schemas ...Schema) Schema {
	out := make(Schema)
	for _, s := range schemas {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

// Bag holds the live attribute values for one entity instance.
type Bag struct {
	schema Schema
	values map[Key]Value
}

// NewBag creates a bag populated with the schema's defaults.
func NewBag(schema Schema) *Bag {
	b := &Bag{schema: schema, values: make(map[Key]Value, len(schema))}
	for k, v := range schema {
		b.values[k] = v
	}
	return b
}

// Schema returns the bag's current schema.
func (b *Bag) Schema() Schema {
	return b.schema
}

// Get reads key k. ok is false if k is not in the current schema.
func (b *Bag) Get(k Key) (Value, bool) {
	if _, inSchema := b.schema[k]; !inSchema {
		return Unset, false
	}
	v, ok := b.values[k]
	return v, ok
}

// Set writes key k. It returns false (no-op) if k is not in the
// current schema — callers that need to surface this as an error
// should check the schema explicitly first.
func (b *Bag) Set(k Key, v Value) bool {
	if _, inSchema := b.schema[k]; !inSchema {
		return false
	}
	b.values[k] = v
	return true
}

// Has reports whether k is admitted by the current schema.
func (b *Bag) Has(k Key) bool {
	_, ok := b.schema[k]
	return ok
}

// Reconcile swaps the bag onto a new schema: keys leaving the schema
// are dropped, keys entering it receive their default value, and keys
// present in both schemas retain their current value (spec §3.3:
// "Changing owner, hero, or commander power must reconcile the
// attribute map").
func (b *Bag) Reconcile(newSchema Schema) {
	next := make(map[Key]Value, len(newSchema))
	for k, def := range newSchema {
		if cur, ok := b.values[k]; ok {
			next[k] = cur
		} else {
			next[k] = def
		}
	}
	b.schema = newSchema
	b.values = next
}

// Clone deep-copies the bag (schema is shared, as schemas are
// immutable config-derived values).
func (b *Bag) Clone() *Bag {
	nb := &Bag{schema: b.schema, values: make(map[Key]Value, len(b.values))}
	for k, v := range b.values {
		if v.Kind == KindIDList {
			cp := make([]bson.ObjectID, len(v.IDList))
			copy(cp, v.IDList)
			v.IDList = cp
		}
		nb.values[k] = v
	}
	return nb
}

// Keys returns the schema's keys in a stable order (sorted by string
// value) for deterministic serialization.
func (s Schema) Keys() []Key {
	out := make([]Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sortKeys(out)
	return out
}

func sortKeys(keys []Key) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}
