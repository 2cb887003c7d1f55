package attribute

import "testing"

func TestBagRespectsSchema(t *testing.T) {
	schema := Schema{KeyHP: Int(100)}
	b := NewBag(schema)

	if _, ok := b.Get(KeyOwner); ok {
		t.Fatalf("owner should not be readable: not in schema")
	}
	if ok := b.Set(KeyOwner, Int(1)); ok {
		t.Fatalf("owner should not be writable: not in schema")
	}

	v, ok := b.Get(KeyHP)
	if !ok || v.Int != 100 {
		t.Fatalf("expected default hp=100, got %+v ok=%v", v, ok)
	}
}

func TestReconcileDropsAndAdds(t *testing.T) {
	base := Schema{KeyHP: Int(100), KeyZombified: Bool(false)}
	b := NewBag(base)
	b.Set(KeyHP, Int(42))

	withHero := Union(base, Schema{KeyAmphibious: Bool(true)})
	delete(withHero, KeyZombified)

	b.Reconcile(withHero)

	if _, ok := b.Get(KeyZombified); ok {
		t.Fatalf("zombified should have been dropped by reconcile")
	}
	av, ok := b.Get(KeyAmphibious)
	if !ok || av.Bool != true {
		t.Fatalf("amphibious should enter with its default, got %+v ok=%v", av, ok)
	}
	hv, _ := b.Get(KeyHP)
	if hv.Int != 42 {
		t.Fatalf("hp should survive reconcile unchanged, got %d", hv.Int)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBag(Schema{KeyLevel: Int(1)})
	clone := b.Clone()
	clone.Set(KeyLevel, Int(9))

	orig, _ := b.Get(KeyLevel)
	if orig.Int != 1 {
		t.Fatalf("mutating clone must not affect original, got %d", orig.Int)
	}
}
