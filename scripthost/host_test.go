package scripthost

import (
	"context"
	"testing"
)

func TestTableRegisterResolveRelease(t *testing.T) {
	tbl := NewTable()
	tok := tbl.Register("payload")
	v, ok := tbl.Resolve(tok)
	if !ok || v.(string) != "payload" {
		t.Fatalf("expected to resolve registered token, got %v ok=%v", v, ok)
	}
	tbl.Release(tok)
	if _, ok := tbl.Resolve(tok); ok {
		t.Fatalf("expected released token to no longer resolve")
	}
}

func TestTableNeverReusesIDs(t *testing.T) {
	tbl := NewTable()
	a := tbl.Register(1)
	tbl.Release(a)
	b := tbl.Register(2)
	if a == b {
		t.Fatalf("expected fresh token after release, got reused %v", a)
	}
}

func TestEvalAndCallEntryPoint(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := `
func Double(n int) int {
	return n * 2
}
`
	fn, err := h.Eval(src, "Double")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	doubled, ok := fn.(func(int) int)
	if !ok {
		t.Fatalf("expected func(int) int, got %T", fn)
	}
	v, err := CallTimeout(context.Background(), func() (any, error) {
		return doubled(21), nil
	})
	if err != nil {
		t.Fatalf("CallTimeout: %v", err)
	}
	if v.(int) != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}
