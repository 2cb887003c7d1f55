// Package scripthost implements the sandboxed scripting embedding
// surface named in spec §6.4: a narrow, timeout-bounded way for
// config-declared scripts (attack build scripts, on-defend reactions,
// hero/commander power effect scripts) to call back into the host
// without ever holding a raw pointer to it.
//
// The source engine hands scripts a raw pointer to its EventHandler
// stashed in a Rhai scope constant (spec §9: "opaque cross-script
// handles to the mutable host"). That doesn't translate: Go has no
// Rhai, and a raw pointer closed over by an interpreted script is a
// lifetime hazard anyway. Instead every host object a script may touch
// is registered in a per-command Table and handed to the script only
// as an opaque integer Token; the script-visible API functions take a
// Token and look the object up through the table, so a token that has
// outlived its command (or was never legal for the calling context)
// simply fails to resolve instead of dereferencing freed state.
//
// Scripts themselves are interpreted with
// github.com/traefik/yaegi, grounded on
// theRebelliousNerd-codenerd/internal/autopoiesis/yaegi_executor.go's
// sandboxing shape: a fixed symbol set (no filesystem/network/exec),
// a wrapped-in-package-main source, and a context timeout enforced by
// running the call on a goroutine and select-ing on a result channel.
package scripthost

import (
	"context"
	"fmt"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Token is an opaque handle a script receives in place of a Go
// pointer. It resolves through a Table for the lifetime of one
// command only (spec §9: "a token type... defines precisely which
// host methods each script binding may invoke").
type Token int64

// Table is a per-command side table of script-visible handles. Tokens
// are generational: a fresh Table per command means no token can ever
// resolve against a later command's state.
type Table struct {
	next    int64
	objects map[Token]any
}

// NewTable returns an empty handle table, to be created once per
// command and discarded at the end of it.
func NewTable() *Table {
	return &Table{objects: make(map[Token]any)}
}

// Register mints a fresh token for obj and returns it. Do not reuse
// ids (spec §9): next only ever increases.
func (t *Table) Register(obj any) Token {
	t.next++
	tok := Token(t.next)
	t.objects[tok] = obj
	return tok
}

// Resolve looks up the object behind tok, or ok=false if tok is
// unknown to this table (expired, forged, or never registered).
func (t *Table) Resolve(tok Token) (any, bool) {
	obj, ok := t.objects[tok]
	return obj, ok
}

// Release forgets tok, so a script instance that retains it past the
// call that minted it gets a clean failure rather than stale data.
func (t *Table) Release(tok Token) {
	delete(t.objects, tok)
}

// DefaultTimeout bounds a single script call (spec §5: "no script may
// outlive the command").
const DefaultTimeout = 2 * time.Second

// Host wraps one yaegi interpreter. Unlike the teacher's
// YaegiExecutor (one package per call), a Host is reused across every
// script call in a command so Eval'd helper functions stay resident;
// callers still get sandboxing because the symbol table never admits
// filesystem/network/exec packages.
type Host struct {
	interp *interp.Interpreter
}

// New builds a Host with only the stdlib symbol set loaded — no
// bindings for os/exec/net/unsafe are ever registered, so scripts
// cannot reach outside the interpreter regardless of what they import
// (yaegi's stdlib.Symbols set itself excludes those).
func New() (*Host, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("scripthost: loading stdlib symbols: %w", err)
	}
	return &Host{interp: i}, nil
}

// Use additionally loads a caller-supplied symbol map — this is how
// the combat package injects the host-API functions (attacker_bonus,
// add_script, on_defend, ...) that scripts call back through, scoped
// to Token-taking signatures only.
func (h *Host) Use(symbols interp.Exports) error {
	return h.interp.Use(symbols)
}

// Eval interprets source (wrapped in "package main" if it isn't
// already) and returns the named entry-point function as a
// reflect-free any, ready for a type assertion by the caller. Eval
// itself is not timeout-bounded — building an AST is cheap and
// deterministic; Call is where a script's own logic runs and where a
// misbehaving script (e.g. an infinite loop) is bounded.
func (h *Host) Eval(source, entryPoint string) (any, error) {
	wrapped := wrapPackageMain(source)
	if _, err := h.interp.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("scripthost: eval: %w", err)
	}
	v, err := h.interp.Eval("main." + entryPoint)
	if err != nil {
		return nil, fmt.Errorf("scripthost: entry point %q not found: %w", entryPoint, err)
	}
	return v.Interface(), nil
}

// ResolveFunc looks up an already-Eval'd entry point by name without
// re-evaluating any source — used to call a second named function a
// build script defined alongside its primary entry point (e.g. a
// follow-up function registered for later execution).
func (h *Host) ResolveFunc(entryPoint string) (any, error) {
	v, err := h.interp.Eval("main." + entryPoint)
	if err != nil {
		return nil, fmt.Errorf("scripthost: entry point %q not found: %w", entryPoint, err)
	}
	return v.Interface(), nil
}

func wrapPackageMain(source string) string {
	for i := 0; i < len(source); i++ {
		if source[i] != ' ' && source[i] != '\t' && source[i] != '\n' && source[i] != '\r' {
			if hasPackageMain(source) {
				return source
			}
			break
		}
	}
	return "package main\n\n" + source
}

func hasPackageMain(source string) bool {
	const want = "package main"
	if len(source) < len(want) {
		return false
	}
	return source[:len(want)] == want
}

// CallTimeout runs fn (a script entry point already type-asserted by
// the caller into a concrete func value) under ctx, racing it against
// DefaultTimeout so a runaway script cannot hang the command (spec
// §7: script errors are "logged; replaced with a single glitch
// effect", never allowed to abort or stall the enclosing command).
func CallTimeout(ctx context.Context, fn func() (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	resultCh := make(chan any, 1)
	errCh := make(chan error, 1)
	go func() {
		v, err := fn()
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- v
	}()

	select {
	case v := <-resultCh:
		return v, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("scripthost: script call timed out: %w", ctx.Err())
	}
}
