package command

import (
	"github.com/nicoberrocal/gridwar/combat"
	"github.com/nicoberrocal/gridwar/entity"
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// TokenActionKind discriminates the input a TokenAction carries (spec
// §6.3 "TokenAction(point, [input])").
type TokenActionKind uint8

const (
	TokenPlace TokenActionKind = iota
	TokenClear
)

// TokenActionRequest is one player's token-stack intent at a cell.
type TokenActionRequest struct {
	Owner int
	Pos   maps.Point
	Kind  TokenActionKind
	Token entity.Token // meaningful iff Kind == TokenPlace
	// Clear identifies the token to remove; meaningful iff Kind == TokenClear.
	ClearTypeIndex int
	ClearOwner     int
}

// TokenAction inserts or removes one token at req.Pos through
// entity.TokenStack's insertion/removal policy, wrapped in a single
// ReplaceTokenEvent so the whole stack mutation undoes atomically
// (spec §6.3, grounded on entity.TokenStack.Insert/Remove).
func TokenAction(ctx *Context, req TokenActionRequest) (Outcome, error) {
	g := ctx.Game
	cell := g.Cell(req.Pos)
	h := begin(g)

	switch req.Kind {
	case TokenPlace:
		row, ok := ctx.Rules.Tokens.Row(req.Token.TypeIndex)
		if !ok {
			return fail(h, newErrAt(ErrInvalidAction, req.Pos.X, req.Pos.Y, "unknown token type"))
		}
		if !tokenOwnerAllowed(row.OwnerPolicy, req.Token.Owner) {
			return fail(h, newErrAt(ErrInvalidAction, req.Pos.X, req.Pos.Y, "owner not permitted for this token type"))
		}
		old := append(entity.TokenStack{}, cell.Tokens...)
		next := cell.Tokens.Insert(req.Token)
		h.AddEvent(event.ReplaceTokenEvent{Pos: req.Pos, OldStack: old, NewStack: next})

	case TokenClear:
		old := append(entity.TokenStack{}, cell.Tokens...)
		next, removed := cell.Tokens.Remove(req.ClearTypeIndex, req.ClearOwner)
		if !removed {
			return fail(h, newErrAt(ErrInvalidAction, req.Pos.X, req.Pos.Y, "no matching token to remove"))
		}
		h.AddEvent(event.ReplaceTokenEvent{Pos: req.Pos, OldStack: old, NewStack: next})

	default:
		return fail(h, newErr(ErrInvalidAction, "unrecognized token action"))
	}

	combat.CleanupSweep(ctx.scriptContext(), g, h, ctx.Table, ctx.Host, ctx.logger())
	return outcomeOf(h), nil
}

func tokenOwnerAllowed(policy rulebook.TokenOwnerPolicy, owner int) bool {
	switch policy {
	case rulebook.TokenOwnerNever:
		return owner == entity.NoOwner
	case rulebook.TokenOwnerAlways:
		return owner != entity.NoOwner
	default:
		return true
	}
}
