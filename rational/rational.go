// Package rational implements exact rational arithmetic for the small
// integer priorities and bonus values used throughout the combat
// pipeline. Floats never enter the simulation path: a bonus of 1/3 must
// stay exactly 1/3 across every replay, which a float64 cannot
// guarantee bit-for-bit across platforms.
package rational

import "fmt"

// Rat is a reduced fraction Num/Den with Den > 0. The zero value Rat{}
// has Den 0 and is not a valid Rat; Zero is the rational 0/1.
type Rat struct {
	Num int32
	Den int32
}

// Zero is the additive identity.
var Zero = Rat{Num: 0, Den: 1}

// New builds a reduced Rat. Den == 0 panics: callers never construct a
// rational from untrusted denominators without checking first.
func New(num, den int32) Rat {
	if den == 0 {
		panic("rational: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs32(num), den)
	if g == 0 {
		return Rat{Num: 0, Den: 1}
	}
	return Rat{Num: num / g, Den: den / g}
}

// FromInt lifts an integer priority into Rat form.
func FromInt(n int32) Rat {
	return Rat{Num: n, Den: 1}
}

func abs32(n int32) int32 {
	if n < 0 {
		return -n
	}
	return n
}

func gcd(a, b int32) int32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Add returns a+b, reduced.
func Add(a, b Rat) Rat {
	return New(a.Num*b.Den+b.Num*a.Den, a.Den*b.Den)
}

// Sub returns a-b, reduced.
func Sub(a, b Rat) Rat {
	return New(a.Num*b.Den-b.Num*a.Den, a.Den*b.Den)
}

// Mul returns a*b, reduced.
func Mul(a, b Rat) Rat {
	return New(a.Num*b.Num, a.Den*b.Den)
}

// Neg returns -a.
func Neg(a Rat) Rat {
	return Rat{Num: -a.Num, Den: a.Den}
}

// Cmp returns -1, 0, or 1 as a<b, a==b, a>b.
func Cmp(a, b Rat) int {
	lhs := int64(a.Num) * int64(b.Den)
	rhs := int64(b.Num) * int64(a.Den)
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

// Less reports whether a < b; used as the sort predicate for inner
// (fine-grained) attack priorities.
func Less(a, b Rat) bool {
	return Cmp(a, b) < 0
}

// IsZero reports whether a == 0.
func IsZero(a Rat) bool {
	return a.Num == 0
}

func (r Rat) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Float64 converts for display/debugging only; never feed the result
// back into simulation state.
func (r Rat) Float64() float64 {
	return float64(r.Num) / float64(r.Den)
}

// ClampInt8 clamps n into the [-128, 127] range used for outer attack
// priorities (§4.1: "clamped to -128..127").
func ClampInt8(n int) int8 {
	if n > 127 {
		return 127
	}
	if n < -128 {
		return -128
	}
	return int8(n)
}
