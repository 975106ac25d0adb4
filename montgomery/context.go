// Copyright (c) 2024 RoseLoverX

// Package montgomery implements modular arithmetic in Montgomery form over
// math/big integers. A Context is bound to one odd modulus n and keeps every
// value it produces in the relaxed range [0, 2n), which saves the conditional
// subtraction inside each reduction. Two values represent the same residue
// iff they are equal or differ by exactly n.
package montgomery

import (
	"math/big"
	"math/bits"

	"github.com/pkg/errors"
)

var (
	// ErrEvenModulus is returned when the modulus has no inverse mod r.
	ErrEvenModulus = errors.New("montgomery: modulus must be odd")
	// ErrSmallModulus is returned for moduli below 3.
	ErrSmallModulus = errors.New("montgomery: modulus must be at least 3")
	// ErrNotInvertible is returned by Invert when gcd(x, n) != 1. Callers that
	// treat this as a factor signal should take the gcd themselves.
	ErrNotInvertible = errors.New("montgomery: value is not invertible")
)

var (
	big1 = big.NewInt(1)
	big3 = big.NewInt(3)
)

// Context holds the precomputed constants for one modulus plus scratch
// buffers reused by every operation. It is not safe for concurrent use.
type Context struct {
	n     *big.Int // modulus, odd, >= 3
	n2    *big.Int // 2n
	nInv  *big.Int // -n^-1 mod r
	rBits uint     // r = 2^rBits, limb aligned, r > 4n
	rMask *big.Int // r - 1

	rModN        *big.Int // r mod n, the Montgomery form of 1
	rSquaredModN *big.Int // r^2 mod n
	rCubedModN   *big.Int // r^3 mod n

	t, t2 *big.Int // scratch
}

// New creates a context for the odd modulus n >= 3.
func New(n *big.Int) (*Context, error) {
	c := &Context{
		n:            new(big.Int),
		n2:           new(big.Int),
		nInv:         new(big.Int),
		rMask:        new(big.Int),
		rModN:        new(big.Int),
		rSquaredModN: new(big.Int),
		rCubedModN:   new(big.Int),
		t:            new(big.Int),
		t2:           new(big.Int),
	}
	if err := c.SetModulus(n); err != nil {
		return nil, err
	}
	return c, nil
}

// SetModulus re-targets the context to a new odd modulus, recomputing all
// constants while keeping the allocated buffers. Any Montgomery value
// produced under the previous modulus becomes meaningless.
func (c *Context) SetModulus(n *big.Int) error {
	if n.Sign() <= 0 || n.Cmp(big3) < 0 {
		return errors.Wrapf(ErrSmallModulus, "got %s", n.String())
	}
	if n.Bit(0) == 0 {
		return errors.Wrapf(ErrEvenModulus, "got %s", n.String())
	}

	c.n.Set(n)
	c.n2.Lsh(n, 1)

	// r is the smallest limb-aligned power of two above 4n, so every REDC
	// input below (2n)^2 stays under r*n and the output lands in [0, 2n)
	// without a trailing subtraction.
	c.rBits = uint(n.BitLen()) + 2
	if rem := c.rBits % bits.UintSize; rem != 0 {
		c.rBits += bits.UintSize - rem
	}

	r := new(big.Int).Lsh(big1, c.rBits)
	c.rMask.Sub(r, big1)

	if c.t.ModInverse(n, r) == nil {
		return errors.Wrapf(ErrEvenModulus, "got %s", n.String())
	}
	c.nInv.Sub(r, c.t) // -n^-1 mod r

	// The only spot where division by a non-power-of-two is allowed.
	c.rModN.Mod(r, n)
	c.t.Mul(c.rModN, c.rModN)
	c.rSquaredModN.Mod(c.t, n)
	c.t.Mul(c.rSquaredModN, c.rModN)
	c.rCubedModN.Mod(c.t, n)
	return nil
}

// Modulus returns a copy of n.
func (c *Context) Modulus() *big.Int {
	return new(big.Int).Set(c.n)
}

// One returns a copy of the Montgomery form of 1, i.e. r mod n.
func (c *Context) One() *big.Int {
	return new(big.Int).Set(c.rModN)
}

// SetOne assigns the Montgomery form of 1 to x.
func (c *Context) SetOne(x *big.Int) {
	x.Set(c.rModN)
}

// Reduce applies REDC in place: x <- x * r^-1 mod n. The input must satisfy
// 0 <= x < r*n; the output is in [0, 2n).
func (c *Context) Reduce(x *big.Int) {
	c.t.And(x, c.rMask)
	c.t.Mul(c.t, c.nInv)
	c.t.And(c.t, c.rMask)
	c.t.Mul(c.t, c.n)
	x.Add(x, c.t)
	x.Rsh(x, c.rBits)
}

// ToMont converts x in [0, 2n) to Montgomery form in place.
func (c *Context) ToMont(x *big.Int) {
	x.Mul(x, c.rSquaredModN)
	c.Reduce(x)
}

// FromMont converts x from Montgomery form to the canonical residue in
// [0, n), in place.
func (c *Context) FromMont(x *big.Int) {
	c.Reduce(x)
	if x.Cmp(c.n) >= 0 {
		x.Sub(x, c.n)
	}
}

// Add sets a = a + b mod 2n. Inputs in [0, 2n), output in [0, 2n).
func (c *Context) Add(a, b *big.Int) {
	a.Add(a, b)
	if a.Cmp(c.n2) >= 0 {
		a.Sub(a, c.n2)
	}
}

// Sub sets a = a - b, normalized to the non-negative representative.
func (c *Context) Sub(a, b *big.Int) {
	a.Sub(a, b)
	if a.Sign() < 0 {
		a.Add(a, c.n2)
	}
}

// Mul sets a = REDC(a * b).
func (c *Context) Mul(a, b *big.Int) {
	a.Mul(a, b)
	c.Reduce(a)
}

// Square sets a = REDC(a * a).
func (c *Context) Square(a *big.Int) {
	a.Mul(a, a)
	c.Reduce(a)
}

// Cube sets a = REDC(REDC(a * a) * a).
func (c *Context) Cube(a *big.Int) {
	c.t2.Set(a)
	a.Mul(a, a)
	c.Reduce(a)
	a.Mul(a, c.t2)
	c.Reduce(a)
}

// Increment adds the Montgomery form of 1 to a.
func (c *Context) Increment(a *big.Int) {
	c.Add(a, c.rModN)
}

// Decrement subtracts the Montgomery form of 1 from a.
func (c *Context) Decrement(a *big.Int) {
	c.Sub(a, c.rModN)
}

// Canon folds a relaxed representative into [0, n) without leaving
// Montgomery form. Walks that branch on the representative need this to
// stay deterministic per residue.
func (c *Context) Canon(x *big.Int) {
	if x.Cmp(c.n) >= 0 {
		x.Sub(x, c.n)
	}
}

// Invert replaces the Montgomery value a = x*r mod n with x^-1 * r mod n.
// Returns ErrNotInvertible when gcd(x, n) != 1; a is left unchanged then.
func (c *Context) Invert(a *big.Int) error {
	if c.t2.ModInverse(a, c.n) == nil {
		return ErrNotInvertible
	}
	// (x*r)^-1 * r^3 reduces to x^-1 * r.
	a.Mul(c.t2, c.rCubedModN)
	c.Reduce(a)
	return nil
}

// Pow computes base^exp in Montgomery form by left-to-right binary
// exponentiation. The base must be in Montgomery form; exp is a plain
// non-negative integer. The result is a fresh value in [0, 2n).
func (c *Context) Pow(base, exp *big.Int) *big.Int {
	result := new(big.Int).Set(c.rModN)
	for i := exp.BitLen() - 1; i >= 0; i-- {
		c.Square(result)
		if exp.Bit(i) == 1 {
			c.Mul(result, base)
		}
	}
	return result
}

// Eq reports whether two Montgomery values represent the same residue.
// With the relaxed range this holds iff a == b or |a - b| == n.
func (c *Context) Eq(a, b *big.Int) bool {
	if a.Cmp(b) == 0 {
		return true
	}
	c.t.Sub(a, b)
	c.t.Abs(c.t)
	return c.t.Cmp(c.n) == 0
}

// IsOne reports whether a is congruent to 1.
func (c *Context) IsOne(a *big.Int) bool {
	return c.Eq(a, c.rModN)
}

// OrderDivides reports whether base^exp is congruent to 1, i.e. whether the
// multiplicative order of base divides exp.
func (c *Context) OrderDivides(base, exp *big.Int) bool {
	p := c.Pow(base, exp)
	return c.IsOne(p)
}
