// Copyright (c) 2024 RoseLoverX

package dlog

import (
	"math/big"

	"github.com/amarnathcjd/ntheory/montgomery"
)

// ring is the slice of modular arithmetic the solver needs. The Montgomery
// engine backs it for odd moduli; even moduli (outside the engine's
// precondition) fall back to plain big.Int arithmetic.
type ring interface {
	// Enter converts a canonical residue into the ring's working form.
	Enter(x *big.Int)
	Pow(base, exp *big.Int) *big.Int
	Mul(a, b *big.Int)
	Square(a *big.Int)
	Eq(a, b *big.Int) bool
	One() *big.Int
	// Canon makes the representative unique per residue; the rho walk
	// branches on it, so identical residues must look identical.
	Canon(x *big.Int)
}

type montRing struct {
	*montgomery.Context
}

func (m montRing) Enter(x *big.Int) { m.ToMont(x) }

type plainRing struct {
	n *big.Int
}

func (r *plainRing) Enter(x *big.Int) {}

func (r *plainRing) Canon(x *big.Int) {}

func (r *plainRing) Pow(base, exp *big.Int) *big.Int {
	return new(big.Int).Exp(base, exp, r.n)
}

func (r *plainRing) Mul(a, b *big.Int) {
	a.Mul(a, b)
	a.Mod(a, r.n)
}

func (r *plainRing) Square(a *big.Int) {
	r.Mul(a, a)
}

func (r *plainRing) Eq(a, b *big.Int) bool {
	return a.Cmp(b) == 0
}

func (r *plainRing) One() *big.Int {
	return big.NewInt(1)
}
