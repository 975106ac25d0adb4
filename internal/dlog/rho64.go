// Copyright (c) 2024 RoseLoverX

// Package dlog solves discrete logarithms modulo n by Pohlig-Hellman
// decomposition over the factored group order, with a Pollard rho walk for
// the prime-order subgroup logs.
package dlog

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/amarnathcjd/ntheory/internal/utils"
)

// smallOrderCutoff switches tiny subgroups to a direct scan; the rho walk's
// collision statistics are useless when the whole group has a handful of
// elements.
const smallOrderCutoff = 64

const rho64Restarts = 64

// walker is one (X, a, b) triple of the rho-for-logs walk, with
// X = g^a * h^b tracked in the ring's working form and a, b kept mod q.
type walker struct {
	x    *big.Int
	a, b uint256.Int
}

func (w *walker) init(r ring, g, h *big.Int, a0, b0 uint64) {
	w.a.SetUint64(a0)
	w.b.SetUint64(b0)
	w.x = r.Pow(g, new(big.Int).SetUint64(a0))
	hb := r.Pow(h, new(big.Int).SetUint64(b0))
	r.Mul(w.x, hb)
	r.Canon(w.x)
}

// step applies the partition walk. The class comes from the low word of the
// representative; any cheap surjective 3-way split works here.
func (w *walker) step(r ring, g, h *big.Int, q, one *uint256.Int) {
	var lowWord uint64
	if words := w.x.Bits(); len(words) > 0 {
		lowWord = uint64(words[0])
	}
	switch lowWord % 3 {
	case 0:
		r.Mul(w.x, g)
		w.a.AddMod(&w.a, one, q)
	case 1:
		r.Square(w.x)
		w.a.AddMod(&w.a, &w.a, q)
		w.b.AddMod(&w.b, &w.b, q)
	default:
		r.Mul(w.x, h)
		w.b.AddMod(&w.b, one, q)
	}
	r.Canon(w.x)
}

// subMod64 returns (x - y) mod q for x, y already reduced mod q.
func subMod64(x, y, q *uint256.Int) *uint256.Int {
	d := new(uint256.Int)
	if x.Cmp(y) >= 0 {
		return d.Sub(x, y)
	}
	d.Sub(y, x)
	return d.Sub(q, d)
}

// invMod64 computes x^(q-2) mod q for prime q, i.e. the Fermat inverse.
// The exponent fits a word because q does.
func invMod64(x, q *uint256.Int) *uint256.Int {
	result := uint256.NewInt(1)
	base := new(uint256.Int).Set(x)
	for e := q.Uint64() - 2; e > 0; e >>= 1 {
		if e&1 == 1 {
			result.MulMod(result, base, q)
		}
		base.MulMod(base, base, q)
	}
	return result
}

// rho64 finds x in [0, q) with g^x = h in the order-q subgroup generated by
// g, q prime and below 2^64. g and h are ring working-form values. The walk
// restarts with fresh exponents when a collision yields a non-invertible b
// difference.
func rho64(r ring, g, h *big.Int, q uint64, rng *utils.Random) (uint64, bool) {
	if q < smallOrderCutoff {
		return scanLog(r, g, h, q)
	}

	q256 := uint256.NewInt(q)
	one := uint256.NewInt(1)
	// The walk's rho length is ~sqrt(pi*q/8); the cap leaves generous slack
	// before declaring the attempt lost and reseeding.
	maxSteps := uint64(16*math.Sqrt(float64(q))) + 1000

	var tort, hare walker
	for attempt := 0; attempt < rho64Restarts; attempt++ {
		a0, b0 := rng.FastUint64()%q, rng.FastUint64()%q
		tort.init(r, g, h, a0, b0)
		hare.init(r, g, h, a0, b0)

		for i := uint64(0); i < maxSteps; i++ {
			tort.step(r, g, h, q256, one)
			hare.step(r, g, h, q256, one)
			hare.step(r, g, h, q256, one)

			if !r.Eq(tort.x, hare.x) {
				continue
			}

			// a_t + b_t*x = a_h + b_h*x (mod q), so
			// x = (a_t - a_h) * (b_h - b_t)^-1.
			num := subMod64(&tort.a, &hare.a, q256)
			den := subMod64(&hare.b, &tort.b, q256)
			if den.IsZero() {
				break // degenerate collision, restart
			}
			var x uint256.Int
			x.MulMod(num, invMod64(den, q256), q256)

			cand := x.Uint64()
			if verifyLog(r, g, h, cand) {
				return cand, true
			}
			break
		}
	}
	return 0, false
}

// scanLog brute-forces the log in a tiny subgroup.
func scanLog(r ring, g, h *big.Int, q uint64) (uint64, bool) {
	acc := new(big.Int).Set(r.One())
	for x := uint64(0); x < q; x++ {
		if r.Eq(acc, h) {
			return x, true
		}
		r.Mul(acc, g)
	}
	return 0, false
}

func verifyLog(r ring, g, h *big.Int, x uint64) bool {
	p := r.Pow(g, new(big.Int).SetUint64(x))
	return r.Eq(p, h)
}
