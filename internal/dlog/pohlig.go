// Copyright (c) 2024 RoseLoverX

package dlog

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/amarnathcjd/ntheory/internal/factor"
	"github.com/amarnathcjd/ntheory/internal/prime"
	"github.com/amarnathcjd/ntheory/internal/utils"
	"github.com/amarnathcjd/ntheory/montgomery"
)

// ErrOrderTooLarge rejects group orders with a prime factor above 64 bits;
// the subgroup walk keeps its exponent arithmetic in machine words.
var ErrOrderTooLarge = errors.New("dlog: prime factor of the group order exceeds 64 bits")

var (
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
	big3 = big.NewInt(3)
)

// Solver resolves g^x = h (mod n) as the class x = e (mod p). It owns a
// factorization driver for the group order and a PRNG for the walks; like
// the driver it is strictly single-threaded.
type Solver struct {
	log    *utils.Logger
	rng    *utils.Random
	driver *factor.Driver
}

// NewSolver builds a solver around the given factorization driver.
func NewSolver(log *utils.Logger, driver *factor.Driver, seed uint64) *Solver {
	if log == nil {
		log = utils.NopLogger()
	}
	return &Solver{
		log:    log,
		rng:    utils.NewRandom(seed),
		driver: driver,
	}
}

// Solve returns (e, p) such that the solution set of g^x = h (mod n) is
// {e + k*p}, or (nil, nil, nil) when no solution exists. The period p is
// the multiplicative order of g. Fails hard when the order has a prime
// factor above 64 bits.
func (s *Solver) Solve(g, h, n *big.Int) (*big.Int, *big.Int, error) {
	if n == nil || n.Cmp(big2) < 0 {
		return nil, nil, errors.New("dlog: modulus must be at least 2")
	}
	gr := new(big.Int).Mod(g, n)
	hr := new(big.Int).Mod(h, n)

	// phi(n) via the factorization of n.
	nf, err := s.driver.Factorize(n)
	if err != nil {
		return nil, nil, errors.Wrap(err, "factoring the modulus")
	}
	phi := big.NewInt(1)
	t := new(big.Int)
	for _, f := range nf {
		t.Sub(f.Prime, big1)
		phi.Mul(phi, t)
		if f.Exp > 1 {
			t.Exp(f.Prime, big.NewInt(int64(f.Exp-1)), nil)
			phi.Mul(phi, t)
		}
	}

	phiFactors, err := s.driver.Factorize(phi)
	if err != nil {
		return nil, nil, errors.Wrap(err, "factoring the group order")
	}
	s.log.Debug("dlog: phi=%s with %d prime factors", phi.String(), len(phiFactors))

	var r ring
	if n.Bit(0) == 1 && n.Cmp(big3) >= 0 {
		ctx, err := montgomery.New(n)
		if err != nil {
			return nil, nil, err
		}
		r = montRing{ctx}
	} else {
		r = &plainRing{n: n}
	}

	gm := new(big.Int).Set(gr)
	hm := new(big.Int).Set(hr)
	r.Enter(gm)
	r.Enter(hm)

	// g has to be a unit for any order to exist at all.
	if !r.Eq(r.Pow(gm, phi), r.One()) {
		return nil, nil, nil
	}

	// Order of g: descend from phi, peeling each prime while g^(d/q) = 1.
	d := new(big.Int).Set(phi)
	quo := new(big.Int)
	for _, f := range phiFactors {
		for i := uint32(0); i < f.Exp; i++ {
			quo.Quo(d, f.Prime)
			if !r.Eq(r.Pow(gm, quo), r.One()) {
				break
			}
			d.Set(quo)
		}
	}
	s.log.Debug("dlog: ord(g)=%s", d.String())

	// h outside <g> means no solution; this is a normal return.
	if !r.Eq(r.Pow(hm, d), r.One()) {
		return nil, nil, nil
	}

	x := new(big.Int)
	xMod := big.NewInt(1)
	e := new(big.Int)
	for _, f := range phiFactors {
		fi := multiplicity(d, f.Prime)
		if fi == 0 {
			continue
		}
		if f.Prime.BitLen() > 64 {
			return nil, nil, errors.Wrapf(ErrOrderTooLarge, "factor %s", f.Prime.String())
		}

		qf := new(big.Int).Exp(f.Prime, big.NewInt(int64(fi)), nil)
		e.Quo(d, qf)
		gi := r.Pow(gm, e) // order exactly q^fi
		hi := r.Pow(hm, e)

		xi, err := s.primePowerLog(r, gi, hi, f.Prime, fi)
		if err != nil {
			return nil, nil, err
		}

		nx, nm, ok := prime.CRT(x, xMod, xi, qf)
		if !ok {
			return nil, nil, nil
		}
		x, xMod = nx, nm
	}

	return x, d, nil
}

// primePowerLog solves gi^x = hi for x in [0, q^f) where gi has order
// exactly q^f, digit by digit in base q. Every digit is a discrete log in
// the order-q subgroup generated by gamma = gi^(q^(f-1)).
func (s *Solver) primePowerLog(r ring, gi, hi, q *big.Int, f uint32) (*big.Int, error) {
	qPow := new(big.Int).Exp(q, big.NewInt(int64(f-1)), nil)
	gamma := r.Pow(gi, qPow)

	// The group inverse of gi: gi^(q^f - 1).
	ord := new(big.Int).Mul(qPow, q)
	giInv := r.Pow(gi, new(big.Int).Sub(ord, big1))

	q64 := q.Uint64()
	x := new(big.Int)
	qj := big.NewInt(1)
	exp := new(big.Int)
	for j := uint32(0); j < f; j++ {
		// t = (hi * gi^-x)^(q^(f-1-j)) lands in <gamma>.
		t := r.Pow(giInv, x)
		r.Mul(t, hi)
		exp.Exp(q, big.NewInt(int64(f-1-j)), nil)
		t = r.Pow(t, exp)

		aj, ok := rho64(r, gamma, t, q64, s.rng)
		if !ok {
			return nil, errors.New("dlog: subgroup walk failed to converge")
		}

		step := new(big.Int).SetUint64(aj)
		step.Mul(step, qj)
		x.Add(x, step)
		qj.Mul(qj, q)
	}
	return x, nil
}

// multiplicity counts how many times p divides d.
func multiplicity(d, p *big.Int) uint32 {
	var count uint32
	rem := new(big.Int)
	q := new(big.Int)
	cur := new(big.Int).Set(d)
	for {
		q.QuoRem(cur, p, rem)
		if rem.Sign() != 0 {
			return count
		}
		cur.Set(q)
		count++
	}
}
