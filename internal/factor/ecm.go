// Copyright (c) 2024 RoseLoverX

package factor

import (
	"math/big"
	"math/bits"

	"github.com/amarnathcjd/ntheory/internal/prime"
	"github.com/amarnathcjd/ntheory/internal/utils"
	"github.com/amarnathcjd/ntheory/montgomery"
)

// ECM pass parameters. The driver runs pass 1 on every stubborn cofactor and
// escalates to pass 2 only when pass 1 comes up empty.
const (
	ecmCurves = 200

	ecmB1Pass1    = 50_000
	ecmB2Pass1    = 50 * ecmB1Pass1
	ecmBlockPass1 = 2000

	ecmB1Pass2    = 500_000
	ecmB2Pass2    = 50 * ecmB1Pass2
	ecmBlockPass2 = 5000

	// stage-2 gcd cadence, in accumulated primes
	ecmGCDEvery = 4096
)

// point is a projective (X:Z) point on a Montgomery curve; Y is never
// tracked. Z congruent to 0 marks the point at infinity.
type point struct {
	x, z *big.Int
}

func newPoint() point {
	return point{x: new(big.Int), z: new(big.Int)}
}

func (p *point) set(q *point) {
	p.x.Set(q.x)
	p.z.Set(q.z)
}

// ecmWorker owns every buffer ECM touches: the context, the current curve,
// ladder internals, the stage-2 gap table. One worker is allocated per
// driver and reused for every curve and every cofactor.
type ecmWorker struct {
	ctx *montgomery.Context
	log *utils.Logger

	a24            *big.Int
	mont3, mont16  *big.Int
	ta, tb, tw     *big.Int
	p0             point // current curve point
	lp, lq         point // ladder running pair
	q2, rr, rprev  point // stage-2 giant steps
	save, tp       point
	acc            *big.Int
	su, sv, st     *big.Int // suyama scratch
	sden, sinv     *big.Int
	table          []point
	gapIdx         []int
	values         []int
	curD           int
}

func newECMWorker(log *utils.Logger) *ecmWorker {
	return &ecmWorker{
		log:    log,
		a24:    new(big.Int),
		mont3:  new(big.Int),
		mont16: new(big.Int),
		ta:     new(big.Int),
		tb:     new(big.Int),
		tw:     new(big.Int),
		p0:     newPoint(),
		lp:     newPoint(),
		lq:     newPoint(),
		q2:     newPoint(),
		rr:     newPoint(),
		rprev:  newPoint(),
		save:   newPoint(),
		tp:     newPoint(),
		acc:    new(big.Int),
		su:     new(big.Int),
		sv:     new(big.Int),
		st:     new(big.Int),
		sden:   new(big.Int),
		sinv:   new(big.Int),
	}
}

// bind points the worker at a new odd modulus.
func (e *ecmWorker) bind(n *big.Int) error {
	if e.ctx == nil {
		ctx, err := montgomery.New(n)
		if err != nil {
			return err
		}
		e.ctx = ctx
	} else if err := e.ctx.SetModulus(n); err != nil {
		return err
	}
	e.mont3.SetInt64(3)
	e.mont3.Mod(e.mont3, n)
	e.ctx.ToMont(e.mont3)
	e.mont16.SetInt64(16)
	e.mont16.Mod(e.mont16, n)
	e.ctx.ToMont(e.mont16)
	return nil
}

// double replaces P with 2P.
func (e *ecmWorker) double(P *point) {
	ctx := e.ctx
	e.ta.Set(P.x)
	ctx.Add(e.ta, P.z)
	ctx.Square(e.ta) // t1 = (X+Z)^2
	e.tb.Set(P.x)
	ctx.Sub(e.tb, P.z)
	ctx.Square(e.tb) // t2 = (X-Z)^2

	P.x.Set(e.ta)
	ctx.Mul(P.x, e.tb) // X' = t1*t2
	ctx.Sub(e.ta, e.tb) // t3 = t1-t2
	P.z.Set(e.ta)
	ctx.Mul(e.ta, e.a24)
	ctx.Add(e.ta, e.tb)
	ctx.Mul(P.z, e.ta) // Z' = t3*(t2 + A24*t3)
}

// add replaces P with P+Q, given the known difference R = P-Q. The result's
// X still has to be scaled by R.Z when R is not normalized.
func (e *ecmWorker) add(P, Q, R *point) {
	ctx := e.ctx
	e.ta.Set(P.x)
	ctx.Add(e.ta, P.z)
	e.tb.Set(P.x)
	ctx.Sub(e.tb, P.z)
	e.tw.Set(Q.x)
	ctx.Sub(e.tw, Q.z)
	ctx.Mul(e.ta, e.tw) // a = (Qx-Qz)(Px+Pz)
	e.tw.Set(Q.x)
	ctx.Add(e.tw, Q.z)
	ctx.Mul(e.tb, e.tw) // b = (Qx+Qz)(Px-Pz)

	P.x.Set(e.ta)
	ctx.Add(P.x, e.tb)
	ctx.Square(P.x) // X' = (a+b)^2
	P.z.Set(e.ta)
	ctx.Sub(P.z, e.tb)
	ctx.Square(P.z)
	ctx.Mul(P.z, R.x) // Z' = Rx*(a-b)^2
}

// ladder computes P0 <- s*P0 and Q0 <- (s+1)*P0 for a word-sized scalar.
// The running pair keeps P0 as its invariant difference.
func (e *ecmWorker) ladder(P0, Q0 *point, s uint32) {
	e.lq.set(P0)
	e.lp.set(P0)
	e.double(&e.lp)

	for i := int(bits.Len32(s)) - 2; i >= 0; i-- {
		if (s>>uint(i))&1 != 0 {
			e.add(&e.lq, &e.lp, P0)
			e.ctx.Mul(e.lq.x, P0.z)
			e.double(&e.lp)
		} else {
			e.add(&e.lp, &e.lq, P0)
			e.ctx.Mul(e.lp.x, P0.z)
			e.double(&e.lq)
		}
	}

	P0.set(&e.lq)
	Q0.set(&e.lp)
}

// stage1 raises the curve point to s = prod p^floor(log_p B1) over all
// primes p <= B1. The start point is normalized (Z = 1), so the ladder can
// skip the X corrections.
func (e *ecmWorker) stage1(s *big.Int) {
	P0 := &e.p0
	e.lq.set(P0)
	e.lp.set(P0)
	e.double(&e.lp)

	for i := s.BitLen() - 2; i >= 0; i-- {
		if s.Bit(i) == 1 {
			e.add(&e.lq, &e.lp, P0)
			e.double(&e.lp)
		} else {
			e.add(&e.lp, &e.lq, P0)
			e.double(&e.lq)
		}
	}

	P0.set(&e.lq)
}

// ensureGaps rebuilds the stage-2 residue table layout for block size D.
// Only v in [1, D/2) with v odd and not divisible by 5 can be the distance
// from a prime to the nearest block multiple, since 10 | D.
func (e *ecmWorker) ensureGaps(D int) {
	if e.curD == D {
		return
	}
	halfD := D / 2
	e.values = e.values[:0]
	if cap(e.gapIdx) < halfD {
		e.gapIdx = make([]int, halfD)
	}
	e.gapIdx = e.gapIdx[:halfD]
	for v := 1; v < halfD; v++ {
		if v%2 == 1 && v%5 != 0 {
			e.gapIdx[v] = len(e.values)
			e.values = append(e.values, v)
		} else {
			e.gapIdx[v] = -1
		}
	}
	for len(e.table) < len(e.values) {
		e.table = append(e.table, newPoint())
	}
	e.curD = D
}

// precomputeGaps fills the table with v*P for every v in values, walking odd
// multiples by repeated differential addition of 2P. Q is consumed.
func (e *ecmWorker) precomputeGaps(Q, Q2 *point) {
	cur := Q           // j*P, j odd
	prev := &e.tp      // (j-2)*P
	prev.set(Q)
	j := 1
	for i, v := range e.values {
		for j < v {
			e.save.set(cur)
			e.add(cur, Q2, prev)
			e.ctx.Mul(cur.x, prev.z)
			prev.set(&e.save)
			j += 2
		}
		e.table[i].set(cur)
	}
}

// stage2 runs the block continuation for primes in (B1, B2]. It returns the
// final gcd of the accumulated cross products with n; 1 and n both mean the
// curve failed.
func (e *ecmWorker) stage2(n *big.Int, b1, b2, D int) *big.Int {
	ctx := e.ctx
	halfD := D / 2
	e.ensureGaps(D)

	Q := &e.p0
	e.q2.set(Q)
	e.double(&e.q2) // 2P

	e.rr.set(Q) // stash 1P; precompute consumes Q
	e.precomputeGaps(Q, &e.q2)
	Q.set(&e.rr)

	e.ladder(Q, &e.q2, uint32(D)) // Q = D*P
	c := (b1 + halfD) / D
	e.q2.set(Q)
	e.ladder(&e.q2, &e.rr, uint32(c-1)) // q2 = (c-1)D*P, rr = cD*P
	cScalar := c * D

	acc := e.acc
	ctx.SetOne(acc)

	primes := prime.Primes()
	start := prime.SearchIdx(primes, uint32(b1)+1)
	end := prime.SearchIdx(primes, uint32(b2)+1)

	g := new(big.Int)
	sinceGCD := 0
	for idx := start; idx < end; idx++ {
		dist := int(primes[idx]) - cScalar
		for dist > halfD {
			e.rprev.set(&e.q2)
			e.q2.set(&e.rr)
			e.add(&e.rr, Q, &e.rprev)
			ctx.Mul(e.rr.x, e.rprev.z)
			dist -= D
			cScalar += D
		}
		v := dist
		if v < 0 {
			v = -v
		}
		T := &e.table[e.gapIdx[v]]

		// acc *= rr.X*T.Z - T.X*rr.Z; zero iff rr and T share an
		// x-coordinate mod a factor of n.
		e.ta.Set(e.rr.x)
		ctx.Mul(e.ta, T.z)
		e.tb.Set(e.rr.z)
		ctx.Mul(e.tb, T.x)
		ctx.Sub(e.ta, e.tb)
		ctx.Mul(acc, e.ta)

		if sinceGCD++; sinceGCD >= ecmGCDEvery {
			sinceGCD = 0
			g.GCD(nil, nil, acc, n)
			if g.Cmp(big1) > 0 {
				return g
			}
		}
	}

	g.GCD(nil, nil, acc, n)
	return g
}

// findFactor runs up to `curves` random Suyama curves at the given bounds
// and returns a nontrivial factor of n, or nil when the budget is spent.
func (e *ecmWorker) findFactor(n *big.Int, b1, b2, D, curves int, rng *utils.Random) *big.Int {
	if err := e.bind(n); err != nil {
		return nil
	}
	s := stageOneExponent(b1)
	g := new(big.Int)

	for i := 0; i < curves; i++ {
		f, ok := e.newCurve(rng)
		if f != nil {
			e.log.Debug("ecm: factor %s from suyama setup, curve %d", f.String(), i)
			return f
		}
		if !ok {
			continue
		}

		e.stage1(s)
		g.GCD(nil, nil, e.p0.z, n)
		if g.Cmp(big1) > 0 {
			if g.Cmp(n) < 0 {
				e.log.Debug("ecm: factor %s in stage 1, curve %d, B1=%d", g.String(), i, b1)
				return new(big.Int).Set(g)
			}
			continue
		}

		g.Set(e.stage2(n, b1, b2, D))
		if g.Cmp(big1) > 0 && g.Cmp(n) < 0 {
			e.log.Debug("ecm: factor %s in stage 2, curve %d, B2=%d", g.String(), i, b2)
			return new(big.Int).Set(g)
		}
	}
	return nil
}

var stageExpCache = map[int]*big.Int{}

// stageOneExponent returns prod p^floor(log_p B1) over primes p <= B1,
// cached per bound. Only ever called from the single-threaded driver.
func stageOneExponent(b1 int) *big.Int {
	if s, ok := stageExpCache[b1]; ok {
		return s
	}
	s := big.NewInt(1)
	pp := new(big.Int)
	for _, p := range prime.Primes() {
		if int(p) > b1 {
			break
		}
		power := uint64(p)
		for power*uint64(p) <= uint64(b1) {
			power *= uint64(p)
		}
		s.Mul(s, pp.SetUint64(power))
	}
	stageExpCache[b1] = s
	return s
}
