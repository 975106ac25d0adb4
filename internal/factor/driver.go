// Copyright (c) 2024 RoseLoverX

package factor

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/amarnathcjd/ntheory/internal/utils"
	"github.com/amarnathcjd/ntheory/montgomery"
)

var (
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
)

// ErrIncomplete reports that the curve budget ran out before n split
// completely. The returned factorization still multiplies out to n; the
// residual composite is carried as a regular entry.
var ErrIncomplete = errors.New("factor: curve budget exhausted, residual composite remains")

// rhoAttempts is how many fresh-seeded rho runs a cofactor gets before the
// driver escalates to ECM.
const rhoAttempts = 3

// millerRabinReps matches the certainty the pipeline needs to stop
// recursing; math/big runs BPSW on top, so this is deterministic for
// anything under 64 bits and overwhelming above.
const millerRabinReps = 20

// Driver orchestrates the factorization pipeline and owns all long-lived
// buffers. It is single-threaded; concurrent callers must use separate
// drivers.
type Driver struct {
	log *utils.Logger
	rng *utils.Random

	rhoCtx *montgomery.Context
	rho    *rhoState
	ecm    *ecmWorker

	// knobs, settable by the public wrapper
	RhoAttempts int
	Curves      int
}

// NewDriver builds a driver. A zero seed draws one from the clock.
func NewDriver(log *utils.Logger, seed uint64) *Driver {
	if log == nil {
		log = utils.NopLogger()
	}
	return &Driver{
		log:         log,
		rng:         utils.NewRandom(seed),
		rho:         newRhoState(),
		ecm:         newECMWorker(log),
		RhoAttempts: rhoAttempts,
		Curves:      ecmCurves,
	}
}

// Factorize returns the prime factorization of n >= 1 as ascending
// (prime, exponent) pairs. For n = 1 the list is empty. When both ECM
// passes run dry on some cofactor, the residual composite is included so
// the product invariant holds, and ErrIncomplete is returned with it.
func (d *Driver) Factorize(n *big.Int) ([]Entry, error) {
	if n == nil || n.Sign() <= 0 {
		return nil, errors.New("factor: input must be positive")
	}
	if n.Cmp(big1) == 0 {
		return []Entry{}, nil
	}

	m := new(big.Int).Set(n)
	factors := make([]Entry, 0, 8)

	// Factor 2 falls out of the trailing zero count.
	if zeros := trailingZeros(m); zeros > 0 {
		factors = append(factors, Entry{Prime: new(big.Int).Set(big2), Exp: uint32(zeros)})
		m.Rsh(m, uint(zeros))
	}
	factors = trialDivide(m, factors)

	var (
		found     []*big.Int // distinct primes from rho/ecm, exponents recovered later
		residuals []*big.Int
	)
	if m.Cmp(big1) > 0 {
		found, residuals = d.split(m)
	}

	// Recover exponents against the remaining cofactor.
	rem := new(big.Int)
	q := new(big.Int)
	countOut := func(p *big.Int) uint32 {
		var exp uint32
		for {
			q.QuoRem(m, p, rem)
			if rem.Sign() != 0 {
				break
			}
			m.Set(q)
			exp++
		}
		return exp
	}
	for _, p := range found {
		if exp := countOut(p); exp > 0 {
			factors = append(factors, Entry{Prime: p, Exp: exp})
		}
	}

	var err error
	for _, c := range residuals {
		if exp := countOut(c); exp > 0 {
			factors = append(factors, Entry{Prime: c, Exp: exp})
			err = errors.Wrapf(ErrIncomplete, "residual %s", c.String())
		}
	}

	sort.Slice(factors, func(i, j int) bool {
		return factors[i].Prime.Cmp(factors[j].Prime) < 0
	})
	return factors, err
}

// split breaks the trial-divided cofactor m into primes (and, on budget
// exhaustion, residual composites) with rho and ECM.
func (d *Driver) split(m *big.Int) (found, residuals []*big.Int) {
	stack := []*big.Int{new(big.Int).Set(m)}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Primes discovered since this cofactor was pushed may divide it.
		for _, p := range found {
			divideOut(cur, p)
		}
		if cur.Cmp(big1) == 0 {
			continue
		}

		// A perfect square shares exactly the primes of its root.
		for reduceSquare(cur) {
		}

		if cur.ProbablyPrime(millerRabinReps) {
			d.log.Debug("driver: prime %s", cur.String())
			found = append(found, cur)
			continue
		}

		div := d.findDivisor(cur)
		if div == nil {
			d.log.Warn("driver: budget exhausted on %s", cur.String())
			residuals = append(residuals, cur)
			continue
		}

		rest := new(big.Int).Quo(cur, div)
		stack = append(stack, div, rest)
	}
	return found, residuals
}

// findDivisor seeks one nontrivial divisor: a few rho races first, then the
// two ECM passes.
func (d *Driver) findDivisor(m *big.Int) *big.Int {
	if d.rhoCtx == nil {
		ctx, err := montgomery.New(m)
		if err != nil {
			return nil
		}
		d.rhoCtx = ctx
	} else if err := d.rhoCtx.SetModulus(m); err != nil {
		return nil
	}

	for i := 0; i < d.RhoAttempts; i++ {
		if g := pollardRho(m, d.rhoCtx, d.rng, d.rho); g != nil {
			d.log.Debug("driver: rho split %s from %s", g.String(), m.String())
			return g
		}
	}

	d.log.Debug("driver: escalating to ecm pass 1 on %s", m.String())
	if g := d.ecm.findFactor(m, ecmB1Pass1, ecmB2Pass1, ecmBlockPass1, d.Curves, d.rng); g != nil {
		return g
	}
	d.log.Debug("driver: escalating to ecm pass 2 on %s", m.String())
	return d.ecm.findFactor(m, ecmB1Pass2, ecmB2Pass2, ecmBlockPass2, d.Curves, d.rng)
}

func trailingZeros(n *big.Int) int {
	if n.Sign() == 0 {
		return 0
	}
	i := 0
	for n.Bit(i) == 0 {
		i++
	}
	return i
}

func divideOut(n, p *big.Int) {
	rem := new(big.Int)
	q := new(big.Int)
	for {
		q.QuoRem(n, p, rem)
		if rem.Sign() != 0 {
			return
		}
		n.Set(q)
	}
}

// reduceSquare replaces n with sqrt(n) when n is a perfect square.
func reduceSquare(n *big.Int) bool {
	root := new(big.Int).Sqrt(n)
	sq := new(big.Int).Mul(root, root)
	if sq.Cmp(n) != 0 {
		return false
	}
	n.Set(root)
	return true
}
