// Copyright (c) 2024 RoseLoverX

// Package factor implements the staged factorization pipeline: trial
// division, Pollard's rho with Brent's cycle detection, and two-phase
// Lenstra ECM over Montgomery curves.
package factor

import (
	"math/big"

	"github.com/amarnathcjd/ntheory/internal/prime"
)

// TrialBound caps the trial-division stage.
const TrialBound = 10_000

// Entry is one (prime, exponent) pair of a factorization.
type Entry struct {
	Prime *big.Int
	Exp   uint32
}

// trialDivide strips every prime factor p <= TrialBound from n in place and
// appends the stripped (p, e) pairs to out. The factor 2 is handled by the
// caller via the trailing-zero count, so the scan starts at 3.
func trialDivide(n *big.Int, out []Entry) []Entry {
	primes := prime.Primes()
	rem := new(big.Int)
	q := new(big.Int)
	for _, p := range primes[1:] {
		if p > TrialBound {
			break
		}
		bp := big.NewInt(int64(p))
		var exp uint32
		for {
			q.QuoRem(n, bp, rem)
			if rem.Sign() != 0 {
				break
			}
			n.Set(q)
			exp++
		}
		if exp > 0 {
			out = append(out, Entry{Prime: bp, Exp: exp})
		}
	}
	return out
}
