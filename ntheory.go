// Copyright (c) 2024 RoseLoverX

// Package ntheory is a number-theoretic toolkit over math/big integers:
// complete prime factorization (trial division, Brent's Pollard rho, and
// two-phase Lenstra ECM over Montgomery curves) and discrete logarithms
// (Pohlig-Hellman with a Pollard rho subgroup walk). The shared arithmetic
// substrate lives in the montgomery subpackage.
//
// Everything here is synchronous and single-threaded; concurrent callers
// should hold separate Config values so each gets its own driver state.
package ntheory

import (
	"math/big"

	"github.com/amarnathcjd/ntheory/internal/dlog"
	"github.com/amarnathcjd/ntheory/internal/factor"
	"github.com/amarnathcjd/ntheory/internal/utils"
)

// Factor is one (prime, exponent) pair of a factorization.
type Factor struct {
	Prime *big.Int
	Exp   uint32
}

// Config carries the optional knobs. The zero value gives a quiet,
// clock-seeded toolkit with the standard budgets.
type Config struct {
	// Seed makes every random walk reproducible; 0 draws from the clock.
	Seed uint64
	// LogLevel enables progress logging on stderr when set.
	LogLevel utils.LogLevel
	// RhoAttempts overrides how many rho races run before ECM (default 3).
	RhoAttempts int
	// Curves overrides the per-pass ECM curve budget (default 200).
	Curves int

	driver *factor.Driver
	solver *dlog.Solver
}

func (c *Config) logger() *utils.Logger {
	if c.LogLevel == 0 {
		return utils.NopLogger()
	}
	return utils.NewLogger("ntheory", c.LogLevel)
}

func (c *Config) factorDriver() *factor.Driver {
	if c.driver == nil {
		c.driver = factor.NewDriver(c.logger(), c.Seed)
		if c.RhoAttempts > 0 {
			c.driver.RhoAttempts = c.RhoAttempts
		}
		if c.Curves > 0 {
			c.driver.Curves = c.Curves
		}
	}
	return c.driver
}

func (c *Config) dlogSolver() *dlog.Solver {
	if c.solver == nil {
		c.solver = dlog.NewSolver(c.logger(), c.factorDriver(), c.Seed)
	}
	return c.solver
}

// Factorize returns the prime factorization of n >= 1, ascending by prime.
// Factorize(1) is empty. If the curve budget runs out on some cofactor the
// result still multiplies out to n, carries the composite residual as an
// entry, and comes with ErrIncomplete.
func Factorize(n *big.Int) ([]Factor, error) {
	return FactorizeWith(&Config{}, n)
}

// FactorizeWith is Factorize with explicit configuration. Reusing one
// Config across calls reuses the driver's buffers and prime table.
func FactorizeWith(cfg *Config, n *big.Int) ([]Factor, error) {
	entries, err := cfg.factorDriver().Factorize(n)
	if entries == nil {
		return nil, err
	}
	out := make([]Factor, len(entries))
	for i, e := range entries {
		out[i] = Factor{Prime: e.Prime, Exp: e.Exp}
	}
	return out, err
}

// DiscreteLog solves g^x = h (mod n). On success it returns (e, p) meaning
// the solution set is {e + k*p}; p is the multiplicative order of g. A
// (nil, nil, nil) return means no solution exists. The call fails when the
// order of g has a prime factor above 64 bits.
func DiscreteLog(g, h, n *big.Int) (e, p *big.Int, err error) {
	return DiscreteLogWith(&Config{}, g, h, n)
}

// DiscreteLogWith is DiscreteLog with explicit configuration.
func DiscreteLogWith(cfg *Config, g, h, n *big.Int) (e, p *big.Int, err error) {
	return cfg.dlogSolver().Solve(g, h, n)
}
