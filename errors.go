// Copyright (c) 2024 RoseLoverX

package ntheory

import (
	"github.com/amarnathcjd/ntheory/internal/dlog"
	"github.com/amarnathcjd/ntheory/internal/factor"
	"github.com/amarnathcjd/ntheory/montgomery"
)

// Exported error kinds. Precondition violations (even or undersized moduli,
// oversized order factors) abort the call; ErrIncomplete accompanies a
// best-effort partial factorization.
var (
	// ErrEvenModulus: an even modulus reached the Montgomery engine.
	ErrEvenModulus = montgomery.ErrEvenModulus
	// ErrSmallModulus: the Montgomery engine needs n >= 3.
	ErrSmallModulus = montgomery.ErrSmallModulus
	// ErrNotInvertible: a modular inverse was requested for a value sharing
	// a factor with the modulus.
	ErrNotInvertible = montgomery.ErrNotInvertible
	// ErrOrderTooLarge: the group order has a prime factor above 64 bits,
	// outside the discrete-log solver's supported range.
	ErrOrderTooLarge = dlog.ErrOrderTooLarge
	// ErrIncomplete: the ECM curve budget ran out; the factorization still
	// multiplies out to n but contains a composite residual.
	ErrIncomplete = factor.ErrIncomplete
)
