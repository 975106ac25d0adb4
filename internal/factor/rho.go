// Copyright (c) 2024 RoseLoverX

package factor

import (
	"math/big"

	"github.com/amarnathcjd/ntheory/internal/utils"
	"github.com/amarnathcjd/ntheory/montgomery"
)

const (
	// rhoBatch is how many steps are folded into the accumulator between
	// gcd checks.
	rhoBatch = 128
	// rhoMaxRace bounds Brent's doubling race length at 2^18.
	rhoMaxRace = 18
)

// rhoState keeps the walk buffers alive across invocations.
type rhoState struct {
	x, y, ys, c, q, t, g *big.Int
}

func newRhoState() *rhoState {
	return &rhoState{
		x:  new(big.Int),
		y:  new(big.Int),
		ys: new(big.Int),
		c:  new(big.Int),
		q:  new(big.Int),
		t:  new(big.Int),
		g:  new(big.Int),
	}
}

// step advances the walk: y <- y^2 + c, everything in Montgomery form.
func (s *rhoState) step(ctx *montgomery.Context) {
	ctx.Square(s.y)
	ctx.Add(s.y, s.c)
}

// fold multiplies the accumulator by |x - y| taken as the non-negative
// Montgomery representative.
func (s *rhoState) fold(ctx *montgomery.Context) {
	s.t.Set(s.x)
	ctx.Sub(s.t, s.y)
	ctx.Mul(s.q, s.t)
}

// pollardRho hunts for a nontrivial factor of the odd composite n using
// Brent's variant with batched gcds. ctx must already be bound to n. It
// returns nil when the race budget runs out or the walk degenerates; the
// driver retries with fresh seeds before escalating to ECM.
func pollardRho(n *big.Int, ctx *montgomery.Context, rng *utils.Random, s *rhoState) *big.Int {
	s.c.Set(rng.BigRange(1, n))
	s.y.Set(rng.BigRange(1, n))
	ctx.ToMont(s.c)
	ctx.ToMont(s.y)

	s.g.SetInt64(0)
	r := 1
	for round := 0; round <= rhoMaxRace; round++ {
		s.x.Set(s.y)
		for i := 0; i < r; i++ {
			s.step(ctx)
		}

		for k := 0; k < r; k += rhoBatch {
			ctx.SetOne(s.q)
			s.ys.Set(s.y)

			batch := rhoBatch
			if r-k < batch {
				batch = r - k
			}
			for i := 0; i < batch; i++ {
				s.step(ctx)
				s.fold(ctx)
			}

			// The accumulator is still in Montgomery form; the extra power
			// of r is coprime to n, so the gcd is unaffected. gcd(0, n)
			// is n: a zero accumulator is the all-collided case.
			s.g.GCD(nil, nil, s.q, n)
			if s.g.Cmp(big1) > 0 {
				break
			}
		}

		if s.g.Cmp(big1) > 0 {
			break
		}
		r <<= 1
	}

	if s.g.Cmp(big1) <= 0 {
		return nil
	}

	if s.g.Cmp(n) == 0 {
		// The whole batch collapsed at once. Re-walk from the last
		// checkpoint with per-step gcds to pull apart the collision.
		s.y.Set(s.ys)
		for tries := 0; tries < rhoBatch; tries++ {
			s.step(ctx)
			s.t.Set(s.x)
			ctx.Sub(s.t, s.y)
			s.g.GCD(nil, nil, s.t, n)
			if s.g.Cmp(big1) > 0 {
				break
			}
		}
	}

	if s.g.Cmp(big1) > 0 && s.g.Cmp(n) < 0 {
		return new(big.Int).Set(s.g)
	}
	return nil
}
