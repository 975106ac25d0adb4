// Copyright (c) 2024 RoseLoverX

package factor

import (
	"math/big"

	"github.com/amarnathcjd/ntheory/internal/utils"
)

// newCurve derives a Montgomery curve A24 and a starting point from a random
// Suyama sigma. With u = sigma^2 - 5 and v = 4*sigma:
//
//	A24 = (v-u)^3 * (3u+v) / (16 u^3 v)
//	P   = ((u/v)^3 : 1)
//
// The single inversion of 16*u^3*v covers both quotients: multiplying its
// inverse by u^4*16 yields u/v directly.
//
// A failed inversion is the gcd-as-factor protocol firing during setup: the
// returned factor is nontrivial when the denominator shares a factor with n,
// and ok=false with a nil factor means the curve is degenerate and a new
// sigma should be drawn.
func (e *ecmWorker) newCurve(rng *utils.Random) (factor *big.Int, ok bool) {
	ctx := e.ctx
	sigma := rng.FastUint64() & 0xffff
	if sigma < 6 {
		sigma = 6
	}

	u := e.su
	v := e.sv
	u.SetUint64(sigma*sigma - 5)
	v.SetUint64(4 * sigma)
	mod := ctx.Modulus()
	u.Mod(u, mod)
	v.Mod(v, mod)
	ctx.ToMont(u)
	ctx.ToMont(v)

	// den = 16 * u^3 * v
	den := e.sden
	den.Set(u)
	ctx.Cube(den)
	ctx.Mul(den, v)
	ctx.Mul(den, e.mont16)

	inv := e.sinv
	inv.Set(den)
	if err := ctx.Invert(inv); err != nil {
		g := new(big.Int).Set(den)
		ctx.FromMont(g)
		g.GCD(nil, nil, g, ctx.Modulus())
		if g.Cmp(big1) > 0 && g.Cmp(ctx.Modulus()) < 0 {
			return g, false
		}
		return nil, false
	}

	// a24 = (v-u)^3 * (3u+v) * inv
	a24 := e.a24
	a24.Set(v)
	ctx.Sub(a24, u)
	ctx.Cube(a24)
	e.st.Set(u)
	ctx.Mul(e.st, e.mont3)
	ctx.Add(e.st, v)
	ctx.Mul(a24, e.st)
	ctx.Mul(a24, inv)

	// P.X = (u/v)^3; u^4 * 16 * inv collapses to u/v, which is then cubed.
	x := e.p0.x
	x.Set(u)
	ctx.Square(x)
	ctx.Square(x)
	ctx.Mul(x, e.mont16)
	ctx.Mul(x, inv)
	ctx.Cube(x)
	ctx.SetOne(e.p0.z)
	return nil, true
}
