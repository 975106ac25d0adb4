// Copyright (c) 2024 RoseLoverX

package prime

import "math/big"

// CRT solves x ≡ a (mod m), x ≡ b (mod n) for possibly non-coprime moduli.
// It returns the smallest non-negative solution together with the combined
// modulus lcm(m, n), or ok=false when gcd(m, n) does not divide b-a.
func CRT(a, m, b, n *big.Int) (x, modulus *big.Int, ok bool) {
	g := new(big.Int)
	p := new(big.Int)
	g.GCD(p, nil, m, n) // g = m*p + n*q

	diff := new(big.Int).Sub(b, a)
	rem := new(big.Int)
	q := new(big.Int)
	q.QuoRem(diff, g, rem)
	if rem.Sign() != 0 {
		return nil, nil, false
	}

	// x = a + m * ((diff/g * p) mod (n/g))
	ng := new(big.Int).Quo(n, g)
	t := q.Mul(q, p)
	t.Mod(t, ng)

	modulus = new(big.Int).Mul(m, ng) // lcm(m, n)
	x = t.Mul(t, m)
	x.Add(x, a)
	x.Mod(x, modulus)
	return x, modulus, true
}
