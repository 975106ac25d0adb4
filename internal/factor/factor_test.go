// Copyright (c) 2024 RoseLoverX

package factor

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarnathcjd/ntheory/internal/utils"
	"github.com/amarnathcjd/ntheory/montgomery"
)

func TestTrialDivide(t *testing.T) {
	// 3^5 * 7 * 9973 * 1000003, already stripped of 2s.
	n := big.NewInt(1)
	for _, f := range []int64{3, 3, 3, 3, 3, 7, 9973, 1000003} {
		n.Mul(n, big.NewInt(f))
	}

	out := trialDivide(n, nil)
	require.Len(t, out, 3)
	assert.EqualValues(t, 3, out[0].Prime.Int64())
	assert.EqualValues(t, 5, out[0].Exp)
	assert.EqualValues(t, 7, out[1].Prime.Int64())
	assert.EqualValues(t, 1, out[1].Exp)
	assert.EqualValues(t, 9973, out[2].Prime.Int64())
	assert.EqualValues(t, 1, out[2].Exp)

	// 1000003 is above the bound and must survive as the cofactor.
	assert.EqualValues(t, 1000003, n.Int64())
}

func TestPollardRho(t *testing.T) {
	// Both factors prime and above the trial bound.
	p := big.NewInt(323339)
	q := big.NewInt(3347983)
	n := new(big.Int).Mul(p, q)

	ctx, err := montgomery.New(n)
	require.NoError(t, err)
	rng := utils.NewRandom(1)
	state := newRhoState()

	var g *big.Int
	for i := 0; i < 10 && g == nil; i++ {
		g = pollardRho(n, ctx, rng, state)
	}
	require.NotNil(t, g, "rho found nothing in 10 races")
	assert.True(t, g.Cmp(p) == 0 || g.Cmp(q) == 0, "got %s", g)
}

func TestPollardRhoLargerFactors(t *testing.T) {
	// ~30-bit primes; rho needs tens of thousands of steps here.
	p := big.NewInt(1000000007)
	q := big.NewInt(1000000009)
	n := new(big.Int).Mul(p, q)

	ctx, err := montgomery.New(n)
	require.NoError(t, err)
	rng := utils.NewRandom(7)
	state := newRhoState()

	var g *big.Int
	for i := 0; i < 10 && g == nil; i++ {
		g = pollardRho(n, ctx, rng, state)
	}
	require.NotNil(t, g)
	rem := new(big.Int).Mod(n, g)
	assert.Zero(t, rem.Sign())
	assert.True(t, g.Cmp(big1) > 0 && g.Cmp(n) < 0)
}

func TestECMFindsFactor(t *testing.T) {
	if testing.Short() {
		t.Skip("ecm pass takes a while")
	}
	// Asymmetric semiprime: the small side's curve orders fall inside the
	// pass-1 bounds almost every time.
	p := big.NewInt(1000003)
	q := big.NewInt(10000019)
	n := new(big.Int).Mul(p, q)

	e := newECMWorker(utils.NopLogger())
	rng := utils.NewRandom(3)
	g := e.findFactor(n, ecmB1Pass1, ecmB2Pass1, ecmBlockPass1, 50, rng)
	require.NotNil(t, g, "ecm pass 1 found nothing in 50 curves")
	rem := new(big.Int).Mod(n, g)
	assert.Zero(t, rem.Sign())
	assert.True(t, g.Cmp(big1) > 0 && g.Cmp(n) < 0)
}

func TestStageOneExponent(t *testing.T) {
	s := stageOneExponent(10)
	// 2^3 * 3^2 * 5 * 7 = 2520
	assert.EqualValues(t, 2520, s.Int64())
	// cached copy is the same pointer
	assert.Same(t, s, stageOneExponent(10))
}

func checkProduct(t *testing.T, n *big.Int, factors []Entry) {
	t.Helper()
	prod := big.NewInt(1)
	e := new(big.Int)
	for i, f := range factors {
		require.True(t, f.Prime.ProbablyPrime(20), "%s is not prime", f.Prime)
		if i > 0 {
			require.True(t, factors[i-1].Prime.Cmp(f.Prime) < 0, "not ascending")
		}
		e.Exp(f.Prime, big.NewInt(int64(f.Exp)), nil)
		prod.Mul(prod, e)
	}
	require.Zero(t, prod.Cmp(n), "product mismatch")
}

func TestDriverSmall(t *testing.T) {
	d := NewDriver(utils.NopLogger(), 11)

	tests := []struct {
		n    int64
		want [][2]int64 // prime, exp
	}{
		{1, nil},
		{2, [][2]int64{{2, 1}}},
		{1024, [][2]int64{{2, 10}}},
		{3, [][2]int64{{3, 1}}},
		{360, [][2]int64{{2, 3}, {3, 2}, {5, 1}}},
		{10007 * 10009, [][2]int64{{10007, 1}, {10009, 1}}},
		{9973 * 9973, [][2]int64{{9973, 2}}},
	}

	for _, tt := range tests {
		got, err := d.Factorize(big.NewInt(tt.n))
		require.NoError(t, err, "n=%d", tt.n)
		require.Len(t, got, len(tt.want), "n=%d", tt.n)
		for i, w := range tt.want {
			assert.EqualValues(t, w[0], got[i].Prime.Int64(), "n=%d", tt.n)
			assert.EqualValues(t, w[1], got[i].Exp, "n=%d", tt.n)
		}
	}
}

func TestDriverLarge(t *testing.T) {
	d := NewDriver(utils.NopLogger(), 17)

	n, ok := new(big.Int).SetString("1234567891011121314151617181920", 10)
	require.True(t, ok)

	got, err := d.Factorize(n)
	require.NoError(t, err)
	checkProduct(t, n, got)

	want := []struct {
		p string
		e uint32
	}{
		{"2", 5}, {"3", 1}, {"5", 1},
		{"323339", 1}, {"3347983", 1}, {"2375923237887317", 1},
	}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.p, got[i].Prime.String())
		assert.Equal(t, w.e, got[i].Exp)
	}
}

func TestDriverSemiprimes(t *testing.T) {
	d := NewDriver(utils.NopLogger(), 23)
	rng := utils.NewRandom(29)

	for i := 0; i < 5; i++ {
		p := randomPrime(rng, 28)
		q := randomPrime(rng, 30)
		n := new(big.Int).Mul(p, q)
		n.Mul(n, p) // p^2 * q exercises exponent recovery

		got, err := d.Factorize(n)
		require.NoError(t, err)
		checkProduct(t, n, got)
	}
}

// randomPrime draws an odd probable prime of the given bit length, the way
// the original test harness builds semiprimes.
func randomPrime(rng *utils.Random, bits int) *big.Int {
	limit := new(big.Int).Lsh(big1, uint(bits))
	for {
		c := rng.BigBelow(limit)
		c.SetBit(c, bits-1, 1)
		c.SetBit(c, 0, 1)
		if c.ProbablyPrime(20) {
			return c
		}
	}
}
