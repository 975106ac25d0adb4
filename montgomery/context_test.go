// Copyright (c) 2024 RoseLoverX

package montgomery_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarnathcjd/ntheory/montgomery"
)

// xorshift64* generator so the randomized cases are reproducible.
type rng struct{ state uint64 }

func (r *rng) next() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * 0x2545f4914f6cdd1d
}

func (r *rng) bigBelow(n *big.Int) *big.Int {
	words := (n.BitLen() + 63) / 64
	buf := make([]byte, words*8)
	for i := 0; i < len(buf); i += 8 {
		v := r.next()
		for j := 0; j < 8; j++ {
			buf[i+j] = byte(v >> (8 * j))
		}
	}
	x := new(big.Int).SetBytes(buf)
	return x.Mod(x, n)
}

func (r *rng) oddBig(bits int) *big.Int {
	n := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	x := r.bigBelow(n)
	x.SetBit(x, bits-1, 1)
	x.SetBit(x, 0, 1)
	return x
}

func TestNewRejectsBadModuli(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want error
	}{
		{"even", 10, montgomery.ErrEvenModulus},
		{"two", 2, montgomery.ErrSmallModulus},
		{"one", 1, montgomery.ErrSmallModulus},
		{"zero", 0, montgomery.ErrSmallModulus},
		{"negative", -7, montgomery.ErrSmallModulus},
	}

	for _, tt := range tests {
		_, err := montgomery.New(big.NewInt(tt.n))
		assert.ErrorIs(t, err, tt.want, tt.name)
	}
}

func TestRoundTrip(t *testing.T) {
	r := &rng{state: 0x1234}
	for _, bits := range []int{8, 16, 31, 64, 100, 192, 256} {
		n := r.oddBig(bits)
		ctx, err := montgomery.New(n)
		require.NoError(t, err)

		for i := 0; i < 50; i++ {
			a := r.bigBelow(n)
			x := new(big.Int).Set(a)
			ctx.ToMont(x)
			assert.True(t, x.Sign() >= 0)
			ctx.FromMont(x)
			assert.Zero(t, x.Cmp(a), "round trip failed for n=%s a=%s", n, a)
		}
	}
}

func TestArithmetic(t *testing.T) {
	r := &rng{state: 0xbeef}

	for _, bits := range []int{8, 24, 64, 128, 200} {
		n := r.oddBig(bits)
		ctx, err := montgomery.New(n)
		require.NoError(t, err)
		n2 := new(big.Int).Lsh(n, 1)

		inRange := func(v *big.Int) bool {
			return v.Sign() >= 0 && v.Cmp(n2) < 0
		}

		for i := 0; i < 50; i++ {
			a, b := r.bigBelow(n), r.bigBelow(n)
			am := new(big.Int).Set(a)
			bm := new(big.Int).Set(b)
			ctx.ToMont(am)
			ctx.ToMont(bm)

			sum := new(big.Int).Set(am)
			ctx.Add(sum, bm)
			require.True(t, inRange(sum))
			ctx.FromMont(sum)
			want := new(big.Int).Add(a, b)
			want.Mod(want, n)
			assert.Zero(t, sum.Cmp(want), "add mismatch")

			diff := new(big.Int).Set(am)
			ctx.Sub(diff, bm)
			require.True(t, inRange(diff))
			ctx.FromMont(diff)
			want.Sub(a, b)
			want.Mod(want, n)
			assert.Zero(t, diff.Cmp(want), "sub mismatch")

			prod := new(big.Int).Set(am)
			ctx.Mul(prod, bm)
			require.True(t, inRange(prod))
			ctx.FromMont(prod)
			want.Mul(a, b)
			want.Mod(want, n)
			assert.Zero(t, prod.Cmp(want), "mul mismatch")

			sq := new(big.Int).Set(am)
			ctx.Square(sq)
			require.True(t, inRange(sq))
			ctx.FromMont(sq)
			want.Mul(a, a)
			want.Mod(want, n)
			assert.Zero(t, sq.Cmp(want), "square mismatch")

			cb := new(big.Int).Set(am)
			ctx.Cube(cb)
			require.True(t, inRange(cb))
			ctx.FromMont(cb)
			want.Exp(a, big.NewInt(3), n)
			assert.Zero(t, cb.Cmp(want), "cube mismatch")

			exp := r.bigBelow(n)
			pw := ctx.Pow(am, exp)
			require.True(t, inRange(pw))
			ctx.FromMont(pw)
			want.Exp(a, exp, n)
			assert.Zero(t, pw.Cmp(want), "pow mismatch")
		}

		// Boundary representatives allowed by the relaxed range: 0, n, 2n-1.
		for _, raw := range []*big.Int{
			big.NewInt(0),
			new(big.Int).Set(n),
			new(big.Int).Sub(n2, big.NewInt(1)),
		} {
			v := new(big.Int).Set(raw)
			ctx.Mul(v, ctx.One())
			require.True(t, inRange(v))
			ctx.FromMont(v)
			ctx.ToMont(v)
			ctx.Square(v)
			require.True(t, inRange(v))
		}
	}
}

func TestIncrementDecrement(t *testing.T) {
	n := big.NewInt(1009)
	ctx, err := montgomery.New(n)
	require.NoError(t, err)

	x := big.NewInt(500)
	ctx.ToMont(x)
	ctx.Increment(x)
	got := new(big.Int).Set(x)
	ctx.FromMont(got)
	assert.EqualValues(t, 501, got.Int64())

	ctx.Decrement(x)
	ctx.Decrement(x)
	ctx.FromMont(x)
	assert.EqualValues(t, 499, x.Int64())
}

func TestInvert(t *testing.T) {
	r := &rng{state: 0xfeed}
	n := r.oddBig(128)
	ctx, err := montgomery.New(n)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		a := r.bigBelow(n)
		if a.Sign() == 0 || new(big.Int).GCD(nil, nil, a, n).Cmp(big.NewInt(1)) != 0 {
			continue
		}
		am := new(big.Int).Set(a)
		ctx.ToMont(am)
		inv := new(big.Int).Set(am)
		require.NoError(t, ctx.Invert(inv))

		ctx.Mul(inv, am)
		assert.True(t, ctx.IsOne(inv), "invert * mul should give 1")
	}

	// Non-coprime input is a recoverable failure.
	p := big.NewInt(10007)
	q := big.NewInt(10009)
	pq := new(big.Int).Mul(p, q)
	require.NoError(t, ctx.SetModulus(pq))
	bad := new(big.Int).Set(p)
	ctx.ToMont(bad)
	assert.ErrorIs(t, ctx.Invert(bad), montgomery.ErrNotInvertible)
}

func TestSetModulusReuse(t *testing.T) {
	ctx, err := montgomery.New(big.NewInt(1009))
	require.NoError(t, err)

	require.NoError(t, ctx.SetModulus(big.NewInt(2003)))
	assert.EqualValues(t, 2003, ctx.Modulus().Int64())

	x := big.NewInt(1500)
	ctx.ToMont(x)
	ctx.Square(x)
	ctx.FromMont(x)
	want := new(big.Int).Exp(big.NewInt(1500), big.NewInt(2), big.NewInt(2003))
	assert.Zero(t, x.Cmp(want))

	assert.Error(t, ctx.SetModulus(big.NewInt(2004)))
}

func TestOrderDivides(t *testing.T) {
	ctx, err := montgomery.New(big.NewInt(1009))
	require.NoError(t, err)

	g := big.NewInt(3)
	ctx.ToMont(g)
	assert.True(t, ctx.OrderDivides(g, big.NewInt(168)))
	assert.True(t, ctx.OrderDivides(g, big.NewInt(504)))
	assert.False(t, ctx.OrderDivides(g, big.NewInt(126)))
	assert.False(t, ctx.OrderDivides(g, big.NewInt(251)))
}
