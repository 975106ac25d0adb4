// Copyright (c) 2024 RoseLoverX

package utils

import (
	"math/big"
	"time"
)

// Random is a seedable xorshift64* generator. Not cryptographic; the
// factoring and discrete-log walks only need uniform, reproducible draws.
type Random struct {
	state uint64
}

// NewRandom seeds a generator. A zero seed picks a time-based one.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) ^ 0xdeadbeefcafebabe
	}
	return &Random{state: seed}
}

func (r *Random) FastUint64() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * 0x2545f4914f6cdd1d
}

// Uint64n returns a draw in [1, n).
func (r *Random) Uint64n(n uint64) uint64 {
	return (r.FastUint64() % (n - 1)) + 1
}

// BigBelow returns a uniform draw in [0, n) for n > 0.
// Rejection sampling over whole words keeps the distribution flat.
func (r *Random) BigBelow(n *big.Int) *big.Int {
	bitLen := n.BitLen()
	if bitLen == 0 {
		return new(big.Int)
	}
	words := (bitLen + 63) / 64
	topMask := uint64(1)<<uint((bitLen-1)%64+1) - 1

	buf := make([]byte, words*8)
	x := new(big.Int)
	for {
		for i := 0; i < words; i++ {
			v := r.FastUint64()
			if i == words-1 {
				v &= topMask
			}
			for j := 0; j < 8; j++ {
				buf[i*8+j] = byte(v >> (8 * j))
			}
		}
		// buf is little-endian per word; reverse into big-endian bytes.
		be := make([]byte, len(buf))
		for i := range buf {
			be[len(buf)-1-i] = buf[i]
		}
		x.SetBytes(be)
		if x.Cmp(n) < 0 {
			return x
		}
	}
}

// BigRange returns a uniform draw in [lo, n).
func (r *Random) BigRange(lo int64, n *big.Int) *big.Int {
	low := big.NewInt(lo)
	span := new(big.Int).Sub(n, low)
	if span.Sign() <= 0 {
		return low
	}
	x := r.BigBelow(span)
	return x.Add(x, low)
}
