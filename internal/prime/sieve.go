// Copyright (c) 2024 RoseLoverX

// Package prime holds the shared small-prime table and elementary
// number-theoretic helpers used by the factorization and discrete-log
// pipelines.
package prime

import (
	"math"
	"sort"
	"sync"
)

// Limit is the sieve bound. ECM stage 2 enumerates primes up to 2.5e7.
const Limit = 25_000_000

var (
	sieveOnce sync.Once
	primes    []uint32
)

// Primes returns all primes up to Limit, ascending. The table is built once
// per process on first use and shared afterwards.
func Primes() []uint32 {
	sieveOnce.Do(func() {
		primes = generate()
	})
	return primes
}

// SearchIdx returns the index of the first prime >= v.
func SearchIdx(p []uint32, v uint32) int {
	return sort.Search(len(p), func(i int) bool { return p[i] >= v })
}

// generate runs a segmented sieve of Eratosthenes over odd numbers.
// Segmenting keeps the working set inside cache; the layout follows KACTL's
// FastEratosthenes.
func generate() []uint32 {
	s := int(math.Round(math.Sqrt(Limit)))
	r := Limit / 2
	reserve := int(math.Ceil(float64(Limit) / math.Log(float64(Limit)) * 1.1))

	out := make([]uint32, 0, reserve)
	out = append(out, 2)

	sieve := make([]bool, s+1)
	type seed struct {
		p   int
		idx int
	}
	var cp []seed
	for i := 3; i <= s; i += 2 {
		if !sieve[i] {
			cp = append(cp, seed{i, i * i / 2})
			for j := i * i; j <= s; j += 2 * i {
				sieve[j] = true
			}
		}
	}

	block := make([]bool, s)
	for l := 1; l <= r; l += s {
		bs := s
		if l+s-1 > r {
			bs = r - l + 1
		}
		for i := range block {
			block[i] = false
		}
		for k := range cp {
			p, idx := cp[k].p, cp[k].idx
			if idx < l {
				idx += ((l - idx + p - 1) / p) * p
			}
			i := idx
			for ; i < l+bs; i += p {
				block[i-l] = true
			}
			cp[k].idx = i
		}
		for i := 0; i < bs; i++ {
			if v := (l+i)*2 + 1; !block[i] && v <= Limit {
				out = append(out, uint32(v))
			}
		}
	}

	return out
}
