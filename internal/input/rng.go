package input

import "math/rand"

// Rng is the one-per-guidance-instance pseudo-random source used for fresh
// byte generation, mutation, and splice selection. A *rand.Rand (rather
// than the global math/rand functions) is used so results are
// reproducible given a fixed seed, per the "one PRNG per guidance
// instance... deterministic with a seed is desirable" design note; this is
// a stdlib choice because nothing in the example pack offers a seedable,
// non-global PRNG abstraction worth pulling in for this.
type Rng struct {
	r *rand.Rand
}

// NewRng returns an Rng seeded with seed.
func NewRng(seed int64) *Rng {
	return &Rng{r: rand.New(rand.NewSource(seed))}
}

// Byte draws a uniform random byte.
func (rg *Rng) Byte() byte {
	return byte(rg.r.Intn(256))
}

// Intn draws a uniform integer in [0, n).
func (rg *Rng) Intn(n int) int {
	return rg.r.Intn(n)
}

// Float64 draws a uniform float in [0, 1).
func (rg *Rng) Float64() float64 {
	return rg.r.Float64()
}

// permutation returns a random permutation of [0, n).
func (rg *Rng) permutation(n int) []int {
	return rg.r.Perm(n)
}

// Geometric draws a sample from a geometric distribution on {1, 2, 3, ...}
// with the given mean, i.e. success probability p = 1/mean.
func (rg *Rng) Geometric(mean int) int {
	if mean < 1 {
		mean = 1
	}
	p := 1.0 / float64(mean)
	n := 1
	for rg.r.Float64() >= p {
		n++
		// guard against pathological infinite loops for mean close to 1
		if n > 1<<20 {
			return n
		}
	}
	return n
}
