// Package randutil builds math/rand/v2 sources for shuffling.
package randutil

import (
	crand "crypto/rand"
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The same seed always yields the same shuffle sequence, which is what
// reproducible simulations and tests rely on.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewSeeded returns New(seed) for a non-zero seed and an entropy-seeded
// ChaCha8 source when seed is zero.
func NewSeeded(seed int64) *rand.Rand {
	if seed != 0 {
		return New(seed)
	}
	var key [32]byte
	if _, err := crand.Read(key[:]); err != nil {
		panic("randutil: reading entropy: " + err.Error())
	}
	return rand.New(rand.NewChaCha8(key))
}

// Derive returns a child seed for stream i of a parent seed, so parallel
// sessions get independent yet reproducible sequences.
func Derive(seed int64, i int) int64 {
	return int64(mix(uint64(seed) + uint64(i+1)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
