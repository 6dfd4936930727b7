// Package randutil centralises how random sources are built so that every
// draw in a game can be replayed from a single seed.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// Source is the subset of *rand.Rand the game engine needs. Tests can supply
// a scripted implementation to force specific draws.
type Source interface {
	IntN(n int) int
}

// New returns a PCG-backed *rand.Rand derived from seed. Both PCG state words
// come from the same seed so equal seeds always give equal sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(u), splitmix(u+goldenRatio64)))
}

// Seed returns *seed when set, otherwise a wall-clock seed. The chosen value is
// returned so callers can log it for replay.
func Seed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return time.Now().UnixNano()
}

func splitmix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
