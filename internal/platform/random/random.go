// Package random provides the weighted sampling used by the simulation.
// Every mission draws from a Source so runs can be replayed from a seed.
package random

import (
	"math/rand"
	"sync"
)

// Source samples weighted booleans and bounded integers.
type Source interface {
	// ShouldOccur returns true with probability p. p <= 0 never occurs, p >= 1 always does.
	ShouldOccur(p float64) bool
	// Intn returns a value in [0, n). n must be > 0.
	Intn(n int) int
}

// Rand is a seedable Source safe for concurrent use.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded creates a Source that yields the same sequence for the same seed.
func NewSeeded(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

func (r *Rand) ShouldOccur(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < p
}

func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// PickOne returns a uniformly chosen element of items. The bool is false when items is empty.
func PickOne[T any](src Source, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[src.Intn(len(items))], true
}
