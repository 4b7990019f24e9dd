package rotation

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Shuffler produces a uniformly random permutation of [0, n).
type Shuffler interface {
	Permutation(n int) []int
}

// RandomShuffler draws permutations from the runtime's randomly seeded
// generator.
//
// Thread-safety: RandomShuffler is stateless and safe for concurrent use.
type RandomShuffler struct{}

// Permutation returns a fresh random permutation of [0, n).
func (RandomShuffler) Permutation(n int) []int {
	return rand.Perm(n)
}

// SeededShuffler produces a reproducible sequence of permutations.
//
// The same seed yields the same permutations in the same order, which makes
// a whole run replayable from the command line.
//
// Thread-safety: SeededShuffler is safe for concurrent use via internal mutex.
type SeededShuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededShuffler creates a shuffler seeded with seed.
func NewSeededShuffler(seed uint64) *SeededShuffler {
	return &SeededShuffler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Permutation returns the next permutation of [0, n) from the seeded stream.
func (s *SeededShuffler) Permutation(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}

// FixedShuffler returns predetermined permutations for tests.
//
// Permutations are consumed in order. Asking for a size that does not match
// the next queued permutation, or asking after the queue is drained, panics:
// the test requested more reshuffles than it planned for.
//
// Thread-safety: FixedShuffler is safe for concurrent use via internal mutex.
type FixedShuffler struct {
	mu    sync.Mutex
	perms [][]int
	idx   int
}

// NewFixedShuffler creates a shuffler that hands out perms in order.
//
// Example:
//
//	sh := NewFixedShuffler([]int{2, 0, 1}, []int{1, 0})
//	sh.Permutation(3) // [2 0 1]
//	sh.Permutation(2) // [1 0]
//	sh.Permutation(2) // panic: all permutations consumed
func NewFixedShuffler(perms ...[]int) *FixedShuffler {
	return &FixedShuffler{perms: perms}
}

// Permutation returns the next queued permutation.
func (f *FixedShuffler) Permutation(n int) []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.idx >= len(f.perms) {
		panic("FixedShuffler: all permutations consumed")
	}
	perm := f.perms[f.idx]
	if len(perm) != n {
		panic(fmt.Sprintf("FixedShuffler: queued permutation has length %d, want %d", len(perm), n))
	}
	f.idx++
	return append([]int(nil), perm...)
}

// Remaining reports how many queued permutations have not been handed out.
func (f *FixedShuffler) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.perms) - f.idx
}

// NewSeed draws a seed from crypto/rand for a SeededShuffler.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
