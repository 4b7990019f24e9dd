package testutil

// IdentityShuffler returns the identity permutation [0, 1, ..., n-1].
//
// With it a rotation serves pool items in catalog order, which makes
// rendered speech predictable in tests.
type IdentityShuffler struct{}

// Permutation implements rotation.Shuffler.
func (IdentityShuffler) Permutation(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}
