package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/avada/internal/rotation"
)

var _ rotation.Shuffler = IdentityShuffler{}

func TestIdentityShuffler(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, IdentityShuffler{}.Permutation(4))
	assert.Empty(t, IdentityShuffler{}.Permutation(0))
}

func TestIdentityShuffler_ServesInOrder(t *testing.T) {
	engine := rotation.New(IdentityShuffler{})
	var st rotation.State

	var ids []int
	for i := 0; i < 4; i++ {
		var pick rotation.Pick
		pick, st = engine.Step(st, 3)
		ids = append(ids, pick.ID)
	}
	assert.Equal(t, []int{0, 1, 2, 0}, ids)
}
