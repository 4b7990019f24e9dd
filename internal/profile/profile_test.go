package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/avada/internal/rotation"
)

var testNow = time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)

type failingStore struct{ err error }

func (f failingStore) GetProfile(context.Context, string) (Profile, error) { return Profile{}, f.err }
func (f failingStore) PutProfile(context.Context, Profile) error         { return f.err }

func TestNew_ZeroState(t *testing.T) {
	p := New("user-1", testNow)

	assert.Equal(t, "user-1", p.UserID)
	assert.True(t, p.FirstSeen)
	assert.Equal(t, 0, p.SpellIndex())
	assert.Equal(t, 0, p.InterjectionIndex())
	assert.Equal(t, 0, p.AfterEffectIndex())
	assert.Empty(t, p.Rotations.Sound.Permutation)
	assert.Equal(t, testNow, p.CreatedAt)
}

func TestIndexAccessors(t *testing.T) {
	p := Profile{Rotations: rotation.Set{
		Sound:        rotation.State{Index: 4},
		Interjection: rotation.State{Index: 2},
		AfterEffect:  rotation.State{Index: 9},
	}}

	assert.Equal(t, 4, p.SpellIndex())
	assert.Equal(t, 2, p.InterjectionIndex())
	assert.Equal(t, 9, p.AfterEffectIndex())
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID("  amzn1.account.ABC  ")
	require.NoError(t, err)
	assert.Equal(t, "amzn1.account.ABC", id)

	// "e" + combining acute normalises to the precomposed form.
	id, err = NormalizeUserID("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", id)

	_, err = NormalizeUserID("   ")
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestLoad_MissingProfileDefaults(t *testing.T) {
	store := NewMemoryStore()

	p, found, err := Load(context.Background(), store, "new-user", testNow)
	require.NoError(t, err)

	assert.False(t, found)
	assert.Equal(t, New("new-user", testNow), p)
}

func TestLoad_ExistingProfile(t *testing.T) {
	store := NewMemoryStore()
	saved := New("u", testNow)
	saved.Rotations.Sound = rotation.State{Permutation: []int{1, 0}, Index: 1}
	saved.SessionCount = 3
	require.NoError(t, store.PutProfile(context.Background(), saved))

	p, found, err := Load(context.Background(), store, " u ", testNow.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, found)
	assert.False(t, p.FirstSeen)
	assert.Equal(t, 1, p.SpellIndex())
	assert.Equal(t, 3, p.SessionCount)
}

func TestLoad_StoreError(t *testing.T) {
	boom := errors.New("disk on fire")

	_, _, err := Load(context.Background(), failingStore{err: boom}, "u", testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `load profile "u"`)
}

func TestLoad_EmptyUserID(t *testing.T) {
	_, _, err := Load(context.Background(), NewMemoryStore(), "", testNow)
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestClone_Independent(t *testing.T) {
	p := New("u", testNow)
	p.Rotations.Sound.Permutation = []int{0, 1}

	c := p.Clone()
	c.Rotations.Sound.Permutation[0] = 5

	assert.Equal(t, []int{0, 1}, p.Rotations.Sound.Permutation)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	p := New("b", testNow)
	p.Rotations.AfterEffect.Permutation = []int{0}
	require.NoError(t, s.PutProfile(ctx, p))
	require.NoError(t, s.PutProfile(ctx, New("a", testNow)))

	// Mutating the caller's copy must not leak into the store.
	p.Rotations.AfterEffect.Permutation[0] = 42
	got, err := s.GetProfile(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got.Rotations.AfterEffect.Permutation)

	assert.Equal(t, 2, s.Puts())
	assert.Equal(t, []string{"a", "b"}, s.UserIDs())
}
