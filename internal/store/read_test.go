package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/avada/internal/analytics"
	"github.com/roach88/avada/internal/profile"
)

func TestGetProfile_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestGetProfile_CorruptRotations(t *testing.T) {
	s := createTestStore(t)
	_, err := s.db.Exec(`
		INSERT INTO profiles (user_id, rotations, created_at, updated_at)
		VALUES ('broken', 'not json', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')
	`)
	require.NoError(t, err)

	_, err = s.GetProfile(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, profile.ErrNotFound)
	assert.Contains(t, err.Error(), "unmarshal rotations")
}

func TestListProfiles_OrderedByUserID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, s.PutProfile(ctx, createTestProfile(id)))
	}

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, ids)
}

func TestReadEvents_LimitKeepsMostRecent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, action := range []string{"a1", "a2", "a3", "a4"} {
		require.NoError(t, s.WriteEvent(ctx, createTestEvent("s1", "user-1", action)))
	}
	require.NoError(t, s.WriteEvent(ctx, createTestEvent("s2", "user-2", "other")))

	events, err := s.ReadEvents(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a4"}, actions(events))

	all, err := s.ReadEvents(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3", "a4"}, actions(all))
}

func TestReadSessionEvents_FiltersBySession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteEvent(ctx, createTestEvent("s1", "user-1", analytics.ActionSessionStart)))
	require.NoError(t, s.WriteEvent(ctx, createTestEvent("s2", "user-1", analytics.ActionSessionStart)))
	require.NoError(t, s.WriteEvent(ctx, createTestEvent("s1", "user-1", analytics.ActionSessionEnd)))

	events, err := s.ReadSessionEvents(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{analytics.ActionSessionStart, analytics.ActionSessionEnd}, actions(events))

	none, err := s.ReadSessionEvents(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func actions(events []analytics.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}
