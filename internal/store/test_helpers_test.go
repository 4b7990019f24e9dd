package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/avada/internal/analytics"
	"github.com/roach88/avada/internal/profile"
	"github.com/roach88/avada/internal/rotation"
)

var testTime = time.Date(2026, time.March, 14, 15, 9, 26, 535897932, time.UTC)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProfile creates a returning user's profile with non-trivial rotations.
func createTestProfile(userID string) profile.Profile {
	return profile.Profile{
		UserID:      userID,
		DisplayName: "Ada",
		Rotations: rotation.Set{
			Sound:        rotation.State{Permutation: []int{2, 0, 1}, Index: 1},
			Interjection: rotation.State{Permutation: []int{1, 0}, Index: 0},
		},
		SessionCount: 3,
		CreatedAt:    testTime,
		UpdatedAt:    testTime.Add(time.Hour),
	}
}

// createTestEvent creates an event for a session.
func createTestEvent(sessionID, userID, action string) analytics.Event {
	return analytics.Event{
		SessionID: sessionID,
		UserID:    userID,
		Category:  analytics.CategoryMainFlow,
		Action:    action,
		Platform:  "alexa",
		Locale:    "en-US",
		Time:      testTime,
	}
}
