// Package profile holds the per-user record the rotation engine persists
// between sessions.
//
// A profile is read once when a session starts, mutated only in memory while
// the session runs, and written back when it ends. Fields other than the
// rotations (display name, first-seen flag) belong to the conversation layer.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/avada/internal/rotation"
)

var (
	// ErrNotFound is returned by stores when no profile exists for a user.
	ErrNotFound = errors.New("profile not found")

	// ErrEmptyUserID is returned when a platform supplies a blank user id.
	ErrEmptyUserID = errors.New("user id is empty")
)

// Profile is the persisted state for one user.
type Profile struct {
	UserID       string
	DisplayName  string
	FirstSeen    bool
	Rotations    rotation.Set
	SessionCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New returns a zero-state profile for a user seen for the first time.
func New(userID string, now time.Time) Profile {
	now = now.UTC()
	return Profile{
		UserID:    userID,
		FirstSeen: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SpellIndex is the cursor of the sound rotation.
func (p Profile) SpellIndex() int { return p.Rotations.Sound.Index }

// InterjectionIndex is the cursor of the interjection rotation.
func (p Profile) InterjectionIndex() int { return p.Rotations.Interjection.Index }

// AfterEffectIndex is the cursor of the after-effect rotation.
func (p Profile) AfterEffectIndex() int { return p.Rotations.AfterEffect.Index }

// Clone returns a copy that shares no slices with p.
func (p Profile) Clone() Profile {
	out := p
	out.Rotations = p.Rotations.Clone()
	return out
}

// NormalizeUserID trims surrounding space and NFC-normalises an opaque
// platform user id so visually identical ids map to one record.
func NormalizeUserID(id string) (string, error) {
	id = norm.NFC.String(strings.TrimSpace(id))
	if id == "" {
		return "", ErrEmptyUserID
	}
	return id, nil
}

// Store is the persistence contract for profiles.
type Store interface {
	// GetProfile returns ErrNotFound when the user has no record.
	GetProfile(ctx context.Context, userID string) (Profile, error)
	PutProfile(ctx context.Context, p Profile) error
}

// Load reads a user's profile, falling back to a fresh one when absent.
// The boolean reports whether a persisted record was found.
func Load(ctx context.Context, store Store, userID string, now time.Time) (Profile, bool, error) {
	id, err := NormalizeUserID(userID)
	if err != nil {
		return Profile{}, false, err
	}

	p, err := store.GetProfile(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return New(id, now), false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("load profile %q: %w", id, err)
	}
	p.FirstSeen = false
	return p, true, nil
}
