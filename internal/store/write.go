package store

import (
	"context"
	"fmt"

	"github.com/roach88/avada/internal/analytics"
	"github.com/roach88/avada/internal/profile"
)

// PutProfile inserts or replaces a user's profile.
//
// created_at is kept from the first insert; every other column is
// overwritten, so the last session to end wins.
func (s *Store) PutProfile(ctx context.Context, p profile.Profile) (err error) {
	ctx, end := startSpan(ctx, "store.PutProfile")
	defer func() { end(err) }()

	rotations, err := marshalRotations(p.Rotations)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles
		(user_id, display_name, rotations, session_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name  = excluded.display_name,
			rotations     = excluded.rotations,
			session_count = excluded.session_count,
			updated_at    = excluded.updated_at
	`,
		p.UserID,
		p.DisplayName,
		rotations,
		p.SessionCount,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a user's profile. Deleting a missing profile returns
// profile.ErrNotFound.
func (s *Store) DeleteProfile(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete profile %q: %w", userID, profile.ErrNotFound)
	}
	return nil
}

// WriteEvent appends an analytics event.
func (s *Store) WriteEvent(ctx context.Context, e analytics.Event) (err error) {
	ctx, end := startSpan(ctx, "store.WriteEvent")
	defer func() { end(err) }()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events
		(session_id, user_id, category, action, label, value, platform, locale, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.SessionID,
		e.UserID,
		e.Category,
		e.Action,
		e.Label,
		e.Value,
		e.Platform,
		e.Locale,
		formatTime(e.Time),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
