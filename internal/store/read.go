package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/avada/internal/analytics"
	"github.com/roach88/avada/internal/profile"
)

// GetProfile returns the stored profile for a user.
// Returns profile.ErrNotFound if the user has no record.
func (s *Store) GetProfile(ctx context.Context, userID string) (_ profile.Profile, err error) {
	ctx, end := startSpan(ctx, "store.GetProfile")
	defer func() {
		if errors.Is(err, profile.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, rotations, session_count, created_at, updated_at
		FROM profiles
		WHERE user_id = ?
	`, userID)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ListProfiles returns every profile ordered by user id.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, display_name, rotations, session_count, created_at, updated_at
		FROM profiles
		ORDER BY user_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []profile.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

// ReadEvents returns a user's most recent events, oldest first.
// limit <= 0 returns every event.
func (s *Store) ReadEvents(ctx context.Context, userID string, limit int) ([]analytics.Event, error) {
	query := `
		SELECT session_id, user_id, category, action, label, value, platform, locale, created_at
		FROM (
			SELECT * FROM events
			WHERE user_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return s.queryEvents(ctx, query, userID, limit)
}

// ReadSessionEvents returns every event written by one session, in order.
func (s *Store) ReadSessionEvents(ctx context.Context, sessionID string) ([]analytics.Event, error) {
	return s.queryEvents(ctx, `
		SELECT session_id, user_id, category, action, label, value, platform, locale, created_at
		FROM events
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]analytics.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []analytics.Event{}
	for rows.Next() {
		var (
			e       analytics.Event
			created string
		)
		if err := rows.Scan(&e.SessionID, &e.UserID, &e.Category, &e.Action, &e.Label, &e.Value, &e.Platform, &e.Locale, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.Time, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (profile.Profile, error) {
	var (
		p                profile.Profile
		rotations        string
		created, updated string
	)
	if err := row.Scan(&p.UserID, &p.DisplayName, &rotations, &p.SessionCount, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profile.Profile{}, err
		}
		return profile.Profile{}, fmt.Errorf("scan profile: %w", err)
	}

	var err error
	if p.Rotations, err = unmarshalRotations(rotations); err != nil {
		return profile.Profile{}, fmt.Errorf("scan profile %q: %w", p.UserID, err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return profile.Profile{}, fmt.Errorf("scan profile %q: %w", p.UserID, err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return profile.Profile{}, fmt.Errorf("scan profile %q: %w", p.UserID, err)
	}
	return p, nil
}
