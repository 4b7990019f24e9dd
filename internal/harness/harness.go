package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/avada/internal/content"
	"github.com/roach88/avada/internal/profile"
	"github.com/roach88/avada/internal/rotation"
	"github.com/roach88/avada/internal/skill"
	"github.com/roach88/avada/internal/store"
	"github.com/roach88/avada/internal/testutil"
)

// Run executes a scenario against the real skill and returns the result.
// It uses a fresh in-memory store so scenarios never affect each other.
//
// Returns error only for setup failures or intents sent to an ended session;
// assertion failures are reported in Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, errors.New("scenario is nil")
	}

	catalog, err := content.Load(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	var shuffler rotation.Shuffler = testutil.IdentityShuffler{}
	if scenario.Seed != nil {
		shuffler = rotation.NewSeededShuffler(*scenario.Seed)
	}

	clock := testutil.NewDeterministicClock(testutil.Epoch, time.Second)
	sk, err := skill.New(skill.Options{
		Store:   st,
		Catalog: catalog,
		Engine:  rotation.New(shuffler),
		Sink:    st,
		Logger:  slog.New(slog.DiscardHandler),
		Now:     clock.Now,
		IDs:     testutil.NewSequenceIDs("session"),
	})
	if err != nil {
		return nil, err
	}

	userID := scenario.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	userID, err = profile.NormalizeUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("user_id: %w", err)
	}

	result := NewResult()
	turn := 0
	for i, step := range scenario.Sessions {
		platform := step.Platform
		if platform == "" {
			platform = scenario.Platform
		}
		locale := step.Locale
		if locale == "" {
			locale = scenario.Locale
		}

		sess, err := sk.Start(ctx, skill.StartRequest{
			UserID:   userID,
			Platform: platform,
			Locale:   locale,
		})
		if err != nil {
			return nil, fmt.Errorf("sessions[%d]: %w", i, err)
		}

		for j, intent := range step.Intents {
			resp, err := sess.Handle(ctx, intent)
			if errors.Is(err, skill.ErrSessionEnded) {
				return nil, fmt.Errorf("sessions[%d].intents[%d] %q: %w", i, j, intent, err)
			}
			if err != nil && !errors.Is(err, skill.ErrPersist) {
				return nil, fmt.Errorf("sessions[%d].intents[%d] %q: %w", i, j, intent, err)
			}
			result.Trace = append(result.Trace, TraceEvent{
				Turn:       turn,
				Session:    sess.ID(),
				Platform:   platform,
				Intent:     intent,
				Handler:    string(resp.Handler),
				Selection:  resp.Selection,
				Speech:     resp.Speech,
				EndSession: resp.EndSession,
			})
			turn++
		}

		if !sess.Ended() {
			if err := sess.End(ctx); err != nil {
				return nil, fmt.Errorf("sessions[%d]: end: %w", i, err)
			}
		}
	}

	stored, err := st.GetProfile(ctx, userID)
	switch {
	case err == nil:
		result.Final = &FinalState{
			Rotations:    stored.Rotations,
			SessionCount: stored.SessionCount,
		}
	case errors.Is(err, profile.ErrNotFound):
	default:
		return nil, fmt.Errorf("read final profile: %w", err)
	}

	events, err := st.ReadEvents(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	for _, e := range events {
		result.Actions = append(result.Actions, e.Action)
	}

	EvaluateAssertions(result, scenario.Assertions)
	return result, nil
}
