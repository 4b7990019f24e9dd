package skill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/roach88/avada/internal/analytics"
	"github.com/roach88/avada/internal/content"
	"github.com/roach88/avada/internal/profile"
	"github.com/roach88/avada/internal/rotation"
)

// Session is one user conversation.
//
// Thread-safety: Handle and End serialize on an internal mutex, so an idle
// sweeper may end a session while a turn is arriving.
type Session struct {
	skill     *Skill
	id        string
	platform  content.Platform
	pools     content.Pools
	returning bool
	tracker   *analytics.Tracker
	logger    *slog.Logger

	mu           sync.Mutex
	profile      profile.Profile
	startedAt    time.Time
	lastActive   time.Time
	lastSpeech   string
	lastReprompt string
	turns        int
	ended        bool
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Platform returns the platform the session runs on.
func (s *Session) Platform() content.Platform { return s.platform }

// Pools returns the content resolved at start.
func (s *Session) Pools() content.Pools { return s.pools }

// Returning reports whether a stored profile existed at start.
func (s *Session) Returning() bool { return s.returning }

// Profile returns a copy of the in-memory profile.
func (s *Session) Profile() profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Ended reports whether the profile has been written back.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// LastActive is the time of the most recent turn, or of Start.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Turns counts handled intents.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// Handle serves one intent.
//
// Stop and END end the session. If writing the profile back fails, the
// returned error wraps ErrPersist and the response is still valid.
func (s *Session) Handle(ctx context.Context, intent string) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return Response{}, fmt.Errorf("handle %q in session %s: %w", intent, s.id, ErrSessionEnded)
	}

	handler := Resolve(intent)
	ctx, span := s.skill.tracer.Start(ctx, "skill.Handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.id),
		attribute.String("intent", intent),
		attribute.String("handler", string(handler)),
	)

	s.turns++
	s.lastActive = s.skill.now()

	resp, err := s.dispatch(ctx, handler, intent)
	resp.SessionID = s.id
	resp.Handler = handler
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	s.logger.Debug("turn handled",
		"intent", intent,
		"handler", string(handler),
		"spell_index", s.profile.SpellIndex(),
		"end_session", resp.EndSession,
	)
	return resp, err
}

// End writes the profile back and records session analytics. It is
// idempotent; only the first call persists.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end(ctx)
}

func (s *Session) dispatch(ctx context.Context, handler Handler, intent string) (Response, error) {
	phrases := s.pools.Phrases

	switch handler {
	case HandlerLaunch:
		return s.launch(ctx, intent), nil

	case HandlerNext:
		s.tracker.Event(ctx, analytics.CategoryMainFlow, string(HandlerNext), "")
		return s.cast(ctx, intent, phrases.Next), nil

	case HandlerPrevious:
		s.tracker.Event(ctx, analytics.CategoryMainFlow, string(HandlerPrevious), "")
		s.profile.Rotations.Sound = rotation.Rewind(s.profile.Rotations.Sound)
		return s.cast(ctx, intent, phrases.Previous), nil

	case HandlerStartOver:
		s.tracker.Event(ctx, analytics.CategoryMainFlow, string(HandlerStartOver), "")
		return s.cast(ctx, intent, phrases.StartOver), nil

	case HandlerRepeat:
		if s.lastSpeech == "" {
			s.tracker.Event(ctx, analytics.CategoryMainFlow, "RepeatIntent at LaunchRequest", "")
			return s.launch(ctx, intent), nil
		}
		s.tracker.Event(ctx, analytics.CategoryMainFlow, string(HandlerRepeat), "")
		return Response{Speech: s.lastSpeech, Reprompt: s.lastReprompt}, nil

	case HandlerHelp:
		s.tracker.Event(ctx, analytics.CategoryMainFlow, string(HandlerHelp), "")
		s.lastSpeech = NewSpeechBuilder().AddText(phrases.Help).Build()
		s.lastReprompt = phrases.HelpReprompt
		return Response{Speech: s.lastSpeech, Reprompt: s.lastReprompt}, nil

	case HandlerStop:
		s.tracker.Event(ctx, analytics.CategoryMainFlow, string(HandlerStop), "")
		resp := Response{
			Speech:     NewSpeechBuilder().AddText(phrases.Exit).Build(),
			EndSession: true,
		}
		return resp, s.end(ctx)

	case HandlerEnd:
		s.tracker.Event(ctx, analytics.CategoryMainFlow, "SessionEnded", "")
		resp := Response{EndSession: true}
		if s.pools.Capability == content.CapabilityRich {
			resp.Speech = NewSpeechBuilder().AddText(phrases.Exit).Build()
		}
		return resp, s.end(ctx)

	case HandlerCanFulfill:
		return Response{CanFulfill: true}, nil

	case HandlerSpell:
		return s.cast(ctx, intent, ""), nil
	}

	return s.cast(ctx, intent, phrases.Unhandled), nil
}

func (s *Session) launch(ctx context.Context, intent string) Response {
	s.tracker.Event(ctx, analytics.CategoryMainFlow, analytics.ActionSessionStart, "start")
	s.tracker.Event(ctx, analytics.CategoryMainFlow, "Launch", "")
	s.startedAt = s.skill.now()
	return s.cast(ctx, intent, s.pools.Phrases.Launch)
}

// cast advances every rotation once and renders the spell, optionally
// prefaced by a phrase.
func (s *Session) cast(ctx context.Context, intent, preface string) Response {
	action := strings.TrimSpace(intent)
	if action == "" {
		action = string(HandlerUnhandled)
	}
	s.tracker.Event(ctx, analytics.CategoryMainFlow, action, "")

	sel, next := s.skill.engine.Advance(s.profile.Rotations, s.pools.Sizes())
	s.profile.Rotations = next

	sb := NewSpeechBuilder()
	if preface != "" {
		sb.AddText(preface).AddBreak(SpellPause)
	}
	if sound, ok := s.pools.Sound(sel.Sound); ok {
		sb.AddAudio(sound).AddBreak(SpellPause)
	}
	if interjection, ok := s.pools.Interjection(sel.Interjection); ok && s.pools.SpeakInterjections {
		sb.AddText(interjection).AddBreak(SpellPause)
	}
	if effect, ok := s.pools.AfterEffect(sel.AfterEffect); ok {
		sb.AddText(effect).AddBreak(SpellPause)
	}
	sb.AddText(s.pools.Phrases.Reprompt)

	s.lastSpeech = sb.Build()
	s.lastReprompt = s.pools.Phrases.Reprompt

	return Response{
		Speech:    s.lastSpeech,
		Reprompt:  s.lastReprompt,
		Card:      spellCard(s.pools),
		Chips:     spellChips(s.pools),
		Selection: &sel,
	}
}

// end must be called with s.mu held.
func (s *Session) end(ctx context.Context) error {
	if s.ended {
		return nil
	}
	s.ended = true

	now := s.skill.now()
	s.tracker.Event(ctx, analytics.CategoryMainFlow, analytics.ActionSessionEnd, "end")
	if !s.startedAt.IsZero() {
		elapsed := now.Sub(s.startedAt)
		s.tracker.Timing(ctx, analytics.CategoryMainFlow, analytics.ActionSessionDuration, elapsed)
		s.logger.Info("session ended", "turns", s.turns, "duration", elapsed)
	} else {
		s.logger.Info("session ended", "turns", s.turns)
	}

	s.profile.UpdatedAt = now.UTC()
	if err := s.skill.store.PutProfile(ctx, s.profile.Clone()); err != nil {
		s.logger.Error("profile not saved", "error", err)
		return fmt.Errorf("%w for %q: %w", ErrPersist, s.profile.UserID, err)
	}
	return nil
}
