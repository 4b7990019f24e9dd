package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/avada/internal/analytics"
	"github.com/roach88/avada/internal/content"
	"github.com/roach88/avada/internal/profile"
	"github.com/roach88/avada/internal/rotation"
	"github.com/roach88/avada/internal/telemetry"
)

const tracerName = "github.com/roach88/avada/internal/skill"

var (
	// ErrSessionEnded is returned when a turn arrives after the session ended.
	ErrSessionEnded = errors.New("session already ended")

	// ErrPersist wraps failures to write the profile back at session end.
	// The turn that ended the session still carries a valid response.
	ErrPersist = errors.New("persist profile")
)

// IDGenerator produces session ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Options configures a Skill. Store and Catalog are required.
type Options struct {
	Store   profile.Store
	Catalog *content.Catalog
	Engine  *rotation.Engine
	Sink    analytics.Sink
	Logger  *slog.Logger
	Now     func() time.Time
	IDs     IDGenerator
}

// Skill holds the dependencies shared by every session.
type Skill struct {
	store   profile.Store
	catalog *content.Catalog
	engine  *rotation.Engine
	sink    analytics.Sink
	logger  *slog.Logger
	now     func() time.Time
	ids     IDGenerator
	tracer  trace.Tracer
}

// New validates options and fills defaults: a random engine, a discarding
// sink and logger, time.Now, and UUIDv7 session ids.
func New(opts Options) (*Skill, error) {
	if opts.Store == nil {
		return nil, errors.New("skill: profile store is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("skill: content catalog is required")
	}
	s := &Skill{
		store:   opts.Store,
		catalog: opts.Catalog,
		engine:  opts.Engine,
		sink:    opts.Sink,
		logger:  opts.Logger,
		now:     opts.Now,
		ids:     opts.IDs,
		tracer:  telemetry.Tracer(tracerName),
	}
	if s.engine == nil {
		s.engine = rotation.New(nil)
	}
	if s.sink == nil {
		s.sink = analytics.Discard
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ids == nil {
		s.ids = UUIDv7Generator{}
	}
	return s, nil
}

// Catalog returns the content catalog sessions draw from.
func (s *Skill) Catalog() *content.Catalog {
	return s.catalog
}

// StartRequest identifies a new conversation.
type StartRequest struct {
	SessionID   string // generated when empty
	UserID      string
	Platform    string
	Locale      string
	DisplayName string // stored when non-empty
}

// Start opens a session: it loads the profile once and resolves the content
// pools for the platform and locale.
func (s *Skill) Start(ctx context.Context, req StartRequest) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "skill.Start")
	defer span.End()

	sess, err := s.start(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("session.id", sess.id),
		attribute.String("platform", string(sess.platform)),
		attribute.String("locale", sess.pools.Locale),
		attribute.Bool("profile.found", sess.returning),
	)
	return sess, nil
}

func (s *Skill) start(ctx context.Context, req StartRequest) (*Session, error) {
	platform, err := content.ParsePlatform(req.Platform)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	now := s.now()
	p, found, err := profile.Load(ctx, s.store, req.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	pools, err := s.catalog.Pools(platform.Capability(), req.Locale)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = s.ids.Generate()
	}

	if name := strings.TrimSpace(req.DisplayName); name != "" {
		p.DisplayName = name
	}
	p.SessionCount++

	logger := s.logger.With(
		"session_id", id,
		"user_id", p.UserID,
		"platform", string(platform),
	)
	tracker := analytics.NewTracker(s.sink, logger, s.now, analytics.Event{
		SessionID: id,
		UserID:    p.UserID,
		Platform:  string(platform),
		Locale:    pools.Locale,
	})

	logger.Debug("session started",
		"locale", pools.Locale,
		"capability", string(pools.Capability),
		"first_seen", p.FirstSeen,
		"session_count", p.SessionCount,
	)

	return &Session{
		skill:      s,
		id:         id,
		platform:   platform,
		pools:      pools,
		profile:    p,
		returning:  found,
		tracker:    tracker,
		logger:     logger,
		lastActive: now,
	}, nil
}
