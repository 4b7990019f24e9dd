// Package server exposes the skill as a JSON webhook.
//
// Voice platforms (or an adapter in front of them) POST one request per
// turn. Sessions live in memory between turns and end on Stop, END, an idle
// sweep, or Close. Each ending writes the user's profile back once.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/avada/internal/skill"
)

// DefaultSessionTTL ends sessions idle for longer than this.
const DefaultSessionTTL = 5 * time.Minute

// Options configures a Server. Skill is required.
type Options struct {
	Skill         *skill.Skill
	SessionTTL    time.Duration // idle time before a session is swept
	SweepInterval time.Duration // defaults to SessionTTL/2, at least one second
	Logger        *slog.Logger
	Now           func() time.Time
}

// Server routes turns to live sessions.
//
// Thread-safety: Server is safe for concurrent use.
type Server struct {
	skill    *skill.Skill
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*skill.Session
	closed   bool
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Skill == nil {
		return nil, errors.New("server: skill is required")
	}
	s := &Server{
		skill:    opts.Skill,
		ttl:      opts.SessionTTL,
		interval: opts.SweepInterval,
		logger:   opts.Logger,
		now:      opts.Now,
		sessions: make(map[string]*skill.Session),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.interval <= 0 {
		s.interval = max(s.ttl/2, time.Second)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/turn", s.handleTurn)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Serve accepts connections on ln and sweeps idle sessions until ctx ends.
// On return every live session has been ended.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("webhook listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.RunSweeper(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if closeErr := s.Close(context.Background()); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

// RunSweeper ends idle sessions every sweep interval until ctx ends.
func (s *Server) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep ends sessions idle for longer than the TTL and returns how many it
// ended.
func (s *Server) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var idle []*skill.Session
	for _, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			idle = append(idle, sess)
		}
	}
	s.mu.Unlock()

	// Swept sessions stay in the table until their profile is written, so a
	// turn for the same id waits on the session instead of loading a stale
	// profile.
	for _, sess := range idle {
		err := sess.End(ctx)
		s.forget(sess)
		if err != nil {
			s.logger.Error("idle session not saved", "session_id", sess.ID(), "error", err)
			continue
		}
		s.logger.Debug("idle session ended", "session_id", sess.ID(), "turns", sess.Turns())
	}
	return len(idle)
}

// Sessions reports how many sessions are live.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close ends every live session. Turns arriving afterwards are rejected.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	live := make([]*skill.Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		live = append(live, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	var errs []error
	for _, sess := range live {
		if err := sess.End(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// session returns the live session for req, starting one when needed.
// A session the sweeper ended is replaced transparently.
func (s *Server) session(ctx context.Context, req TurnRequest) (*skill.Session, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errServerClosed
	}
	sess, ok := s.sessions[req.SessionID]
	s.mu.Unlock()
	if ok && !sess.Ended() {
		return sess, nil
	}

	sess, err := s.skill.Start(ctx, skill.StartRequest{
		SessionID:   req.SessionID,
		UserID:      req.UserID,
		Platform:    req.Platform,
		Locale:      req.Locale,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errServerClosed
	}
	if existing, ok := s.sessions[req.SessionID]; ok && !existing.Ended() {
		// Another turn for the same session won the race.
		return existing, nil
	}
	s.sessions[req.SessionID] = sess
	return sess, nil
}

func (s *Server) forget(sess *skill.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[sess.ID()]; ok && cur == sess {
		delete(s.sessions, sess.ID())
	}
}
