package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/avada/internal/content"
	"github.com/roach88/avada/internal/profile"
	"github.com/roach88/avada/internal/rotation"
	"github.com/roach88/avada/internal/skill"
	"github.com/roach88/avada/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	server *Server
	store  profile.Store
	mem    *profile.MemoryStore
	clock  *manualClock
}

func newFixture(t *testing.T, store profile.Store) fixture {
	t.Helper()
	catalog, err := content.Default()
	require.NoError(t, err)

	clock := &manualClock{t: testutil.Epoch}
	sk, err := skill.New(skill.Options{
		Store:   store,
		Catalog: catalog,
		Engine:  rotation.New(testutil.IdentityShuffler{}),
		Now:     clock.Now,
	})
	require.NoError(t, err)

	srv, err := New(Options{Skill: sk, SessionTTL: time.Minute, Now: clock.Now})
	require.NoError(t, err)

	mem, _ := store.(*profile.MemoryStore)
	return fixture{server: srv, store: store, mem: mem, clock: clock}
}

func newMemoryFixture(t *testing.T) fixture {
	return newFixture(t, profile.NewMemoryStore())
}

func (f fixture) post(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/turn", &buf)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func turn(sessionID, intent string) TurnRequest {
	return TurnRequest{SessionID: sessionID, UserID: "user-1", Platform: "alexa", Locale: "en-US", Intent: intent}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) skill.Response {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp skill.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder, status int) ErrorDetail {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestNew_RequiresSkill(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestTurn_LaunchThenStop(t *testing.T) {
	f := newMemoryFixture(t)

	launch := decodeResponse(t, f.post(t, turn("s1", "LaunchRequest")))
	assert.Equal(t, "s1", launch.SessionID)
	assert.Equal(t, skill.HandlerLaunch, launch.Handler)
	assert.Contains(t, launch.Speech, "<audio src=")
	assert.False(t, launch.EndSession)
	assert.Equal(t, 1, f.server.Sessions())

	next := decodeResponse(t, f.post(t, turn("s1", "AMAZON.NextIntent")))
	require.NotNil(t, next.Selection)
	assert.Equal(t, 1, next.Selection.Sound.ID, "the same session continues the rotation")
	assert.Equal(t, 0, f.mem.Puts())

	stop := decodeResponse(t, f.post(t, turn("s1", "AMAZON.StopIntent")))
	assert.True(t, stop.EndSession)
	assert.Equal(t, 0, f.server.Sessions())
	assert.Equal(t, 1, f.mem.Puts())

	stored, err := f.mem.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.SpellIndex())
}

func TestTurn_BadRequests(t *testing.T) {
	f := newMemoryFixture(t)

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"session_id":`},
		{"unknown field", `{"session_id":"s1","user_id":"u","platform":"alexa","intent":"x","extra":1}`},
		{"missing session", TurnRequest{UserID: "u", Platform: "alexa"}},
		{"unknown platform", TurnRequest{SessionID: "s1", UserID: "u", Platform: "cortana"}},
		{"blank user", TurnRequest{SessionID: "s1", UserID: " ", Platform: "alexa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := decodeError(t, f.post(t, tt.body), http.StatusBadRequest)
			assert.Equal(t, ErrCodeBadRequest, detail.Code)
			assert.NotEmpty(t, detail.Message)
		})
	}
	assert.Equal(t, 0, f.server.Sessions())
}

func TestTurn_MethodNotAllowed(t *testing.T) {
	f := newMemoryFixture(t)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/turn", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newMemoryFixture(t)
	f.post(t, turn("s1", "LaunchRequest"))

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":1}`, rec.Body.String())
}

func TestSweep_EndsIdleSessions(t *testing.T) {
	f := newMemoryFixture(t)
	f.post(t, turn("idle", "LaunchRequest"))
	f.clock.Advance(30 * time.Second)
	f.post(t, turn("busy", "LaunchRequest"))

	f.clock.Advance(45 * time.Second)
	assert.Equal(t, 1, f.server.Sweep(context.Background()))
	assert.Equal(t, 1, f.server.Sessions())
	assert.Equal(t, 1, f.mem.Puts(), "the swept session persisted")

	f.clock.Advance(time.Minute)
	assert.Equal(t, 1, f.server.Sweep(context.Background()))
	assert.Equal(t, 0, f.server.Sessions())
	assert.Equal(t, 2, f.mem.Puts())
}

func TestSweep_NextTurnStartsFreshSession(t *testing.T) {
	f := newMemoryFixture(t)
	first := decodeResponse(t, f.post(t, turn("s1", "LaunchRequest")))
	require.NotNil(t, first.Selection)

	f.clock.Advance(2 * time.Minute)
	require.Equal(t, 1, f.server.Sweep(context.Background()))

	again := decodeResponse(t, f.post(t, turn("s1", "AMAZON.NextIntent")))
	require.NotNil(t, again.Selection)
	assert.Equal(t, 1, again.Selection.Sound.ID, "the new session resumes from the persisted profile")
	assert.Equal(t, 1, f.server.Sessions())
}

// gatedPutStore holds the first PutProfile until release is closed.
type gatedPutStore struct {
	*profile.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedPutStore() *gatedPutStore {
	return &gatedPutStore{
		MemoryStore: profile.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedPutStore) PutProfile(ctx context.Context, p profile.Profile) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.MemoryStore.PutProfile(ctx, p)
}

func TestSweep_TurnDuringWriteWaitsForProfile(t *testing.T) {
	store := newGatedPutStore()
	f := newFixture(t, store)

	first := decodeResponse(t, f.post(t, turn("s1", "LaunchRequest")))
	require.NotNil(t, first.Selection)
	require.Equal(t, 0, first.Selection.Sound.ID)
	second := decodeResponse(t, f.post(t, turn("s1", "AMAZON.NextIntent")))
	require.NotNil(t, second.Selection)
	require.Equal(t, 1, second.Selection.Sound.ID)

	f.clock.Advance(2 * time.Minute)
	swept := make(chan int, 1)
	go func() { swept <- f.server.Sweep(context.Background()) }()
	<-store.entered

	answered := make(chan *httptest.ResponseRecorder, 1)
	go func() { answered <- f.post(t, turn("s1", "AMAZON.NextIntent")) }()

	select {
	case <-answered:
		t.Fatal("turn answered before the swept profile was written")
	case <-time.After(100 * time.Millisecond):
	}
	close(store.release)

	resp := decodeResponse(t, <-answered)
	require.NotNil(t, resp.Selection)
	assert.Equal(t, 2, resp.Selection.Sound.ID, "the new session continues the rotation")
	assert.Equal(t, 1, <-swept)
	assert.Equal(t, 1, f.server.Sessions(), "the replacement session stays live")
}

func TestClose_EndsSessionsAndRejectsTurns(t *testing.T) {
	f := newMemoryFixture(t)
	f.post(t, turn("s1", "LaunchRequest"))
	f.post(t, TurnRequest{SessionID: "s2", UserID: "user-2", Platform: "google", Intent: "WelcomeIntent"})

	require.NoError(t, f.server.Close(context.Background()))

	assert.Equal(t, 0, f.server.Sessions())
	assert.Equal(t, 2, f.mem.Puts())
	assert.Equal(t, []string{"user-1", "user-2"}, f.mem.UserIDs())

	detail := decodeError(t, f.post(t, turn("s3", "LaunchRequest")), http.StatusServiceUnavailable)
	assert.Equal(t, ErrCodeUnavailable, detail.Code)
}

type failingPutStore struct {
	*profile.MemoryStore
}

func (failingPutStore) PutProfile(context.Context, profile.Profile) error {
	return errors.New("disk full")
}

func TestTurn_PersistFailureStillAnswers(t *testing.T) {
	f := newFixture(t, failingPutStore{profile.NewMemoryStore()})
	f.post(t, turn("s1", "LaunchRequest"))

	stop := decodeResponse(t, f.post(t, turn("s1", "AMAZON.StopIntent")))
	assert.True(t, stop.EndSession)
	assert.NotEmpty(t, stop.Speech)
	assert.Equal(t, 0, f.server.Sessions())
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	f := newMemoryFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.server.RunSweeper(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestServe_ShutsDownAndPersists(t *testing.T) {
	f := newMemoryFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- f.server.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	defer client.CloseIdleConnections()

	body, err := json.Marshal(turn("live", "LaunchRequest"))
	require.NoError(t, err)
	res, err := client.Post("http://"+ln.Addr().String()+"/v1/turn", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var resp skill.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	res.Body.Close()
	assert.Equal(t, skill.HandlerLaunch, resp.Handler)

	cancel()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Serve did not return")
	}

	assert.Equal(t, 0, f.server.Sessions())
	assert.Equal(t, 1, f.mem.Puts(), "live sessions persist on shutdown")
}
