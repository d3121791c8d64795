package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/dichoptic/internal/logging"
)

// fakeAPI accepts exactly one access token on /scores/tetris and counts refreshes
type fakeAPI struct {
	valid        atomic.Value
	refreshCalls atomic.Int32
	staleHits    atomic.Int32

	// refresh waits until this many stale requests were answered
	waitFor     int32
	failRefresh bool
	alwaysDeny  bool
	onStale     func()
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refreshToken"])

		deadline := time.Now().Add(2 * time.Second)
		for f.staleHits.Load() < f.waitFor && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}

		w.Header().Set("Content-Type", "application/json")
		if f.failRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid refresh token","code":"INVALID_REFRESH_TOKEN"}`))
			return
		}
		f.valid.Store("new-access")
		_, _ = w.Write([]byte(`{"access_token":"new-access","token_type":"Bearer","expires_in":900}`))
	})

	mux.HandleFunc("GET /scores/tetris", func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")

		if !f.alwaysDeny && token == "Bearer "+f.valid.Load().(string) {
			_, _ = w.Write([]byte(`[]`))
			return
		}

		f.staleHits.Add(1)
		if f.onStale != nil {
			f.onStale()
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token has expired","code":"TOKEN_EXPIRED"}`))
	})

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid email or password","code":"INVALID_CREDENTIALS"}`))
	})

	return mux
}

type harness struct {
	api     *fakeAPI
	coord   *Coordinator
	session *Session
	ended   []SessionEnded
	mu      sync.Mutex
}

func newHarness(t *testing.T, api *fakeAPI, tokens Tokens) *harness {
	t.Helper()
	api.valid.Store("unused")

	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	h := &harness{api: api, session: NewSession(NewMemoryTokenStore())}
	require.NoError(t, h.session.Start(tokens))

	events := NewEvents()
	events.Subscribe(func(ev SessionEnded) {
		h.mu.Lock()
		h.ended = append(h.ended, ev)
		h.mu.Unlock()
	})

	h.coord = NewCoordinator(srv.URL, srv.Client(), h.session, events, logging.Discard())
	return h
}

func (h *harness) endEvents() []SessionEnded {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]SessionEnded(nil), h.ended...)
}

func scoresRequest() Request {
	return Request{Method: http.MethodGet, Path: "/scores/tetris", Authenticated: true}
}

func runConcurrent(h *harness, n int) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.coord.Do(context.Background(), scoresRequest())
		}()
	}
	wg.Wait()
	return errs
}

func TestCoordinator_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const n = 8
	h := newHarness(t, &fakeAPI{waitFor: n}, Tokens{AccessToken: "old-access", RefreshToken: "refresh-1"})

	errs := runConcurrent(h, n)

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), h.api.refreshCalls.Load())
	assert.Equal(t, "new-access", h.session.AccessToken())
	assert.Equal(t, "refresh-1", h.session.RefreshToken(), "refresh token is not rotated")
	assert.Empty(t, h.endEvents())
}

func TestCoordinator_RefreshFailureRejectsAll(t *testing.T) {
	const n = 6
	h := newHarness(t, &fakeAPI{waitFor: n, failRefresh: true}, Tokens{AccessToken: "old-access", RefreshToken: "refresh-1"})

	errs := runConcurrent(h, n)

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrSessionEnded)
	}
	assert.Equal(t, int32(1), h.api.refreshCalls.Load())
	assert.False(t, h.session.Active())

	ended := h.endEvents()
	require.NotEmpty(t, ended)
	assert.Equal(t, ReasonRefreshFailed, ended[0].Reason)
}

func TestCoordinator_RetriedRequestDoesNotRefreshAgain(t *testing.T) {
	h := newHarness(t, &fakeAPI{alwaysDeny: true}, Tokens{AccessToken: "old-access", RefreshToken: "refresh-1"})

	_, err := h.coord.Do(context.Background(), scoresRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "TOKEN_EXPIRED", apiErr.Code)
	assert.NotErrorIs(t, err, ErrSessionEnded)

	assert.Equal(t, int32(1), h.api.refreshCalls.Load())
	assert.Equal(t, int32(2), h.api.staleHits.Load())
	assert.True(t, h.session.Active())
}

func TestCoordinator_NoRefreshToken(t *testing.T) {
	h := newHarness(t, &fakeAPI{}, Tokens{AccessToken: "old-access"})

	_, err := h.coord.Do(context.Background(), scoresRequest())

	assert.ErrorIs(t, err, ErrSessionEnded)
	assert.Equal(t, int32(0), h.api.refreshCalls.Load())
	assert.False(t, h.session.Active())

	ended := h.endEvents()
	require.Len(t, ended, 1)
	assert.Equal(t, ReasonNoRefreshToken, ended[0].Reason)
}

func TestCoordinator_RetriesWithTokenRefreshedElsewhere(t *testing.T) {
	api := &fakeAPI{}
	h := newHarness(t, api, Tokens{AccessToken: "old-access", RefreshToken: "refresh-1"})

	// another caller refreshes while this request is in flight
	var once sync.Once
	api.onStale = func() {
		once.Do(func() {
			api.valid.Store("other-access")
			assert.NoError(t, h.session.SetAccessToken("other-access"))
		})
	}

	_, err := h.coord.Do(context.Background(), scoresRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
}

func TestCoordinator_UnauthenticatedErrorsPassThrough(t *testing.T) {
	h := newHarness(t, &fakeAPI{}, Tokens{AccessToken: "old-access", RefreshToken: "refresh-1"})

	_, err := h.coord.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/login", Body: []byte(`{}`)})

	assert.True(t, IsCode(err, "INVALID_CREDENTIALS"))
	assert.Equal(t, int32(0), h.api.refreshCalls.Load())
	assert.True(t, h.session.Active())
}

func TestCoordinator_TransportError(t *testing.T) {
	session := NewSession(NewMemoryTokenStore())
	coord := NewCoordinator("http://127.0.0.1:1", &http.Client{Timeout: time.Second}, session, NewEvents(), logging.Discard())

	_, err := coord.Do(context.Background(), scoresRequest())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func (c *Coordinator) queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// gatedRefreshAPI holds the refresh until release is closed and records
// which paths were served with the refreshed token, in arrival order
type gatedRefreshAPI struct {
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	valid  string
	served []string
}

func newGatedRefreshAPI() *gatedRefreshAPI {
	return &gatedRefreshAPI{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedRefreshAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		close(g.entered)
		<-g.release

		g.mu.Lock()
		g.valid = "new-access"
		g.mu.Unlock()
		_, _ = w.Write([]byte(`{"access_token":"new-access","token_type":"Bearer","expires_in":900}`))
	})
	mux.HandleFunc("GET /q/{n}", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		ok := g.valid != "" && r.Header.Get("Authorization") == "Bearer "+g.valid
		if ok {
			g.served = append(g.served, r.URL.Path)
		}
		g.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"token has expired","code":"TOKEN_EXPIRED"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	return mux
}

func (g *gatedRefreshAPI) servedPaths() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.served...)
}

func newGatedCoordinator(t *testing.T, api *gatedRefreshAPI) *Coordinator {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	session := NewSession(NewMemoryTokenStore())
	require.NoError(t, session.Start(Tokens{AccessToken: "old-access", RefreshToken: "refresh-1"}))
	return NewCoordinator(srv.URL, srv.Client(), session, NewEvents(), logging.Discard())
}

func queuedRequest(n string) Request {
	return Request{Method: http.MethodGet, Path: "/q/" + n, Authenticated: true}
}

func TestCoordinator_QueuedRequestsReplayInArrivalOrder(t *testing.T) {
	api := newGatedRefreshAPI()
	coord := newGatedCoordinator(t, api)

	paths := []string{"0", "1", "2", "3"}
	errs := make([]error, len(paths))
	var wg sync.WaitGroup

	start := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = coord.Do(context.Background(), queuedRequest(paths[i]))
		}()
	}

	// the first caller starts the refresh, the rest queue one at a time
	start(0)
	<-api.entered
	for i := 1; i < len(paths); i++ {
		start(i)
		require.Eventually(t, func() bool { return coord.queued() == i }, 2*time.Second, time.Millisecond)
	}

	close(api.release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"/q/0", "/q/1", "/q/2", "/q/3"}, api.servedPaths())
	assert.Zero(t, coord.queued())
}

func TestCoordinator_QueuedCallerCancelled(t *testing.T) {
	api := newGatedRefreshAPI()
	coord := newGatedCoordinator(t, api)

	first := make(chan error, 1)
	go func() {
		_, err := coord.Do(context.Background(), queuedRequest("0"))
		first <- err
	}()
	<-api.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := coord.Do(ctx, queuedRequest("1"))
		cancelled <- err
	}()
	require.Eventually(t, func() bool { return coord.queued() == 1 }, 2*time.Second, time.Millisecond)

	last := make(chan error, 1)
	go func() {
		_, err := coord.Do(context.Background(), queuedRequest("2"))
		last <- err
	}()
	require.Eventually(t, func() bool { return coord.queued() == 2 }, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-cancelled:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller still waiting on the refresh")
	}

	close(api.release)
	require.NoError(t, <-first)
	require.NoError(t, <-last)
	assert.Equal(t, []string{"/q/0", "/q/2"}, api.servedPaths())
	assert.Equal(t, "new-access", coord.session.AccessToken())
}
