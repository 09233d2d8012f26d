package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/session"
	"github.com/DoyleJ11/hide-and-seek/internal/view"
)

type nopSurface struct{}

func (nopSurface) Notify(context.Context, view.Payload) (session.MessageID, error) {
	return "m", nil
}
func (nopSurface) Create(context.Context, view.Payload) (session.MessageID, error) {
	return "m", nil
}
func (nopSurface) Edit(context.Context, session.MessageID, view.Payload) error { return nil }
func (nopSurface) Delete(context.Context, session.MessageID) error             { return nil }

type fakeTransport struct {
	mu     sync.Mutex
	opened []string
	closed []string
	fail   error
}

func (f *fakeTransport) Open(code string, _ engine.Identity) (session.Responder, session.Broadcaster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, nil, f.fail
	}
	f.opened = append(f.opened, code)
	return nopSurface{}, nopSurface{}, nil
}

func (f *fakeTransport) Close(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, code)
}

func (f *fakeTransport) closedCodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []session.Result
}

func (f *fakeRecorder) Record(_ context.Context, r session.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

// fixed always yields the same digit so every code is "1111".
type fixed struct{}

func (fixed) Intn(int) int { return 1 }

var host = engine.Identity{ID: "host", Name: "Host"}

func newTestHub(t *testing.T, opts Options) (*Hub, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	if opts.Transport == nil {
		opts.Transport = tr
	}
	h := NewHub(context.Background(), opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return h, tr
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h, tr := newTestHub(t, Options{})
	ctx := context.Background()

	s, err := h.Create(ctx, host, engine.ModeTurfWar, 4)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Len(t, s.Code(), 4)

	assert.Same(t, s, h.Get(ctx, s.Code()))
	assert.Nil(t, h.Get(ctx, "nope"))
	assert.Equal(t, []string{s.Code()}, tr.opened)

	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHub_CreateRejectsBadInput(t *testing.T) {
	h, _ := newTestHub(t, Options{MaxPlayers: 8})
	ctx := context.Background()

	_, err := h.Create(ctx, host, engine.ModeTurfWar, 1)
	assert.ErrorIs(t, err, engine.ErrInvalidCapacity)
	_, err = h.Create(ctx, host, engine.ModeTurfWar, 9)
	assert.ErrorIs(t, err, engine.ErrInvalidCapacity)
	_, err = h.Create(ctx, host, "splatzones", 4)
	assert.ErrorIs(t, err, engine.ErrInvalidMode)
}

func TestHub_CodesStayUnique(t *testing.T) {
	h, _ := newTestHub(t, Options{Random: fixed{}})
	ctx := context.Background()

	s, err := h.Create(ctx, host, engine.ModeTurfWar, 4)
	require.NoError(t, err)
	assert.Equal(t, "1111", s.Code())

	_, err = h.Create(ctx, host, engine.ModeTurfWar, 4)
	assert.ErrorIs(t, err, ErrNoCodes)
}

func TestHub_TransportFailure(t *testing.T) {
	tr := &fakeTransport{fail: errors.New("no route")}
	h, _ := newTestHub(t, Options{Transport: tr})

	_, err := h.Create(context.Background(), host, engine.ModeRanked, 4)
	assert.ErrorIs(t, err, session.ErrUnreachable)
}

func TestHub_FinishedSessionIsRecordedAndRemoved(t *testing.T) {
	rec := &fakeRecorder{}
	clock := session.NewManualClock(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC))
	h, tr := newTestHub(t, Options{Recorder: rec, Clock: clock})
	ctx := context.Background()

	s, err := h.Create(ctx, host, engine.ModeTurfWar, 4)
	require.NoError(t, err)

	// nobody joins, so the lobby window runs out
	require.Eventually(t, func() bool { return clock.Waiters() == 1 }, time.Second, time.Millisecond)
	clock.Advance(10 * time.Minute)

	require.Eventually(t, func() bool { return h.Get(ctx, s.Code()) == nil }, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, engine.PhaseAborted, rec.results[0].Outcome)
	assert.Equal(t, engine.PhaseLobby, rec.results[0].AbortedIn)
	assert.Equal(t, []string{s.Code()}, tr.closedCodes())
}

func TestHub_ShutdownAbortsSessions(t *testing.T) {
	rec := &fakeRecorder{}
	h, _ := newTestHub(t, Options{Recorder: rec})
	ctx := context.Background()

	s, err := h.Create(ctx, host, engine.ModeTurfWar, 4)
	require.NoError(t, err)

	sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(sctx))

	select {
	case <-s.Done():
	default:
		t.Fatal("session still running after shutdown")
	}
	assert.Equal(t, 1, rec.count())

	_, err = h.Create(ctx, host, engine.ModeTurfWar, 4)
	assert.ErrorIs(t, err, ErrHubClosed)
}
