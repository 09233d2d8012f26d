package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/history"
	"github.com/DoyleJ11/hide-and-seek/internal/hub"
	"github.com/DoyleJ11/hide-and-seek/internal/session"
	"github.com/DoyleJ11/hide-and-seek/internal/ws"
	"github.com/DoyleJ11/hide-and-seek/pkg/types"
)

type fakeHistory struct {
	mode  engine.Mode
	limit int
	err   error
}

func (f *fakeHistory) Recent(_ context.Context, mode engine.Mode, limit int) ([]history.Match, error) {
	f.mode, f.limit = mode, limit
	if f.err != nil {
		return nil, f.err
	}
	return []history.Match{{ID: 1, Code: "4821", Mode: string(engine.ModeRanked), Outcome: "finished"}}, nil
}

func newRouter(t *testing.T, store HistoryReader) (http.Handler, *hub.Hub) {
	t.Helper()
	sockets := ws.NewServer(nil)
	h := hub.NewHub(context.Background(), hub.Options{Transport: sockets})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return SetupRoutes(Deps{Hub: h, Sockets: sockets, History: store}), h
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetSession(t *testing.T) {
	router, _ := newRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/sessions", types.CreateSessionRequest{
		HostID: "host", HostName: "Host", Mode: "ranked", Capacity: 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created types.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Len(t, created.Code, 4)
	assert.Equal(t, "ranked", created.Mode)
	assert.Equal(t, "/ws?code="+created.Code, created.Socket)

	var snap types.SessionSnapshot
	require.Eventually(t, func() bool {
		rec = do(t, router, http.MethodGet, "/sessions/"+created.Code, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		return snap.Phase == string(engine.PhaseLobby)
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, created.Code, snap.Code)
	assert.Equal(t, 5, snap.Capacity)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, types.PlayerSnapshot{ID: "host", Name: "Host", Host: true}, snap.Players[0])
	assert.Nil(t, snap.StartedAt)

	rec = do(t, router, http.MethodGet, "/sessions/0000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSession_BadInput(t *testing.T) {
	router, _ := newRouter(t, nil)

	cases := []struct {
		name string
		body any
	}{
		{"no host", types.CreateSessionRequest{Mode: "turfwar", Capacity: 4}},
		{"bad mode", types.CreateSessionRequest{HostID: "h", Mode: "splatzones", Capacity: 4}},
		{"too small", types.CreateSessionRequest{HostID: "h", Mode: "turfwar", Capacity: 1}},
		{"too big", types.CreateSessionRequest{HostID: "h", Mode: "turfwar", Capacity: 99}},
		{"not json", "nope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/sessions", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestSnapshotTimes(t *testing.T) {
	start := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	d := engine.DurationsFor(engine.ModeTurfWar, true)
	snap := snapshot(session.View{Code: "1234", Mode: engine.ModeTurfWar, State: engine.Seeking{StartedAt: start}}, d)

	assert.Equal(t, "seeking", snap.Phase)
	require.NotNil(t, snap.HideEnds)
	assert.Equal(t, start.Add(time.Minute), *snap.HideEnds)
	assert.Equal(t, start.Add(3*time.Minute), *snap.MatchEnds)
}

func TestListHistory(t *testing.T) {
	store := &fakeHistory{}
	router, _ := newRouter(t, store)

	rec := do(t, router, http.MethodGet, "/history?mode=ranked&limit=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []history.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "4821", got[0].Code)
	assert.Equal(t, engine.ModeRanked, store.mode)
	assert.Equal(t, maxLimit, store.limit)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/history?limit=-3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/history?mode=splat", nil).Code)

	store.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, do(t, router, http.MethodGet, "/history", nil).Code)
	assert.Equal(t, defaultLimit, store.limit)
}

func TestListHistory_Disabled(t *testing.T) {
	router, _ := newRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/history", nil).Code)
}

func TestHealthz(t *testing.T) {
	router, h := newRouter(t, nil)
	_, err := h.Create(context.Background(), engine.Identity{ID: "host"}, engine.ModeTurfWar, 4)
	require.NoError(t, err)

	rec := do(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Sessions)
}
