package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/history"
	"github.com/DoyleJ11/hide-and-seek/internal/hub"
	"github.com/DoyleJ11/hide-and-seek/internal/session"
	"github.com/DoyleJ11/hide-and-seek/pkg/types"
)

const (
	requestTimeout = 5 * time.Second
	defaultLimit   = 20
	maxLimit       = 100
)

// HistoryReader lists recorded matches.
type HistoryReader interface {
	Recent(ctx context.Context, mode engine.Mode, limit int) ([]history.Match, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps session creation failures to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidMode), errors.Is(err, engine.ErrInvalidCapacity):
		return http.StatusBadRequest
	case errors.Is(err, hub.ErrNoCodes), errors.Is(err, hub.ErrHubClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrUnreachable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func CreateSession(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if req.HostID == "" {
			writeError(w, http.StatusBadRequest, "host_id is required")
			return
		}
		if req.HostName == "" {
			req.HostName = req.HostID
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		host := engine.Identity{ID: req.HostID, Name: req.HostName}
		s, err := h.Create(ctx, host, engine.Mode(req.Mode), req.Capacity)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				log.Error("create session", zap.String("host", req.HostID), zap.Error(err))
			}
			writeError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, types.CreateSessionResponse{
			Code:     s.Code(),
			Mode:     string(s.Mode()),
			Capacity: req.Capacity,
			Socket:   "/ws?code=" + s.Code(),
		})
	}
}

func GetSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		s := h.Get(ctx, chi.URLParam(r, "code"))
		if s == nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		v, err := s.Snapshot(ctx)
		switch {
		case errors.Is(err, session.ErrSessionClosed):
			writeError(w, http.StatusNotFound, "session not found")
			return
		case err != nil:
			writeError(w, http.StatusGatewayTimeout, "session busy")
			return
		}
		writeJSON(w, http.StatusOK, snapshot(v, s.Durations()))
	}
}

func snapshot(v session.View, d engine.Durations) types.SessionSnapshot {
	out := types.SessionSnapshot{
		Code:      v.Code,
		Mode:      string(v.Mode),
		EnteredAt: v.EnteredAt,
		Capacity:  v.Capacity,
		Players:   make([]types.PlayerSnapshot, len(v.Players)),
		Replayed:  v.Replayed,
		Rounds:    v.Rounds,
	}
	if v.State != nil {
		out.Phase = string(v.State.Phase())
	}
	for i, p := range v.Players {
		out.Players[i] = types.PlayerSnapshot{ID: p.Identity.ID, Name: p.Identity.Name, Host: p.Host, Role: string(p.Role)}
	}

	var started time.Time
	switch s := v.State.(type) {
	case engine.Hiding:
		started = s.StartedAt
	case engine.Seeking:
		started = s.StartedAt
	case engine.Replay:
		started = s.StartedAt
	default:
		return out
	}
	hide, end := d.HideEnds(started), d.MatchEnds(started)
	out.StartedAt, out.HideEnds, out.MatchEnds = &started, &hide, &end
	return out
}

func ListHistory(store HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeError(w, http.StatusNotFound, "history is disabled")
			return
		}
		q := r.URL.Query()
		var mode engine.Mode
		if m := q.Get("mode"); m != "" {
			parsed, err := engine.ParseMode(m)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			mode = parsed
		}
		limit := defaultLimit
		if l := q.Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive number")
				return
			}
			limit = min(n, maxLimit)
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		matches, err := store.Recent(ctx, mode, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
		if matches == nil {
			matches = []history.Match{}
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func Healthz(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.Count(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": n})
	}
}
