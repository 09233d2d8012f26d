package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hide-and-seek/internal/hub"
	"github.com/DoyleJ11/hide-and-seek/internal/ws"
)

type Deps struct {
	Hub     *hub.Hub
	Sockets *ws.Server
	History HistoryReader // nil when no database is configured
	Logger  *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/sessions", CreateSession(d.Hub, d.Logger))
	r.Get("/sessions/{code}", GetSession(d.Hub))
	r.Get("/history", ListHistory(d.History))
	r.Get("/healthz", Healthz(d.Hub))
	r.Get("/ws", ws.Handler(d.Hub, d.Sockets))
	return r
}
