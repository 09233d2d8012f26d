package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hide-and-seek/internal/config"
	"github.com/DoyleJ11/hide-and-seek/internal/history"
	"github.com/DoyleJ11/hide-and-seek/internal/httpapi"
	"github.com/DoyleJ11/hide-and-seek/internal/hub"
	"github.com/DoyleJ11/hide-and-seek/internal/logging"
	"github.com/DoyleJ11/hide-and-seek/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := hub.Options{
		Logger:     log,
		Prod:       cfg.IsProd(),
		Windows:    cfg.Windows(),
		MaxPlayers: cfg.MaxPlayers,
	}
	deps := httpapi.Deps{Logger: log}
	if cfg.DatabaseURL != "" {
		store, err := history.Open(cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Recorder = store
		deps.History = store
	} else {
		log.Info("no database configured, match history disabled")
	}

	sockets := ws.NewServer(log, cfg.Origins...)
	opts.Transport = sockets
	h := hub.NewHub(context.Background(), opts)
	deps.Hub, deps.Sockets = h, sockets

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.SetupRoutes(deps)}
	errs := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("prod", cfg.IsProd()))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	// abort sessions first so players still get their notices
	if err := h.Shutdown(shutdown); err != nil {
		log.Warn("sessions still running at shutdown", zap.Error(err))
	}
	return srv.Shutdown(shutdown)
}
