// Command keymonitor is the long-lived daemon: it runs the adaptive quota
// monitor loop and serves the localhost-only admin surface (health +
// Prometheus metrics) until it receives SIGINT/SIGTERM, at which point it
// finishes the in-flight tick and exits.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftforge/keyrotate/internal/adminsrv"
	"github.com/driftforge/keyrotate/internal/engine"
	"github.com/driftforge/keyrotate/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("keymonitor: load config: %v", err)
	}

	e, err := engine.New(cfg, nil)
	if err != nil {
		log.Fatalf("keymonitor: build engine: %v", err)
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		if err := e.Monitor.Run(ctx); err != nil {
			e.Log.WithField("error", err.Error()).Error("monitor loop exited")
		}
	}()

	router := adminsrv.NewRouter(e.Status)
	server := &http.Server{
		Addr:              cfg.Daemon.AdminListenAddr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		e.Log.WithField("addr", cfg.Daemon.AdminListenAddr).Info("admin surface listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.Log.WithField("error", err.Error()).Error("admin server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	e.Log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownGrace)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		e.Log.WithField("error", err.Error()).Warn("admin server shutdown error")
	}
	<-monitorDone
	e.Log.Info("stopped")
}
