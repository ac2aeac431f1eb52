package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerly-backend/internal/bootstrap"
	"ledgerly-backend/internal/shared/config"
	"ledgerly-backend/internal/shared/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("api listening on %s env=%s store=%s queue=%s", addr, cfg.Env, cfg.ObjectStoreType, cfg.QueueMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	case <-ctx.Done():
	}

	log.Printf("shutdown requested, draining for up to %s", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}
