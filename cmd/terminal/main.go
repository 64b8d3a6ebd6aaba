package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cartify/internal/app"
	"cartify/internal/config"
	"cartify/internal/httpserver"
	"cartify/internal/logging"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.Named("terminal")

	ctx := context.Background()
	terminal, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init terminal", zap.Error(err))
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger.Named("http"), terminal.HTTPDeps(), cfg.CORSOrigins)
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	if err := terminal.Close(ctx); err != nil {
		logger.Warn("close terminal", zap.Error(err))
	} else {
		logger.Info("terminal stopped")
	}
}
