// Command scan drives the terminal from a keyboard-wedge scanner on stdin.
// Every line is a scanned code, except lines starting with ':' which are
// commands (see :help).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cartify/internal/app"
	"cartify/internal/config"
	"cartify/internal/logging"
	"cartify/internal/service/scan"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.LogEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.Named("scan")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	terminal, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init terminal", zap.Error(err))
	}

	r := &runner{
		session:  terminal.Session,
		resolver: terminal.Resolver,
		cart:     terminal.Cart,
		checkout: terminal.Checkout,
		out:      os.Stdout,
	}
	r.printf("ready, scan a code or type :help\n")
	if err := r.run(ctx, scan.NewScanner(os.Stdin)); err != nil {
		logger.Error("scanner stopped", zap.Error(err))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := terminal.Close(closeCtx); err != nil {
		logger.Warn("close terminal", zap.Error(err))
	}
}
