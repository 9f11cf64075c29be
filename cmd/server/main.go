// Command auth-server starts the DinneConnect authentication HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dinneconnect/auth-service/internal/config"
	"github.com/dinneconnect/auth-service/internal/crypto"
	"github.com/dinneconnect/auth-service/internal/limiter"
	"github.com/dinneconnect/auth-service/internal/model"
	"github.com/dinneconnect/auth-service/internal/server/httpapi"
	"github.com/dinneconnect/auth-service/internal/service"
	"github.com/dinneconnect/auth-service/internal/store"
	"github.com/dinneconnect/auth-service/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, opens the record store and runs the HTTP server
// until interrupted.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("store", cfg.Store.Path),
	)
	if cfg.ExposeTestListing {
		logger.Warn("unauthenticated test listing route is enabled; do not use in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accounts, err := store.Open[model.Account](cfg.Store.Path, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}

	lim := limiter.NewMemory(cfg.Limiter.Window, cfg.Limiter.MaxFails, cfg.Limiter.BlockFor)
	dir := service.NewDirectory(accounts, crypto.Argon2{}, lim)
	tokens := token.NewService([]byte(cfg.Token.SigningKey), cfg.Token.TTL, cfg.Token.Issuer)

	api := httpapi.New(logger, cfg, tokens, dir)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
