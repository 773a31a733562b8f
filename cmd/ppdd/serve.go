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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/api"
	"github.com/pokepocketdata/ppdd/internal/auth"
	"github.com/pokepocketdata/ppdd/internal/cache"
	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/metrics"
	"github.com/pokepocketdata/ppdd/internal/services"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.GoogleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google sign-in will fail")
	}
	if cfg.AdminKey == "" {
		logger.Warn("ADMIN_KEY not set, catalog writes only require a signed-in user")
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}()
	store := database.NewStore(db)

	stats, closeCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.StatsCacheTTL, logger.Named("cache"))
	defer func() { _ = closeCache() }()

	scheduler, err := metrics.StartScheduler(store, cfg.MetricsInterval, logger.Named("metrics"))
	if err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Warn("Failed to stop metrics scheduler", zap.Error(err))
		}
	}()

	authService := services.NewAuthService(
		store,
		auth.NewGoogleVerifier(cfg.GoogleClientID),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
		logger,
	)

	router := api.NewRouter(api.Dependencies{
		Config: cfg,
		Store:  store,
		Auth:   authService,
		Stats:  stats,
		Log:    logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
