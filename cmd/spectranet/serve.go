// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"spectranet/internal/apiclient"
	"spectranet/internal/cache"
	"spectranet/internal/config"
	"spectranet/internal/database"
	"spectranet/internal/handlers"
	"spectranet/internal/middleware"
	"spectranet/internal/render"
	"spectranet/internal/router"
	"spectranet/internal/session"
	"spectranet/internal/storage"
	"spectranet/internal/store"
	"spectranet/web"
)

// Sign-in and registration attempts allowed per client address.
const (
	authRateLimit  = 10
	authRatePeriod = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	valkey, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("connect valkey: %w", err)
	}
	defer valkey.Close()

	secureCookies := cfg.SecureCookies()
	sessions := session.NewStore(valkey, secureCookies)

	api := apiclient.New(cfg.APIURL, apiclient.WithTimeout(cfg.APITimeout))

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("initialize templates: %w", err)
	}

	deps := handlers.Deps{
		API:            api,
		Renderer:       renderer,
		Sessions:       sessions,
		Categories:     cache.NewCategoryCache(valkey, api, cfg.CategoryCacheTTL),
		PublicURL:      cfg.PublicURL,
		UploadLabels:   cfg.UploadLabels,
		UploadMaxBytes: cfg.UploadMaxBytes(),
	}

	if cfg.JournalEnabled() {
		db, err := openJournal(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.Journal = store.NewUploadJournal(db)
		deps.CategoryLog = store.NewCategoryLog(db)
	} else {
		slog.Warn("upload journal and category log not configured, POSTGRES_HOST is empty")
	}

	mirror, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		return fmt.Errorf("initialize s3 mirror: %w", err)
	}
	if mirror != nil {
		deps.Mirror = mirror
		slog.Info("download mirror enabled", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("download mirror not configured")
	}

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	limiter := middleware.NewRateLimiter(authRateLimit, authRatePeriod)
	defer limiter.Stop()
	if cfg.TrustProxy {
		limiter.TrustProxy()
	}

	r := router.New(router.Options{
		Sessions:      sessions,
		Limiter:       limiter,
		SecureCookies: secureCookies,
		Static:        static,
	}, router.Groups{
		Public: handlers.NewPublic(deps),
		Auth:   handlers.NewAuth(deps),
		Upload: handlers.NewUpload(deps),
		Admin:  handlers.NewAdmin(deps),
	})

	// Uploads stream whole files to the API, so reads and writes get
	// generous timeouts.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openJournal connects to PostgreSQL and applies pending migrations.
func openJournal(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}
