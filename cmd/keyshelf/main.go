package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/keyshelf/internal/adapter/driven/authapi"
	"github.com/ericfisherdev/keyshelf/internal/adapter/driven/memory"
	sqliteadapter "github.com/ericfisherdev/keyshelf/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/keyshelf/internal/adapter/driving/http"
	"github.com/ericfisherdev/keyshelf/internal/application"
	"github.com/ericfisherdev/keyshelf/internal/config"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env (if present), then configuration.
	if err := config.LoadEnvFile(config.EnvFilePath()); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"auth_url", cfg.AuthURL,
		"auth_timeout", cfg.AuthTimeout,
		"static_dir", cfg.StaticDir,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Choose the credential store. SQLite when it opens and migrates,
	// otherwise the in-memory store for the life of the process.
	store, storage, closeStore := openStore(ctx, cfg.DBPath)
	defer closeStore()

	// 4. Wire adapters and services.
	resolver := authapi.NewResolver(cfg.AuthURL, &http.Client{}, cfg.AuthTimeout)
	credentialSvc := application.NewCredentialService(store)
	apiHandler := httphandler.NewHandler(credentialSvc, storage, slog.Default())

	handler := httphandler.NewServeMux(apiHandler, resolver, httphandler.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		StaticDir:   cfg.StaticDir,
	}, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	slog.Info("keyshelf started",
		"listen_addr", cfg.ListenAddr,
		"storage", storage,
		"login_url", cfg.AuthLoginURL,
	)

	// 5. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openStore returns the store, its name for the health endpoint, and a close func.
func openStore(ctx context.Context, dbPath string) (driven.CredentialStore, string, func()) {
	db, err := sqliteadapter.NewDB(ctx, dbPath)
	if err != nil {
		slog.Warn("database unavailable, using in-memory store", "path", dbPath, "error", err)
		return memory.NewCredentialStore(), "memory", func() {}
	}

	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		closeDB()
		slog.Warn("migrations failed, using in-memory store", "path", dbPath, "error", err)
		return memory.NewCredentialStore(), "memory", func() {}
	}

	slog.Info("database opened", "path", db.Path(), "schema_version", version)
	return sqliteadapter.NewCredentialRepo(db), "sqlite", closeDB
}
