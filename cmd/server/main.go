package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edukid/backend/internal/api"
	"github.com/edukid/backend/internal/classroom"
	"github.com/edukid/backend/internal/content"
	"github.com/edukid/backend/internal/engine"
	"github.com/edukid/backend/internal/platform/cache"
	"github.com/edukid/backend/internal/platform/config"
	"github.com/edukid/backend/internal/platform/database"
	"github.com/edukid/backend/internal/platform/metrics"
	"github.com/edukid/backend/internal/progress"
	"github.com/edukid/backend/internal/session"
	"github.com/edukid/backend/internal/users"
)

func main() {
	// Local development convenience; the file is absent in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisCache, err := cache.New(ctx, cfg.Cache.URL)
	if err != nil {
		return fmt.Errorf("connecting to cache: %w", err)
	}
	defer redisCache.Close()

	// Stores.
	pgCatalog := content.NewPostgresCatalog(db)
	catalog := content.NewCachedCatalog(pgCatalog, redisCache.Client,
		time.Duration(cfg.Cache.CatalogTTLSeconds)*time.Second)
	directory := users.NewPostgresDirectory(db)
	masteryStore := progress.NewPostgresMasteryStore(db)
	classStore := classroom.NewPostgresStore(db)
	sessions := session.NewRedisStore(redisCache.Client)

	// Seed content and default accounts on an empty database.
	if err := seed(ctx, cfg, pgCatalog, directory); err != nil {
		return err
	}

	// The API layer publishes to the live teacher dashboard after the
	// engine commits each answer.
	live := api.NewLiveHub()

	practiceEngine := engine.New(engine.Config{
		Catalog: catalog,
		Mastery: masteryStore,
		Events:  progress.NewPostgresEventLog(db),
		Users:   directory,
		Tx:      db,
	})

	m := metrics.New()
	handler := api.NewHandler(api.HandlerConfig{
		Engine:        practiceEngine,
		Catalog:       catalog,
		Users:         directory,
		Mastery:       masteryStore,
		Classes:       classStore,
		Sessions:      sessions,
		Metrics:       m,
		Live:          live,
		CookieName:    cfg.Auth.CookieName,
		SecureCookies: cfg.Auth.SecureCookies,
	})

	mux := http.NewServeMux()
	handler.Routes(mux)
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(db, redisCache))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.WithMetrics(m, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// seed loads content packs and creates the default demo accounts when
// the database is empty.
func seed(ctx context.Context, cfg *config.Config, catalog content.Writer, directory users.Directory) error {
	if _, err := os.Stat(cfg.ContentPath); err != nil {
		slog.Info("no content directory, skipping seed", "path", cfg.ContentPath)
		return nil
	}
	if err := content.Seed(ctx, catalog, cfg.ContentPath); err != nil {
		return fmt.Errorf("seeding content: %w", err)
	}
	return seedAccounts(ctx, directory)
}

func seedAccounts(ctx context.Context, directory users.Directory) error {
	if _, err := directory.GetByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, users.ErrNotFound) {
		return fmt.Errorf("checking accounts: %w", err)
	}

	adminHash, err := users.HashPassword("admin")
	if err != nil {
		return err
	}
	if _, err := directory.Create(ctx, users.User{
		Username:     "admin",
		PasswordHash: adminHash,
		Role:         users.RoleTeacher,
		FirstName:    "Admin",
	}); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	year := 5
	if _, err := directory.Create(ctx, users.User{
		Username:        "student1",
		PasswordHash:    adminHash,
		PicturePassword: []string{"cat", "dog", "apple"},
		Role:            users.RoleStudent,
		FirstName:       "Alex",
		YearGroup:       &year,
	}); err != nil {
		return fmt.Errorf("creating demo student: %w", err)
	}

	slog.Info("default accounts created")
	return nil
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(db *database.DB, redisCache *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		if err := redisCache.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"cache unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
