// Command schoolguard serves the school administration security endpoints.
//
// Configuration is read from an optional YAML file (-config) and
// SCHOOLGUARD_* environment variables. With SCHOOLGUARD_REDIS_ADDR set,
// rate-limit counters and revocations are shared through Redis; with
// SCHOOLGUARD_DATABASE_URL set, identities and the audit trail live in
// Postgres. Without either, everything is process local and -demo seeds
// one identity per role.
//
// Endpoints:
//
//	POST /auth/login          JSON {"email":"...", "password":"..."}, CSRF protected
//	POST /auth/logout         revokes the presented bearer token, CSRF protected
//	GET  /auth/csrf           issues the double-submit cookie
//	GET  /api/students        students.read
//	POST /api/grades          grades.write, CSRF protected
//	POST /api/users/{id}/unlock   users.unlock, CSRF protected
//	POST /api/tokens/revoke   tokens.revoke, CSRF protected
//	GET  /api/security/report admin only
//	GET  /metrics             Prometheus exposition
//	GET  /health
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	schoolGuard "github.com/MrEthical07/schoolGuard"
	"github.com/MrEthical07/schoolGuard/config"
	promexport "github.com/MrEthical07/schoolGuard/metrics/export/prometheus"
	"github.com/MrEthical07/schoolGuard/password"
	"github.com/MrEthical07/schoolGuard/pgstore"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	demo := flag.Bool("demo", false, "seed demo identities into the in-memory store")
	flag.Parse()

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(2)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger, *demo); err != nil {
		logger.Error("schoolguard stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger, demo bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder := schoolGuard.New().
		WithConfig(cfg.Guard).
		WithLogger(logger)

	// -------- REDIS --------
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		builder = builder.WithRedis(rdb)
		logger.Info("shared counters enabled", "redis", cfg.RedisAddr)
	}

	// -------- STORAGE --------
	var memIdentities *schoolGuard.MemoryIdentityStore
	if cfg.DatabaseURL != "" {
		store, err := pgstore.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer store.Close()
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = store.Migrate(migrateCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		builder = builder.
			WithIdentityStore(store.Identities()).
			WithAuditSink(store.Audit())
		if cfg.RedisAddr == "" {
			builder = builder.WithRevocationStore(store.Revocations())
		}
	} else {
		memIdentities = schoolGuard.NewMemoryIdentityStore()
		builder = builder.
			WithIdentityStore(memIdentities).
			WithAuditSink(schoolGuard.NewJSONWriterAuditSink(os.Stderr))
		logger.Warn("no database configured; identities are process local")
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	if demo && memIdentities != nil {
		if err := seedDemo(memIdentities, cfg.Guard.Password.Argon2, logger); err != nil {
			return err
		}
	}

	for _, w := range engine.SecurityReport().Warnings {
		logger.Warn("security posture", "warning", w)
	}

	// -------- METRICS --------
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		promexport.NewCollector(engine),
	)

	mux := newMux(engine, cfg.TrustProxy)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go engine.RunMaintenance(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := engine.FlushAudit(shutdownCtx); err != nil {
		logger.Warn("audit flush incomplete", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// seedDemo adds admin, teacher and parent identities. Their passwords come
// from SCHOOLGUARD_DEMO_PASSWORD, which must satisfy the password policy.
func seedDemo(store *schoolGuard.MemoryIdentityStore, params password.Argon2Config, logger *slog.Logger) error {
	secret := os.Getenv("SCHOOLGUARD_DEMO_PASSWORD")
	if secret == "" {
		return errors.New("-demo requires SCHOOLGUARD_DEMO_PASSWORD")
	}
	hasher, err := password.NewArgon2(params)
	if err != nil {
		return err
	}
	for i, role := range []schoolGuard.Role{schoolGuard.RoleAdmin, schoolGuard.RoleTeacher, schoolGuard.RoleParent} {
		hash, err := hasher.Hash(secret)
		if err != nil {
			return fmt.Errorf("hash demo password: %w", err)
		}
		email := strings.ToLower(string(role)) + "@school.test"
		store.Put(schoolGuard.Identity{
			ID:         fmt.Sprintf("demo-%d", i+1),
			Email:      email,
			Role:       role,
			SecretHash: hash,
		})
		logger.Info("seeded demo identity", "email", email, "role", role)
	}
	return nil
}
