// Command hireauth-server runs the job-platform API: registration, login,
// password reset and the tenant-scoped resource routes.
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

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/MrEthical07/hireAuth/httpapi"
	"github.com/MrEthical07/hireAuth/internal/config"
	"github.com/MrEthical07/hireAuth/internal/logging"
	"github.com/MrEthical07/hireAuth/mail"
	promexport "github.com/MrEthical07/hireAuth/metrics/export/prometheus"
	"github.com/MrEthical07/hireAuth/store/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hireauth-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	if cfg.GeneratedSecret {
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(cfg.Redis())
	defer rdb.Close()

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, store.DB()); err != nil {
			return err
		}
		logger.Info("database migrated")
	}

	mailer, err := mail.NewSMTPMailer(cfg.Mail(), logger)
	if err != nil {
		return err
	}

	engine, err := hireAuth.New().
		WithConfig(cfg.Engine()).
		WithRedis(rdb).
		WithAccountStore(store).
		WithMailer(mailer).
		WithLogger(logger).
		WithAuditSink(hireAuth.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := engine.Close(flushCtx); err != nil {
			logger.Warn("audit flush incomplete", "error", err, "dropped", engine.AuditDropped())
		}
	}()

	httpCfg := cfg.HTTP()
	httpCfg.Logger = logger
	httpCfg.Registry = prometheus.NewRegistry()
	httpCfg.Collectors = []prometheus.Collector{
		promexport.NewCollector(engine),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	api := httpapi.New(engine, store, httpCfg, httpapi.Probe{Name: "postgres", Check: store.Ping})
	defer api.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
