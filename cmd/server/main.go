package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mfgtrack/internal/api"
	"mfgtrack/internal/config"
	"mfgtrack/internal/dsl"
	"mfgtrack/internal/kv"
	"mfgtrack/internal/logger"
	"mfgtrack/internal/metrics"
	"mfgtrack/internal/reference"
	"mfgtrack/internal/seed"
	"mfgtrack/internal/store"
	"mfgtrack/internal/tracing"
	"mfgtrack/internal/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		logger.LogError(log, "main", "main", "run", nil, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	// 1. Трейсы; без endpoint остаётся no-op провайдер
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// 2. Хранилище
	backend, err := kv.Open(ctx, kv.Options{
		Driver:      cfg.Storage.Driver,
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresURL: cfg.Storage.PostgresURL,
		RedisAddr:   cfg.Storage.RedisAddr,
		RedisDB:     cfg.Storage.RedisDB,
		Log:         log,
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	st := store.New(backend)
	defer st.Close()
	log.WithField("driver", cfg.Storage.Driver).Info("storage opened")

	// 3. Схемы форм и справочники
	forms, err := dsl.Default()
	if err != nil {
		return fmt.Errorf("forms: %w", err)
	}
	enums, err := reference.Default()
	if err != nil {
		return fmt.Errorf("enums: %w", err)
	}
	log.WithField("forms", len(forms.Forms())).WithField("enums", len(enums)).Info("catalog loaded")

	// 4. Демо-данные в пустые коллекции
	if cfg.Seed {
		sets, err := seed.Default(st.Now().UTC().Format("2006-01-02"))
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		n, err := seed.Apply(ctx, st, sets, log)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.WithField("records", n).Info("seed applied")
	}

	// 5. Координатор и HTTP
	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if cfg.Metrics {
		m = metrics.New()
		reg = prometheus.NewRegistry()
		if err := m.Register(reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	coord := workflow.New(st, forms, enums, workflow.WithLogger(log), workflow.WithMetrics(m))
	srv := api.NewServer(coord, api.WithLogger(log), api.WithMetrics(m))
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	rc := api.RouterConfig{CORSOrigins: cfg.CORSOrigins}
	if reg != nil {
		rc.Gatherer = reg
	}
	log.WithField("port", cfg.Port).Info("starting mfgtrack server")
	return api.RunServer(ctx, ":"+cfg.Port, api.NewRouter(srv, rc))
}
