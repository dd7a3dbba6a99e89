package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/billfold/billfold/pkg/api"
	"github.com/billfold/billfold/pkg/billing"
	"github.com/billfold/billfold/pkg/config"
	"github.com/billfold/billfold/pkg/customers"
	"github.com/billfold/billfold/pkg/migrations"
	"github.com/billfold/billfold/pkg/observability"
	"github.com/billfold/billfold/pkg/plans"
	"github.com/billfold/billfold/pkg/storage/postgres"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "billfold: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "Path to a YAML config file (overrides BILLFOLD_CONFIG)")
	flag.Parse()

	if *configFile != "" {
		os.Setenv("BILLFOLD_CONFIG", *configFile)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Infof("Starting billfold %s", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry tracing
	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// Database
	cm, err := postgres.NewConnectionManager(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	cm.StartHealthCheckRoutine(ctx, 30*time.Second)

	if err := migrations.RunMigrations(ctx, cm.Primary(), logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Metrics
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
		go collectDBStats(ctx, metrics, cm)
	}

	// Domain services. Reads that tolerate replication lag go to replicas.
	billingSvc := billing.NewPostgresService(cm.Primary(), cm.Replica(), metrics)
	planSvc := plans.NewPostgresService(cm.Primary())
	customerSvc := customers.NewPostgresService(cm.Replica())

	server := api.NewServer(billingSvc, planSvc, customerSvc, api.Config{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Metrics:            metrics,
		TracingEnabled:     cfg.Observability.OTelEnabled,
	})

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port so probes bypass the API chain
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(cm.Primary(), version))
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}
	go func() {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	sm := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		if providers != nil {
			return observability.ShutdownOTel(ctx, providers, logger)
		}
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		cancel()
		return cm.Close()
	})

	go func() {
		logger.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("API server failed")
		}
	}()

	return sm.WaitForShutdown()
}

func collectDBStats(ctx context.Context, metrics *observability.Metrics, cm *postgres.ConnectionManager) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.CollectDBStats(cm.Primary())
		}
	}
}
