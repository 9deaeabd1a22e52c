package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stacklok/catalog-exporter/internal/config"
	"github.com/stacklok/catalog-exporter/internal/coordinator"
	"github.com/stacklok/catalog-exporter/internal/db"
	"github.com/stacklok/catalog-exporter/internal/export"
	"github.com/stacklok/catalog-exporter/internal/lease"
	"github.com/stacklok/catalog-exporter/internal/runner"
	"github.com/stacklok/catalog-exporter/internal/sources"
	"github.com/stacklok/catalog-exporter/internal/telemetry"
	"github.com/stacklok/catalog-exporter/internal/versions"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// ExporterAppOptions is a function that configures the exporter app builder
type ExporterAppOptions func(*exporterAppConfig) error

type exporterAppConfig struct {
	config *config.Config

	// Optional overrides, primarily for testing
	store   lease.Store
	querier sources.Querier

	address        string
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	coordinatorOpts []coordinator.Option
	registry        *prometheus.Registry
}

func baseConfig(opts ...ExporterAppOptions) (*exporterAppConfig, error) {
	cfg := &exporterAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return cfg, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ExporterAppOptions {
	return func(cfg *exporterAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the address of the daemon's HTTP server
func WithAddress(addr string) ExporterAppOptions {
	return func(cfg *exporterAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		switch host {
		case "localhost":
			host = "127.0.0.1"
		case "":
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithStore injects the export table store instead of building it from configuration
func WithStore(s lease.Store) ExporterAppOptions {
	return func(cfg *exporterAppConfig) error {
		cfg.store = s
		return nil
	}
}

// WithQuerier injects the catalog database instead of connecting to it
func WithQuerier(q sources.Querier) ExporterAppOptions {
	return func(cfg *exporterAppConfig) error {
		cfg.querier = q
		return nil
	}
}

// WithCoordinatorOptions passes options to the scheduling coordinator
func WithCoordinatorOptions(opts ...coordinator.Option) ExporterAppOptions {
	return func(cfg *exporterAppConfig) error {
		cfg.coordinatorOpts = append(cfg.coordinatorOpts, opts...)
		return nil
	}
}

// NewExporterApp connects to the configured stores and wires the exporter
func NewExporterApp(ctx context.Context, opts ...ExporterAppOptions) (*ExporterApp, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	components := &AppComponents{}
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			closeComponents(ctx, components)
		}
	}()

	b.registry = prometheus.NewRegistry()
	b.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	components.Telemetry, err = telemetry.New(ctx,
		telemetry.WithTelemetryConfig(b.config.Telemetry),
		telemetry.WithPrometheusRegisterer(b.registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if err := buildStorageComponents(ctx, b, components); err != nil {
		return nil, err
	}

	if err := buildRunComponents(b, components); err != nil {
		return nil, err
	}

	httpServer, err := buildHTTPServer(b, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false
	return &ExporterApp{
		config:     b.config,
		components: components,
		httpServer: httpServer,
	}, nil
}

// buildStorageComponents connects to PostgreSQL when needed and opens the export table store
func buildStorageComponents(ctx context.Context, b *exporterAppConfig, c *AppComponents) error {
	needsConnection := (b.store == nil && b.config.GetStorageType() == config.StorageTypeDatabase) ||
		(b.querier == nil && len(b.config.Components) > 0)
	if needsConnection {
		conn, err := db.NewConnection(ctx, b.config.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.Database = conn
		if b.querier == nil {
			b.querier = conn.Pool
		}
	}

	if b.store != nil {
		c.Store = b.store
		return nil
	}

	store, err := lease.NewStore(b.config, c.pool())
	if err != nil {
		return fmt.Errorf("failed to create export store: %w", err)
	}
	c.Store = store
	slog.Info("Export store initialized", "type", b.config.GetStorageType())
	return nil
}

// buildRunComponents builds the export components, the runner and the coordinator
func buildRunComponents(b *exporterAppConfig, c *AppComponents) error {
	components := BuildExportComponents(b.config, b.querier)

	runMetrics, err := telemetry.NewRunMetrics(c.Telemetry.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create run metrics: %w", err)
	}

	runnerOpts := []runner.Option{
		runner.WithMetrics(runMetrics),
		runner.WithTracerProvider(c.Telemetry.TracerProvider()),
	}
	if b.querier != nil {
		runnerOpts = append(runnerOpts,
			runner.WithTableReader(sources.NewTableReader(b.querier, b.config.AccountSchemas())))
	}

	c.Runner = runner.New(c.Store, b.config, components, runnerOpts...)
	c.Coordinator = coordinator.New(c.Runner, c.Store, b.config, b.coordinatorOpts...)

	slog.Info("Export components initialized",
		"components", len(components),
		"accounts", len(b.config.Accounts))
	return nil
}

// BuildExportComponents turns the component configuration into export
// components reading from q
func BuildExportComponents(cfg *config.Config, q sources.Querier) []export.Component {
	components := make([]export.Component, 0, len(cfg.Components))
	for _, cc := range cfg.Components {
		c := export.Component{
			Entity:         cc.Entity,
			MainFile:       cc.MainFile,
			IDField:        cc.IDField,
			Primary:        sources.NewQuerySource(q, cc.Query, cc.IDField),
			ScopeRelations: cc.ScopeRelations,
		}
		if cc.DeltaQuery != "" {
			c.Delta = sources.NewQuerySource(q, cc.DeltaQuery, cc.IDField)
		}

		for _, rc := range cc.Relations {
			rel := export.Relation{
				Name:          rc.Name,
				File:          rc.File,
				IDField:       rc.IDField,
				ValueColumns:  rc.ValueColumns,
				Params:        rc.Params,
				Source:        sources.NewQuerySource(q, rc.Query, rc.IDField),
				HeaderColumns: rc.HeaderColumns,
			}
			if rc.Resolve != nil {
				rel.Resolve = &export.ColumnResolver{
					Column:    rc.Resolve.Column,
					Separator: rc.Resolve.GetSeparator(),
					Resolver:  sources.NewQueryResolver(q, rc.Resolve.Query),
				}
			}
			c.Relations = append(c.Relations, rel)
		}
		components = append(components, c)
	}
	return components
}

// buildHTTPServer builds the daemon's health and metrics server
func buildHTTPServer(b *exporterAppConfig, c *AppComponents) (*http.Server, error) {
	httpMetrics, err := telemetry.NewHTTPMetrics(c.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(b.requestTimeout),
		telemetry.TracingMiddleware(c.Telemetry.TracerProvider()),
		httpMetrics.Middleware,
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.Get("/readiness", func(w http.ResponseWriter, r *http.Request) {
		if c.Database != nil {
			if err := c.Database.Ping(r.Context()); err != nil {
				slog.Warn("Readiness check failed", "error", err)
				writeText(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeText(w, http.StatusOK, "ready")
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, versions.GetVersionInfo().Version)
	})
	r.Handle("/metrics", promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{Registry: b.registry}))

	server := &http.Server{
		Addr:         b.address,
		Handler:      r,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
