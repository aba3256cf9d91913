// Package main provides the semgate binary entry point.
// Semgate exposes externally described resources as virtual HTTP
// resources whose representation is a materialized RDF graph.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/semgate/config"
	"github.com/c360studio/semgate/describe"
	"github.com/c360studio/semgate/ecosystem"
	"github.com/c360studio/semgate/gateway"
	"github.com/c360studio/semgate/registry"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semgate"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "semgate",
		Short: "Semantic Web-of-Things gateway",
		Long: `Semgate serves externally described resources as virtual HTTP
resources. Each resource's representation is an RDF graph synthesized
on demand from upstream HTTP calls, declarative mapping rules, and a
type/property registry, merged with statically declared triples.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, logLevel)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func run(configPath, logLevel string) error {
	// Configure logging
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Registry collaborator
	reg, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	// Ecosystem definition
	eco, err := ecosystem.Load(cfg.Ecosystem.Path)
	if err != nil {
		return fmt.Errorf("load ecosystem: %w", err)
	}
	logger.Info("Ecosystem loaded",
		"path", cfg.Ecosystem.Path,
		"resources", len(eco.Descriptions()))

	// NATS (optional)
	var natsClient *natsclient.Client
	if cfg.NATS.URL != "" {
		natsClient, err = connectToNATS(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer natsClient.Close(ctx)
	} else {
		logger.Info("NATS publishing disabled (no URL configured)")
	}

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := gateway.NewMetrics(promRegistry)

	app := &app{
		cfg:     cfg,
		reg:     reg,
		nats:    natsClient,
		metrics: metrics,
		logger:  logger,
	}
	gw, err := app.buildGateway(ctx, eco)
	if err != nil {
		return fmt.Errorf("build gateway: %w", err)
	}
	app.swap(gw)

	// Ecosystem watcher (optional)
	if cfg.Ecosystem.Watch {
		watcher, err := ecosystem.NewWatcher(ecosystem.WatcherConfig{
			Path:          cfg.Ecosystem.Path,
			DebounceDelay: cfg.Ecosystem.DebounceDelay,
			Logger:        logger,
		})
		if err != nil {
			return fmt.Errorf("create ecosystem watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start ecosystem watcher: %w", err)
		}
		defer watcher.Stop()
		go app.consumeReloads(ctx, watcher.Reloads())
	}

	// HTTP server
	root := http.NewServeMux()
	root.Handle("/", app)
	root.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	root.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Semgate ready",
			"version", Version,
			"addr", addr,
			"base_url", cfg.EffectiveBaseURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	if gw := app.current.Load(); gw != nil {
		gw.Shutdown()
	}
	return nil
}

// app holds the swappable serving state: an ecosystem reload replaces
// the gateway and its mux atomically, in-flight requests finish on the
// one they started with.
type app struct {
	cfg     *config.Config
	reg     registry.TypeRegistry
	nats    *natsclient.Client
	metrics *gateway.Metrics
	logger  *slog.Logger

	current atomic.Pointer[gateway.Gateway]
	mux     atomic.Pointer[http.ServeMux]
}

func (a *app) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.Load().ServeHTTP(w, r)
}

func (a *app) buildGateway(ctx context.Context, eco *ecosystem.Ecosystem) (*gateway.Gateway, error) {
	client := &http.Client{Timeout: a.cfg.Upstream.Timeout}
	proxy, err := describe.New(ctx, describe.Config{
		BaseURL:   a.cfg.EffectiveBaseURL(),
		Ecosystem: eco,
		Registry:  a.reg,
		Client:    client,
		Logger:    a.logger,
	})
	if err != nil {
		return nil, err
	}
	return gateway.New(gateway.Config{
		Proxy:              proxy,
		CollectorCacheSize: a.cfg.Cache.CollectorSize,
		NATS:               a.nats,
		Metrics:            a.metrics,
		Logger:             a.logger,
	})
}

// swap installs a gateway on a fresh mux and makes it live.
func (a *app) swap(gw *gateway.Gateway) {
	mux := http.NewServeMux()
	prefix := strings.TrimRight(a.cfg.Server.Path, "/") + "/"
	gw.RegisterHTTPHandlers(prefix, mux)
	old := a.current.Swap(gw)
	a.mux.Store(mux)
	if old != nil {
		old.Shutdown()
	}
}

func (a *app) consumeReloads(ctx context.Context, reloads <-chan *ecosystem.Ecosystem) {
	for {
		select {
		case <-ctx.Done():
			return
		case eco, ok := <-reloads:
			if !ok {
				return
			}
			gw, err := a.buildGateway(ctx, eco)
			if err != nil {
				a.logger.Error("rebuild after ecosystem reload failed", "error", err)
				continue
			}
			a.swap(gw)
			a.logger.Info("Gateway rebuilt from reloaded ecosystem")
		}
	}
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		override, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg.Merge(override)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func buildRegistry(cfg *config.Config) (registry.TypeRegistry, error) {
	if cfg.Registry.StaticFile != "" {
		return registry.LoadStatic(cfg.Registry.StaticFile)
	}
	return registry.NewHTTPClient(cfg.Registry.Endpoint, nil), nil
}

func connectToNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	logger.Info("Connecting to NATS", "url", cfg.NATS.URL)

	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	return client, nil
}
