// Package main implements the entry point for the Blizzard plugin host.
// The host assembles the built-in plugin set, loads each plugin through the
// registry, announces descriptors on the bus, and serves inventory queries
// until shut down.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stepherg/blizzard-plugin-sdk/config"
	"github.com/stepherg/blizzard-plugin-sdk/health"
	"github.com/stepherg/blizzard-plugin-sdk/host"
	"github.com/stepherg/blizzard-plugin-sdk/metric"
	"github.com/stepherg/blizzard-plugin-sdk/natsclient"
	"github.com/stepherg/blizzard-plugin-sdk/plugin"
	"github.com/stepherg/blizzard-plugin-sdk/pluginregistry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "blizzardd"
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

	if err := run(); err != nil {
		slog.Error("Host failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	natsClient, err := connectBus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := natsClient.Close(ctx); closeErr != nil {
			logger.Error("Bus close failed", "error", closeErr)
		}
	}()

	metricsRegistry := metric.NewMetricsRegistry()

	h, err := buildHost(cfg, natsClient, metricsRegistry, logger)
	if err != nil {
		return err
	}

	stopMetrics := serveMetrics(cfg.Host.MetricsAddr, metricsRegistry, h, natsClient, logger)
	defer stopMetrics()

	if err := h.LoadAll(ctx); err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}

	// Serve inventory queries on the registry subject.
	if err := natsClient.Subscribe(cfg.Host.RegistrySubject, func(_ string, _ []byte) []byte {
		return h.HandleListRequest()
	}); err != nil {
		return fmt.Errorf("subscribe to %s: %w", cfg.Host.RegistrySubject, err)
	}

	logger.Info("Host running",
		"host", cfg.Host.Name,
		"plugins", len(h.Inventory().Plugins),
		"registry_subject", cfg.Host.RegistrySubject)

	waitForShutdown(logger)

	return shutdown(ctx, h, logger)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting Blizzard plugin host",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// connectBus creates the NATS client and waits for the connection.
func connectBus(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithClientName(cfg.Host.Name),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait()),
		natsclient.WithConnectTimeout(cfg.NATS.ConnectTimeout()),
		natsclient.WithCircuitThreshold(cfg.NATS.CircuitThreshold),
		natsclient.WithLogger(&slogAdapter{logger: logger.With("component", "natsclient")}),
	)
	if err != nil {
		return nil, fmt.Errorf("create bus client: %w", err)
	}

	logger.Info("Connecting to bus", "url", cfg.NATS.URL)

	connCtx, cancel := context.WithTimeout(ctx, cfg.NATS.ConnectTimeout())
	defer cancel()

	if err := client.Connect(connCtx); err != nil {
		return nil, fmt.Errorf("connect to bus: %w", err)
	}

	return client, nil
}

// serveMetrics starts the observability endpoint (Prometheus metrics plus
// health) when an address is configured. The returned function stops the
// listener.
func serveMetrics(
	addr string,
	registry *metric.MetricsRegistry,
	h *host.Host,
	bus *natsclient.Client,
	logger *slog.Logger,
) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry.PrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", healthzHandler(h, bus))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics endpoint failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics endpoint shutdown failed", "error", err)
		}
	}
}

// healthzHandler reports aggregate host health: the bus connection plus one
// sub-status per loaded plugin.
func healthzHandler(h *host.Host, bus *natsclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var busStatus health.Status
		switch bus.Status() {
		case natsclient.StatusConnected:
			busStatus = health.NewHealthy("bus", "connected")
		case natsclient.StatusReconnecting:
			busStatus = health.NewDegraded("bus", "reconnecting")
		default:
			busStatus = health.NewUnhealthy("bus", bus.Status().String())
		}

		subs := []health.Status{busStatus}
		for _, info := range h.Inventory().Plugins {
			subs = append(subs, health.NewHealthy(info.Name, "registered"))
		}

		agg := health.Aggregate(appName, subs...)

		w.Header().Set("Content-Type", "application/json")
		if agg.IsUnhealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(agg); err != nil {
			slog.Error("Failed to encode health status", "error", err)
		}
	}
}

// buildHost assembles the plugin registry and host from configuration.
func buildHost(
	cfg *config.Config,
	bus *natsclient.Client,
	metricsRegistry *metric.MetricsRegistry,
	logger *slog.Logger,
) (*host.Host, error) {
	registry := plugin.NewRegistry()
	if err := pluginregistry.Register(registry); err != nil {
		return nil, fmt.Errorf("register built-in plugins: %w", err)
	}

	h, err := host.New(cfg.Host.Name, registry, bus,
		host.WithLogger(logger.With("component", "host")),
		host.WithMetrics(metricsRegistry),
		host.WithLoadPolicy(cfg.Host.LoadPolicy),
		host.WithDiscoveryPrefix(cfg.Host.DiscoveryPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("create host: %w", err)
	}

	return h, nil
}

// waitForShutdown blocks until SIGINT or SIGTERM.
func waitForShutdown(logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutdown signal received", "signal", sig.String())
}

// shutdown unloads every plugin so discovery clients see removal notices
// before the bus connection drops.
func shutdown(ctx context.Context, h *host.Host, logger *slog.Logger) error {
	for _, info := range h.Inventory().Plugins {
		if err := h.Unload(ctx, info.Name); err != nil {
			logger.Error("Plugin unload failed", "plugin", info.Name, "error", err)
		}
	}

	logger.Info("Host stopped")
	return nil
}
