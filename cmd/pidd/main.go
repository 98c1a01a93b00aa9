// Package main provides the entry point for pidd.
//
// pidd is the PID allocation daemon. It owns a single RangeAllocator and
// serves allocation requests from client processes over a Unix socket:
// - Allocates identifiers from a configured [min, max] range
// - Reclaims identifiers on release, reusing freed ones first
// - Exposes pool occupancy via a Prometheus /metrics endpoint
//
// Usage:
//
//	pidd [flags]
//
// Flags:
//
//	--config string                Path to configuration file (default: uses env vars)
//	--socket string                Unix socket to listen on (default: /var/run/pid-manager/pidd.sock)
//	--min int                      Lower bound of the PID range (default: 100)
//	--max int                      Upper bound of the PID range (default: 1000)
//	--metrics-bind-address string  Address for the metrics endpoint (default: :9090)
//	--log-level string             Log level: debug, info, warn, error (default: info)
//	--version                      Print version information and exit
//
// Environment Variables:
//
//	PIDD_CONFIG_FILE     Path to configuration file
//	PIDD_POOL_MIN        Lower bound of the PID range
//	PIDD_POOL_MAX        Upper bound of the PID range
//	PIDD_SOCKET_PATH     Unix socket to listen on
//	PIDD_LOG_LEVEL       Log level
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ilgerodias/pid-manager/pkg/allocator"
	"github.com/ilgerodias/pid-manager/pkg/config"
	"github.com/ilgerodias/pid-manager/pkg/logging"
	"github.com/ilgerodias/pid-manager/pkg/metrics"
	"github.com/ilgerodias/pid-manager/pkg/pidserver"
)

// Version information (set at build time)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Options contains command-line options for the daemon.
type Options struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// SocketPath overrides the configured Unix socket path
	SocketPath string

	// Min and Max override the configured PID range; -1 means unset
	Min int
	Max int

	// MetricsBindAddress overrides the configured metrics address
	MetricsBindAddress string

	// LogLevel overrides the configured log level
	LogLevel string

	// PrintVersion prints version information and exits
	PrintVersion bool
}

func main() {
	opts := parseFlags()

	if opts.PrintVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := loadConfiguration(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.InitGlobalLogger(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.File,
		AddCaller:  true,
		CallerSkip: 1,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	log := logging.GetGlobalLogger().WithName("pidd")
	defer log.Sync()

	log.Info("starting pidd",
		"version", version, "commit", gitCommit, "built", buildDate,
		"poolMin", cfg.Pool.Min, "poolMax", cfg.Pool.Max,
		"socket", cfg.Server.SocketPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel, log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(err, "daemon failed")
		os.Exit(1)
	}

	log.Info("pidd stopped")
}

// run builds the allocator and serves it until the context is canceled.
func run(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	pool, err := allocator.NewRangeAllocator(cfg.Pool.Min, cfg.Pool.Max)
	if err != nil {
		return fmt.Errorf("failed to construct allocator: %w", err)
	}
	if err := pool.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize allocator: %w", err)
	}

	metrics.Register()
	metrics.RecordPoolOccupancy(pool.Used(), pool.Available())

	srv := pidserver.NewServer(pidserver.Options{
		SocketPath:     cfg.Server.SocketPath,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, pidserver.NewAllocatorHandler(pool))
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start allocation service: %w", err)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = startMetricsServer(cfg.Metrics.BindAddress, log)
	}

	<-ctx.Done()

	log.Info("shutting down")
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "error shutting down metrics server")
		}
	}
	return srv.Stop(cfg.Server.ShutdownTimeout)
}

// startMetricsServer serves the Prometheus registry on addr.
func startMetricsServer(addr string, log *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		log.Info("metrics server started", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "metrics server error")
		}
	}()
	return srv
}

// parseFlags parses command-line flags and returns Options.
func parseFlags() *Options {
	opts := &Options{}

	flag.StringVar(&opts.ConfigFile, "config", "",
		"Path to configuration file (can also use PIDD_CONFIG_FILE env var)")
	flag.StringVar(&opts.SocketPath, "socket", "",
		"Unix socket to listen on (overrides config)")
	flag.IntVar(&opts.Min, "min", -1,
		"Lower bound of the PID range (overrides config)")
	flag.IntVar(&opts.Max, "max", -1,
		"Upper bound of the PID range (overrides config)")
	flag.StringVar(&opts.MetricsBindAddress, "metrics-bind-address", "",
		"Address for the metrics endpoint (overrides config)")
	flag.StringVar(&opts.LogLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")
	flag.BoolVar(&opts.PrintVersion, "version", false,
		"Print version information and exit")

	flag.Parse()

	return opts
}

// loadConfiguration loads the configuration and applies flag overrides.
func loadConfiguration(opts *Options) (*config.Config, error) {
	if opts.ConfigFile != "" {
		os.Setenv("PIDD_CONFIG_FILE", opts.ConfigFile)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.SocketPath != "" {
		cfg.Server.SocketPath = opts.SocketPath
	}
	if opts.Min >= 0 {
		cfg.Pool.Min = opts.Min
	}
	if opts.Max >= 0 {
		cfg.Pool.Max = opts.Max
	}
	if opts.MetricsBindAddress != "" {
		cfg.Metrics.BindAddress = opts.MetricsBindAddress
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	// Flag overrides can invalidate the loaded config; re-check.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupSignalHandler cancels the context on SIGINT/SIGTERM and force-exits
// on a second signal.
func setupSignalHandler(cancel context.CancelFunc, log *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", "signal", sig.String())
		cancel()

		sig = <-sigCh
		log.Info("received second signal, forcing exit", "signal", sig.String())
		os.Exit(1)
	}()
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("pidd %s (commit: %s, built: %s)\n", version, gitCommit, buildDate)
}
