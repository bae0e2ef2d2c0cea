// Package main is the entry point for the triangular arbitrage scanner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/triarb/business/arbitrage"
	arbitrageDI "github.com/fd1az/triarb/business/arbitrage/di"
	"github.com/fd1az/triarb/business/arbitrage/infra"
	"github.com/fd1az/triarb/business/pricing"
	"github.com/fd1az/triarb/internal/apm"
	"github.com/fd1az/triarb/internal/config"
	"github.com/fd1az/triarb/internal/health"
	"github.com/fd1az/triarb/internal/logger"
	"github.com/fd1az/triarb/internal/metrics"
	"github.com/fd1az/triarb/internal/monolith"
	"github.com/fd1az/triarb/internal/server"
	"github.com/fd1az/triarb/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const (
	modeServe = "serve"
	modeCLI   = "cli"
	modeTUI   = "tui"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	mode := flag.String("mode", modeServe, "Run mode: serve (HTTP API), cli (one scan to stdout) or tui")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("triarb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	switch *mode {
	case modeServe, modeCLI, modeTUI:
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want serve, cli or tui)\n", *mode)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if *mode != modeTUI {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, *mode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, mode string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var traceIDFn logger.TraceIDFn
	if cfg.Telemetry.Enabled {
		traceIDFn = logger.OtelTraceID
	}

	// The TUI owns the terminal, so logs are discarded there.
	out := io.Writer(os.Stderr)
	if mode == modeTUI {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, traceIDFn)
	log.Info(ctx, "starting triangular arbitrage scanner",
		"version", version,
		"environment", cfg.App.Environment,
		"mode", mode,
	)

	if cfg.Telemetry.Enabled {
		stop, err := setupTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	var opts []monolith.Option

	var srv *server.Server
	if mode == modeServe {
		srv = server.New(server.Config{
			Port:         cfg.Server.Port,
			CORSOrigins:  cfg.Server.CORSOrigins,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}, log)
		opts = append(opts, monolith.WithHTTPServer(srv))

		if cfg.Health.Enabled {
			healthServer := health.NewServer(cfg.Health.Port, version, log)
			if err := healthServer.Start(); err != nil {
				log.Warn(ctx, "failed to start health server", "error", err)
			} else {
				opts = append(opts, monolith.WithHealth(healthServer))
				defer healthServer.Stop(context.Background())
			}
		}
	}

	mono := monolith.New(cfg, log, opts...)

	// Define modules in dependency order
	modules := []monolith.Module{
		&pricing.Module{},
		&arbitrage.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	switch mode {
	case modeCLI:
		return runCLI(ctx, mono)
	case modeTUI:
		return runTUI(ctx, mono)
	default:
		return runServer(ctx, srv, log)
	}
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	tel := cfg.Telemetry

	traceProvider, err := apm.NewTraceProvider(
		apm.WithServiceName(tel.ServiceName),
		apm.WithProvider(tel.TraceProvider, apm.ExporterConfig{
			Endpoint: tel.OTLPEndpoint,
			Headers:  tel.Headers(),
		}, log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", tel.TraceProvider, "endpoint", tel.OTLPEndpoint)

	backend := metrics.ParseProvider(tel.MetricsBackend)
	providerCfg := metrics.NewPrometheusConfig()
	if backend == metrics.OtelCollector {
		providerCfg = metrics.NewOtelCollectorConfig(tel.OTLPEndpoint, tel.Headers(), false)
	}

	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(tel.ServiceName),
		metrics.WithProviderConfig(providerCfg),
	)
	if err != nil {
		_ = traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	if backend == metrics.PrometheusProvider {
		port := strconv.Itoa(tel.PrometheusPort)
		go func() {
			if err := metrics.ServePrometheusMetrics(ctx, metrics.WithPort(port)); err != nil {
				log.Error(ctx, "prometheus metrics server stopped", "error", err)
			}
		}()
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "meter provider shutdown", "error", err)
		}
		if err := traceProvider.Stop(); err != nil {
			log.Warn(shutdownCtx, "trace provider shutdown", "error", err)
		}
	}, nil
}

func runServer(ctx context.Context, srv *server.Server, log logger.LoggerInterface) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runCLI(ctx context.Context, mono monolith.Monolith) error {
	svc := arbitrageDI.GetScanService(mono.Services())

	_, err := svc.Run(ctx, infra.NewConsoleReporter())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runTUI(ctx context.Context, mono monolith.Monolith) error {
	svc := arbitrageDI.GetScanService(mono.Services())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var p *tea.Program
	scan := func() error {
		_, err := svc.Run(ctx, infra.NewTUIReporter(p))
		return err
	}

	p = tea.NewProgram(ui.New(scan), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
