// Package main is the entry point for the price resolver.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/babylon-finance/price-resolver/business/chain"
	"github.com/babylon-finance/price-resolver/business/resolver"
	resolverDI "github.com/babylon-finance/price-resolver/business/resolver/di"
	"github.com/babylon-finance/price-resolver/business/watch"
	watchApp "github.com/babylon-finance/price-resolver/business/watch/app"
	watchDI "github.com/babylon-finance/price-resolver/business/watch/di"
	"github.com/babylon-finance/price-resolver/internal/apm"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/health"
	"github.com/babylon-finance/price-resolver/internal/logger"
	"github.com/babylon-finance/price-resolver/internal/metrics"
	"github.com/babylon-finance/price-resolver/internal/monolith"
	"github.com/babylon-finance/price-resolver/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	pairArg := flag.String("pair", "", "Resolve one pair (IN-OUT) and exit")
	cliMode := flag.Bool("cli", false, "Watch in CLI mode with log output (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("price-resolver %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// One-shot resolution never uses the TUI
	tuiMode := !*cliMode && *pairArg == ""

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, *pairArg, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, pairArg string, tuiMode bool) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set TUI mode in config so modules know
	cfg.App.TUIMode = tuiMode

	// Setup logger (only log to stderr in CLI mode)
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting price resolver",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		// Set service name env var for OTEL
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		// Initialize tracing with Zipkin (local dev friendly)
		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		// Initialize metrics with Prometheus
		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		// Start Prometheus metrics server in background
		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Start health check server on port 8081
	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&chain.Module{},    // Must be first - provides head subscription
		&resolver.Module{}, // Depends on the shared eth client
		&watch.Module{},    // Depends on chain and resolver
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	// One-shot mode: resolve the pair, print, exit
	if pairArg != "" {
		if err := mono.StartModules(ctx, modules...); err != nil {
			return fmt.Errorf("failed to start modules: %w", err)
		}
		return runOnce(ctx, mono, pairArg)
	}

	if tuiMode {
		// TUI mode: Start modules in background so TUI shows immediately
		startFunc := func() error {
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			watcher := watchDI.GetWatcher(mono.Services())
			return watcher.Start(ctx)
		}
		stopFunc := func() {
			watcher := watchDI.GetWatcher(mono.Services())
			watcher.Stop()
		}
		return runTUI(ctx, cfg.Resolver.Pairs, startFunc, stopFunc)
	}

	// CLI mode: Start modules synchronously
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	watcher := watchDI.GetWatcher(mono.Services())
	return runCLI(ctx, watcher, log)
}

// runOnce resolves a single pair against the current chain state and prints
// the quote to stdout.
func runOnce(ctx context.Context, mono monolith.Monolith, pairArg string) error {
	pair, err := watchApp.ParsePair(pairArg)
	if err != nil {
		return err
	}

	svc := resolverDI.GetPriceService(mono.Services())
	quote, err := svc.GetPrice(ctx, pair.TokenIn, pair.TokenOut)
	if err != nil {
		return err
	}

	price := quote.AsPrice()
	fmt.Printf("%s-%s\t%s\tblock #%s\n",
		quote.TokenIn.Symbol(), quote.TokenOut.Symbol(), price.Rate().String(), quote.Block.String())

	// One whole unit of the input converted through the quote, in the output
	// asset's own precision.
	one, err := asset.ParseDecimal(quote.TokenIn, decimal.NewFromInt(1))
	if err != nil {
		return err
	}
	value, err := price.Convert(one)
	if err != nil {
		return err
	}
	fmt.Printf("1 %s = %s\n", quote.TokenIn.Symbol(), value.String())
	return nil
}

func runCLI(ctx context.Context, watcher *watchApp.Watcher, log *logger.Logger) error {
	log.Info(ctx, "all modules started, beginning watch loop")

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	// Wait for shutdown
	<-ctx.Done()

	log.Info(ctx, "shutting down")

	if err := watcher.Stop(); err != nil {
		log.Error(ctx, "error stopping watcher", "error", err)
	}

	return nil
}

func runTUI(ctx context.Context, pairs []string, startFunc func() error, stopFunc func()) error {
	// Channel to receive the start signal from the welcome screen
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Create and start the TUI program IMMEDIATELY (shows welcome screen)
	p := tea.NewProgram(ui.New(pairs), tea.WithAltScreen())
	ui.Program = p

	// Run resolver logic in background (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete
		select {
		case <-startSignal:
			// Welcome complete, start modules
		case <-ctx.Done():
			errCh <- nil
			return
		}

		// Start modules and watcher (connections happen here, TUI shows progress)
		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		// Wait for context cancellation
		<-ctx.Done()

		stopFunc()
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// Check for background errors
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
