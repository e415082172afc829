// Package main is the entry point for the cross-venue order-book aggregator.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"flag"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/quantmesh/lobagg/business/book"
	"github.com/quantmesh/lobagg/business/book/app"
	"github.com/quantmesh/lobagg/business/book/infra/feed"
	"github.com/quantmesh/lobagg/business/book/infra/grpcstream"
	"github.com/quantmesh/lobagg/internal/apm"
	"github.com/quantmesh/lobagg/internal/config"
	feedwait "github.com/quantmesh/lobagg/internal/feed"
	"github.com/quantmesh/lobagg/internal/health"
	"github.com/quantmesh/lobagg/internal/logger"
	"github.com/quantmesh/lobagg/internal/metrics"
	"github.com/quantmesh/lobagg/internal/monolith"
	"github.com/quantmesh/lobagg/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lobagg %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.ParseLevel(cfg.App.LogLevel)

	var log logger.LoggerInterface
	if tuiMode {
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting order-book aggregator",
			"version", version,
			"environment", cfg.App.Environment,
			"symbol", cfg.Book.Symbol,
		)
	}

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

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

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	engine, err := book.RegisterServices(mono.Container(), cfg.Book, log)
	if err != nil {
		return fmt.Errorf("failed to register book services: %w", err)
	}

	healthServer := health.NewServer(8081, version)
	healthServer.RegisterCheck("ingest", func(ctx context.Context) (bool, string) {
		return engine.Running(), "engine ingest/publish goroutines"
	})
	healthServer.RegisterCheck("readiness_gate", func(ctx context.Context) (bool, string) {
		return engine.ReadinessGateSatisfied(), "all expected exchanges reporting"
	})
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	if feedwait.ShouldWait() && len(cfg.Feeds) > 0 {
		hosts := feedwait.CollectHosts(cfg.Feeds, log)
		waitCtx, waitCancel := context.WithTimeout(ctx, 60*time.Second)
		err := feedwait.WaitReachable(waitCtx, hosts, dnsResolver, 2*time.Second, log)
		waitCancel()
		if err != nil {
			log.Warn(ctx, "feed hosts not reachable before deadline, continuing anyway", "error", err)
		}
	}

	engine.Start(ctx)
	defer engine.Stop()

	clients := make([]*feed.Client, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		client, err := feed.New(f.Name, f.URL, engine, log)
		if err != nil {
			log.Error(ctx, "failed to build feed client", "feed", f.Name, "error", err)
			continue
		}
		clients = append(clients, client)
		go func(c *feed.Client, name string) {
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error(ctx, "feed client stopped", "feed", name, "error", err)
			}
		}(client, f.Name)
	}

	grpcServer := grpc.NewServer()
	streamHandler := grpcstream.NewStreamHandler(engine, cfg.Book.Symbol, cfg.GRPC.AuthToken, log)
	grpcServer.RegisterService(&grpcstream.ServiceDesc, streamHandler)

	addr := fmt.Sprintf("%s:%d", cfg.GRPC.ListenAddress, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	go func() {
		log.Info(ctx, "gRPC streaming server listening", "address", addr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error(ctx, "gRPC server stopped", "error", err)
		}
	}()
	defer grpcServer.GracefulStop()

	if tuiMode {
		return runTUI(ctx, engine)
	}
	return runCLI(ctx, log)
}

// dnsResolver treats a host as reachable once it resolves via DNS. Injected
// as feedwait.Resolver so tests can substitute a fake without touching the
// network.
func dnsResolver(ctx context.Context, host string) error {
	_, err := net.DefaultResolver.LookupHost(ctx, host)
	return err
}

func runCLI(ctx context.Context, log logger.LoggerInterface) error {
	log.Info(ctx, "aggregator running, awaiting shutdown signal")
	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, engine *app.Engine) error {
	model := ui.New(engine)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ui.Program = p

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
