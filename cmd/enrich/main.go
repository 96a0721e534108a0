package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-enrich-books/config"
	"github.com/aluiziolira/go-enrich-books/enrich"
	"github.com/aluiziolira/go-enrich-books/metrics"
	"github.com/aluiziolira/go-enrich-books/pipeline"
	"github.com/aluiziolira/go-enrich-books/productapi"
	"github.com/aluiziolira/go-enrich-books/scraper"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	envRequestInterval = "ENRICH_REQUEST_INTERVAL"
	envMetricsAddr     = "ENRICH_METRICS_ADDR"
)

type cliOptions struct {
	source          string
	destination     string
	configPath      string
	selectors       string
	format          string
	maxRetries      int
	retryBackoff    time.Duration
	retryBackoffMax time.Duration
	interval        time.Duration
	timeout         time.Duration
	metricsAddr     string
	verbose         bool

	explicit map[string]bool
}

func (o *cliOptions) isSet(names ...string) bool {
	for _, name := range names {
		if o.explicit[name] {
			return true
		}
	}
	return false
}

func main() {
	defaults := config.DefaultConfig()
	opts := cliOptions{explicit: make(map[string]bool)}

	flag.StringVar(&opts.source, "s", "", "Source TSV file (shorthand)")
	flag.StringVar(&opts.source, "source", "", "Source TSV file")
	flag.StringVar(&opts.destination, "d", "", "Destination directory or TSV file (shorthand)")
	flag.StringVar(&opts.destination, "destination", "", "Destination directory or TSV file")
	flag.StringVar(&opts.configPath, "config", "", "Optional TOML configuration file")
	flag.StringVar(&opts.selectors, "selectors", defaults.SelectorProfile, "Product page selector profile")
	flag.StringVar(&opts.format, "format", defaults.OutputFormat, "Output format: tsv, json, or dual")
	flag.IntVar(&opts.maxRetries, "max-retries", defaults.MaxRetries, "Maximum page fetch retries")
	flag.DurationVar(&opts.retryBackoff, "retry-backoff", defaults.RetryBackoff, "Initial page fetch retry backoff")
	flag.DurationVar(&opts.retryBackoffMax, "retry-backoff-max", defaults.RetryBackoffMax, "Maximum page fetch retry backoff")
	flag.DurationVar(&opts.interval, "interval", defaults.RequestInterval, "Minimum gap between product API calls (env "+envRequestInterval+")")
	flag.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "HTTP request timeout")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address, e.g. :9090 (env "+envMetricsAddr+")")
	flag.BoolVar(&opts.verbose, "v", false, "Enable verbose logging")

	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		opts.explicit[f.Name] = true
	})

	logger, level := newLogger(os.Stdout, opts.verbose)
	logger = logger.With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if opts.source == "" || opts.destination == "" {
		fmt.Fprintln(os.Stderr, "both -source and -destination are required")
		flag.Usage()
		os.Exit(2)
	}

	// An interrupt stops the run between rows; the output is still closed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, &opts)
	stop()
	if err != nil {
		slog.Error("enrichment failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *cliOptions) error {
	cfg, err := buildConfig(opts)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.CheckSource(cfg.SourceFile); err != nil {
		return err
	}
	out, err := config.ResolveDestination(cfg.SourceFile, opts.destination)
	if err != nil {
		return err
	}
	cfg.OutputFile = out

	input, err := pipeline.ReadRows(cfg.SourceFile)
	if err != nil {
		return err
	}

	lock := flock.New(out + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("output %s is being written by another run", out)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("failed to release output lock", slog.Any("error", err))
		}
	}()

	m := metrics.NewMetrics()
	client, err := productapi.NewClient(cfg, m)
	if err != nil {
		return fmt.Errorf("initialising api client: %w", err)
	}
	pages, err := scraper.NewScraper(cfg, m)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}
	enricher, err := enrich.New(cfg, client, pages)
	if err != nil {
		return fmt.Errorf("initialising enricher: %w", err)
	}

	writer, err := pipeline.NewWriter(cfg.OutputFormat, out, input.HasVolume)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr, m)

	host, _ := cfg.APIHost()
	slog.Info("starting enrichment",
		slog.String("source", cfg.SourceFile),
		slog.String("output", out),
		slog.Int("rows", len(input.Rows)),
		slog.String("api_host", host),
		slog.String("selectors", cfg.SelectorProfile),
		slog.Duration("interval", cfg.RequestInterval),
	)

	result, runErr := pipeline.NewPipeline(enricher, writer, m).Run(ctx, input.Rows)
	if runErr == nil {
		if err := writer.Validate(); err != nil {
			runErr = fmt.Errorf("output validation failed: %w", err)
		}
	}
	closeErr := writer.Close()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("close writer: %w", closeErr)
	}

	result.OutputFile = out
	if result.Interrupted {
		slog.Warn("run interrupted", slog.Int("rows_written", result.RowCount), slog.Int("rows_total", len(input.Rows)))
	}
	printSummary(os.Stdout, result, m.Totals())
	return nil
}

// buildConfig layers the TOML file, the environment, and explicitly set
// flags over the defaults, in that order.
func buildConfig(opts *cliOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if value, ok, err := config.EnvDuration(envRequestInterval); err != nil {
		return nil, err
	} else if ok {
		cfg.RequestInterval = value
	}
	if value, ok := config.EnvString(envMetricsAddr); ok {
		cfg.MetricsAddr = value
	}

	if opts.isSet("selectors") {
		cfg.SelectorProfile = opts.selectors
	}
	if opts.isSet("format") {
		cfg.OutputFormat = strings.ToLower(opts.format)
	}
	if opts.isSet("max-retries") {
		cfg.MaxRetries = opts.maxRetries
	}
	if opts.isSet("retry-backoff") {
		cfg.RetryBackoff = opts.retryBackoff
	}
	if opts.isSet("retry-backoff-max") {
		cfg.RetryBackoffMax = opts.retryBackoffMax
	}
	if opts.isSet("interval") {
		cfg.RequestInterval = opts.interval
	}
	if opts.isSet("timeout") {
		cfg.Timeout = opts.timeout
	}
	if opts.isSet("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	cfg.SourceFile = opts.source
	cfg.Verbose = opts.verbose

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func startMetricsServer(addr string, m *metrics.Metrics) *http.Server {
	if addr == "" || m == nil {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func newLogger(out *os.File, verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(out) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
