package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/velden/splitgen/internal/split/common/clock"
	"github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/config"
	"github.com/velden/splitgen/internal/split/domain"
	"github.com/velden/splitgen/internal/split/gateways/emit"
	"github.com/velden/splitgen/internal/split/gateways/fetch"
	"github.com/velden/splitgen/internal/split/repos/customdns"
	"github.com/velden/splitgen/internal/split/repos/listcache"
	"github.com/velden/splitgen/internal/split/repos/overrides"
	"github.com/velden/splitgen/internal/split/services/pipeline"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "splitgen"
)

// Application holds the wired pipeline plus anything needing cleanup.
type Application struct {
	config   *config.AppConfig
	pipeline *pipeline.Pipeline
	cache    *listcache.Store // nil when caching is disabled
}

func main() {
	configPath := flag.String("config", "config/splitgen.yaml", "path to the YAML configuration file")
	dryRun := flag.Bool("dry-run", false, "render outputs without replacing any files")
	logLevel := flag.String("log-level", "", "override the configured log level (debug, info, warn, error)")
	flag.Parse()

	// Load configuration from file plus environment
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// Configure global logging
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"output_dir": cfg.OutputDir,
		"sources":    len(cfg.Sources),
		"dry_run":    *dryRun,
	}, "Starting splitgen")

	app, err := buildApplication(cfg, *dryRun)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}
	defer app.Close()

	// A generation run is bounded work, but interrupts should still cancel
	// in-flight fetches cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if _, err := app.pipeline.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Generation run failed")
	}

	log.Info(map[string]any{"elapsed": time.Since(start).String()}, "Generation run completed")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig, dryRun bool) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	sources, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}

	tieBreak, err := domain.ParseCategory(cfg.TieBreak)
	if err != nil {
		return nil, fmt.Errorf("invalid tie-break category: %w", err)
	}

	// Repository layer
	overrideRepo, err := overrides.Load(cfg.Files.CustomCN, cfg.Files.CustomForeign, logger, clk.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	log.Info(map[string]any{"entries": overrideRepo.Len()}, "Override files loaded")

	customRules, err := customdns.Load(cfg.Files.CustomDNS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom dns rules: %w", err)
	}

	var cache pipeline.ListCache = listcache.Nop{}
	var store *listcache.Store
	if cfg.Fetch.CachePath != "" {
		store, err = listcache.Open(cfg.Fetch.CachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open list cache: %w", err)
		}
		cache = store
		log.Info(map[string]any{"path": cfg.Fetch.CachePath}, "List cache opened")
	}

	// Gateway layer
	fetcher := fetch.New(fetch.Options{
		Timeout:   time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		UserAgent: cfg.Fetch.UserAgent,
		Retries:   cfg.Fetch.Retries,
	}, logger)

	domesticDNS, err := emit.ReadServers(cfg.Files.CNDNS, emit.DefaultDomesticDNS)
	if err != nil {
		return nil, fmt.Errorf("failed to read domestic dns servers: %w", err)
	}
	foreignDNS, err := emit.ReadServers(cfg.Files.ForeignDNS, emit.DefaultForeignDNS)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign dns servers: %w", err)
	}
	log.Info(map[string]any{"domestic": domesticDNS, "foreign": foreignDNS}, "Upstream DNS servers")

	emitter, err := emit.New(emit.Options{
		OutputDir: cfg.OutputDir,
		Files: emit.Filenames{
			Whitelist:        cfg.Outputs.Whitelist,
			WhitelistGrouped: cfg.Outputs.WhitelistGrouped,
			Blacklist:        cfg.Outputs.Blacklist,
			BlacklistGrouped: cfg.Outputs.BlacklistGrouped,
			CNPlain:          cfg.Outputs.CNPlain,
			ForeignPlain:     cfg.Outputs.ForeignPlain,
			QuanX:            cfg.Outputs.QuanX,
		},
		DomesticDNS:       domesticDNS,
		ForeignDNS:        foreignDNS,
		CustomDNS:         customRules,
		DomesticOverrides: overrideRepo.Patterns(domain.CategoryDomestic),
		GroupSize:         cfg.GroupSize,
		DryRun:            dryRun,
		Clock:             clk,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build emitter: %w", err)
	}

	// Service layer
	pipe, err := pipeline.New(pipeline.Options{
		Sources:   sources,
		Fetcher:   fetcher,
		Cache:     cache,
		Overrides: overrideRepo,
		Emitter:   emitter,
		Clock:     clk,
		Logger:    logger,
		TieBreak:  tieBreak,
		OnError:   cfg.Fetch.OnError,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	return &Application{config: cfg, pipeline: pipe, cache: store}, nil
}

// buildSources converts the configured source entries into domain objects.
func buildSources(cfg *config.AppConfig) ([]domain.Source, error) {
	sources := make([]domain.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		affinity, err := domain.ParseCategory(sc.Category)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", sc.Name, err)
		}
		src, err := domain.NewSource(sc.Name, sc.URL, sc.Format, affinity)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Close releases resources held by the application.
func (app *Application) Close() {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing list cache")
		}
	}
}
