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
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/product-page-scraper/internal/browser"
	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/maltedev/product-page-scraper/internal/database"
	"github.com/maltedev/product-page-scraper/internal/events"
	"github.com/maltedev/product-page-scraper/internal/extract"
	"github.com/maltedev/product-page-scraper/internal/input"
	"github.com/maltedev/product-page-scraper/internal/logger"
	"github.com/maltedev/product-page-scraper/internal/metrics"
	"github.com/maltedev/product-page-scraper/internal/pacing"
	"github.com/maltedev/product-page-scraper/internal/runner"
	"github.com/maltedev/product-page-scraper/internal/storage"
	"github.com/redis/go-redis/v9"
)

const exitInterrupted = 130

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "Path to a YAML config file")
		urlsFile   = flag.String("urls", "", "File containing product URLs (one per line, # for comments)")
		outputDir  = flag.String("output", "", "Directory for the results CSV (overrides output.dir)")
		imagesDir  = flag.String("images", "", "Directory for product images (overrides images.dir)")
		headless   = flag.Bool("headless", true, "Run browser in headless mode")
		snapshot   = flag.Bool("snapshot", false, "Extract from a parsed copy of each page instead of the live page")
		noImages   = flag.Bool("no-images", false, "Skip image downloads")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [url ...]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Each positional argument is one product URL. Without -urls or arguments the built-in list is used.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	applyFlags(cfg, *outputDir, *imagesDir, *headless, *snapshot, *noImages)

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	urls, err := input.Load(*urlsFile, flag.Args())
	if err != nil {
		log.Error("Failed to load URLs", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutdown signal received")
		cancel()
	}()

	runID := uuid.New().String()
	log = log.With("run_id", runID)
	log.Info("Starting product page scraper", "urls", len(urls), "extract_mode", cfg.Scraper.ExtractMode)

	session, err := browser.New(browserOptions(cfg), log)
	if err != nil {
		log.Error("Failed to initialize browser", "error", err)
		return 1
	}
	if err := session.Open(); err != nil {
		log.Error("Failed to open browser context", "error", err)
		session.Close()
		return 1
	}

	sink, err := storage.NewCSVSink(cfg.Output.Dir, cfg.Output.Prefix, cfg.Output.Header, time.Now())
	if err != nil {
		log.Error("Failed to create results file", "error", err)
		session.Close()
		return 1
	}

	var images runner.ImageSaver
	if cfg.Images.Enabled {
		client := &http.Client{Timeout: cfg.Images.Timeout}
		images = storage.NewImageStore(cfg.Images.Dir, cfg.Images.Ext, client, session.UserAgent())
	}

	extractor := extract.NewExtractor(extract.DefaultRules(), cfg.Scraper.DescriptionLimit, log)
	pacer := pacing.NewRandomPacer(cfg.Scraper.DelayMin, cfg.Scraper.DelayMax)

	r := runner.New(session, extractor, sink, images, pacer, runner.Options{
		RunID:       runID,
		RotateEvery: cfg.Scraper.RotateEvery,
	}, runner.NewReporter(os.Stdout), log)

	r.AddObserver(metrics.New(cfg.Metrics.Textfile))

	closeObservers, err := attachObservers(ctx, r, cfg, runID, log)
	if err != nil {
		log.Error("Failed to set up result mirrors", "error", err)
		session.Close()
		return 1
	}
	defer closeObservers()

	state, err := r.Run(ctx, urls)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		log.Warn("Scraping interrupted", "processed", state.Processed, "total", state.Total)
		return exitInterrupted
	default:
		log.Error("Scraping failed", "error", err, "processed", state.Processed, "total", state.Total)
		return 1
	}
}

func applyFlags(cfg *config.Config, outputDir, imagesDir string, headless, snapshot, noImages bool) {
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if imagesDir != "" {
		cfg.Images.Dir = imagesDir
	}
	cfg.Browser.Headless = headless && cfg.Browser.Headless
	if snapshot {
		cfg.Scraper.ExtractMode = config.ExtractModeSnapshot
	}
	if noImages {
		cfg.Images.Enabled = false
	}
}

func browserOptions(cfg *config.Config) *browser.Options {
	return &browser.Options{
		Headless:          cfg.Browser.Headless,
		LaunchTimeout:     cfg.Browser.LaunchTimeout,
		NavigationTimeout: cfg.Scraper.NavigationTimeout,
		UserAgents:        cfg.Browser.UserAgents,
		AcceptLanguages:   cfg.Browser.AcceptLanguages,
		ViewportWidth:     cfg.Browser.ViewportWidth,
		ViewportHeight:    cfg.Browser.ViewportHeight,
		Snapshot:          cfg.Scraper.ExtractMode == config.ExtractModeSnapshot,
	}
}

// attachObservers wires the optional Postgres and Redis mirrors. The
// returned func releases their connections.
func attachObservers(ctx context.Context, r *runner.Runner, cfg *config.Config, runID string, log *slog.Logger) (func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, database.Config{URL: cfg.Database.URL})
		if err != nil {
			return closeAll, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, db.Close)

		repo := database.NewResultRepository(db, cfg.Database.Table, log)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return func() {}, err
		}
		r.AddObserver(repo)
		log.Info("Mirroring results to Postgres", "table", cfg.Database.Table)
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			closeAll()
			return func() {}, fmt.Errorf("failed to connect to Redis: %w", err)
		}

		publisher := events.NewPublisher(redisClient, cfg.Redis.Stream, runID, log)
		closers = append(closers, func() {
			if err := publisher.Close(); err != nil {
				log.Warn("Failed to close Redis client", "error", err)
			}
		})
		r.AddObserver(publisher)
		log.Info("Publishing results to Redis stream", "stream", cfg.Redis.Stream)
	}

	return closeAll, nil
}
