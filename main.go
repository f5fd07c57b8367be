package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sglee475/shortsworker/config"
	"sglee475/shortsworker/helpers"
	"sglee475/shortsworker/internal/browser"
	"sglee475/shortsworker/internal/crawler"
	"sglee475/shortsworker/logger"
	"sglee475/shortsworker/services/cache"
	"sglee475/shortsworker/services/publisher"
	"sglee475/shortsworker/services/sink"
	"sglee475/shortsworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("start_url", cfg.StartURL).
		Str("output_path", cfg.OutputPath).
		Int("max_videos", cfg.MaxVideos).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	}()

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Open the browser session; startup failure is fatal
	selectors := crawler.DefaultSelectors()
	session, err := browser.NewSession(ctx, cfg, selectors)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start browser session")
	}
	defer session.Close()

	// Create and run the worker
	w := worker.NewWorker(
		session,
		crawler.NewExtractor(selectors),
		crawler.NewStaticFetcher(services.Cache, cfg.PageCacheTTL),
		services.Sink,
		services.Publisher,
		helpers.NewLogger("skipped_items.log"),
		cfg.StartURL,
		cfg.MaxVideos,
		cfg.RetryDelay,
	)

	summary, err := w.Run(ctx)
	if err != nil {
		log.Fatal().
			Err(err).
			Int("written", summary.Written).
			Int("skipped", summary.Skipped).
			Msg("Run aborted")
	}

	log.Info().
		Int("written", summary.Written).
		Int("skipped", summary.Skipped).
		Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Sink      sink.RecordSink
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Sink != nil {
		if err := s.Sink.Close(); err != nil {
			logger.Error("Failed to close sink: %v", err)
		}
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	services := &Services{}

	// Watch page cache is optional
	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	// Record stream publishing is optional
	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	} else {
		services.Publisher = publisher.NewNopPublisher()
	}

	// The record sink is the run's source of truth; failure to open is fatal
	csvSink, err := sink.NewCSVSink(cfg.OutputPath)
	if err != nil {
		return nil, err
	}
	services.Sink = csvSink

	return services, nil
}
