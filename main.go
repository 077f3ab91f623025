package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/dealmonitor/config"
	"sjsage522/dealmonitor/helpers"
	"sjsage522/dealmonitor/internal/crawler"
	"sjsage522/dealmonitor/logger"
	"sjsage522/dealmonitor/services/cache"
	"sjsage522/dealmonitor/services/publisher"
	"sjsage522/dealmonitor/services/store"
	"sjsage522/dealmonitor/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Load and validate configuration
	cfg := config.LoadConfig()

	// Initialize logger
	logger.Init(cfg.LogDir, cfg.LogLevel)
	log := logger.Default

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Strs("search_terms", cfg.SearchTerms).
		Dur("check_interval", cfg.CheckInterval).
		Str("db_path", cfg.DBPath).
		Str("environment", cfg.Environment).
		Msg("Deal monitor starting")

	helpers.SetTimeout(cfg.HTTPTimeout)

	// Initialize storage; a schema failure here makes every later storage
	// call pointless, so stop before fetching anything
	if err := store.Init(cfg.DBPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	seen, err := store.LoadSeenIDs(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load seen IDs, starting with an empty set")
		seen = make(map[string]struct{})
	}
	log.Info().Int("seen_count", len(seen)).Msg("Loaded stored deal identities")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Optional services
	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Rate-limit block cache enabled")
	}

	var pub publisher.Publisher
	if cfg.RedisAddr != "" {
		redisPub := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		defer redisPub.Close()
		pub = redisPub
		log.Info().Str("addr", cfg.RedisAddr).Str("stream", cfg.RedisStream).Msg("New-deal stream enabled")
	}

	// Create the crawler and worker
	searchCrawler := crawler.NewSearchCrawler(cfg, cacheSvc)
	w := worker.NewWorker(ctx, cfg, searchCrawler, pub, seen)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting poll loop")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Deal monitor stopped")
}
