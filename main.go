package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"konbiniwatch/config"
	"konbiniwatch/helpers"
	"konbiniwatch/internal/ai"
	"konbiniwatch/internal/browser"
	"konbiniwatch/internal/strategy"
	"konbiniwatch/logger"
	"konbiniwatch/services/cache"
	"konbiniwatch/services/publisher"
	"konbiniwatch/services/store"
	"konbiniwatch/services/worker"
)

func main() {
	godotenv.Load()
	logger.Init()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheSvc := cache.NewMemcacheService(cfg.MemcacheAddr)
	pub := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB,
		cfg.RedisStream, cfg.RedisStreamCount, cfg.RedisStreamMaxLength)
	defer pub.Close()

	var productStore *store.ProductStore
	if cfg.DatabaseURL != "" {
		var err error
		productStore, err = store.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to open product store: %v", err)
		}
		defer productStore.Close()
		if err := productStore.CreateTables(); err != nil {
			logger.Fatal("Failed to create tables: %v", err)
		}
	} else {
		logger.Warn("DATABASE_URL not set, records will not be persisted")
	}

	b, err := browser.New()
	if err != nil {
		logger.Fatal("Failed to launch browser: %v", err)
	}
	defer b.Close()

	chatClient := ai.NewClient(cfg.AIEndpoint, cfg.AIAPIKey, cfg.AIChatModel)
	visionClient := ai.NewClient(cfg.AIEndpoint, cfg.AIAPIKey, cfg.AIVisionModel)
	normalizer := ai.NewNormalizer(chatClient, ai.DefaultRetryPolicy(), cfg.NormalizeDelay)
	classifier := ai.NewVisionClassifier(visionClient, cacheSvc)

	deps := strategy.Deps{
		Browser:    b,
		Cache:      cacheSvc,
		Classifier: classifier,
		Normalizer: normalizer,
		Timeouts: strategy.Timeouts{
			Navigation: cfg.NavigationTimeout,
			Selector:   cfg.SelectorTimeout,
		},
		ClassifierDelay: cfg.ClassifierDelay,
	}
	registry := strategy.NewRegistry(cfg, deps)
	dispatcher := strategy.NewDispatcher(registry)

	w := worker.New(cfg, dispatcher, pub, productStore, helpers.NewFileReport(cfg.ReportFile))
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start worker: %v", err)
	}
	logger.Info("konbiniwatch started, schedule %q", cfg.CrawlSchedule)

	<-ctx.Done()
	logger.Info("Shutting down")
	w.Stop()
}
