package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Postgres configuration
	DatabaseURL string

	// AI collaborator configuration
	AIEndpoint    string
	AIAPIKey      string
	AIChatModel   string
	AIVisionModel string

	// Scheduling and pacing
	CrawlSchedule   string
	BrandDelay      time.Duration
	ClassifierDelay time.Duration
	NormalizeDelay  time.Duration

	// Browser timeouts
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration

	// Entry page URLs per brand
	SevenURL      string
	FamilyMartURL string
	LawsonURL     string
	MinistopURL   string
	YamazakiURL   string

	// Report file for per-brand run results
	ReportFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	brandDelay, _ := strconv.Atoi(getEnv("BRAND_DELAY_MS", "2000"))
	classifierDelay, _ := strconv.Atoi(getEnv("CLASSIFIER_DELAY_MS", "500"))
	normalizeDelay, _ := strconv.Atoi(getEnv("NORMALIZE_DELAY_MS", "700"))
	navTimeout, _ := strconv.Atoi(getEnv("NAVIGATION_TIMEOUT_SECONDS", "30"))
	selTimeout, _ := strconv.Atoi(getEnv("SELECTOR_TIMEOUT_SECONDS", "10"))

	return &Config{
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "newproducts"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		AIEndpoint:           getEnv("AI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		AIAPIKey:             getEnv("AI_API_KEY", ""),
		AIChatModel:          getEnv("AI_CHAT_MODEL", "gpt-4o-mini"),
		AIVisionModel:        getEnv("AI_VISION_MODEL", "gpt-4o-mini"),
		CrawlSchedule:        getEnv("CRAWL_SCHEDULE", "0 6 * * *"),
		BrandDelay:           time.Duration(brandDelay) * time.Millisecond,
		ClassifierDelay:      time.Duration(classifierDelay) * time.Millisecond,
		NormalizeDelay:       time.Duration(normalizeDelay) * time.Millisecond,
		NavigationTimeout:    time.Duration(navTimeout) * time.Second,
		SelectorTimeout:      time.Duration(selTimeout) * time.Second,
		SevenURL:             getEnv("SEVEN_URL", "https://www.sej.co.jp/products/a/thisweek/"),
		FamilyMartURL:        getEnv("FAMILYMART_URL", "https://www.family.co.jp/goods/newgoods.html"),
		LawsonURL:            getEnv("LAWSON_URL", "https://www.lawson.co.jp/recommend/new/"),
		MinistopURL:          getEnv("MINISTOP_URL", "https://www.ministop.co.jp/syohin/"),
		YamazakiURL:          getEnv("YAMAZAKI_URL", "https://www.daily-yamazaki.jp/new/"),
		ReportFile:           getEnv("REPORT_FILE", "crawl_report.log"),
		Environment:          getEnv("KONBINIWATCH_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.CrawlSchedule == "" {
		return fmt.Errorf("CRAWL_SCHEDULE must not be empty")
	}
	if c.RedisStreamCount < 1 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be at least 1")
	}
	if c.NavigationTimeout <= 0 || c.SelectorTimeout <= 0 {
		return fmt.Errorf("navigation and selector timeouts must be positive")
	}
	if c.AIAPIKey == "" && c.Environment == "production" {
		return fmt.Errorf("AI_API_KEY is required in production")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
