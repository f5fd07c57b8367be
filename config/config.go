package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Crawl configuration
	StartURL   string
	MaxVideos  int
	NavTimeout time.Duration
	ItemWait   time.Duration
	RetryDelay time.Duration

	// Browser configuration
	Headless     bool
	WindowWidth  int
	WindowHeight int

	// Output configuration
	OutputPath string

	// Redis configuration (optional record stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int64

	// Memcache configuration (watch page cache)
	MemcacheAddr string
	PageCacheTTL time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	maxVideos, _ := strconv.Atoi(getEnv("MAX_VIDEOS", "100"))
	navTimeout, _ := strconv.Atoi(getEnv("NAV_TIMEOUT_SECONDS", "10"))
	itemWait, _ := strconv.Atoi(getEnv("ITEM_WAIT_MILLIS", "500"))
	retryDelay, _ := strconv.Atoi(getEnv("RETRY_DELAY_SECONDS", "2"))
	headless, _ := strconv.ParseBool(getEnv("HEADLESS", "true"))
	windowWidth, _ := strconv.Atoi(getEnv("WINDOW_WIDTH", "860"))
	windowHeight, _ := strconv.Atoi(getEnv("WINDOW_HEIGHT", "540"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLength, _ := strconv.ParseInt(getEnv("REDIS_STREAM_MAX_LENGTH", "500"), 10, 64)
	pageCacheTTL, _ := strconv.Atoi(getEnv("PAGE_CACHE_TTL_SECONDS", "120"))

	return Config{
		StartURL:             getEnv("START_URL", ""),
		MaxVideos:            maxVideos,
		NavTimeout:           time.Duration(navTimeout) * time.Second,
		ItemWait:             time.Duration(itemWait) * time.Millisecond,
		RetryDelay:           time.Duration(retryDelay) * time.Second,
		Headless:             headless,
		WindowWidth:          windowWidth,
		WindowHeight:         windowHeight,
		OutputPath:           getEnv("OUTPUT_PATH", "video_metadata.csv"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "shorts_metadata"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		PageCacheTTL:         time.Duration(pageCacheTTL) * time.Second,
		Environment:          getEnv("SHORTSWORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return fmt.Errorf("START_URL is required")
	}
	u, err := url.Parse(c.StartURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("START_URL is not a valid absolute URL: %q", c.StartURL)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH must not be empty")
	}
	if c.MaxVideos <= 0 {
		return fmt.Errorf("MAX_VIDEOS must be positive, got %d", c.MaxVideos)
	}
	if c.NavTimeout <= 0 {
		return fmt.Errorf("NAV_TIMEOUT_SECONDS must be positive")
	}
	if c.RedisStreamCount <= 0 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be positive, got %d", c.RedisStreamCount)
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
