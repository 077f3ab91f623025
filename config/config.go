package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Monitoring configuration
	SearchTerms   []string
	CheckInterval time.Duration

	// Storage configuration
	DBPath string

	// Logging configuration
	LogDir   string
	LogLevel string

	// Fetch configuration
	BaseSearchURL  string
	SafetyPageCap  int
	UserAgent      string
	Referer        string
	AcceptLanguage string
	HTTPTimeout    time.Duration

	// Politeness delays between requests
	PageDelayMin time.Duration
	PageDelayMax time.Duration
	TermDelayMin time.Duration
	TermDelayMax time.Duration

	// Optional rate-limit block cache (memcache)
	MemcacheAddr string
	BlockTime    time.Duration

	// Optional new-deal stream (redis)
	RedisAddr   string
	RedisDB     int
	RedisStream string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	checkInterval, _ := strconv.Atoi(getEnv("CHECK_INTERVAL_SECONDS", "600"))
	safetyPageCap, _ := strconv.Atoi(getEnv("SAFETY_BREAK_PAGE", "50"))
	httpTimeout, _ := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "20"))
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "300"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		SearchTerms:   splitTerms(getEnv("SEARCH_TERMS", "充电宝,固态硬盘")),
		CheckInterval: time.Duration(checkInterval) * time.Second,

		DBPath: getEnv("DB_PATH", "database/smzdm_deals.db"),

		LogDir:   getEnv("LOG_DIR", "logs"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		BaseSearchURL:  getEnv("BASE_SEARCH_URL", "https://search.smzdm.com/"),
		SafetyPageCap:  safetyPageCap,
		UserAgent:      getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
		Referer:        getEnv("REFERER", "https://www.smzdm.com/"),
		AcceptLanguage: getEnv("ACCEPT_LANGUAGE", "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7"),
		HTTPTimeout:    time.Duration(httpTimeout) * time.Second,

		PageDelayMin: getDurationMs("PAGE_DELAY_MIN_MS", 1000),
		PageDelayMax: getDurationMs("PAGE_DELAY_MAX_MS", 3000),
		TermDelayMin: getDurationMs("TERM_DELAY_MIN_MS", 2000),
		TermDelayMax: getDurationMs("TERM_DELAY_MAX_MS", 5000),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),
		BlockTime:    time.Duration(blockTime) * time.Second,

		RedisAddr:   getEnv("REDIS_ADDR", ""),
		RedisDB:     redisDB,
		RedisStream: getEnv("REDIS_STREAM", "newdeals"),

		Environment: getEnv("DEALMONITOR_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if len(c.SearchTerms) == 0 {
		return fmt.Errorf("SEARCH_TERMS must contain at least one term")
	}
	if c.BaseSearchURL == "" {
		return fmt.Errorf("BASE_SEARCH_URL must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.SafetyPageCap < 1 {
		return fmt.Errorf("SAFETY_BREAK_PAGE must be at least 1, got %d", c.SafetyPageCap)
	}
	if c.CheckInterval < time.Second {
		return fmt.Errorf("CHECK_INTERVAL_SECONDS too small: %s", c.CheckInterval)
	}
	if c.PageDelayMax < c.PageDelayMin {
		return fmt.Errorf("PAGE_DELAY_MAX_MS must be >= PAGE_DELAY_MIN_MS")
	}
	if c.TermDelayMax < c.TermDelayMin {
		return fmt.Errorf("TERM_DELAY_MAX_MS must be >= TERM_DELAY_MIN_MS")
	}
	return nil
}

// splitTerms splits a comma-separated term list, dropping empty entries
func splitTerms(raw string) []string {
	var terms []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDurationMs reads a millisecond-valued environment variable
func getDurationMs(key string, defaultMs int) time.Duration {
	ms, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultMs)))
	if err != nil || ms < 0 {
		ms = defaultMs
	}
	return time.Duration(ms) * time.Millisecond
}
