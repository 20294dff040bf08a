package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StoreSupabase = "supabase"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Rate limiting (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int

	// Exchange rate (Nepal Rastra Bank)
	NRBBaseURL   string
	RateCacheTTL time.Duration
	RateTimeout  time.Duration

	// Analysis
	CategoryRulesFile string // optional TOML file replacing the built-in keyword table

	// Observability
	OTLPEndpoint   string
	TracingEnabled bool

	// Storage
	StoreBackend string // sqlite or supabase
	SQLitePath   string
	SeedMockData bool

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 16),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		NRBBaseURL:   getEnv("NRB_BASE_URL", "https://www.nrb.org.np"),
		RateCacheTTL: getEnvDuration("RATE_CACHE_TTL", time.Hour),
		RateTimeout:  getEnvDuration("RATE_TIMEOUT", 8*time.Second),

		CategoryRulesFile: getEnv("CATEGORY_RULES_FILE", ""),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),

		StoreBackend: getEnv("STORE_BACKEND", StoreSQLite),
		SQLitePath:   getEnv("SQLITE_PATH", "family-finance.db"),
		SeedMockData: getEnvBool("SEED_MOCK_DATA", false),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
	}
}

// Validate reports configuration that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for the supabase store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive, got %v rps burst %d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.RateCacheTTL <= 0 {
		return fmt.Errorf("RATE_CACHE_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
