package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Analysis    AnalysisConfig
	Providers   ProvidersConfig
	Storage     StorageConfig
	RateLimit   RateLimitConfig
	Events      EventsConfig
	Tracing     TracingConfig
	Sentry      SentryConfig
	Sweeper     SweeperConfig
	ThreatIntel ThreatIntelConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	Version        string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int    // per-request handler timeout in seconds
	CORSOrigins    string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int
	MinConns       int
	MigrationsAuto bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AnalysisConfig tunes the analysis pipeline
type AnalysisConfig struct {
	TaskConcurrency int
	TaskTimeout     time.Duration
	StaleAfter      time.Duration
	StatsCacheTTL   time.Duration
	MaxBulkItems    int
}

// ProvidersConfig tunes the simulated intelligence providers
type ProvidersConfig struct {
	DelayScale      float64
	MaxAttempts     int
	BreakerFailures int
	BreakerTimeout  int // seconds the breaker stays open
	BreakerInterval int // seconds between count resets in closed state
	RandomSeed      int64
}

// StorageConfig holds evidence archive configuration
type StorageConfig struct {
	Enabled   bool
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	BaseURL   string
	URLExpiry time.Duration
}

// RateLimitConfig holds rate limiting configuration for submission endpoints
type RateLimitConfig struct {
	Enabled       bool
	WindowSeconds int
	Limit         int
	RedisPrefix   string
}

// Window returns the rate limit window as a duration
func (c RateLimitConfig) Window() time.Duration {
	if c.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.WindowSeconds) * time.Second
}

// EventsConfig holds NATS configuration
type EventsConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// SentryConfig holds Sentry configuration
type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

// SweeperConfig holds the stale analysis sweeper configuration
type SweeperConfig struct {
	Enabled  bool
	Schedule string
}

// ThreatIntelConfig holds threat intelligence seeding configuration
type ThreatIntelConfig struct {
	SeedFile string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			Version:        getEnv("SERVICE_VERSION", "1.0.0"),
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 15),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "cyberguard"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConns:       getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:       getEnvAsInt("DB_MIN_CONNS", 5),
			MigrationsAuto: getEnvAsBool("DB_MIGRATE_ON_START", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Analysis: AnalysisConfig{
			TaskConcurrency: getEnvAsInt("ANALYSIS_TASK_CONCURRENCY", 4),
			TaskTimeout:     getEnvAsDuration("ANALYSIS_TASK_TIMEOUT", 10*time.Second),
			StaleAfter:      getEnvAsDuration("ANALYSIS_STALE_AFTER", 10*time.Minute),
			StatsCacheTTL:   getEnvAsDuration("STATS_CACHE_TTL", 30*time.Second),
			MaxBulkItems:    getEnvAsInt("ANALYSIS_MAX_BULK_ITEMS", 50),
		},
		Providers: ProvidersConfig{
			DelayScale:      getEnvAsFloat("PROVIDER_DELAY_SCALE", 1.0),
			MaxAttempts:     getEnvAsInt("PROVIDER_MAX_ATTEMPTS", 2),
			BreakerFailures: getEnvAsInt("PROVIDER_BREAKER_FAILURES", 5),
			BreakerTimeout:  getEnvAsInt("PROVIDER_BREAKER_TIMEOUT", 30),
			BreakerInterval: getEnvAsInt("PROVIDER_BREAKER_INTERVAL", 60),
			RandomSeed:      int64(getEnvAsInt("PROVIDER_RANDOM_SEED", 0)),
		},
		Storage: StorageConfig{
			Enabled:   getEnvAsBool("EVIDENCE_STORAGE_ENABLED", false),
			Bucket:    getEnv("EVIDENCE_BUCKET", "cyberguard-evidence"),
			Region:    getEnv("EVIDENCE_REGION", "us-east-1"),
			Endpoint:  getEnv("EVIDENCE_ENDPOINT", ""),
			AccessKey: getEnv("EVIDENCE_ACCESS_KEY", ""),
			SecretKey: getEnv("EVIDENCE_SECRET_KEY", ""),
			BaseURL:   getEnv("EVIDENCE_BASE_URL", ""),
			URLExpiry: getEnvAsDuration("EVIDENCE_URL_EXPIRY", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			Limit:         getEnvAsInt("RATE_LIMIT_SUBMISSIONS", 30),
			RedisPrefix:   getEnv("RATE_LIMIT_PREFIX", "rl"),
		},
		Events: EventsConfig{
			Enabled:       getEnvAsBool("NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "cyberguard"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			TracesSampleRate: getEnvAsFloat("SENTRY_TRACES_SAMPLE_RATE", 0.1),
		},
		Sweeper: SweeperConfig{
			Enabled:  getEnvAsBool("SWEEPER_ENABLED", true),
			Schedule: getEnv("SWEEPER_SCHEDULE", "@every 1m"),
		},
		ThreatIntel: ThreatIntelConfig{
			SeedFile: getEnv("THREAT_INTEL_SEED_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration values that would otherwise fail late
func (c *Config) Validate() error {
	if c.Analysis.TaskConcurrency <= 0 {
		return fmt.Errorf("ANALYSIS_TASK_CONCURRENCY must be positive, got %d", c.Analysis.TaskConcurrency)
	}
	if c.Analysis.TaskTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TASK_TIMEOUT must be positive")
	}
	if c.Analysis.MaxBulkItems <= 0 {
		return fmt.Errorf("ANALYSIS_MAX_BULK_ITEMS must be positive, got %d", c.Analysis.MaxBulkItems)
	}
	if c.Providers.DelayScale < 0 {
		return fmt.Errorf("PROVIDER_DELAY_SCALE must not be negative")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("EVIDENCE_BUCKET is required when evidence storage is enabled")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits the CORS origin list
func (c *ServerConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
