package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/upb/llm-footprint/models"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      *DatabaseConfig // nil when no database is configured; usage recording is then disabled
	Providers     ProvidersConfig
	Compare       CompareConfig
	Route         RouteConfig
	Footprint     FootprintConfig
	Usage         UsageConfig
	Observability ObservabilityConfig
	CORS          CORSConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	InitSchema       bool
}

// ProvidersConfig holds the upstream API configuration
type ProvidersConfig struct {
	OpenRouter OpenRouterConfig
	OpenAI     OpenAIConfig
}

// OpenRouterConfig configures the chat-completions gateway used for every model call
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Referer string // sent as HTTP-Referer
	Title   string // sent as X-Title
}

// OpenAIConfig configures the complexity classifier call
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// CompareConfig configures the fan-out comparison mode
type CompareConfig struct {
	Models          []models.ProviderID
	ProviderTimeout time.Duration
	BatchTimeout    time.Duration
}

// RouteConfig configures the smart routing mode
type RouteConfig struct {
	ProviderTimeout time.Duration
	SearchMinDelay  time.Duration
	SearchMaxDelay  time.Duration
}

// FootprintConfig configures the footprint estimator
type FootprintConfig struct {
	DefaultRegion string
}

// UsageConfig configures the asynchronous usage recorder
type UsageConfig struct {
	BufferSize int
	Workers    int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// DefaultCompareModels are compared when COMPARE_MODELS is unset
var DefaultCompareModels = []models.ProviderID{
	models.ProviderLlama2,
	models.ProviderLlama3,
	models.ProviderDeepSeekR1,
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	compareModels, err := parseProviderList(getEnv("COMPARE_MODELS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid COMPARE_MODELS: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database: loadDatabaseConfig(),
		Providers: ProvidersConfig{
			OpenRouter: OpenRouterConfig{
				APIKey:  getEnv("OPENROUTER_API_KEY", ""),
				BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
				Referer: getEnv("OPENROUTER_REFERER", "https://vercel.com"),
				Title:   getEnv("OPENROUTER_TITLE", "LLM Model Comparison"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   getEnv("CLASSIFIER_MODEL", "gpt-4o"),
				Timeout: getEnvAsDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
			},
		},
		Compare: CompareConfig{
			Models:          compareModels,
			ProviderTimeout: getEnvAsDuration("COMPARE_PROVIDER_TIMEOUT", 30*time.Second),
			BatchTimeout:    getEnvAsDuration("COMPARE_BATCH_TIMEOUT", 60*time.Second),
		},
		Route: RouteConfig{
			ProviderTimeout: getEnvAsDuration("ROUTE_PROVIDER_TIMEOUT", 30*time.Second),
			SearchMinDelay:  200 * time.Millisecond,
			SearchMaxDelay:  700 * time.Millisecond,
		},
		Footprint: FootprintConfig{
			DefaultRegion: getEnv("FOOTPRINT_DEFAULT_REGION", "Global Average"),
		},
		Usage: UsageConfig{
			BufferSize: getEnvAsInt("USAGE_BUFFER_SIZE", 1000),
			Workers:    getEnvAsInt("USAGE_WORKERS", 2),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://*"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set.
// Missing API keys are not startup errors: they fail the individual request.
func (c *Config) Validate() error {
	if c.Database != nil && c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if len(c.Compare.Models) == 0 {
		return fmt.Errorf("at least one compare model is required")
	}
	for _, id := range c.Compare.Models {
		if id.IsSimulated() {
			return fmt.Errorf("compare model %q is not a model API", string(id))
		}
	}
	if c.Compare.ProviderTimeout <= 0 {
		return fmt.Errorf("compare provider timeout must be positive")
	}
	if c.Compare.BatchTimeout < c.Compare.ProviderTimeout {
		return fmt.Errorf("compare batch timeout (%s) must not be shorter than the provider timeout (%s)",
			c.Compare.BatchTimeout, c.Compare.ProviderTimeout)
	}
	if c.Route.ProviderTimeout <= 0 {
		return fmt.Errorf("route provider timeout must be positive")
	}
	if c.Route.SearchMaxDelay <= c.Route.SearchMinDelay {
		return fmt.Errorf("search delay range is empty")
	}

	if c.Usage.BufferSize <= 0 || c.Usage.Workers <= 0 {
		return fmt.Errorf("usage buffer size and worker count must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig returns nil unless DATABASE_URL or DB_HOST is set
func loadDatabaseConfig() *DatabaseConfig {
	pool := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		InitSchema:      getEnvAsBool("DB_INIT_SCHEMA", true),
	}

	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		pool.ConnectionString = dbURL
		return &pool
	}
	if host := getEnv("DB_HOST", ""); host != "" {
		pool.Host = host
		pool.Port = getEnvAsInt("DB_PORT", 5432)
		pool.User = getEnv("DB_USER", "")
		pool.Password = getEnv("DB_PASSWORD", "")
		pool.Database = getEnv("DB_NAME", "footprint")
		pool.SSLMode = getEnv("DB_SSLMODE", "disable")
		return &pool
	}
	return nil
}

// parseProviderList parses a comma-separated list of provider identifiers
func parseProviderList(raw string) ([]models.ProviderID, error) {
	if strings.TrimSpace(raw) == "" {
		out := make([]models.ProviderID, len(DefaultCompareModels))
		copy(out, DefaultCompareModels)
		return out, nil
	}

	var ids []models.ProviderID
	seen := make(map[models.ProviderID]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := models.ParseProviderID(part)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
