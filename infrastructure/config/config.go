package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	domaincfg "ontoview/domain/config"
)

// Config holds all application configuration. Environment variables are the
// primary source; an optional YAML file named by CONFIG_FILE overlays them.
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Data provider backend: "memory" or "dynamodb"
	ProviderBackend string `yaml:"provider_backend"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	EventBusName  string `yaml:"event_bus_name"`

	// Lambda configuration
	IsLambda bool `yaml:"-"`

	// Provider circuit breaker
	BreakerFailureThreshold uint32        `yaml:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `yaml:"breaker_timeout"`

	// Diagram limits and behavior
	MaxElementsPerDiagram int           `yaml:"max_elements_per_diagram"`
	MaxLinksPerDiagram    int           `yaml:"max_links_per_diagram"`
	HistoryDepth          int           `yaml:"history_depth"`
	CacheMaxEntries       int           `yaml:"cache_max_entries"`
	CacheStaleAfter       time.Duration `yaml:"cache_stale_after"`
	LayoutTimeout         time.Duration `yaml:"layout_timeout"`
	LayoutQueueSize       int           `yaml:"layout_queue_size"`
	AllowSelfLinks        bool          `yaml:"allow_self_links"`
	AllowDuplicateLinks   bool          `yaml:"allow_duplicate_links"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret          string `yaml:"jwt_secret"`
	JWTIssuer          string `yaml:"jwt_issuer"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableCORS    bool `yaml:"enable_cors"`
	EnableEvents  bool `yaml:"enable_events"`
}

// LoadConfig loads configuration from environment variables, then overlays
// the YAML file named by CONFIG_FILE if one is set
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ProviderBackend: getEnv("PROVIDER_BACKEND", "memory"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "ontoview"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "ontoview-events"),

		IsLambda: os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "",

		BreakerFailureThreshold: uint32(getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)),
		BreakerTimeout:          getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),

		MaxElementsPerDiagram: getEnvInt("MAX_ELEMENTS_PER_DIAGRAM", 5000),
		MaxLinksPerDiagram:    getEnvInt("MAX_LINKS_PER_DIAGRAM", 20000),
		HistoryDepth:          getEnvInt("HISTORY_DEPTH", 200),
		CacheMaxEntries:       getEnvInt("CACHE_MAX_ENTRIES", 10000),
		CacheStaleAfter:       getEnvDuration("CACHE_STALE_AFTER", 5*time.Minute),
		LayoutTimeout:         getEnvDuration("LAYOUT_TIMEOUT", 10*time.Second),
		LayoutQueueSize:       getEnvInt("LAYOUT_QUEUE_SIZE", 16),
		AllowSelfLinks:        getEnvBool("ALLOW_SELF_LINKS", true),
		AllowDuplicateLinks:   getEnvBool("ALLOW_DUPLICATE_LINKS", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "ontoview"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 300),

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		EnableEvents:  getEnvBool("ENABLE_EVENTS", false),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// overlayFile merges YAML settings over the current values
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.ProviderBackend {
	case "memory", "dynamodb":
	default:
		return fmt.Errorf("unknown provider backend %q", c.ProviderBackend)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.ProviderBackend == "dynamodb" && c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
		}
	}

	domainCfg := c.Domain()
	return domainCfg.Validate()
}

// Domain projects the diagram-behavior settings into the domain layer's
// config type
func (c *Config) Domain() domaincfg.DomainConfig {
	return domaincfg.DomainConfig{
		MaxElementsPerDiagram: c.MaxElementsPerDiagram,
		MaxLinksPerDiagram:    c.MaxLinksPerDiagram,
		DefaultDiagramName:    "Untitled diagram",
		HistoryDepth:          c.HistoryDepth,
		MaxCacheEntries:       c.CacheMaxEntries,
		CacheStaleAfter:       c.CacheStaleAfter,
		LayoutTimeout:         c.LayoutTimeout,
		MaxLayoutElements:     c.MaxElementsPerDiagram,
		AllowSelfLinks:        c.AllowSelfLinks,
		AllowDuplicateLinks:   c.AllowDuplicateLinks,
	}
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
