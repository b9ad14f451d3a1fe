package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"welcomer/database"
)

const defaultMaxUploadBytes = 8 << 20

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string
	GuildID      string // Registers commands to one guild when set

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Storage
	DataDir   string // Templates and pool images
	AssetsDir string // Border and mask overlays

	// Welcome flow
	PromptTimeout    time.Duration // Wait per placement prompt step
	AvatarFetchRate  float64       // Avatar and attachment downloads per second
	AvatarFetchBurst int
	MaxUploadBytes   int64

	// NATS configuration
	NATSServers string // Empty disables event publishing

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
				return
			}
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Load reads configuration from the environment without caching it
func Load() (*Config, error) {
	return load()
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// TemplatesDir is where default templates are stored, one directory per guild
func (c *Config) TemplatesDir() string {
	return filepath.Join(c.DataDir, "templates")
}

// PoolImagesDir is where pool images are stored, one directory per guild
func (c *Config) PoolImagesDir() string {
	return filepath.Join(c.DataDir, "welcome_imgs")
}

// IsProduction reports whether the bot runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("GUILD_ID"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Storage
		DataDir:   getEnvWithDefault("DATA_DIR", "./data"),
		AssetsDir: getEnvWithDefault("ASSETS_DIR", "./assets"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// OpenTelemetry
		OTelEnabled:      os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:  getEnvWithDefault("OTEL_SERVICE_NAME", "welcomer"),
		OTelExporterType: getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint: getEnvWithDefault("OTEL_OTLP_ENDPOINT", "otel-collector:4317"),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	seconds, err := getEnvInt("PROMPT_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	config.PromptTimeout = time.Duration(seconds) * time.Second

	if config.AvatarFetchRate, err = getEnvFloat("AVATAR_FETCH_RATE", 5); err != nil {
		return nil, err
	}
	if config.AvatarFetchBurst, err = getEnvInt("AVATAR_FETCH_BURST", 10); err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	config.MaxUploadBytes = int64(maxUpload)
	if config.OTelExportIntervalMillis, err = getEnvInt("OTEL_EXPORT_INTERVAL_MS", 60000); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.PromptTimeout <= 0 {
		return fmt.Errorf("PROMPT_TIMEOUT_SECONDS must be positive")
	}
	if c.AvatarFetchRate <= 0 || c.AvatarFetchBurst <= 0 {
		return fmt.Errorf("AVATAR_FETCH_RATE and AVATAR_FETCH_BURST must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	switch c.OTelExporterType {
	case "console", "otlp", "none":
	default:
		return fmt.Errorf("OTEL_EXPORTER_TYPE must be console, otlp or none, got %q", c.OTelExporterType)
	}

	if c.Environment == "test" {
		return nil
	}
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be blank when provided")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		DiscordToken:             "test-token",
		DataDir:                  os.TempDir(),
		PromptTimeout:            30 * time.Second,
		AvatarFetchRate:          5,
		AvatarFetchBurst:         10,
		MaxUploadBytes:           defaultMaxUploadBytes,
		OTelServiceName:          "welcomer",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 60000,
		LogLevel:                 "debug",
		Environment:              "test",
	}
}
