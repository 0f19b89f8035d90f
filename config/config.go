package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"wagerly/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr           string
	JWTSecret          string
	PaymentSecret      string // Shared secret the payment gateway sends on webhook calls
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Betting window timezone
	BetLocation *time.Location

	// Notification sinks (each one is optional)
	DiscordToken     string
	DiscordChannelID string
	RedisURL         string
	RedisChannel     string
	KafkaBrokers     []string
	KafkaTopic       string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

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

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables, reading a local .env first when one exists
func load() (*Config, error) {
	// A missing .env is the normal case outside local development
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:           getEnvWithDefault("HTTP_ADDR", ":8080"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		PaymentSecret:      os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		CORSAllowedOrigins: splitList(getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitRPS:       10,
		RateLimitBurst:     20,

		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RedisChannel:     getEnvWithDefault("REDIS_CHANNEL", "wagerly.events"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:       getEnvWithDefault("KAFKA_TOPIC", "wagerly.bet-events"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if parsed, err := strconv.ParseFloat(rps, 64); err == nil {
			config.RateLimitRPS = parsed
		}
	}
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if parsed, err := strconv.Atoi(burst); err == nil {
			config.RateLimitBurst = parsed
		}
	}

	loc, err := time.LoadLocation(getEnvWithDefault("BET_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid BET_TIMEZONE: %w", err)
	}
	config.BetLocation = loc

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:    "test",
		HTTPAddr:       ":0",
		JWTSecret:      "test-secret",
		PaymentSecret:  "test-payment-secret",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		BetLocation:    time.UTC,
		LogLevel:       "debug",
		LogFormat:      "text",
	}
}
