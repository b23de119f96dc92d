package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the assessment service
type Config struct {
	Server    ServerConfig
	SMTP      SMTPConfig
	Delivery  DeliveryConfig
	Sessions  SessionConfig
	Redis     RedisConfig
	Questions QuestionsConfig
	Cleanup   CleanupConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host              string
	Port              int
	AllowedOrigins    []string
	ScoreTickInterval time.Duration
}

// SMTPConfig holds the mail transport configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	From     string
}

// DeliveryConfig bounds a single report dispatch
type DeliveryConfig struct {
	Timeout time.Duration
}

// SessionConfig holds in-flight session configuration
type SessionConfig struct {
	Store string // memory | redis
	TTL   time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// QuestionsConfig points at an optional question bank override
type QuestionsConfig struct {
	File string
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval time.Duration
}

// Session store kinds
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:              getEnv("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			ScoreTickInterval: getEnvAsDuration("SCORE_TICK_INTERVAL", 20*time.Millisecond),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Secure:   getEnv("SMTP_SECURE", "") == "true",
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("FROM_EMAIL", ""),
		},
		Delivery: DeliveryConfig{
			Timeout: getEnvAsDuration("DELIVERY_TIMEOUT", 30*time.Second),
		},
		Sessions: SessionConfig{
			Store: strings.ToLower(getEnv("SESSION_STORE", StoreMemory)),
			TTL:   getEnvAsDuration("SESSION_TTL", time.Hour),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Questions: QuestionsConfig{
			File: getEnv("QUESTIONS_FILE", ""),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp port: %d", c.SMTP.Port)
	}

	if c.Sessions.Store != StoreMemory && c.Sessions.Store != StoreRedis {
		return fmt.Errorf("unknown session store: %q", c.Sessions.Store)
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	if c.Server.ScoreTickInterval <= 0 {
		return fmt.Errorf("score tick interval must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
