// Package config loads server configuration from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration.
type Config struct {
	HTTPAddr           string
	DatabaseURL        string
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaCompression   string
	SessionSecret      string
	SessionTTL         time.Duration
	LogLevel           string
	AutoProvisionOwner bool
}

// Load reads .env (if any) and the environment. Values already in the
// environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		KafkaTopic:       getenv("KAFKA_TOPIC", "record_events"),
		KafkaCompression: getenv("KAFKA_COMPRESSION", "lz4"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		LogLevel:         getenv("LOG_LEVEL", "INFO"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	if v := os.Getenv("AUTO_PROVISION_OWNER"); v != "" {
		cfg.AutoProvisionOwner, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("AUTO_PROVISION_OWNER: %w", err)
		}
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 bytes")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
