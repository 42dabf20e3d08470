package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Realtime RealtimeConfig
	Static   StaticConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Notify   NotifyConfig
}

// RealtimeConfig for GTFS-realtime feed extraction
type RealtimeConfig struct {
	APIKey       string
	Feeds        []string // optional subset, empty means all
	FetchTimeout time.Duration
}

// StaticConfig for the static GTFS archive
type StaticConfig struct {
	ZipURL       string // empty means package default
	FetchTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type LoggingConfig struct {
	Level    string
	FilePath string
}

type NotifyConfig struct {
	WebhookURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Realtime: RealtimeConfig{
			APIKey:       getEnv("MTA_API_KEY", ""),
			Feeds:        getSliceEnv("MTA_FEEDS"),
			FetchTimeout: getDurationEnv("MTA_FETCH_TIMEOUT", 30*time.Second),
		},
		Static: StaticConfig{
			ZipURL:       getEnv("GTFS_STATIC_ZIP_URL", ""),
			FetchTimeout: getDurationEnv("GTFS_STATIC_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "mta_subway"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE", "mta-rtf.log"),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Configured reports whether a database destination is set at all.
func (c *DatabaseConfig) Configured() bool {
	return c.Host != ""
}

func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
