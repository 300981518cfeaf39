// Package config provides configuration management for the ingestion service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// ConfigFileEnv names the environment variable holding an optional TOML file path
const ConfigFileEnv = "INGEST_CONFIG_FILE"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Ingest   IngestConfig   `toml:"ingest"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port             string        `toml:"port"`
	IngestRateLimit  int64         `toml:"ingest_rate_limit"` // Ingest triggers allowed per period per client
	IngestRatePeriod time.Duration `toml:"ingest_rate_period"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                   string        `toml:"url"`
	Host                  string        `toml:"host"`
	Port                  string        `toml:"port"`
	Name                  string        `toml:"name"`
	User                  string        `toml:"user"`
	Password              string        `toml:"password"`
	SSLMode               string        `toml:"sslmode"`
	MaxConnections        int           `toml:"max_connections"`
	MaxIdleConnections    int           `toml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `toml:"connection_max_lifetime"`
}

// IngestConfig holds the ingestion pipeline settings
type IngestConfig struct {
	DataDir            string        `toml:"data_dir"`        // Root of the device log inventory
	OrganizationID     string        `toml:"organization_id"` // Tenant the vehicles are resolved in
	Timezone           string        `toml:"timezone"`        // Zone naive device timestamps are read in
	TranslatorCommand  string        `toml:"translator_command"`
	TranslatorTimeout  time.Duration `toml:"translator_timeout"`
	QueueSize          int           `toml:"queue_size"`
	BatchSize          int           `toml:"batch_size"`
	DedupTolerance     time.Duration `toml:"dedup_tolerance"`
	SyncThreshold      time.Duration `toml:"sync_threshold"`
	StabilityThreshold float64       `toml:"stability_threshold"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             "8080",
			IngestRateLimit:  10,
			IngestRatePeriod: time.Minute,
		},
		Database: DatabaseConfig{
			Host:                  "localhost",
			Port:                  "5432",
			Name:                  "telemetry_dev",
			User:                  "telemetry_user",
			Password:              "telemetry_pass",
			SSLMode:               "disable",
			MaxConnections:        25,
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: 5 * time.Minute,
		},
		Ingest: IngestConfig{
			DataDir:            "./data",
			Timezone:           "Europe/Madrid",
			TranslatorTimeout:  2 * time.Minute,
			QueueSize:          16,
			BatchSize:          1000,
			DedupTolerance:     5 * time.Minute,
			SyncThreshold:      5 * time.Minute,
			StabilityThreshold: 0.5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, then the TOML file at path
// (or INGEST_CONFIG_FILE when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides every field whose environment variable is set
func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.IngestRateLimit = int64(getEnvAsInt("INGEST_RATE_LIMIT", int(c.Server.IngestRateLimit)))
	c.Server.IngestRatePeriod = getEnvAsDuration("INGEST_RATE_PERIOD", c.Server.IngestRatePeriod)

	c.Database.URL = GetSecret("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = GetSecret("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxConnections = getEnvAsInt("DB_MAX_CONNECTIONS", c.Database.MaxConnections)
	c.Database.MaxIdleConnections = getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", c.Database.MaxIdleConnections)
	c.Database.ConnectionMaxLifetime = getEnvAsDuration("DB_CONNECTION_MAX_LIFETIME", c.Database.ConnectionMaxLifetime)

	c.Ingest.DataDir = getEnv("INGEST_DATA_DIR", c.Ingest.DataDir)
	c.Ingest.OrganizationID = getEnv("INGEST_ORGANIZATION_ID", c.Ingest.OrganizationID)
	c.Ingest.Timezone = getEnv("INGEST_TIMEZONE", c.Ingest.Timezone)
	c.Ingest.TranslatorCommand = getEnv("INGEST_TRANSLATOR_COMMAND", c.Ingest.TranslatorCommand)
	c.Ingest.TranslatorTimeout = getEnvAsDuration("INGEST_TRANSLATOR_TIMEOUT", c.Ingest.TranslatorTimeout)
	c.Ingest.QueueSize = getEnvAsInt("INGEST_QUEUE_SIZE", c.Ingest.QueueSize)
	c.Ingest.BatchSize = getEnvAsInt("INGEST_BATCH_SIZE", c.Ingest.BatchSize)
	c.Ingest.DedupTolerance = getEnvAsDuration("INGEST_DEDUP_TOLERANCE", c.Ingest.DedupTolerance)
	c.Ingest.SyncThreshold = getEnvAsDuration("INGEST_SYNC_THRESHOLD", c.Ingest.SyncThreshold)
	c.Ingest.StabilityThreshold = getEnvAsFloat("INGEST_STABILITY_THRESHOLD", c.Ingest.StabilityThreshold)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Ingest.BatchSize <= 0 {
		return errors.New("INGEST_BATCH_SIZE must be positive")
	}
	if c.Ingest.QueueSize <= 0 {
		return errors.New("INGEST_QUEUE_SIZE must be positive")
	}
	if c.Ingest.StabilityThreshold < 0 || c.Ingest.StabilityThreshold > 1 {
		return errors.New("INGEST_STABILITY_THRESHOLD must be within [0, 1]")
	}
	if _, err := c.Ingest.Location(); err != nil {
		return fmt.Errorf("INGEST_TIMEZONE is invalid: %w", err)
	}
	if c.Ingest.OrganizationID != "" {
		if _, err := uuid.Parse(c.Ingest.OrganizationID); err != nil {
			return fmt.Errorf("INGEST_ORGANIZATION_ID is not a UUID: %w", err)
		}
	}
	return nil
}

// Location loads the configured time zone
func (i *IngestConfig) Location() (*time.Location, error) {
	if i.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(i.Timezone)
}

// Organization returns the configured organization, or an error when none is set
func (i *IngestConfig) Organization() (uuid.UUID, error) {
	if i.OrganizationID == "" {
		return uuid.Nil, errors.New("INGEST_ORGANIZATION_ID is required")
	}
	return uuid.Parse(i.OrganizationID)
}

// ConnectionString returns the database connection string
func (d *DatabaseConfig) ConnectionString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URLString returns the connection as a postgres:// URL, the form the
// migration driver expects
func (d *DatabaseConfig) URLString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
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

// getEnvAsFloat gets an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
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
