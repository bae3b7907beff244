// Package config loads CLI configuration from file and environment.
// The library itself takes no global configuration; everything here is
// injected at the store, linker, and telemetry boundaries.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the vitrina CLI.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Links configuration
	Links LinksConfig `mapstructure:"links"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Aliases is the path to the tag-alias YAML file
	Aliases string `mapstructure:"aliases"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// LinksConfig holds the content-link directory
type LinksConfig struct {
	Dir string `mapstructure:"dir"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Password usually comes from the environment rather than the file
	if pass := os.Getenv("VITRINA_DB_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "vitrina")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "vitrina")
	viper.SetDefault("database.ssl_mode", "allow")

	viper.SetDefault("links.dir", "./links")

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.vitrina/telemetry", home))
	}
}
