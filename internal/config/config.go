// Package config loads the server and logging configuration from the
// environment, with an optional .env file for development.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction enables HSTS and the strict CSP.
	EnvProduction = "production"

	// envPrefix namespaces every variable, e.g. WAVEVIEW_PORT.
	envPrefix = "waveview"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// MediaDir is the directory the server analyzes and serves audio
	// from. Requests never resolve files outside it.
	MediaDir string `envconfig:"MEDIA_DIR" default:"./media"`

	// ShutdownTimeout bounds the drain on graceful shutdown.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Security settings
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from a .env file and the
// environment.
func LoadConfig() (*Config, error) {
	// A missing .env is expected outside development.
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	var config Config
	if err := envconfig.Process(envPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	if c.MediaDir == "" {
		return fmt.Errorf("media dir cannot be empty")
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", c.ShutdownTimeout)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	switch c.CSPMode {
	case "relaxed", "strict":
	default:
		return fmt.Errorf("unknown CSP mode %q", c.CSPMode)
	}

	return nil
}

// BuildCSP constructs the Content Security Policy for the mode. The
// server only emits JSON and audio files, so both policies stay
// narrow.
func BuildCSP(mode string) string {
	if mode == "strict" {
		return "default-src 'self'; " +
			"media-src 'self'; " +
			"img-src 'self' data:; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	return "default-src 'self'; " +
		"media-src 'self' data:; " +
		"img-src 'self' data:; " +
		"style-src 'self' 'unsafe-inline'"
}
