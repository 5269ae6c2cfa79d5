/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

// Package authmiddleware provides the forward-auth service that authenticates requests
// behind Google Cloud Identity-Aware Proxy and exposes the caller identity to the proxy.
package authmiddleware

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jupyter-infra/gcp-iap-auth/internal/iap"
)

// Environment variable names
const (
	// Server configuration
	EnvPort            = "PORT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// IAP configuration
	EnvIapEnabled   = "IAP_ENABLED"
	EnvIapAudience  = "IAP_AUDIENCE"
	EnvIapHeader    = "IAP_HEADER"
	EnvIapRegistry  = "IAP_REGISTRY"
	EnvIapAlgorithm = "IAP_ALGORITHM"
	EnvIapIssuer    = "IAP_ISSUER"

	// Logging configuration
	EnvLogLevel       = "LOG_LEVEL"
	EnvServiceName    = "SERVICE_NAME"
	EnvServiceVersion = "SERVICE_VERSION"

	// EnvConfigFile points to an optional YAML file, applied before the other variables
	EnvConfigFile = "CONFIG_FILE"
)

// Default values
const (
	// Server defaults
	DefaultPort            = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// IAP defaults
	DefaultIapEnabled = true

	// Logging defaults
	DefaultLogLevel    = "info"
	DefaultServiceName = "gcp-iap-auth"
)

// Config holds all configuration for the gcp-iap-auth service
type Config struct {
	// Server configuration
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// IAP configuration
	IapEnabled   bool
	IapAudience  []string
	IapHeader    string
	IapRegistry  string
	IapAlgorithm string
	IapIssuer    string

	// Logging configuration
	LogLevel       string
	ServiceName    string
	ServiceVersion string
}

// NewConfig creates a Config with values from the optional config file,
// then environment variables, or defaults if not set
func NewConfig() (*Config, error) {
	config := createDefaultConfig()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := applyFileConfig(config, path); err != nil {
			return nil, err
		}
	}

	// Apply overrides from environment variables
	if err := applyServerConfig(config); err != nil {
		return nil, err
	}

	if err := applyIapConfig(config); err != nil {
		return nil, err
	}

	if err := applyLoggingConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// createDefaultConfig creates a new Config with default values
func createDefaultConfig() *Config {
	iapDefaults := iap.DefaultProperties()
	return &Config{
		// Server defaults
		Port:            DefaultPort,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,

		// IAP defaults
		IapEnabled:   DefaultIapEnabled,
		IapHeader:    iapDefaults.Header,
		IapRegistry:  iapDefaults.Registry,
		IapAlgorithm: iapDefaults.Algorithm,
		IapIssuer:    iapDefaults.Issuer,

		// Logging defaults
		LogLevel:    DefaultLogLevel,
		ServiceName: DefaultServiceName,
	}
}

// applyServerConfig applies server-related environment variable overrides
func applyServerConfig(config *Config) error {
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		config.Port = p
	}

	if readTimeout := os.Getenv(EnvReadTimeout); readTimeout != "" {
		d, err := time.ParseDuration(readTimeout)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvReadTimeout, err)
		}
		config.ReadTimeout = d
	}

	if writeTimeout := os.Getenv(EnvWriteTimeout); writeTimeout != "" {
		d, err := time.ParseDuration(writeTimeout)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWriteTimeout, err)
		}
		config.WriteTimeout = d
	}

	if shutdownTimeout := os.Getenv(EnvShutdownTimeout); shutdownTimeout != "" {
		d, err := time.ParseDuration(shutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvShutdownTimeout, err)
		}
		config.ShutdownTimeout = d
	}

	return nil
}

// applyIapConfig applies IAP-related environment variable overrides
func applyIapConfig(config *Config) error {
	if enabled := os.Getenv(EnvIapEnabled); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvIapEnabled, err)
		}
		config.IapEnabled = b
	}

	if audience := os.Getenv(EnvIapAudience); audience != "" {
		config.IapAudience = iap.SplitAudiences(audience)
	}

	if header := os.Getenv(EnvIapHeader); header != "" {
		config.IapHeader = header
	}

	if registry := os.Getenv(EnvIapRegistry); registry != "" {
		config.IapRegistry = registry
	}

	if algorithm := os.Getenv(EnvIapAlgorithm); algorithm != "" {
		config.IapAlgorithm = algorithm
	}

	if issuer := os.Getenv(EnvIapIssuer); issuer != "" {
		config.IapIssuer = issuer
	}

	return nil
}

// applyLoggingConfig applies logging-related environment variable overrides
func applyLoggingConfig(config *Config) error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		config.LogLevel = level
	}
	if _, err := parseLogLevel(config.LogLevel); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
	}

	if name := os.Getenv(EnvServiceName); name != "" {
		config.ServiceName = name
	}

	if version := os.Getenv(EnvServiceVersion); version != "" {
		config.ServiceVersion = version
	}

	return nil
}

// parseLogLevel accepts the slog level names, case-insensitive, plus "warning"
func parseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if strings.EqualFold(value, "warning") {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// IapProperties returns the IAP settings of the configuration
func (c *Config) IapProperties() iap.Properties {
	return iap.Properties{
		Enabled:   c.IapEnabled,
		Audience:  append([]string(nil), c.IapAudience...),
		Header:    c.IapHeader,
		Registry:  c.IapRegistry,
		Algorithm: c.IapAlgorithm,
		Issuer:    c.IapIssuer,
	}
}
