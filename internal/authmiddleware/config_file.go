/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package authmiddleware

import (
	"fmt"
	"os"
	"time"

	"sigs.k8s.io/yaml"
)

// fileConfig is the layout of the file named by CONFIG_FILE. Unset fields keep their defaults.
type fileConfig struct {
	Server  *fileServerConfig  `json:"server,omitempty"`
	Iap     *fileIapConfig     `json:"iap,omitempty"`
	Logging *fileLoggingConfig `json:"logging,omitempty"`
}

type fileServerConfig struct {
	Port            *int   `json:"port,omitempty"`
	ReadTimeout     string `json:"readTimeout,omitempty"`
	WriteTimeout    string `json:"writeTimeout,omitempty"`
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

type fileIapConfig struct {
	Enabled   *bool    `json:"enabled,omitempty"`
	Audience  []string `json:"audience,omitempty"`
	Header    string   `json:"header,omitempty"`
	Registry  string   `json:"registry,omitempty"`
	Algorithm string   `json:"algorithm,omitempty"`
	Issuer    string   `json:"issuer,omitempty"`
}

type fileLoggingConfig struct {
	Level          string `json:"level,omitempty"`
	ServiceName    string `json:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty"`
}

// applyFileConfig reads the YAML file at path and applies the values it sets
func applyFileConfig(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvConfigFile, err)
	}

	var fc fileConfig
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return fmt.Errorf("invalid %s %q: %w", EnvConfigFile, path, err)
	}

	if fc.Server != nil {
		if err := fc.Server.apply(config); err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvConfigFile, path, err)
		}
	}
	if fc.Iap != nil {
		fc.Iap.apply(config)
	}
	if fc.Logging != nil {
		fc.Logging.apply(config)
	}
	return nil
}

func (s *fileServerConfig) apply(config *Config) error {
	if s.Port != nil {
		config.Port = *s.Port
	}
	for _, field := range []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"server.readTimeout", s.ReadTimeout, &config.ReadTimeout},
		{"server.writeTimeout", s.WriteTimeout, &config.WriteTimeout},
		{"server.shutdownTimeout", s.ShutdownTimeout, &config.ShutdownTimeout},
	} {
		if field.value == "" {
			continue
		}
		d, err := time.ParseDuration(field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.dest = d
	}
	return nil
}

func (i *fileIapConfig) apply(config *Config) {
	if i.Enabled != nil {
		config.IapEnabled = *i.Enabled
	}
	if len(i.Audience) > 0 {
		config.IapAudience = i.Audience
	}
	if i.Header != "" {
		config.IapHeader = i.Header
	}
	if i.Registry != "" {
		config.IapRegistry = i.Registry
	}
	if i.Algorithm != "" {
		config.IapAlgorithm = i.Algorithm
	}
	if i.Issuer != "" {
		config.IapIssuer = i.Issuer
	}
}

func (l *fileLoggingConfig) apply(config *Config) {
	if l.Level != "" {
		config.LogLevel = l.Level
	}
	if l.ServiceName != "" {
		config.ServiceName = l.ServiceName
	}
	if l.ServiceVersion != "" {
		config.ServiceVersion = l.ServiceVersion
	}
}
