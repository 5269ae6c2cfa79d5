/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

// Package main provides the entry point for the iapauth service that authenticates
// requests carrying a Google Cloud Identity-Aware Proxy assertion.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jupyter-infra/gcp-iap-auth/internal/authmiddleware"
	"github.com/jupyter-infra/gcp-iap-auth/internal/gcp"
	"github.com/jupyter-infra/gcp-iap-auth/internal/iap"
	"github.com/jupyter-infra/gcp-iap-auth/internal/stackdriver"
)

func main() {
	// Initialize bootstrap logger, replaced once the configuration is known
	logger := slog.New(stackdriver.NewHandler(os.Stdout, &stackdriver.Options{
		Level: slog.LevelInfo,
	}))

	// Load configuration
	cfg, err := authmiddleware.NewConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Detect the Google Cloud runtime
	environmentProvider := gcp.NewDefaultEnvironmentProvider()
	environment := environmentProvider.CurrentEnvironment()

	var metadataProvider gcp.MetadataProvider
	if environment != gcp.Unknown {
		metadataProvider = gcp.NewComputeMetadataProvider(nil)
	}
	projectIDProvider := gcp.NewDefaultProjectIDProvider(metadataProvider)

	projectID, err := projectIDProvider.ProjectID(ctx)
	if err != nil {
		logger.Warn("Google Cloud project not found, trace ids are logged without project", "error", err)
	}

	logger = slog.New(stackdriver.NewHandler(os.Stdout, &stackdriver.Options{
		ProjectID:      projectID,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Level:          cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	logger.Info("Detected runtime environment", "environment", environment.String(), "project", projectID)

	// Select IAP components
	components, err := iap.Configure(ctx, cfg.IapProperties(), iap.Dependencies{
		ProjectIDProvider:   projectIDProvider,
		EnvironmentProvider: environmentProvider,
		MetadataProvider:    metadataProvider,
		Logger:              logger,
	})
	if err != nil {
		if errors.Is(err, iap.ErrNoQualifyingComponent) {
			logger.Error("IAP audience cannot be determined, set "+authmiddleware.EnvIapAudience+" or run on App Engine", "error", err)
		} else {
			logger.Error("Failed to configure IAP authentication", "error", err)
		}
		os.Exit(1)
	}

	// Create and start server
	server := authmiddleware.NewServer(cfg, components, logger)
	if err := server.Start(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
