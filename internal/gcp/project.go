/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/compute/metadata"
)

// Environment variables holding the project id
const (
	EnvGoogleCloudProject = "GOOGLE_CLOUD_PROJECT"
	EnvGCloudProject      = "GCLOUD_PROJECT"
)

// DefaultMetadataTimeout bounds a single metadata server request
const DefaultMetadataTimeout = 5 * time.Second

// ErrProjectNotFound is returned when no project id can be determined
var ErrProjectNotFound = errors.New("unable to determine the project id")

// ProjectIDProvider resolves the id of the current project
type ProjectIDProvider interface {
	ProjectID(ctx context.Context) (string, error)
}

// ProjectIDProviderFunc adapts a function to ProjectIDProvider
type ProjectIDProviderFunc func(ctx context.Context) (string, error)

// ProjectID calls f
func (f ProjectIDProviderFunc) ProjectID(ctx context.Context) (string, error) {
	return f(ctx)
}

// MetadataProvider exposes the project information served by the metadata server
type MetadataProvider interface {
	ProjectID(ctx context.Context) (string, error)
	NumericProjectID(ctx context.Context) (string, error)
}

// ComputeMetadataProvider reads project information from the compute metadata server
type ComputeMetadataProvider struct {
	client  *metadata.Client
	timeout time.Duration
}

// NewComputeMetadataProvider creates a ComputeMetadataProvider.
// A nil httpClient selects the metadata package default client.
func NewComputeMetadataProvider(httpClient *http.Client) *ComputeMetadataProvider {
	return &ComputeMetadataProvider{
		client:  metadata.NewClient(httpClient),
		timeout: DefaultMetadataTimeout,
	}
}

// ProjectID returns the project id from the metadata server
func (p *ComputeMetadataProvider) ProjectID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	id, err := p.client.ProjectIDWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read project id from metadata server: %w", err)
	}
	return strings.TrimSpace(id), nil
}

// NumericProjectID returns the project number from the metadata server
func (p *ComputeMetadataProvider) NumericProjectID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	number, err := p.client.NumericProjectIDWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read project number from metadata server: %w", err)
	}
	return strings.TrimSpace(number), nil
}

// DefaultProjectIDProvider reads the project id from the environment first,
// then from the metadata server when one is configured
type DefaultProjectIDProvider struct {
	getenv   func(string) string
	metadata MetadataProvider
}

// NewDefaultProjectIDProvider creates a DefaultProjectIDProvider.
// metadataProvider may be nil outside of Google Cloud.
func NewDefaultProjectIDProvider(metadataProvider MetadataProvider) *DefaultProjectIDProvider {
	return &DefaultProjectIDProvider{
		getenv:   os.Getenv,
		metadata: metadataProvider,
	}
}

// ProjectID returns the project id
func (p *DefaultProjectIDProvider) ProjectID(ctx context.Context) (string, error) {
	for _, key := range []string{EnvGoogleCloudProject, EnvGCloudProject} {
		if id := strings.TrimSpace(p.getenv(key)); id != "" {
			return id, nil
		}
	}

	if p.metadata == nil {
		return "", ErrProjectNotFound
	}

	id, err := p.metadata.ProjectID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProjectNotFound, err)
	}
	if id == "" {
		return "", ErrProjectNotFound
	}
	return id, nil
}
