/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jupyter-infra/gcp-iap-auth/internal/gcp"
	"k8s.io/apimachinery/pkg/util/sets"
)

// AudienceProvider supplies the audiences a token must be issued for
type AudienceProvider interface {
	Audience(ctx context.Context) ([]string, error)
}

// AudienceProviderFunc adapts a function to AudienceProvider
type AudienceProviderFunc func(ctx context.Context) ([]string, error)

// Audience calls f
func (f AudienceProviderFunc) Audience(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// StaticAudienceProvider returns a fixed list of audiences
type StaticAudienceProvider struct {
	audiences []string
}

// NewStaticAudienceProvider creates a StaticAudienceProvider; values are trimmed and empty ones dropped
func NewStaticAudienceProvider(audiences ...string) *StaticAudienceProvider {
	return &StaticAudienceProvider{audiences: SplitAudiences(strings.Join(audiences, ","))}
}

// Audience implements AudienceProvider
func (p *StaticAudienceProvider) Audience(context.Context) ([]string, error) {
	return append([]string(nil), p.audiences...), nil
}

// SplitAudiences splits a comma-separated audience list, trimming spaces around each value
func SplitAudiences(value string) []string {
	var audiences []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			audiences = append(audiences, part)
		}
	}
	return audiences
}

// AppEngineAudienceProvider derives the audience of an App Engine application,
// "/projects/<project-number>/apps/<project-id>", from the metadata server.
// The audience is resolved once and cached.
type AppEngineAudienceProvider struct {
	projectIDProvider gcp.ProjectIDProvider
	metadataProvider  gcp.MetadataProvider

	mu       sync.Mutex
	audience string
}

// NewAppEngineAudienceProvider creates an AppEngineAudienceProvider
func NewAppEngineAudienceProvider(projectIDProvider gcp.ProjectIDProvider, metadataProvider gcp.MetadataProvider) (*AppEngineAudienceProvider, error) {
	if projectIDProvider == nil {
		return nil, noQualifyingComponent("ProjectIDProvider")
	}
	if metadataProvider == nil {
		return nil, noQualifyingComponent("MetadataProvider")
	}
	return &AppEngineAudienceProvider{
		projectIDProvider: projectIDProvider,
		metadataProvider:  metadataProvider,
	}, nil
}

// Audience implements AudienceProvider
func (p *AppEngineAudienceProvider) Audience(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.audience != "" {
		return []string{p.audience}, nil
	}

	projectID, err := p.projectIDProvider.ProjectID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project id: %w", err)
	}
	projectNumber, err := p.metadataProvider.NumericProjectID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project number: %w", err)
	}
	if projectID == "" || projectNumber == "" {
		return nil, errors.New("project id and project number are required to build the App Engine audience")
	}

	p.audience = fmt.Sprintf("/projects/%s/apps/%s", projectNumber, projectID)
	return []string{p.audience}, nil
}

// AudienceValidator checks that the aud claim contains one of the configured audiences
type AudienceValidator struct {
	provider AudienceProvider
}

// NewAudienceValidator creates an AudienceValidator
func NewAudienceValidator(provider AudienceProvider) *AudienceValidator {
	return &AudienceValidator{provider: provider}
}

// Validate implements Validator
func (v *AudienceValidator) Validate(ctx context.Context, token *Token) ValidationResult {
	audiences, err := v.provider.Audience(ctx)
	if err != nil || len(audiences) == 0 {
		return Failure(newIssue(DescriptionAudienceNotFound))
	}

	if sets.New(audiences...).HasAny(token.Audience...) {
		return Success()
	}
	return Failure(newIssue(DescriptionInvalidAudience))
}
