/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jupyter-infra/gcp-iap-auth/internal/gcp"
)

// ErrNoQualifyingComponent is returned when a required component is neither
// supplied nor derivable from configuration
var ErrNoQualifyingComponent = errors.New("no qualifying component")

func noQualifyingComponent(kind string) error {
	return fmt.Errorf("%w of type '%s' available", ErrNoQualifyingComponent, kind)
}

// Properties holds the IAP authentication settings
type Properties struct {
	// Enabled gates every component; when false nothing is configured
	Enabled bool
	// Audience lists the accepted aud claim values
	Audience []string
	// Header is the request header holding the IAP assertion
	Header string
	// Registry is the JWK set URL of the IAP signing keys
	Registry string
	// Algorithm is the signature algorithm of IAP assertions
	Algorithm string
	// Issuer is the expected iss claim
	Issuer string
}

// DefaultProperties returns Properties with every default applied
func DefaultProperties() Properties {
	return Properties{
		Enabled:   true,
		Header:    DefaultHeader,
		Registry:  DefaultRegistry,
		Algorithm: DefaultAlgorithm,
		Issuer:    DefaultIssuer,
	}
}

// withDefaults fills empty string settings with their defaults
func (p Properties) withDefaults() Properties {
	if p.Header == "" {
		p.Header = DefaultHeader
	}
	if p.Registry == "" {
		p.Registry = DefaultRegistry
	}
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Issuer == "" {
		p.Issuer = DefaultIssuer
	}
	return p
}

// Dependencies holds the collaborators available to Configure. Every field is optional.
// Decoder, BearerTokenResolver, AudienceProvider and AudienceValidator replace the
// component Configure would otherwise create.
type Dependencies struct {
	ProjectIDProvider   gcp.ProjectIDProvider
	EnvironmentProvider gcp.EnvironmentProvider
	MetadataProvider    gcp.MetadataProvider

	Decoder             Decoder
	BearerTokenResolver BearerTokenResolver
	AudienceProvider    AudienceProvider
	AudienceValidator   Validator

	// HTTPClient fetches the JWK set
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Components are the IAP authentication components selected by Configure
type Components struct {
	enabled           bool
	properties        Properties
	decoder           Decoder
	resolver          BearerTokenResolver
	audienceProvider  AudienceProvider
	audienceValidator Validator
	validator         *DelegatingValidator
}

// Configure selects the IAP authentication components for the given properties.
// ctx bounds background key set refreshes of the default decoder.
//
// When Enabled is false, no component is created and every accessor of the returned
// Components fails with ErrNoQualifyingComponent. Configure itself fails with
// ErrNoQualifyingComponent when no audience can be validated.
func Configure(ctx context.Context, props Properties, deps Dependencies) (*Components, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if !props.Enabled {
		logger.Info("IAP authentication is disabled")
		return &Components{properties: props}, nil
	}
	props = props.withDefaults()

	c := &Components{enabled: true, properties: props}

	c.resolver = deps.BearerTokenResolver
	if c.resolver == nil {
		c.resolver = NewHeaderBearerTokenResolver(props.Header)
	}

	audienceProvider, err := selectAudienceProvider(props, deps, logger)
	if err != nil {
		return nil, err
	}
	c.audienceProvider = audienceProvider

	c.audienceValidator = deps.AudienceValidator
	if c.audienceValidator == nil {
		if c.audienceProvider == nil {
			return nil, noQualifyingComponent("AudienceProvider")
		}
		c.audienceValidator = NewAudienceValidator(c.audienceProvider)
	}

	c.validator = NewDelegatingValidator(
		NewTimestampValidator(),
		NewIssuerValidator(props.Issuer),
		c.audienceValidator,
	)

	c.decoder = deps.Decoder
	if c.decoder == nil {
		decoder, err := NewJWKSDecoder(ctx, JWKSDecoderConfig{
			Registry:   props.Registry,
			Algorithm:  props.Algorithm,
			Validator:  c.validator,
			HTTPClient: deps.HTTPClient,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create IAP token decoder: %w", err)
		}
		c.decoder = decoder
	}

	logger.Info("IAP authentication configured",
		"header", props.Header,
		"registry", props.Registry,
		"algorithm", props.Algorithm,
		"issuer", props.Issuer,
		"custom_decoder", deps.Decoder != nil,
		"custom_resolver", deps.BearerTokenResolver != nil,
	)
	return c, nil
}

// selectAudienceProvider picks, in order: the supplied provider, the Audience property,
// the App Engine provider when running on App Engine. It returns nil when none applies.
func selectAudienceProvider(props Properties, deps Dependencies, logger *slog.Logger) (AudienceProvider, error) {
	if deps.AudienceProvider != nil {
		return deps.AudienceProvider, nil
	}
	if audiences := SplitAudiences(strings.Join(props.Audience, ",")); len(audiences) > 0 {
		logger.Debug("Using configured IAP audience", "audience", audiences)
		return NewStaticAudienceProvider(audiences...), nil
	}
	if deps.EnvironmentProvider != nil && deps.EnvironmentProvider.CurrentEnvironment().IsAppEngine() {
		logger.Debug("Deriving IAP audience from App Engine project metadata")
		provider, err := NewAppEngineAudienceProvider(deps.ProjectIDProvider, deps.MetadataProvider)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}
	return nil, nil
}

// Enabled reports whether IAP authentication is enabled
func (c *Components) Enabled() bool {
	return c.enabled
}

// Properties returns the effective properties
func (c *Components) Properties() Properties {
	return c.properties
}

// Decoder returns the token decoder
func (c *Components) Decoder() (Decoder, error) {
	if c.decoder == nil {
		return nil, noQualifyingComponent("Decoder")
	}
	return c.decoder, nil
}

// BearerTokenResolver returns the bearer token resolver
func (c *Components) BearerTokenResolver() (BearerTokenResolver, error) {
	if c.resolver == nil {
		return nil, noQualifyingComponent("BearerTokenResolver")
	}
	return c.resolver, nil
}

// AudienceProvider returns the audience provider
func (c *Components) AudienceProvider() (AudienceProvider, error) {
	if c.audienceProvider == nil {
		return nil, noQualifyingComponent("AudienceProvider")
	}
	return c.audienceProvider, nil
}

// AudienceValidator returns the audience validator
func (c *Components) AudienceValidator() (Validator, error) {
	if c.audienceValidator == nil {
		return nil, noQualifyingComponent("AudienceValidator")
	}
	return c.audienceValidator, nil
}

// DelegatingValidator returns the validator combining timestamp, issuer and audience checks
func (c *Components) DelegatingValidator() (*DelegatingValidator, error) {
	if c.validator == nil {
		return nil, noQualifyingComponent("DelegatingValidator")
	}
	return c.validator, nil
}
