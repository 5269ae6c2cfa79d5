/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	jwt5 "github.com/golang-jwt/jwt/v5"
)

// Decoder turns an encoded token into a verified, validated Token
type Decoder interface {
	Decode(ctx context.Context, raw string) (*Token, error)
}

// DecoderFunc adapts a function to Decoder
type DecoderFunc func(ctx context.Context, raw string) (*Token, error)

// Decode calls f
func (f DecoderFunc) Decode(ctx context.Context, raw string) (*Token, error) {
	return f(ctx, raw)
}

// JWKSDecoderConfig configures a JWKSDecoder
type JWKSDecoderConfig struct {
	// Registry is the URL of the JWK set holding the signing keys
	Registry string
	// Algorithm is the only accepted signature algorithm
	Algorithm string
	// Validator runs on every token whose signature is valid
	Validator Validator
	// HTTPClient fetches the JWK set; nil uses http.DefaultClient
	HTTPClient *http.Client
}

// JWKSDecoder verifies token signatures against a remote JWK set, then runs the
// configured validator. Keys are fetched lazily and refreshed when an unknown key id is seen.
type JWKSDecoder struct {
	verifier  *oidc.IDTokenVerifier
	validator Validator
	parser    *jwt5.Parser
	registry  string
}

// NewJWKSDecoder creates a JWKSDecoder. ctx bounds the lifetime of key set refreshes
// and must outlive the decoder.
func NewJWKSDecoder(ctx context.Context, cfg JWKSDecoderConfig) (*JWKSDecoder, error) {
	if cfg.Registry == "" {
		return nil, errors.New("JWK set registry URL is required")
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = DefaultAlgorithm
	}
	if cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, cfg.HTTPClient)
	}

	keySet := oidc.NewRemoteKeySet(ctx, cfg.Registry)

	// Issuer, audience and expiry are checked by the configured validator so that
	// every failure is reported, not only the first.
	verifier := oidc.NewVerifier("", keySet, &oidc.Config{
		SkipClientIDCheck:    true,
		SkipIssuerCheck:      true,
		SkipExpiryCheck:      true,
		SupportedSigningAlgs: []string{cfg.Algorithm},
	})

	return &JWKSDecoder{
		verifier:  verifier,
		validator: cfg.Validator,
		parser:    jwt5.NewParser(),
		registry:  cfg.Registry,
	}, nil
}

// Registry returns the JWK set URL
func (d *JWKSDecoder) Registry() string {
	return d.registry
}

// Decode implements Decoder
func (d *JWKSDecoder) Decode(ctx context.Context, raw string) (*Token, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	idToken, err := d.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// The signature has been verified above
	token := &Token{Raw: raw}
	parsed, _, err := d.parser.ParseUnverified(raw, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	token.Header = parsed.Header

	if err := idToken.Claims(&token.Claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", ErrInvalidToken, err)
	}

	if d.validator != nil {
		if result := d.validator.Validate(ctx, token); result.HasErrors() {
			return nil, &ValidationError{Result: result}
		}
	}
	return token, nil
}
