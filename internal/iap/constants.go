/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

// Package iap verifies the signed identity headers attached by Google Identity-Aware Proxy
// and selects the decoder, bearer token resolver and validators from configuration.
package iap

import "time"

// Default values
const (
	// DefaultHeader is the request header IAP stores the signed JWT in
	DefaultHeader = "x-goog-iap-jwt-assertion"
	// DefaultRegistry is the JWK set used to sign IAP assertions
	DefaultRegistry = "https://www.gstatic.com/iap/verify/public_key-jwk"
	// DefaultAlgorithm is the signature algorithm of IAP assertions
	DefaultAlgorithm = "ES256"
	// DefaultIssuer is the iss claim of IAP assertions
	DefaultIssuer = "https://cloud.google.com/iap"
	// DefaultClockSkew is the leeway applied to exp and nbf
	DefaultClockSkew = 60 * time.Second
)

// OAuth2 error code reported by every token validator
const ErrorCodeInvalidToken = "invalid_token"

// Validation error descriptions
const (
	DescriptionInvalidIssuer    = "The iss claim is not valid"
	DescriptionInvalidAudience  = "This aud claim is not equal to the configured audience"
	DescriptionAudienceNotFound = "The configured audience could not be determined"
)
