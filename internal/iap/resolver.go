/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import "net/http"

// BearerTokenResolver extracts the token to authenticate from a request
type BearerTokenResolver interface {
	// Resolve returns the token and true, or false when the request carries none
	Resolve(r *http.Request) (string, bool)
}

// ResolverFunc adapts a function to BearerTokenResolver
type ResolverFunc func(r *http.Request) (string, bool)

// Resolve calls f
func (f ResolverFunc) Resolve(r *http.Request) (string, bool) {
	return f(r)
}

// HeaderBearerTokenResolver reads the token from a single request header, unmodified
type HeaderBearerTokenResolver struct {
	header string
}

// NewHeaderBearerTokenResolver creates a HeaderBearerTokenResolver for the given header
func NewHeaderBearerTokenResolver(header string) *HeaderBearerTokenResolver {
	return &HeaderBearerTokenResolver{header: http.CanonicalHeaderKey(header)}
}

// Header returns the header the resolver reads
func (h *HeaderBearerTokenResolver) Header() string {
	return h.header
}

// Resolve implements BearerTokenResolver
func (h *HeaderBearerTokenResolver) Resolve(r *http.Request) (string, bool) {
	values, ok := r.Header[h.header]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
