/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import (
	"context"

	jwt5 "github.com/golang-jwt/jwt/v5"
)

// Token is a decoded IAP assertion
type Token struct {
	jwt5.RegisteredClaims
	// Email of the authenticated user
	Email string `json:"email,omitempty"`

	// Raw is the encoded token as received
	Raw string `json:"-"`
	// Header holds the JOSE header parameters
	Header map[string]any `json:"-"`
	// Claims holds every claim of the payload, including the registered ones
	Claims map[string]any `json:"-"`
}

type tokenKey struct{}

// WithToken returns a new Context carrying the authenticated token
func WithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the authenticated token stored in context
func TokenFromContext(ctx context.Context) (*Token, bool) {
	token, ok := ctx.Value(tokenKey{}).(*Token)
	return token, ok && token != nil
}
