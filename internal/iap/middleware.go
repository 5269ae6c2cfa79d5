/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import (
	"net/http"

	"github.com/jupyter-infra/gcp-iap-auth/internal/stackdriver"
)

// Middleware authenticates requests with the configured resolver and decoder.
// Requests without a valid token are rejected with 401; the decoded token is
// available to next through TokenFromContext. metrics may be nil.
func Middleware(components *Components, metrics *Metrics) (func(http.Handler) http.Handler, error) {
	resolver, err := components.BearerTokenResolver()
	if err != nil {
		return nil, err
	}
	decoder, err := components.Decoder()
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := stackdriver.GetLoggerFromContext(r.Context())

			raw, ok := resolver.Resolve(r)
			if !ok || raw == "" {
				logger.V(1).Info("Request carries no IAP assertion", "path", r.URL.Path)
				metrics.observe(ResultMissingToken)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := decoder.Decode(r.Context(), raw)
			if err != nil {
				logger.Info("Rejected IAP assertion", "error", err.Error())
				metrics.observe(ResultInvalidToken)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			metrics.observe(ResultSuccess)
			logger.V(1).Info("Authenticated IAP request", "subject", token.Subject, "email", token.Email)
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}, nil
}
