package authmiddleware

import (
	"net/http"

	"github.com/jupyter-infra/gcp-iap-auth/internal/iap"
	"github.com/jupyter-infra/gcp-iap-auth/internal/stackdriver"
	"github.com/jupyter-infra/gcp-iap-auth/internal/stringutil"
)

// handleVerify answers forward-auth requests once the IAP middleware has authenticated them.
// The caller identity is returned in response headers for the proxy to pass upstream.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	logger := stackdriver.GetLoggerFromContext(r.Context())

	requestPath, _ := GetForwardedURI(r)
	requestHost, _ := GetForwardedHost(r)
	requestMethod, _ := GetForwardedMethod(r)

	token, ok := iap.TokenFromContext(r.Context())
	if !ok {
		// Only reachable with IAP authentication disabled
		logger.V(1).Info("Verified request without IAP identity",
			"host", requestHost, "uri", requestPath, "forwarded_method", requestMethod)
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set(HeaderAuthRequestUser, stringutil.EscapeHeaderValue(UserFromSubject(token.Subject)))
	if token.Email != "" {
		w.Header().Set(HeaderAuthRequestEmail, stringutil.EscapeHeaderValue(token.Email))
	}

	logger.Info("Verified IAP request",
		"subject", token.Subject,
		"email", token.Email,
		"host", requestHost,
		"uri", requestPath,
		"forwarded_method", requestMethod)
	w.WriteHeader(http.StatusOK)
}
