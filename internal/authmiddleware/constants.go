package authmiddleware

// HTTP header constants used by the authentication middleware
const (
	// Headers set on successful verification, read by the auth proxy
	HeaderAuthRequestUser  = "X-Auth-Request-User"
	HeaderAuthRequestEmail = "X-Auth-Request-Email"

	// Headers from reverse proxy
	HeaderForwardedURI    = "X-Forwarded-Uri"
	HeaderForwardedHost   = "X-Forwarded-Host"
	HeaderForwardedMethod = "X-Forwarded-Method"
)

// Route paths served by the middleware
const (
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
	RouteVerify  = "/verify"
)
