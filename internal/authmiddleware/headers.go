package authmiddleware

import (
	"fmt"
	"net/http"
	"strings"
)

// GetForwardedHost extracts the X-Forwarded-Host header from the request
func GetForwardedHost(r *http.Request) (string, error) {
	host := r.Header.Get(HeaderForwardedHost)
	if host == "" {
		return "", fmt.Errorf("missing %s header", HeaderForwardedHost)
	}
	return host, nil
}

// GetForwardedURI extracts the X-Forwarded-Uri header from the request
func GetForwardedURI(r *http.Request) (string, error) {
	uri := r.Header.Get(HeaderForwardedURI)
	if uri == "" {
		return "", fmt.Errorf("missing %s header", HeaderForwardedURI)
	}
	return uri, nil
}

// GetForwardedMethod extracts the X-Forwarded-Method header from the request
func GetForwardedMethod(r *http.Request) (string, error) {
	method := r.Header.Get(HeaderForwardedMethod)
	if method == "" {
		return "", fmt.Errorf("missing %s header", HeaderForwardedMethod)
	}
	return method, nil
}

// UserFromSubject strips the identity provider prefix IAP puts in front of the user id,
// "accounts.google.com:1234" becoming "1234"
func UserFromSubject(subject string) string {
	if i := strings.LastIndex(subject, ":"); i >= 0 {
		return subject[i+1:]
	}
	return subject
}
