/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwt5 "github.com/golang-jwt/jwt/v5"
	"github.com/jupyter-infra/gcp-iap-auth/internal/gcp"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

const (
	testKeyID         = "test-key-1"
	testProjectID     = "my-project"
	testProjectNumber = "123456789012"
	fakeUserToken     = "lol cats forever"
)

// testIssuer signs ES256 tokens and serves the matching JWK set
type testIssuer struct {
	key      *ecdsa.PrivateKey
	server   *httptest.Server
	requests atomic.Int32
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	publicKey, err := jwk.FromRaw(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, publicKey.Set(jwk.KeyIDKey, testKeyID))
	require.NoError(t, publicKey.Set(jwk.AlgorithmKey, DefaultAlgorithm))
	require.NoError(t, publicKey.Set(jwk.KeyUsageKey, "sig"))

	keySet := jwk.NewSet()
	require.NoError(t, keySet.AddKey(publicKey))
	body, err := json.Marshal(keySet)
	require.NoError(t, err)

	issuer := &testIssuer{key: key}
	issuer.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issuer.requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(issuer.server.Close)
	return issuer
}

func (i *testIssuer) sign(t *testing.T, claims jwt5.Claims) string {
	t.Helper()
	return signWith(t, i.key, claims)
}

func signWith(t *testing.T, key *ecdsa.PrivateKey, claims jwt5.Claims) string {
	t.Helper()
	token := jwt5.NewWithClaims(jwt5.SigningMethodES256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

// iapClaims returns the claims of a currently valid IAP assertion
func iapClaims(audience ...string) *Token {
	now := time.Now()
	return &Token{
		RegisteredClaims: jwt5.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   "accounts.google.com:1234567890",
			Audience:  audience,
			ExpiresAt: jwt5.NewNumericDate(now.Add(10 * time.Minute)),
			IssuedAt:  jwt5.NewNumericDate(now),
		},
		Email: "user@example.com",
	}
}

// mockMetadataProvider implements gcp.MetadataProvider for testing
type mockMetadataProvider struct {
	projectID string
	number    string
	err       error
	calls     int
}

var _ gcp.MetadataProvider = (*mockMetadataProvider)(nil)

func (m *mockMetadataProvider) ProjectID(ctx context.Context) (string, error) {
	return m.projectID, m.err
}

func (m *mockMetadataProvider) NumericProjectID(ctx context.Context) (string, error) {
	m.calls++
	return m.number, m.err
}

func mockProjectIDProvider() gcp.ProjectIDProvider {
	return gcp.ProjectIDProviderFunc(func(ctx context.Context) (string, error) {
		return testProjectID, nil
	})
}

func mockEnvironmentProvider(env gcp.Environment) gcp.EnvironmentProvider {
	return gcp.EnvironmentProviderFunc(func() gcp.Environment { return env })
}

// testDependencies mirrors the collaborators present in every deployment
func testDependencies() Dependencies {
	return Dependencies{
		ProjectIDProvider:   mockProjectIDProvider(),
		EnvironmentProvider: mockEnvironmentProvider(gcp.Unknown),
	}
}

func iapRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DefaultHeader, "very fake jwt")
	return req
}

func nonIapRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/", nil)
}

func propertiesWithAudience(audience ...string) Properties {
	props := DefaultProperties()
	props.Audience = audience
	return props
}
