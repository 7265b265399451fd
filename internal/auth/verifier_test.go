package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevTokens(t *testing.T) {
	v := NewVerifier(Options{})
	assert.Equal(t, ModeDev, v.Mode())

	p, err := v.Verify("t_acme:Planner")
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "t_acme", Role: "planner"}, p)

	_, err = v.Verify("nocolon")
	assert.Error(t, err)
}

func TestHMACTokens(t *testing.T) {
	v := NewVerifier(Options{Mode: "HMAC", HMACSecret: "s3cret"})
	sign := func(secret string, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	p, err := v.Verify(sign("s3cret", jwt.MapClaims{"tenant": "t1", "role": "admin"}))
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "t1", Role: "admin"}, p)

	p, err = v.Verify(sign("s3cret", jwt.MapClaims{"tenant": "t1"}))
	require.NoError(t, err)
	assert.Equal(t, "viewer", p.Role)

	_, err = v.Verify(sign("wrong", jwt.MapClaims{"tenant": "t1"}))
	assert.Error(t, err)

	_, err = v.Verify(sign("s3cret", jwt.MapClaims{"role": "admin"}))
	assert.EqualError(t, err, "missing tenant claim")

	_, err = v.Verify(sign("s3cret", jwt.MapClaims{"tenant": "t1", "exp": time.Now().Add(-time.Minute).Unix()}))
	assert.Error(t, err)
}

func TestJWKSTokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "k1",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	v := NewVerifier(Options{Mode: ModeJWKS, JWKSURL: srv.URL, TenantClaim: "org", RoleClaim: "perm"})
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{"org": "t9", "perm": "planner"})
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString(key)
	require.NoError(t, err)

	p, err := v.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "t9", Role: "planner"}, p)
	_, err = v.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, 1, fetches, "cached key set should be reused")

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"org": "t9"}).SignedString([]byte("x"))
	require.NoError(t, err)
	_, err = v.Verify(hs)
	assert.Error(t, err, "HS256 must be rejected in jwks mode")
}
