// Package auth verifies bearer tokens and extracts tenant/role claims.
package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Modes: dev accepts "tenant:role" tokens, hmac checks HS256, jwks checks
// RS256 against keys fetched from JWKSURL.
const (
	ModeDev  = "dev"
	ModeHMAC = "hmac"
	ModeJWKS = "jwks"
)

// Options configures a Verifier.
type Options struct {
	Mode        string `yaml:"mode"`
	HMACSecret  string `yaml:"hmacSecret"`
	JWKSURL     string `yaml:"jwksUrl"`
	TenantClaim string `yaml:"tenantClaim"`
	RoleClaim   string `yaml:"roleClaim"`
}

// Verifier validates tokens. It is safe for concurrent use.
type Verifier struct {
	opts     Options
	http     *http.Client
	cacheTTL time.Duration

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time
}

type Principal struct {
	Tenant string
	Role   string
}

func NewVerifier(o Options) *Verifier {
	o.Mode = strings.ToLower(strings.TrimSpace(o.Mode))
	if o.Mode == "" {
		o.Mode = ModeDev
	}
	if o.TenantClaim == "" {
		o.TenantClaim = "tenant"
	}
	if o.RoleClaim == "" {
		o.RoleClaim = "role"
	}
	return &Verifier{opts: o, http: &http.Client{Timeout: 5 * time.Second}, cacheTTL: 10 * time.Minute}
}

// Mode reports the configured mode.
func (v *Verifier) Mode() string { return v.opts.Mode }

func (v *Verifier) Verify(token string) (Principal, error) {
	if v.opts.Mode == ModeDev {
		tenant, role, ok := strings.Cut(token, ":")
		if !ok || tenant == "" {
			return Principal{}, errors.New("invalid dev token; expected tenant:role")
		}
		return Principal{Tenant: tenant, Role: strings.ToLower(role)}, nil
	}
	var (
		keyFunc jwt.Keyfunc
		method  string
	)
	switch v.opts.Mode {
	case ModeHMAC:
		if v.opts.HMACSecret == "" {
			return Principal{}, errors.New("hmac secret not configured")
		}
		method = jwt.SigningMethodHS256.Alg()
		keyFunc = func(*jwt.Token) (any, error) { return []byte(v.opts.HMACSecret), nil }
	case ModeJWKS:
		method = jwt.SigningMethodRS256.Alg()
		keyFunc = func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			return v.publicKey(kid)
		}
	default:
		return Principal{}, fmt.Errorf("unsupported auth mode %q", v.opts.Mode)
	}
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, keyFunc, jwt.WithValidMethods([]string{method})); err != nil {
		return Principal{}, err
	}
	tenant, _ := claims[v.opts.TenantClaim].(string)
	role, _ := claims[v.opts.RoleClaim].(string)
	if tenant == "" {
		return Principal{}, errors.New("missing tenant claim")
	}
	if role == "" {
		role = "viewer"
	}
	return Principal{Tenant: tenant, Role: strings.ToLower(role)}, nil
}

type jwks struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// publicKey returns the RSA key for kid, refetching the key set when it is
// stale or does not know kid.
func (v *Verifier) publicKey(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	k, ok := v.keys[kid]
	stale := time.Since(v.lastFetch) > v.cacheTTL
	v.mu.RUnlock()
	if ok && !stale {
		return k, nil
	}
	if err := v.fetchJWKS(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if k, ok := v.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("kid %q not found in JWKS", kid)
}

func (v *Verifier) fetchJWKS() error {
	if v.opts.JWKSURL == "" {
		return errors.New("jwks url not set")
	}
	resp, err := v.http.Get(v.opts.JWKSURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch: status %d", resp.StatusCode)
	}
	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return err
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if !strings.EqualFold(k.Kty, "RSA") {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return fmt.Errorf("jwks key %s: %w", k.Kid, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return fmt.Errorf("jwks key %s: %w", k.Kid, err)
		}
		keys[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(new(big.Int).SetBytes(e).Int64())}
	}
	v.mu.Lock()
	v.keys = keys
	v.lastFetch = time.Now()
	v.mu.Unlock()
	return nil
}
