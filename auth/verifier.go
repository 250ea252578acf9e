package auth

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/ByGamer01/DamnBruh/models"
)

const (
	// jwksCacheTTL bounds how long a fetched key set is trusted before a
	// refresh is attempted. Stale keys are kept if the refresh fails.
	jwksCacheTTL = time.Hour

	// resultCacheTTL bounds how long a verified token is accepted without
	// re-checking the signature
	resultCacheTTL = time.Hour
)

// Config carries the identity provider settings for token verification
type Config struct {
	AppID     string
	AppSecret string
	// BaseURL is the identity provider origin, also used as the expected
	// token issuer
	BaseURL string
}

// Identity carries the verified claims extracted from a token
type Identity struct {
	PrivyUserID   string
	Email         *string
	WalletAddress *string
}

type cachedIdentity struct {
	identity  Identity
	expiresAt time.Time
}

// Verifier validates provider-issued access tokens against the provider's
// published JWKS. Keys and verification results are cached; a provider
// outage does not invalidate previously fetched keys.
type Verifier struct {
	cfg        Config
	httpClient *http.Client

	keysMu        sync.RWMutex
	keys          map[string]*rsa.PublicKey
	keysFetchedAt time.Time

	resultsMu sync.RWMutex
	results   map[[32]byte]cachedIdentity
}

// NewVerifier creates a verifier for the given provider configuration
func NewVerifier(cfg Config) *Verifier {
	return &Verifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		keys:    make(map[string]*rsa.PublicKey),
		results: make(map[[32]byte]cachedIdentity),
	}
}

// Verify validates the token's signature and claims and returns the
// identity it asserts. Repeated verification of the same token within the
// result cache window skips the signature check.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	key := sha256.Sum256([]byte(token))

	v.resultsMu.RLock()
	cached, ok := v.results[key]
	v.resultsMu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		identity := cached.identity
		return &identity, nil
	}

	identity, err := v.verifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	v.resultsMu.Lock()
	v.results[key] = cachedIdentity{
		identity:  *identity,
		expiresAt: time.Now().Add(resultCacheTTL),
	}
	v.resultsMu.Unlock()

	return identity, nil
}

func (v *Verifier) verifyToken(ctx context.Context, token string) (*Identity, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}

		kid, _ := t.Header["kid"].(string)
		key, err := v.signingKey(ctx, kid)
		if err != nil {
			return nil, err
		}
		return key, nil
	},
		jwt.WithIssuer(v.cfg.BaseURL),
		jwt.WithAudience(v.cfg.AppID),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", models.ErrInvalidToken)
	}

	return &Identity{PrivyUserID: claims.Subject}, nil
}

// signingKey returns the RSA key for the given key ID, refreshing the
// JWKS cache when the ID is unknown or the cache has expired
func (v *Verifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.keysMu.RLock()
	key, ok := v.keys[kid]
	fresh := time.Since(v.keysFetchedAt) < jwksCacheTTL
	v.keysMu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		// Keep serving the stale key set if the provider is unreachable
		if ok {
			logrus.WithError(err).Warn("JWKS refresh failed, using cached keys")
			return key, nil
		}
		return nil, err
	}

	v.keysMu.RLock()
	key, ok = v.keys[kid]
	v.keysMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no signing key with id %q", kid)
	}

	return key, nil
}

type jwksDocument struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *Verifier) refreshKeys(ctx context.Context) error {
	url := v.cfg.BaseURL + "/.well-known/jwks.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build JWKS request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, jwk := range doc.Keys {
		if jwk.Kty != "RSA" {
			continue
		}

		key, err := parseRSAKey(jwk.N, jwk.E)
		if err != nil {
			logrus.WithField("kid", jwk.Kid).WithError(err).Warn("Skipping unparseable JWKS key")
			continue
		}
		keys[jwk.Kid] = key
	}

	if len(keys) == 0 {
		return errors.New("JWKS contained no usable RSA keys")
	}

	v.keysMu.Lock()
	v.keys = keys
	v.keysFetchedAt = time.Now()
	v.keysMu.Unlock()

	return nil
}

// parseRSAKey builds an RSA public key from base64url modulus and exponent
func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	exponent := 0
	for _, b := range eBytes {
		exponent = exponent<<8 | int(b)
	}
	if exponent <= 1 {
		return nil, fmt.Errorf("exponent %d out of range", exponent)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: exponent,
	}, nil
}
