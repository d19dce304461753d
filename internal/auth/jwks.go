package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// jwksCache holds the platform issuer's RSA signing keys with a staleness
// deadline. Lookups refresh the set at most once: either because the
// deadline passed or because an unknown kid suggests the issuer rotated
// its keys.
type jwksCache struct {
	url    string
	client *http.Client
	ttl    time.Duration

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	staleAt time.Time
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func newJWKSCache(url string) *jwksCache {
	return &jwksCache{
		url: url,
		ttl: time.Hour,
		client: &http.Client{
			Timeout: 10 * time.Second, // Prevent hanging on slow/stalled JWKS endpoint
		},
	}
}

// warm pre-fetches the key set; callers treat failure as non-fatal since
// the first lookup retries.
func (c *jwksCache) warm() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked()
}

// keyFor returns the signing key for kid. A fresh hit is served from the
// cache; otherwise the set is refreshed once and re-checked. When the
// issuer is unreachable a stale key is better than failing every token.
func (c *jwksCache) keyFor(kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, fmt.Errorf("token header has no kid")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[kid]; ok && time.Now().Before(c.staleAt) {
		return key, nil
	}

	if err := c.refreshLocked(); err != nil {
		if key, ok := c.keys[kid]; ok {
			log.Warn().Err(err).Msg("JWKS refresh failed, serving previously cached key")
			return key, nil
		}
		return nil, fmt.Errorf("JWKS unavailable: %w", err)
	}

	key, ok := c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("signing key %q not published by issuer", kid)
	}
	return key, nil
}

// refreshLocked replaces the key set from the issuer endpoint. The caller
// holds c.mu.
func (c *jwksCache) refreshLocked() error {
	resp, err := c.client.Get(c.url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint answered %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode JWKS document: %w", err)
	}

	keys := map[string]*rsa.PublicKey{}
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Use != "sig" || k.Kid == "" {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			log.Warn().Err(err).Str("kid", k.Kid).Msg("skipping unusable JWKS entry")
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("issuer JWKS contains no usable RSA signing keys")
	}

	c.keys = keys
	c.staleAt = time.Now().Add(c.ttl)
	log.Info().Int("key_count", len(keys)).Msg("JWKS key set refreshed")
	return nil
}

// rsaPublicKey materializes the modulus and exponent from their base64url
// encodings.
func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	mod, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	expBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}

	exp := new(big.Int).SetBytes(expBytes)
	if !exp.IsInt64() || exp.Int64() <= 0 || exp.Int64() > int64(^uint32(0)) {
		return nil, fmt.Errorf("exponent out of range")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(mod),
		E: int(exp.Int64()),
	}, nil
}
