package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/domain"
)

// APITokenAudience is the audience every locally-issued API token carries.
const APITokenAudience = "mcp-server"

// apiTokenType is the required type claim on locally-issued tokens.
const apiTokenType = "api_token"

// platformDefaultAudience is always accepted on platform tokens for
// compatibility with platform-issued session tokens.
const platformDefaultAudience = "authenticated"

// defaultPlatformScopes applies when a platform token carries no scopes.
var defaultPlatformScopes = []string{"mcp:access"}

// Config holds verifier configuration for both issuers.
type Config struct {
	PlatformIssuer   string        // upstream OIDC issuer URL
	JWKSURL          string        // upstream JWKS endpoint
	PlatformAudience string        // optional audience accepted alongside "authenticated"
	APITokenSecret   string        // HMAC secret for locally-issued API tokens
	ClockSkew        time.Duration // leeway applied to exp/nbf
}

// Verifier validates bearer tokens from the two accepted issuers and
// produces the request principal. Exactly one path must validate: RS256
// tokens go through the platform JWKS path, HS256 tokens through the API
// token path, and the signing method decides which.
type Verifier struct {
	cfg  Config
	jwks *jwksCache
}

// NewVerifier builds a verifier; the JWKS cache is pre-fetched best-effort
// when a platform issuer is configured.
func NewVerifier(cfg Config) *Verifier {
	v := &Verifier{cfg: cfg}
	if cfg.JWKSURL != "" {
		v.jwks = newJWKSCache(cfg.JWKSURL)
		if err := v.jwks.warm(); err != nil {
			log.Warn().Err(err).Msg("failed to pre-fetch JWKS (will retry on first request)")
		} else {
			log.Info().Str("jwks_url", cfg.JWKSURL).Msg("platform RS256 validation enabled")
		}
	}
	return v
}

// Verify validates a raw bearer token and returns the principal.
func (v *Verifier) Verify(raw string) (*Principal, error) {
	if raw == "" {
		return nil, domain.Unauthenticated("missing token")
	}

	claims := jwt.MapClaims{}
	var tokenType TokenType

	parser := []jwt.ParserOption{
		jwt.WithLeeway(v.cfg.ClockSkew),
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
	}

	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA:
			// Platform token path: key from the issuer's JWKS.
			if v.jwks == nil {
				return nil, errors.New("platform issuer not configured")
			}
			kid, _ := t.Header["kid"].(string)
			tokenType = TokenTypePlatform
			return v.jwks.keyFor(kid)

		case *jwt.SigningMethodHMAC:
			// API token path: the server's own secret.
			if v.cfg.APITokenSecret == "" {
				return nil, errors.New("API token secret not configured")
			}
			tokenType = TokenTypeAPI
			return []byte(v.cfg.APITokenSecret), nil

		default:
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
	}, parser...)

	if err != nil || !t.Valid {
		return nil, mapJWTError(err)
	}

	switch tokenType {
	case TokenTypePlatform:
		return v.platformPrincipal(claims)
	case TokenTypeAPI:
		return v.apiPrincipal(claims)
	default:
		return nil, domain.Unauthenticated("signature invalid")
	}
}

func mapJWTError(err error) error {
	switch {
	case err == nil:
		return domain.Unauthenticated("invalid token")
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.Unauthenticated("token expired")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return domain.Unauthenticated("token not valid yet")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.Unauthenticated("signature invalid")
	default:
		return domain.Unauthenticated("invalid token").WithCause(err)
	}
}

// platformPrincipal validates platform claims: issuer must match when
// configured and the audience must include "authenticated" or the
// configured audience.
func (v *Verifier) platformPrincipal(claims jwt.MapClaims) (*Principal, error) {
	issuer, _ := claims["iss"].(string)
	if v.cfg.PlatformIssuer != "" && issuer != v.cfg.PlatformIssuer {
		return nil, domain.Unauthenticated("issuer mismatch").
			WithDetail("expected_issuer", v.cfg.PlatformIssuer)
	}

	accepted := []string{platformDefaultAudience}
	if v.cfg.PlatformAudience != "" {
		accepted = append(accepted, v.cfg.PlatformAudience)
	}
	if !audienceMatches(claims["aud"], accepted) {
		return nil, domain.Unauthenticated("audience mismatch").
			WithDetail("accepted_audiences", accepted)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.Unauthenticated("missing sub claim")
	}

	email, _ := claims["email"].(string)
	scopes := stringSlice(claims["scopes"])
	if len(scopes) == 0 {
		scopes = defaultPlatformScopes
	}

	return &Principal{
		UserID:    sub,
		Email:     email,
		Roles:     rolesFromClaims(claims),
		Scopes:    scopes,
		TokenType: TokenTypePlatform,
		Issuer:    issuer,
	}, nil
}

// apiPrincipal validates locally-issued token claims: aud must be
// "mcp-server" and the type claim must be "api_token".
func (v *Verifier) apiPrincipal(claims jwt.MapClaims) (*Principal, error) {
	if !audienceMatches(claims["aud"], []string{APITokenAudience}) {
		return nil, domain.Unauthenticated("audience mismatch").
			WithDetail("accepted_audiences", []string{APITokenAudience})
	}
	if typ, _ := claims["type"].(string); typ != apiTokenType {
		return nil, domain.Unauthenticated("not an API token")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, domain.Unauthenticated("missing user_id claim")
	}

	email, _ := claims["email"].(string)
	issuer, _ := claims["iss"].(string)

	return &Principal{
		UserID:    userID,
		Email:     email,
		Roles:     rolesFromClaims(claims),
		Scopes:    stringSlice(claims["scopes"]),
		TokenType: TokenTypeAPI,
		Issuer:    issuer,
	}, nil
}

func rolesFromClaims(claims jwt.MapClaims) []string {
	roles := stringSlice(claims["roles"])
	if len(roles) == 0 {
		roles = []string{"user"}
	}
	return roles
}

// audienceMatches handles both the single-string and list forms of aud.
func audienceMatches(aud any, accepted []string) bool {
	switch a := aud.(type) {
	case string:
		for _, want := range accepted {
			if a == want {
				return true
			}
		}
	case []any:
		for _, entry := range a {
			if s, ok := entry.(string); ok {
				for _, want := range accepted {
					if s == want {
						return true
					}
				}
			}
		}
	case []string:
		for _, s := range a {
			for _, want := range accepted {
				if s == want {
					return true
				}
			}
		}
	}
	return false
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, entry := range t {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}
