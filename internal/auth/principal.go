package auth

import (
	"context"
)

// TokenType distinguishes the two accepted issuers.
type TokenType string

const (
	TokenTypePlatform TokenType = "platform"
	TokenTypeAPI      TokenType = "api"
)

// Principal is the authenticated user and token metadata for one request.
type Principal struct {
	UserID    string
	Email     string
	Roles     []string
	Scopes    []string
	TokenType TokenType
	Issuer    string
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal may use admin-only paths.
func (p *Principal) IsAdmin() bool { return p.HasRole("admin") }

type ctxKey int

const principalKey ctxKey = 0

// WithPrincipal returns a context carrying the principal. The dispatcher
// sets it immediately after verification; nothing else may.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the request principal. There is no fallback user:
// an absent principal means the request is unauthenticated.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil && p.UserID != ""
}
