package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueAPIToken mints a locally-issued HS256 bearer token. The resulting
// token validates through the verifier's API path.
func IssueAPIToken(secret, userID, email string, roles, scopes []string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":     "agenthub-api",
		"aud":     APITokenAudience,
		"type":    "api_token",
		"user_id": userID,
		"sub":     userID,
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}
	if len(scopes) > 0 {
		claims["scopes"] = scopes
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
