package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub/agenthub-api/internal/domain"
)

const testSecret = "test-secret"

func testVerifier() *Verifier {
	return NewVerifier(Config{
		APITokenSecret: testSecret,
		ClockSkew:      30 * time.Second,
	})
}

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestVerifyAPIToken(t *testing.T) {
	v := testVerifier()

	raw, err := IssueAPIToken(testSecret, "user-1", "u1@example.com",
		[]string{"user"}, []string{"mcp:access"}, time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "u1@example.com", p.Email)
	assert.Equal(t, TokenTypeAPI, p.TokenType)
	assert.Equal(t, []string{"user"}, p.Roles)
	assert.Equal(t, []string{"mcp:access"}, p.Scopes)
	assert.True(t, p.HasRole("user"))
	assert.False(t, p.IsAdmin())
}

func TestVerifyMissingToken(t *testing.T) {
	_, err := testVerifier().Verify("")
	require.Error(t, err)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeUnauthenticated, de.Code)
}

func TestVerifyExpiredToken(t *testing.T) {
	raw, err := IssueAPIToken(testSecret, "user-1", "", nil, nil, -2*time.Hour)
	require.NoError(t, err)

	_, err = testVerifier().Verify(raw)
	require.Error(t, err)
	de, _ := domain.AsError(err)
	assert.Equal(t, domain.CodeUnauthenticated, de.Code)
	assert.Contains(t, de.Message, "expired")
}

func TestVerifyAudienceMismatch(t *testing.T) {
	now := time.Now().UTC()
	raw := signHS256(t, jwt.MapClaims{
		"aud":     "other-service",
		"type":    "api_token",
		"user_id": "user-1",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})

	_, err := testVerifier().Verify(raw)
	require.Error(t, err)
	de, _ := domain.AsError(err)
	assert.Equal(t, domain.CodeUnauthenticated, de.Code)
	assert.Contains(t, de.Message, "audience mismatch")
}

func TestVerifyRejectsNonAPITokenType(t *testing.T) {
	now := time.Now().UTC()
	raw := signHS256(t, jwt.MapClaims{
		"aud":     APITokenAudience,
		"type":    "session",
		"user_id": "user-1",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})

	_, err := testVerifier().Verify(raw)
	require.Error(t, err)
}

func TestVerifyAudienceListForm(t *testing.T) {
	now := time.Now().UTC()
	raw := signHS256(t, jwt.MapClaims{
		"aud":     []string{"something-else", APITokenAudience},
		"type":    "api_token",
		"user_id": "user-1",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})

	p, err := testVerifier().Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
}

func TestVerifyBadSignature(t *testing.T) {
	now := time.Now().UTC()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud":     APITokenAudience,
		"type":    "api_token",
		"user_id": "user-1",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = testVerifier().Verify(token)
	require.Error(t, err)
	de, _ := domain.AsError(err)
	assert.Equal(t, domain.CodeUnauthenticated, de.Code)
}

func TestVerifyRS256WithoutPlatformConfigured(t *testing.T) {
	// An RS256 token cannot validate when no platform issuer is configured.
	v := testVerifier()
	_, err := v.Verify("eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9.e30.sig")
	require.Error(t, err)
}
