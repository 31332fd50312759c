package main

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// buildUnsignedGoogleToken assembles a structurally valid JWT the way the
// Google Identity Services widget delivers them, without a real signature.
func buildUnsignedGoogleToken(t *testing.T, name, email string, expiry time.Time) string {
	t.Helper()
	return buildGoogleTokenWithClaims(t, map[string]any{
		"name":  name,
		"email": email,
		"exp":   expiry.Unix(),
	})
}

func buildGoogleTokenWithClaims(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}

func TestGoogleVerifierAcceptsValidToken(t *testing.T) {
	verifier := NewGoogleTokenVerifier("")
	token := buildGoogleTokenWithClaims(t, map[string]any{
		"name":    "Siti Rahma",
		"email":   "siti@example.com",
		"picture": "https://example.com/a.png",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "Siti Rahma", claims.Name)
	require.Equal(t, "siti@example.com", claims.Email)
	require.Equal(t, "https://example.com/a.png", claims.AvatarURL)
}

func TestGoogleVerifierChecksAudience(t *testing.T) {
	verifier := NewGoogleTokenVerifier("client-123")

	_, err := verifier.Verify(buildGoogleTokenWithClaims(t, map[string]any{
		"name": "Siti Rahma",
		"aud":  "someone-else",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}))
	require.Error(t, err)

	claims, err := verifier.Verify(buildGoogleTokenWithClaims(t, map[string]any{
		"name": "Siti Rahma",
		"aud":  "client-123",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}))
	require.NoError(t, err)
	require.Equal(t, "Siti Rahma", claims.Name)
}

func TestGoogleVerifierRejectsExpiredToken(t *testing.T) {
	verifier := NewGoogleTokenVerifier("")
	token := buildUnsignedGoogleToken(t, "Siti Rahma", "siti@example.com", time.Now().Add(-time.Minute))

	_, err := verifier.Verify(token)
	require.ErrorContains(t, err, "expired")
}

func TestGoogleVerifierRejectsEmptyClaims(t *testing.T) {
	verifier := NewGoogleTokenVerifier("")
	token := buildGoogleTokenWithClaims(t, map[string]any{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.Verify(token)
	require.ErrorContains(t, err, "no usable claims")
}

func TestGoogleVerifierRejectsGarbage(t *testing.T) {
	verifier := NewGoogleTokenVerifier("")
	_, err := verifier.Verify("not-a-jwt")
	require.Error(t, err)
}
