package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"montana-id-verifier/flow"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func writeTestPrivateKey(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	path := filepath.Join(t.TempDir(), "private.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0600))
	return path, key
}

func TestCreateIdentityJwt(t *testing.T) {
	keyPath, key := writeTestPrivateKey(t)

	creator, err := NewIdentityJwtCreator(keyPath, "montana-id-verifier", time.Hour)
	require.NoError(t, err)

	identity := flow.VerifiedIdentity{
		ID:        "rec-123",
		Name:      "Budi Santoso",
		Role:      flow.RoleAdmin,
		Phone:     "081234567890",
		Email:     "budi@example.com",
		JobTitle:  "Internal Administrator",
		Biometric: []byte{0x89, 0x50, 0x4e, 0x47},
		Location: &flow.Position{
			Latitude:       -3.33,
			Longitude:      115.79,
			AccuracyMeters: 8,
		},
	}

	signed, err := creator.CreateIdentityJwt(identity)
	require.NoError(t, err)

	var claims IdentityClaims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (any, error) {
		require.Equal(t, jwt.SigningMethodRS256, token.Method)
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	require.Equal(t, "montana-id-verifier", claims.Issuer)
	require.Equal(t, "rec-123", claims.Subject)
	require.Equal(t, "Budi Santoso", claims.Name)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "Internal Administrator", claims.JobTitle)
	require.Equal(t, base64.StdEncoding.EncodeToString(identity.Biometric), claims.Biometric)
	require.Equal(t, -3.33, claims.Latitude)
	require.Equal(t, 115.79, claims.Longitude)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestCreateIdentityJwtOmitsMissingOptionals(t *testing.T) {
	keyPath, key := writeTestPrivateKey(t)

	creator, err := NewIdentityJwtCreator(keyPath, "montana-id-verifier", time.Hour)
	require.NoError(t, err)

	signed, err := creator.CreateIdentityJwt(flow.VerifiedIdentity{
		ID:       "rec-456",
		Name:     "Siti Rahma",
		Role:     flow.RoleGuest,
		JobTitle: "Portal Member",
	})
	require.NoError(t, err)

	var claims IdentityClaims
	_, err = jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	})
	require.NoError(t, err)
	require.Empty(t, claims.Biometric)
	require.Zero(t, claims.Latitude)
	require.Zero(t, claims.Longitude)
}

func TestNewIdentityJwtCreatorMissingKeyFile(t *testing.T) {
	_, err := NewIdentityJwtCreator(filepath.Join(t.TempDir(), "missing.pem"), "issuer", time.Hour)
	require.Error(t, err)
}

func TestNewIdentityJwtCreatorBadKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0600))
	_, err := NewIdentityJwtCreator(path, "issuer", time.Hour)
	require.Error(t, err)
}
