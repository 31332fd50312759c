package main

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"time"

	"montana-id-verifier/flow"

	"github.com/golang-jwt/jwt/v4"
)

// JwtCreator signs finalized identity records so the embedding dashboard can
// trust them without holding any flow state itself.
type JwtCreator interface {
	CreateIdentityJwt(identity flow.VerifiedIdentity) (jwt string, err error)
}

type IdentityClaims struct {
	jwt.RegisteredClaims
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	Phone          string  `json:"phone,omitempty"`
	Email          string  `json:"email,omitempty"`
	JobTitle       string  `json:"job_title"`
	Biometric      string  `json:"biometric,omitempty"`
	Latitude       float64 `json:"latitude,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
	AccuracyMeters float64 `json:"accuracy_meters,omitempty"`
}

type DefaultJwtCreator struct {
	privateKey *rsa.PrivateKey
	issuerId   string
	validity   time.Duration
}

func NewIdentityJwtCreator(privateKeyPath string, issuerId string, validity time.Duration) (*DefaultJwtCreator, error) {
	keyBytes, err := os.ReadFile(privateKeyPath)

	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)

	if err != nil {
		return nil, err
	}

	if validity <= 0 {
		validity = time.Hour
	}

	return &DefaultJwtCreator{
		privateKey: privateKey,
		issuerId:   issuerId,
		validity:   validity,
	}, nil
}

func (jc *DefaultJwtCreator) CreateIdentityJwt(identity flow.VerifiedIdentity) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jc.issuerId,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jc.validity)),
		},
		Name:     identity.Name,
		Role:     string(identity.Role),
		Phone:    identity.Phone,
		Email:    identity.Email,
		JobTitle: identity.JobTitle,
	}
	if identity.Biometric != nil {
		claims.Biometric = base64.StdEncoding.EncodeToString(identity.Biometric)
	}
	if identity.Location != nil {
		claims.Latitude = identity.Location.Latitude
		claims.Longitude = identity.Location.Longitude
		claims.AccuracyMeters = identity.Location.AccuracyMeters
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(jc.privateKey)
}
