package flow

import (
	"context"
	"time"
)

// Abstract capability interfaces so the controller is testable without real
// hardware or network. Each returns a result or an error, never panics.

type Position struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
}

// LocationOptions mirror the browser geolocation knobs: timeout enforcement
// is the provider's job, not the controller's.
type LocationOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

type LocationProvider interface {
	CurrentPosition(ctx context.Context, opts LocationOptions) (Position, error)
}

type FacingMode string

const FacingUser FacingMode = "user"

// CameraStream is a live camera handle exclusively owned by the controller
// while the biometric sub-check is active. Stop must be safe to call once on
// every exit path.
type CameraStream interface {
	// Snapshot encodes a still frame from the live stream.
	Snapshot() ([]byte, error)
	Stop()
}

type CameraProvider interface {
	Open(ctx context.Context, facing FacingMode) (CameraStream, error)
}

// Claims are the decoded fields of a federated identity token. Token
// validation and parsing belong to the verifier; the controller only
// consumes the claims.
type Claims struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type TokenVerifier interface {
	Verify(token string) (Claims, error)
}
