package models

// SessionRef identifies one verification attempt. Every flow request after
// /api/flow/start must carry the session id and its nonce.
type SessionRef struct {
	SessionId string `json:"session_id"`
	Nonce     string `json:"nonce"`
}

type CredentialRequest struct {
	SessionRef
	Username string `json:"username"`
	Password string `json:"password"`
}

type IdentityTokenRequest struct {
	SessionRef
	Token string `json:"token"`
}

type ProfileRequest struct {
	SessionRef
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type TermsScrollRequest struct {
	SessionRef
	ScrollTop      float64 `json:"scroll_top"`
	ViewportHeight float64 `json:"viewport_height"`
	ContentHeight  float64 `json:"content_height"`
}

type TermsRequest struct {
	SessionRef
	Accepted bool `json:"accepted"`
}

// LocationReport carries a browser geolocation outcome: either a fix or an
// error message.
type LocationReport struct {
	SessionRef
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	Error          string  `json:"error,omitempty"`
}

// CameraReport carries the browser camera outcome. Frame is a base64 or
// data-URL encoded still when the toggle is enabled and access was granted.
type CameraReport struct {
	SessionRef
	Enabled bool   `json:"enabled"`
	Granted bool   `json:"granted"`
	Frame   string `json:"frame,omitempty"`
}
