package flow

import "strings"

// Credentials is the fixed administrator identifier and passphrase pair.
// This is a client-side gate, not a real authentication boundary: it is a
// placeholder for a server-verified scheme and is kept only to match the
// observed product behavior.
type Credentials struct {
	AdminID    string `json:"admin_id"`
	Passphrase string `json:"passphrase"`
}

func DefaultCredentials() Credentials {
	return Credentials{
		AdminID:    "admin",
		Passphrase: "Kalimantan Selatan",
	}
}

// Check compares a single atomic attempt: the identifier is trimmed and
// matched case-insensitively, the passphrase is trimmed and matched exactly.
func (c Credentials) Check(username, password string) bool {
	user := strings.TrimSpace(username)
	pass := strings.TrimSpace(password)
	return strings.EqualFold(user, c.AdminID) && pass == c.Passphrase
}
