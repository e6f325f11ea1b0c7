// Package auth holds the client's single authenticated credential: the
// bearer token plus the principal it belongs to. The Store is the only
// place the credential lives; the request layer reads it on every call and
// the refresh path is the only writer.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voiceroll/voiceroll/internal/common"
)

// Credential is the current proof of authentication.
type Credential struct {
	AccessToken string
	UserType    string // common.UserTypeAdmin or common.UserTypeStudent
	UserID      int64
	Username    string
	StudentID   string
	ExpiresAt   time.Time
}

// IsAdmin reports whether the credential belongs to an admin principal.
func (c *Credential) IsAdmin() bool {
	return c != nil && c.UserType == common.UserTypeAdmin
}

// Label returns a short human-readable identifier for the principal.
func (c *Credential) Label() string {
	if c == nil {
		return ""
	}
	if c.StudentID != "" {
		return c.StudentID
	}
	return c.Username
}

// FromToken rebuilds a Credential from the token's claims. The signature is
// not verified: the client has no key and only needs principal and expiry
// hints; the service re-validates the token on every request anyway.
func FromToken(token string) (*Credential, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	cred := &Credential{AccessToken: token}

	if v, ok := claims["user_type"].(string); ok {
		cred.UserType = v
	}
	if v, ok := claims["user_id"].(float64); ok {
		cred.UserID = int64(v)
	}
	if v, ok := claims["username"].(string); ok {
		cred.Username = v
	}
	if v, ok := claims["student_identifier"].(string); ok {
		cred.StudentID = v
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		cred.ExpiresAt = exp.Time
	}

	return cred, nil
}
