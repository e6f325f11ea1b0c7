package devstub

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voiceroll/voiceroll/internal/common"
)

// principal is the authenticated caller extracted from a bearer token.
type principal struct {
	UserID    int64
	UserType  string
	Username  string
	StudentID string
}

// issueToken signs an HS256 access token carrying the same claim set the
// real service uses, so client-side claim parsing behaves identically.
func (s *Server) issueToken(p principal) (string, error) {
	claims := jwt.MapClaims{
		"user_id":   p.UserID,
		"user_type": p.UserType,
		"exp":       time.Now().Add(s.tokenTTL).Unix(),
	}
	if p.Username != "" {
		claims["username"] = p.Username
	}
	if p.StudentID != "" {
		claims["student_identifier"] = p.StudentID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// parseToken validates the signature and expiry and rebuilds the principal.
func (s *Server) parseToken(raw string) (*principal, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	p := &principal{}
	if v, ok := claims["user_id"].(float64); ok {
		p.UserID = int64(v)
	}
	if v, ok := claims["user_type"].(string); ok {
		p.UserType = v
	}
	if v, ok := claims["username"].(string); ok {
		p.Username = v
	}
	if v, ok := claims["student_identifier"].(string); ok {
		p.StudentID = v
	}
	if p.UserType != common.UserTypeAdmin && p.UserType != common.UserTypeStudent {
		return nil, fmt.Errorf("token carries no recognizable principal")
	}
	return p, nil
}
