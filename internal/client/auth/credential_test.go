package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/voiceroll/voiceroll/internal/common"
)

func TestFromToken_StudentClaims(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{
		"user_id":            float64(3),
		"user_type":          common.UserTypeStudent,
		"student_identifier": "S-7",
		"exp":                exp.Unix(),
	})

	cred, err := FromToken(token)
	require.NoError(t, err)
	require.Equal(t, token, cred.AccessToken)
	require.Equal(t, common.UserTypeStudent, cred.UserType)
	require.Equal(t, int64(3), cred.UserID)
	require.Equal(t, "S-7", cred.StudentID)
	require.Equal(t, "S-7", cred.Label())
	require.False(t, cred.IsAdmin())
	require.WithinDuration(t, exp, cred.ExpiresAt, time.Second)
}

func TestFromToken_AdminClaims(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"user_id":   float64(1),
		"user_type": common.UserTypeAdmin,
		"username":  "prof",
	})

	cred, err := FromToken(token)
	require.NoError(t, err)
	require.True(t, cred.IsAdmin())
	require.Equal(t, "prof", cred.Label())
	require.True(t, cred.ExpiresAt.IsZero())
}

func TestFromToken_Garbage(t *testing.T) {
	_, err := FromToken("not-a-jwt")
	require.Error(t, err)
}
