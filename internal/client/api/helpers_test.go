package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/voiceroll/voiceroll/internal/common"
)

// studentJWT mints a syntactically valid student token for tests. The client
// never verifies signatures, so any key works.
func studentJWT(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":            float64(7),
		"user_type":          common.UserTypeStudent,
		"student_identifier": "S-1",
		"exp":                time.Now().Add(30 * time.Minute).Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}
