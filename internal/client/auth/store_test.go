package auth

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/voiceroll/voiceroll/internal/client/state"
	"github.com/voiceroll/voiceroll/internal/common"
	"github.com/voiceroll/voiceroll/internal/logging"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE client_state (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func studentToken(t *testing.T) string {
	return signedToken(t, jwt.MapClaims{
		"user_id":            float64(7),
		"user_type":          common.UserTypeStudent,
		"student_identifier": "S-42",
		"exp":                time.Now().Add(30 * time.Minute).Unix(),
	})
}

func TestStore_InstallThenLoad(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	token := studentToken(t)

	s1 := NewStore(db, testLogger())
	require.NoError(t, s1.Install(ctx, &Credential{
		AccessToken: token,
		UserType:    common.UserTypeStudent,
		UserID:      7,
		StudentID:   "S-42",
	}))

	// A fresh store over the same DB sees the credential after Load.
	s2 := NewStore(db, testLogger())
	require.NoError(t, s2.Load(ctx))

	cred := s2.Current()
	require.NotNil(t, cred)
	require.Equal(t, token, cred.AccessToken)
	require.Equal(t, common.UserTypeStudent, cred.UserType)
	require.Equal(t, int64(7), cred.UserID)
	require.Equal(t, "S-42", cred.StudentID)
	require.False(t, cred.ExpiresAt.IsZero())
}

func TestStore_Load_EmptyDBStaysLoggedOut(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db, testLogger())

	require.NoError(t, s.Load(context.Background()))
	require.Nil(t, s.Current())
	require.Empty(t, s.Token())
}

func TestStore_Clear_WipesMemoryAndDisk(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewStore(db, testLogger())

	require.NoError(t, s.Install(ctx, &Credential{AccessToken: "tok", UserType: common.UserTypeStudent}))
	require.NoError(t, s.Clear(ctx))
	require.Nil(t, s.Current())

	all, err := state.NewSQLiteRepository(db).List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestStore_Refresh_InstallsNewCredential(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewStore(db, testLogger())
	require.NoError(t, s.Install(ctx, &Credential{AccessToken: "old", UserType: common.UserTypeStudent}))

	token, err := s.Refresh(ctx, func(ctx context.Context) (*Credential, error) {
		return &Credential{AccessToken: "new", UserType: common.UserTypeStudent}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "new", token)
	require.Equal(t, "new", s.Token())
}

func TestStore_Refresh_FailureClearsCredential(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewStore(db, testLogger())
	require.NoError(t, s.Install(ctx, &Credential{AccessToken: "old"}))

	boom := errors.New("refresh rejected")
	_, err := s.Refresh(ctx, func(ctx context.Context) (*Credential, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Nil(t, s.Current())
}

func TestStore_Refresh_SingleFlight(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewStore(db, testLogger())
	require.NoError(t, s.Install(ctx, &Credential{AccessToken: "old"}))

	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (*Credential, error) {
		calls.Add(1)
		<-release
		return &Credential{AccessToken: "new"}, nil
	}

	const n = 5
	var wg sync.WaitGroup
	tokens := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := s.Refresh(ctx, fetch)
			require.NoError(t, err)
			tokens[i] = tok
		}(i)
	}

	// Let all goroutines pile onto the in-flight refresh before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, tok := range tokens {
		require.Equal(t, "new", tok)
	}
}
