package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/voiceroll/voiceroll/internal/client/state"
	"github.com/voiceroll/voiceroll/internal/dbx"
	"github.com/voiceroll/voiceroll/internal/logging"
)

// Store owns the process's single Credential. It keeps the current value in
// memory for fast reads and mirrors it to the durable state database so the
// session survives a restart.
//
// Concurrency contract:
//   - Token/Current may be called from any goroutine; they observe either
//     the pre- or post-refresh credential, never a partial one.
//   - Refresh is single-flighted: concurrent callers share one outcome.
type Store struct {
	mu   sync.RWMutex
	cred *Credential
	db   *sql.DB
	sf   singleflight.Group
	log  logging.Logger
}

func NewStore(db *sql.DB, log logging.Logger) *Store {
	return &Store{db: db, log: log.With("component", "auth")}
}

// Load reads a previously persisted credential at startup. A missing or
// partial record leaves the store logged out without error.
func (s *Store) Load(ctx context.Context) error {
	repo := state.NewSQLiteRepository(s.db)

	values, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored credential: %w", err)
	}

	token := string(values[state.KeyAccessToken])
	if token == "" {
		return nil
	}

	cred := &Credential{
		AccessToken: token,
		UserType:    string(values[state.KeyUserType]),
		Username:    string(values[state.KeyUsername]),
		StudentID:   string(values[state.KeyStudentID]),
	}
	if v := string(values[state.KeyUserID]); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cred.UserID = id
		}
	}
	if fromClaims, err := FromToken(token); err == nil {
		cred.ExpiresAt = fromClaims.ExpiresAt
	}

	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	s.log.Info(ctx, "restored stored credential", "user_type", cred.UserType, "principal", cred.Label())
	return nil
}

// Current returns a copy of the credential, or nil when logged out.
func (s *Store) Current() *Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil
	}
	c := *s.cred
	return &c
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return ""
	}
	return s.cred.AccessToken
}

// Install persists cred and makes it current. Persist-then-swap: a crash
// mid-install leaves either the old or the new credential on disk, never a
// mix, because all keys are written in one transaction.
func (s *Store) Install(ctx context.Context, cred *Credential) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := state.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, state.KeyAccessToken, []byte(cred.AccessToken)); err != nil {
			return err
		}
		if err := repo.Set(ctx, state.KeyUserType, []byte(cred.UserType)); err != nil {
			return err
		}
		if err := repo.Set(ctx, state.KeyUserID, []byte(strconv.FormatInt(cred.UserID, 10))); err != nil {
			return err
		}
		if err := repo.Set(ctx, state.KeyUsername, []byte(cred.Username)); err != nil {
			return err
		}
		return repo.Set(ctx, state.KeyStudentID, []byte(cred.StudentID))
	})
	if err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}

	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
	return nil
}

// Clear destroys the credential in memory and on disk. Used on logout and
// on irrecoverable refresh failure.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cred = nil
	s.mu.Unlock()

	repo := state.NewSQLiteRepository(s.db)
	if err := repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear stored credential: %w", err)
	}
	return nil
}

// Refresh exchanges the current credential for a fresh one using fetch.
// If several requests hit an auth failure at the same time, only one fetch
// is issued and every caller shares its outcome: success installs one new
// credential for all, failure clears the store once and fails all uniformly.
func (s *Store) Refresh(ctx context.Context, fetch func(ctx context.Context) (*Credential, error)) (string, error) {
	v, err, shared := s.sf.Do("refresh", func() (any, error) {
		cred, err := fetch(ctx)
		if err != nil {
			s.log.Warn(ctx, "token refresh failed, clearing credential", "error", err)
			_ = s.Clear(ctx)
			return nil, err
		}
		if err := s.Install(ctx, cred); err != nil {
			return nil, err
		}
		s.log.Debug(ctx, "token refreshed")
		return cred.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.log.Debug(ctx, "joined in-flight token refresh")
	}
	return v.(string), nil
}
