// Package state provides the durable key/value store that keeps the client's
// session state (token, principal) across restarts. It is backed by a local
// sqlite database with embedded migrations.
package state

import (
	"context"
)

// Keys persisted by the credential store.
const (
	KeyAccessToken = "access_token"
	KeyUserType    = "user_type"
	KeyUserID      = "user_id"
	KeyUsername    = "username"
	KeyStudentID   = "student_id"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
