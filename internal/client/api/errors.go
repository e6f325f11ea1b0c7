package api

import (
	"encoding/json"
	"fmt"

	"github.com/voiceroll/voiceroll/internal/common"
)

// Default messages used when the service supplies no detail of its own.
const (
	msgNetwork        = "Network error. Please check your connection and try again."
	msgServer         = "An unexpected error occurred. Please try again later."
	msgSessionExpired = "Your session has expired. Please log in again."
)

// Error is the single shape every terminal request failure is normalized to.
// Status is the HTTP status code, or 0 for pure network failures. Code is an
// optional machine-readable code supplied by the service.
//
// Error wraps one of the taxonomy sentinels in the common package, so callers
// classify with errors.Is:
//
//	errors.Is(err, common.ErrSessionExpired)
type Error struct {
	kind    error
	Message string
	Status  int
	Code    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error { return e.kind }

// retryable reports whether the failure qualifies for the transient-retry
// policy. Auth expiry and hard client errors never do.
func (e *Error) retryable() bool {
	return e.kind == common.ErrNetwork || e.kind == common.ErrServer
}

// errorPayload mirrors the service's error body. FastAPI reports validation
// failures with a non-string detail, so Detail is decoded loosely.
type errorPayload struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// newError normalizes a failure into an Error. Message precedence:
// server-supplied detail, then server-supplied message, then the
// policy-specific default.
func newError(kind error, status int, body []byte, fallback string) *Error {
	e := &Error{kind: kind, Status: status, Message: fallback}

	var p errorPayload
	if len(body) > 0 && json.Unmarshal(body, &p) == nil {
		if d, ok := p.Detail.(string); ok && d != "" {
			e.Message = d
		} else if p.Message != "" {
			e.Message = p.Message
		}
		e.Code = p.Code
	}

	return e
}

func networkError() *Error {
	return &Error{kind: common.ErrNetwork, Status: 0, Message: msgNetwork}
}

func serverError(status int, body []byte) *Error {
	return newError(common.ErrServer, status, body, msgServer)
}

func domainError(status int, body []byte) *Error {
	return newError(common.ErrDomain, status, body, msgServer)
}

func sessionExpiredError(status int, body []byte) *Error {
	return newError(common.ErrSessionExpired, status, body, msgSessionExpired)
}
