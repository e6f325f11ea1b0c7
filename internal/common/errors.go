// Package common defines shared constants and sentinel errors used across
// the voiceroll client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Auth lifecycle errors.
	ErrSessionExpired = errors.New("session expired")
	ErrNotLoggedIn    = errors.New("not logged in")

	// Terminal request-layer errors (after retries are exhausted).
	ErrNetwork = errors.New("network error")
	ErrServer  = errors.New("server error")

	// Service-reported business-rule rejections. Never retried.
	ErrDomain = errors.New("request rejected")

	// Local validation errors (bad scanned payload and similar).
	ErrValidation = errors.New("validation error")

	// Camera/microphone failures.
	ErrDevice = errors.New("device error")
)
