package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/voiceroll/voiceroll/internal/client/auth"
)

// Service endpoints, as exposed by the attendance backend.
const (
	pathLogin          = "/api/v1/auth/login"
	pathRefresh        = "/api/v1/auth/refresh"
	pathLogout         = "/api/v1/auth/logout"
	pathMe             = "/api/v1/auth/me"
	pathJoinSession    = "/api/v1/student/join-session"
	pathMarkAttendance = "/api/v1/student/mark-attendance"
	pathHistory        = "/api/v1/student/attendance-history"
	pathHealth         = "/health"
)

// Client is the typed surface of the attendance service consumed by the
// flow controller and the CLI.
type Client interface {
	Login(ctx context.Context, req LoginRequest) (*auth.Credential, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*Me, error)
	JoinSession(ctx context.Context, code string) (*SessionJoin, error)
	MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (*MarkAttendanceResult, error)
	AttendanceHistory(ctx context.Context) ([]AttendanceRecord, error)
	HealthCheck(ctx context.Context) bool
}

type LoginRequest struct {
	UserType  string `json:"user_type"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	StudentID string `json:"student_id,omitempty"`
}

type loginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	UserType    string `json:"user_type"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	StudentID   string `json:"student_id"`
}

// Me describes the authenticated principal as reported by the service.
type Me struct {
	ID        int64  `json:"id"`
	UserType  string `json:"user_type"`
	Username  string `json:"username"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
}

// SessionJoin is the joined-session context. Challenge is the one-time word
// the user must speak; it is fixed for the lifetime of the join.
type SessionJoin struct {
	SessionID  int64  `json:"session_id"`
	ClassName  string `json:"class_name"`
	RoomNumber string `json:"room_number"`
	Challenge  string `json:"random_word"`
}

type MarkAttendanceRequest struct {
	SessionID  int64
	SpokenWord string
	Sample     []byte
}

// AttendanceRecord is one row of the student's attendance history.
type AttendanceRecord struct {
	ID                int64     `json:"id"`
	SessionID         int64     `json:"session_id"`
	StudentID         int64     `json:"student_id"`
	Status            string    `json:"status"`
	VerificationScore float64   `json:"verification_score"`
	Timestamp         time.Time `json:"timestamp"`
	SpokenWord        string    `json:"spoken_word"`
}

type MarkAttendanceResult struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	Status          string    `json:"status"`
	SimilarityScore float64   `json:"similarity_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// Login authenticates and installs the resulting credential, so subsequent
// calls carry the token automatically.
func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (*auth.Credential, error) {
	var resp loginResponse
	if err := c.Post(ctx, pathLogin, req, &resp, WithoutAuth()); err != nil {
		return nil, err
	}

	cred, err := auth.FromToken(resp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("login returned an unusable token: %w", err)
	}
	cred.UserType = resp.UserType
	cred.UserID = resp.UserID
	cred.Username = resp.Username
	cred.StudentID = resp.StudentID

	if err := c.creds.Install(ctx, cred); err != nil {
		return nil, err
	}
	c.log.Info(ctx, "logged in", "user_type", cred.UserType, "principal", cred.Label())
	return cred, nil
}

// Logout tells the service best-effort, then destroys the local credential.
// A failed server call never blocks the local logout.
func (c *HTTPClient) Logout(ctx context.Context) error {
	if err := c.Post(ctx, pathLogout, nil, nil); err != nil {
		c.log.Debug(ctx, "server logout failed, clearing local credential anyway", "error", err)
	}
	return c.creds.Clear(ctx)
}

func (c *HTTPClient) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.Get(ctx, pathMe, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// JoinSession redeems a scanned session code. The service rejects the join
// when the session is unknown or inactive, or when the user has no enrolled
// voice profile; those all surface as common.ErrDomain with the service's
// own message.
func (c *HTTPClient) JoinSession(ctx context.Context, code string) (*SessionJoin, error) {
	var join SessionJoin
	path := pathJoinSession + "?qr_code=" + url.QueryEscape(code)
	if err := c.Post(ctx, path, nil, &join); err != nil {
		return nil, err
	}
	c.log.Info(ctx, "joined session", "session_id", join.SessionID, "class", join.ClassName)
	return &join, nil
}

// MarkAttendance submits the captured sample together with the challenge
// word for verification.
func (c *HTTPClient) MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (*MarkAttendanceResult, error) {
	path := fmt.Sprintf("%s?session_id=%d&spoken_word=%s",
		pathMarkAttendance, req.SessionID, url.QueryEscape(req.SpokenWord))

	var result MarkAttendanceResult
	err := c.Upload(ctx, path, nil, "audio_file", "sample.webm", req.Sample, &result)
	if err != nil {
		return nil, err
	}
	c.log.Info(ctx, "attendance marked", "session_id", req.SessionID, "status", result.Status)
	return &result, nil
}

// AttendanceHistory lists the student's past attendance records, most
// recent last.
func (c *HTTPClient) AttendanceHistory(ctx context.Context) ([]AttendanceRecord, error) {
	var records []AttendanceRecord
	if err := c.Get(ctx, pathHistory, &records); err != nil {
		return nil, err
	}
	return records, nil
}

var _ Client = (*HTTPClient)(nil)
