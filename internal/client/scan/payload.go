// Package scan parses payloads produced by the external code scanner. The
// scanner itself (camera, QR decoding) is a black box; this package only
// validates that what it decoded is an attendance-session payload.
package scan

import (
	"encoding/json"
	"fmt"

	"github.com/voiceroll/voiceroll/internal/common"
)

// PayloadTypeAttendance is the type tag the service embeds in session codes.
const PayloadTypeAttendance = "attendance_session"

// Payload is the decoded content of a session code.
type Payload struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	Code      string `json:"qr_code"`
}

// Parse validates raw as an attendance-session payload. All failures wrap
// common.ErrValidation: they are local, non-network errors and must not
// leave the scanning state.
func Parse(raw string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: scanned code is not a session code", common.ErrValidation)
	}
	if p.Type != PayloadTypeAttendance {
		return nil, fmt.Errorf("%w: unexpected payload type %q", common.ErrValidation, p.Type)
	}
	if p.Code == "" {
		return nil, fmt.Errorf("%w: payload carries no session code", common.ErrValidation)
	}
	return &p, nil
}
