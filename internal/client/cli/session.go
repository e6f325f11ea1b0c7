package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voiceroll/voiceroll/internal/client/devices"
	"github.com/voiceroll/voiceroll/internal/client/flow"
	"github.com/voiceroll/voiceroll/internal/common"
)

// Scan decodes a session code and joins the attendance session. With no
// inline code the configured scanner supplies the payload.
func (a *App) Scan(ctx context.Context, code string) error {
	if code == "" {
		decoded, err := a.scanner.Decode(ctx)
		if err != nil {
			printlnFn("Scan failed:", err.Error())
			if hint := devices.Hint(err); hint != "" {
				printlnFn(hint)
			}
			return err
		}
		code = decoded
	}

	if err := a.flow.HandleScan(ctx, code); err != nil {
		switch {
		case errors.Is(err, flow.ErrAlreadyJoined):
			printlnFn("A session is already joined; 'cancel' it first")
		case errors.Is(err, common.ErrValidation):
			printlnFn("Not a valid session code:", err.Error())
		default:
			printlnFn("Could not join:", err.Error())
		}
		return err
	}

	s := a.flow.Session()
	printlnFn(fmt.Sprintf("Joined %s (room %s)", s.ClassName, s.RoomNumber))
	printlnFn(fmt.Sprintf("Your word is %q. Type 'record' and speak it clearly.", s.Challenge))
	return nil
}

// Record starts capturing the voice sample. A background ticker advances the
// capture clock once per second until the recording stops, either by the
// 'stop' command or by reaching the maximum length.
func (a *App) Record(ctx context.Context) error {
	if err := a.flow.StartCapture(ctx); err != nil {
		if errors.Is(err, common.ErrDevice) {
			printlnFn("Microphone error:", err.Error())
			if hint := devices.Hint(err); hint != "" {
				printlnFn(hint)
			}
		} else {
			printlnFn("Cannot record:", err.Error())
		}
		return err
	}

	interval := a.tickInterval
	if interval <= 0 {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.flow.Tick()
				if !a.flow.Capture().Recording {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	printlnFn(fmt.Sprintf("Recording... speak %q. Type 'stop' when done (at least %d seconds).",
		a.flow.Session().Challenge, a.config.MinCaptureSeconds))
	return nil
}

// Stop finishes the capture. A stop before the minimum length is rejected
// and the recording keeps running.
func (a *App) Stop(ctx context.Context) error {
	if err := a.flow.StopCapture(); err != nil {
		if errors.Is(err, flow.ErrCaptureTooShort) {
			printlnFn(fmt.Sprintf("Keep going: %d of %d seconds recorded",
				a.flow.Capture().Elapsed, a.config.MinCaptureSeconds))
		} else {
			printlnFn("Cannot stop:", err.Error())
		}
		return err
	}

	printlnFn(fmt.Sprintf("Captured %d seconds. Type 'submit' to send.", a.flow.Capture().Elapsed))
	return nil
}

// Submit sends the finalized sample for verification and reports the outcome.
// On failure the sample is kept, so the user can submit again or cancel.
func (a *App) Submit(ctx context.Context) error {
	if err := a.flow.Submit(ctx); err != nil {
		switch {
		case errors.Is(err, flow.ErrNoSample):
			printlnFn("Nothing to submit; 'record' a sample first")
		case errors.Is(err, common.ErrSessionExpired):
			printlnFn("Session expired, please 'login' again. Your sample is kept.")
		default:
			printlnFn("Submission failed:", err.Error())
			printlnFn("Your sample is kept; 'submit' again or 'cancel'.")
		}
		return err
	}

	r := a.flow.Result()
	if r.Success {
		printlnFn(fmt.Sprintf("Attendance recorded: %s (similarity %.2f)", r.Status, r.SimilarityScore))
	} else {
		printlnFn("Verification did not pass:", r.Message)
	}
	_ = a.flow.Reset()
	return nil
}

// CancelSession abandons the joined session and returns to scanning.
func (a *App) CancelSession(ctx context.Context) error {
	if err := a.flow.Cancel(); err != nil {
		printlnFn("Nothing to cancel")
		return err
	}
	printlnFn("Session abandoned")
	return nil
}

// Status prints the current flow state.
func (a *App) Status(ctx context.Context) error {
	printlnFn("Phase:", a.flow.Phase().String())
	if s := a.flow.Session(); s != nil {
		printlnFn(fmt.Sprintf("Session: %s (room %s), word %q", s.ClassName, s.RoomNumber, s.Challenge))
	}
	if c := a.flow.Capture(); c.Recording {
		printlnFn(fmt.Sprintf("Recording: %d seconds elapsed", c.Elapsed))
	} else if len(c.Sample) > 0 {
		printlnFn(fmt.Sprintf("Sample ready: %d seconds", c.Elapsed))
	}
	if err := a.flow.Err(); err != nil {
		printlnFn("Last error:", err.Error())
	}
	return nil
}

// History lists the student's past attendance records.
func (a *App) History(ctx context.Context) error {
	records, err := a.api.AttendanceHistory(ctx)
	if err != nil {
		printlnFn("Could not fetch history:", err.Error())
		return err
	}

	if len(records) == 0 {
		printlnFn("No attendance records yet")
		return nil
	}
	for _, r := range records {
		printlnFn(fmt.Sprintf("%s  session %d  %s (score %.2f, word %q)",
			r.Timestamp.Format("2006-01-02 15:04"), r.SessionID, r.Status,
			r.VerificationScore, r.SpokenWord))
	}
	return nil
}

// Health probes service availability.
func (a *App) Health(ctx context.Context) error {
	if a.api.HealthCheck(ctx) {
		printlnFn("Service is up")
	} else {
		printlnFn("Service is unreachable")
	}
	return nil
}
