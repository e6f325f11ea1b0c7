// Package flow drives the attendance journey: scan a session code, join,
// record a timed audio sample, submit it for verification. The controller is
// a state machine over discrete events; it owns no timers of its own — the
// caller delivers one Tick per elapsed second — which keeps every transition
// synchronously testable.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/voiceroll/voiceroll/internal/client/api"
	"github.com/voiceroll/voiceroll/internal/client/devices"
	"github.com/voiceroll/voiceroll/internal/client/scan"
	"github.com/voiceroll/voiceroll/internal/logging"
)

var (
	// ErrAlreadyJoined is returned for a scan event while a session is
	// alive; the existing join is left untouched.
	ErrAlreadyJoined = errors.New("a session is already joined")

	// ErrCaptureTooShort rejects a manual stop before the minimum elapsed
	// threshold. The recording keeps running.
	ErrCaptureTooShort = errors.New("recording has not reached the minimum length")

	// ErrInvalidPhase is returned for an event the current phase does not
	// accept.
	ErrInvalidPhase = errors.New("operation not valid in the current phase")

	// ErrNoSample rejects a submit without a finalized sample.
	ErrNoSample = errors.New("no finalized sample to submit")
)

// Capture is the in-progress or finalized audio sample and its timing.
type Capture struct {
	Recording bool
	Elapsed   int // seconds
	Sample    []byte
}

// Options bound the capture timer. The thresholds vary per call site in the
// product, so they are configuration rather than constants.
type Options struct {
	MinCaptureSeconds int // manual stop allowed from here on; default 5
	MaxCaptureSeconds int // auto-finalize at this point; default 30
}

func (o Options) withDefaults() Options {
	if o.MinCaptureSeconds <= 0 {
		o.MinCaptureSeconds = 5
	}
	if o.MaxCaptureSeconds <= o.MinCaptureSeconds {
		o.MaxCaptureSeconds = 30
		// A large minimum must never put the auto-finalize point below
		// the point where a manual stop becomes legal.
		if o.MaxCaptureSeconds < o.MinCaptureSeconds {
			o.MaxCaptureSeconds = o.MinCaptureSeconds
		}
	}
	return o
}

// Controller sequences the attendance flow. All events are serialized by an
// internal mutex; between events every state mutation is atomic. Network
// calls (join, submit) run outside the lock with the transition guarded by
// phase flags, so a Tick can never interleave into a half-applied change.
type Controller struct {
	mu       sync.Mutex
	api      api.Client
	recorder devices.Recorder
	opts     Options
	log      logging.Logger

	phase   Phase
	lastErr error
	session *api.SessionJoin
	capture Capture
	result  *api.MarkAttendanceResult
	joining bool
	closed  bool
}

func NewController(client api.Client, recorder devices.Recorder, log logging.Logger, opts Options) *Controller {
	return &Controller{
		api:      client,
		recorder: recorder,
		opts:     opts.withDefaults(),
		log:      log.With("component", "flow"),
		phase:    PhaseScanning,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the current error overlay, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Session returns a copy of the joined-session context, or nil.
func (c *Controller) Session() *api.SessionJoin {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Capture returns the current capture state. The sample slice is shared;
// callers must treat it as read-only.
func (c *Controller) Capture() Capture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture
}

// Result returns the verification outcome once the flow is complete.
func (c *Controller) Result() *api.MarkAttendanceResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// HandleScan consumes one decoded payload from the scanner. An invalid
// payload is a local validation error and the phase stays at scanning; a
// valid one triggers the join call, and success moves the flow to joined.
// While a session is alive, further scans are rejected without touching it.
func (c *Controller) HandleScan(ctx context.Context, raw string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrInvalidPhase
	}
	if c.session != nil || c.joining {
		c.mu.Unlock()
		return ErrAlreadyJoined
	}
	if c.phase != PhaseScanning {
		c.mu.Unlock()
		return ErrInvalidPhase
	}

	payload, err := scan.Parse(raw)
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	c.joining = true
	c.mu.Unlock()

	join, err := c.api.JoinSession(ctx, payload.Code)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.joining = false
	if err != nil {
		c.lastErr = err
		return err
	}

	c.session = join
	c.phase = PhaseJoined
	c.lastErr = nil
	c.log.Info(ctx, "session joined", "session_id", join.SessionID, "challenge", join.Challenge)
	return nil
}

// StartCapture acquires the recorder and starts the capture timer at zero.
// Valid from joined, or from recording after a finalized sample when the
// user wants to re-record; starting over destroys the previous sample.
func (c *Controller) StartCapture(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrInvalidPhase
	}

	allowed := c.phase == PhaseJoined || (c.phase == PhaseRecording && !c.capture.Recording)
	if !allowed {
		return ErrInvalidPhase
	}

	if err := c.recorder.Start(ctx); err != nil {
		err = fmt.Errorf("failed to start capture: %w", err)
		c.lastErr = err
		return err
	}

	c.phase = PhaseRecording
	c.capture = Capture{Recording: true}
	c.result = nil
	c.lastErr = nil
	c.log.Debug(ctx, "capture started", "max_seconds", c.opts.MaxCaptureSeconds)
	return nil
}

// Tick advances the capture timer by one second. At the maximum threshold
// the capture auto-finalizes regardless of manual action. Ticks outside an
// active recording are ignored.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.capture.Recording {
		return
	}

	c.capture.Elapsed++
	if c.capture.Elapsed >= c.opts.MaxCaptureSeconds {
		c.finalizeLocked()
	}
}

// StopCapture finalizes the sample on a manual stop. Before the minimum
// threshold the stop is rejected and nothing changes.
func (c *Controller) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.capture.Recording {
		return ErrInvalidPhase
	}
	if c.capture.Elapsed < c.opts.MinCaptureSeconds {
		return ErrCaptureTooShort
	}
	return c.finalizeLocked()
}

// finalizeLocked stops the device and captures its buffered sample. Stopping
// the device and cancelling the timer are the same step; there is no
// abandon-device path.
func (c *Controller) finalizeLocked() error {
	sample, err := c.recorder.Stop()
	c.capture.Recording = false
	if err != nil {
		err = fmt.Errorf("failed to finalize capture: %w", err)
		c.capture.Sample = nil
		c.lastErr = err
		return err
	}

	c.capture.Sample = sample
	c.lastErr = nil
	return nil
}

// Submit packages the finalized sample with the session's challenge word and
// calls the mark-attendance operation. Re-entering while a submission is in
// flight is a no-op. On failure the flow returns to recording with the
// sample intact, so the user can re-submit or re-record without re-joining.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrInvalidPhase
	}
	if c.phase == PhaseSubmitting {
		c.mu.Unlock()
		return nil
	}
	if c.phase != PhaseRecording || c.capture.Recording {
		c.mu.Unlock()
		return ErrInvalidPhase
	}
	if len(c.capture.Sample) == 0 {
		c.mu.Unlock()
		return ErrNoSample
	}

	req := api.MarkAttendanceRequest{
		SessionID:  c.session.SessionID,
		SpokenWord: c.session.Challenge,
		Sample:     c.capture.Sample,
	}
	c.phase = PhaseSubmitting
	c.mu.Unlock()

	result, err := c.api.MarkAttendance(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseRecording
		c.lastErr = err
		return err
	}

	c.phase = PhaseComplete
	c.result = result
	c.lastErr = nil
	c.log.Info(ctx, "attendance flow complete", "status", result.Status)
	return nil
}

// Cancel discards the joined session and any capture state and returns to
// scanning. Valid from joined, or from an error overlay on joined/recording.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	allowed := c.phase == PhaseJoined ||
		(c.lastErr != nil && (c.phase == PhaseJoined || c.phase == PhaseRecording))
	if !allowed {
		return ErrInvalidPhase
	}

	c.releaseLocked()
	c.resetLocked()
	return nil
}

// Reset returns the flow to its initial state after a completed submission.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseComplete {
		return ErrInvalidPhase
	}
	c.resetLocked()
	return nil
}

// Close tears the controller down, releasing the capture device if it is
// still held. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.releaseLocked()
}

func (c *Controller) releaseLocked() {
	if c.capture.Recording {
		_, _ = c.recorder.Stop()
		c.capture.Recording = false
	}
}

func (c *Controller) resetLocked() {
	c.session = nil
	c.capture = Capture{}
	c.result = nil
	c.lastErr = nil
	c.phase = PhaseScanning
}
