package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voiceroll/voiceroll/internal/client/api"
	"github.com/voiceroll/voiceroll/internal/client/config"
	"github.com/voiceroll/voiceroll/internal/client/devices"
	"github.com/voiceroll/voiceroll/internal/client/flow"
	"github.com/voiceroll/voiceroll/internal/logging"
)

type fakeRecorder struct {
	sample []byte
	active bool
}

func (f *fakeRecorder) Start(ctx context.Context) error {
	f.active = true
	return nil
}

func (f *fakeRecorder) Stop() ([]byte, error) {
	f.active = false
	return f.sample, nil
}

const sessionCode = `{"type":"attendance_session","session_id":7,"qr_code":"abc-123"}`

func newSessionApp(t *testing.T, f *fakeAPI) (*App, *fakeRecorder) {
	t.Helper()
	muteOutput(t)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.MinCaptureSeconds = 2
	cfg.MaxCaptureSeconds = 4

	rec := &fakeRecorder{sample: []byte("voice")}
	log := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	a := &App{
		config:       cfg,
		creds:        &fakeCreds{},
		api:          f,
		flow:         flow.NewController(f, rec, log, flow.Options{MinCaptureSeconds: 2, MaxCaptureSeconds: 4}),
		tickInterval: time.Millisecond,
	}
	t.Cleanup(a.Close)
	return a, rec
}

func TestScan_JoinsSession(t *testing.T) {
	f := &fakeAPI{joinRet: &api.SessionJoin{
		SessionID: 7, ClassName: "Algorithms", RoomNumber: "101", Challenge: "falcon",
	}}
	a, _ := newSessionApp(t, f)

	require.NoError(t, a.Scan(context.Background(), sessionCode))
	require.Equal(t, flow.PhaseJoined, a.flow.Phase())
}

func TestScan_PayloadFromFile(t *testing.T) {
	f := &fakeAPI{joinRet: &api.SessionJoin{SessionID: 7, Challenge: "falcon"}}
	a, _ := newSessionApp(t, f)

	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(path, []byte(sessionCode+"\n"), 0o600))
	a.scanner = devices.NewFileScanner(path)

	require.NoError(t, a.Scan(context.Background(), ""))
	require.Equal(t, flow.PhaseJoined, a.flow.Phase())
}

func TestScan_RejectsGarbage(t *testing.T) {
	a, _ := newSessionApp(t, &fakeAPI{})

	require.Error(t, a.Scan(context.Background(), "not-a-code"))
	require.Equal(t, flow.PhaseScanning, a.flow.Phase())
}

func TestRecord_TicksUntilAutoFinalize(t *testing.T) {
	f := &fakeAPI{joinRet: &api.SessionJoin{SessionID: 7, Challenge: "falcon"}}
	a, rec := newSessionApp(t, f)

	ctx := context.Background()
	require.NoError(t, a.Scan(ctx, sessionCode))
	require.NoError(t, a.Record(ctx))
	require.True(t, rec.active)

	// The background ticker reaches the maximum length and finalizes.
	require.Eventually(t, func() bool {
		c := a.flow.Capture()
		return !c.Recording && len(c.Sample) > 0
	}, time.Second, time.Millisecond)
	require.Equal(t, 4, a.flow.Capture().Elapsed)
	require.False(t, rec.active)
}

func TestStop_TooShortKeepsRecording(t *testing.T) {
	f := &fakeAPI{joinRet: &api.SessionJoin{SessionID: 7, Challenge: "falcon"}}
	a, _ := newSessionApp(t, f)
	a.tickInterval = time.Hour // keep the clock still

	ctx := context.Background()
	require.NoError(t, a.Scan(ctx, sessionCode))
	require.NoError(t, a.Record(ctx))

	err := a.Stop(ctx)
	require.ErrorIs(t, err, flow.ErrCaptureTooShort)
	require.True(t, a.flow.Capture().Recording)
}

func TestSubmit_ReportsResultAndResets(t *testing.T) {
	f := &fakeAPI{
		joinRet: &api.SessionJoin{SessionID: 7, Challenge: "falcon"},
		markRet: &api.MarkAttendanceResult{Success: true, Status: "present", SimilarityScore: 0.93},
	}
	a, _ := newSessionApp(t, f)

	ctx := context.Background()
	require.NoError(t, a.Scan(ctx, sessionCode))
	require.NoError(t, a.Record(ctx))
	require.Eventually(t, func() bool {
		return !a.flow.Capture().Recording
	}, time.Second, time.Millisecond)

	require.NoError(t, a.Submit(ctx))
	// A successful submission hands the flow back to scanning.
	require.Equal(t, flow.PhaseScanning, a.flow.Phase())
}

func TestSubmit_WithoutSample(t *testing.T) {
	a, _ := newSessionApp(t, &fakeAPI{})
	require.ErrorIs(t, a.Submit(context.Background()), flow.ErrInvalidPhase)
}

func TestCancelSession(t *testing.T) {
	f := &fakeAPI{joinRet: &api.SessionJoin{SessionID: 7, Challenge: "falcon"}}
	a, _ := newSessionApp(t, f)

	ctx := context.Background()
	require.NoError(t, a.Scan(ctx, sessionCode))
	require.NoError(t, a.CancelSession(ctx))
	require.Equal(t, flow.PhaseScanning, a.flow.Phase())

	require.Error(t, a.CancelSession(ctx))
}

func TestHistory_ListsRecords(t *testing.T) {
	var lines []string
	orig := printlnFn
	printlnFn = func(args ...any) (int, error) {
		for _, a := range args {
			lines = append(lines, a.(string))
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })

	f := &fakeAPI{history: []api.AttendanceRecord{
		{SessionID: 7, Status: "present", VerificationScore: 0.93, SpokenWord: "falcon", Timestamp: time.Now()},
	}}
	a := &App{api: f, creds: &fakeCreds{}}

	require.NoError(t, a.History(context.Background()))
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "session 7")
	require.Contains(t, lines[0], "present")
}

func TestHistory_Empty(t *testing.T) {
	f := &fakeAPI{}
	a := &App{api: f, creds: &fakeCreds{}}
	muteOutput(t)
	require.NoError(t, a.History(context.Background()))
}

func TestHealth(t *testing.T) {
	a, _ := newSessionApp(t, &fakeAPI{healthy: true})
	require.NoError(t, a.Health(context.Background()))
}
