package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/voiceroll/voiceroll/internal/client/api"
	"github.com/voiceroll/voiceroll/internal/client/auth"
	"github.com/voiceroll/voiceroll/internal/client/config"
	"github.com/voiceroll/voiceroll/internal/client/devices"
	"github.com/voiceroll/voiceroll/internal/client/flow"
	"github.com/voiceroll/voiceroll/internal/client/state"
	"github.com/voiceroll/voiceroll/internal/logging"
)

// credentialSource is the read-only view of the credential store the REPL
// needs for its prompt and login checks.
type credentialSource interface {
	Current() *auth.Credential
}

type App struct {
	config  *config.Config
	db      *sql.DB
	creds   credentialSource
	api     api.Client
	flow    *flow.Controller
	scanner devices.Scanner
	reader  *bufio.Reader
	log     logging.Logger

	// tickInterval drives the capture clock; tests shrink it.
	tickInterval time.Duration
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := state.Open(ctx, c.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing state database: %w", err)
	}

	store := auth.NewStore(db, log)
	if err := store.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	client := api.NewHTTPClient(c.Endpoint, store, log,
		api.WithTimeout(c.RequestTimeout),
		api.WithRetryPolicy(api.RetryPolicy{MaxRetries: c.RetryMax, BaseDelay: c.RetryBaseDelay}),
	)

	recorder := devices.NewFileRecorder(c.SamplePath)
	controller := flow.NewController(client, recorder, log, flow.Options{
		MinCaptureSeconds: c.MinCaptureSeconds,
		MaxCaptureSeconds: c.MaxCaptureSeconds,
	})

	return &App{
		config:  c,
		db:      db,
		creds:   store,
		api:     client,
		flow:    controller,
		scanner: devices.NewFileScanner(c.ScanPath),
		reader:  bufio.NewReader(os.Stdin),
		log:     log,

		tickInterval: time.Second,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.creds.Current() != nil
}

func (a *App) getStatus() string {
	s := ""
	if cred := a.creds.Current(); cred != nil {
		s = cred.Label()
	}
	if a.flow != nil {
		if s != "" {
			s += " "
		}
		s += a.flow.Phase().String()
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run starts the interactive loop and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	printlnFn("voiceroll CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

// Close releases the capture device and the state database. Safe to call
// more than once.
func (a *App) Close() {
	if a.flow != nil {
		a.flow.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
