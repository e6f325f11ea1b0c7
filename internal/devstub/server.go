package devstub

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voiceroll/voiceroll/internal/logging"
)

// Verifier decides whether a submitted sample matches the student's voice.
// It returns the similarity score and the match verdict.
type Verifier func(spokenWord string, sample []byte) (float64, bool)

// defaultVerifier accepts any non-empty sample. Good enough for a stub: the
// interesting behavior (duplicates, inactive sessions, auth) lives elsewhere.
func defaultVerifier(_ string, sample []byte) (float64, bool) {
	if len(sample) == 0 {
		return 0.0, false
	}
	return 0.92, true
}

type Server struct {
	secret   []byte
	tokenTTL time.Duration
	log      logging.Logger
	store    *store
	verify   Verifier
}

type Option func(*Server)

// WithTokenTTL overrides the access-token lifetime. Tests shrink it to
// exercise expiry paths.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithVerifier replaces the voice-match decision.
func WithVerifier(v Verifier) Option {
	return func(s *Server) { s.verify = v }
}

func New(secret string, log logging.Logger, opts ...Option) *Server {
	s := &Server{
		secret:   []byte(secret),
		tokenTTL: 30 * time.Minute,
		log:      log.With("component", "devstub"),
		store:    newStore(),
		verify:   defaultVerifier,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddAdmin seeds an admin account.
func (s *Server) AddAdmin(username, password string) {
	s.store.addAdmin(username, password)
}

// AddStudent seeds a student account. hasProfile controls whether the
// student can join sessions; without a profile, join is rejected the way
// the real service rejects unenrolled students.
func (s *Server) AddStudent(studentID, name string, hasProfile bool) *Student {
	return s.store.addStudent(studentID, name, hasProfile)
}

// CreateSession seeds an active attendance session and returns it, code
// included.
func (s *Server) CreateSession(className, roomNumber string) *Session {
	return s.store.createSession(className, roomNumber)
}

// Deactivate closes the session, so joins and marks start failing.
func (s *Server) Deactivate(sessionID int64) {
	s.store.deactivate(sessionID)
}

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/refresh", s.handleRefresh)
				r.Get("/me", s.handleMe)
			})
		})
		r.Route("/student", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/join-session", s.handleJoinSession)
			r.Post("/mark-attendance", s.handleMarkAttendance)
			r.Get("/attendance-history", s.handleHistory)
		})
	})

	return r
}
