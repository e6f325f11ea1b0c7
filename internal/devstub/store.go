package devstub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Student is a seeded student account. Students authenticate by identifier
// alone, mirroring the real service.
type Student struct {
	UserID     int64
	StudentID  string
	Name       string
	HasProfile bool
}

// Session is a seeded attendance session. Code is the value embedded in the
// scannable payload.
type Session struct {
	ID         int64
	ClassName  string
	RoomNumber string
	Code       string
	Active     bool
}

// QRPayload renders the session code the way the real service embeds it in
// a QR image: a JSON envelope with a type tag.
func (s *Session) QRPayload() string {
	payload := map[string]any{
		"type":       "attendance_session",
		"session_id": s.ID,
		"qr_code":    s.Code,
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

// attendanceRecord is one stored mark, kept per student for the history
// endpoint.
type attendanceRecord struct {
	ID         int64
	SessionID  int64
	StudentID  int64
	Status     string
	Score      float64
	SpokenWord string
	Timestamp  time.Time
}

// store holds all stub state behind one mutex. The dataset is tiny; no
// finer-grained locking is warranted.
type store struct {
	mu         sync.Mutex
	admins     map[string]string // username -> password
	students   map[string]*Student
	byUserID   map[int64]*Student
	sessions   map[string]*Session // by code
	byID       map[int64]*Session
	marked     map[string]struct{}           // "sessionID/studentID"
	records    map[string][]attendanceRecord // by student identifier
	nextUserID int64
	nextID     int64
	nextRecID  int64
}

func newStore() *store {
	return &store{
		admins:   make(map[string]string),
		students: make(map[string]*Student),
		byUserID: make(map[int64]*Student),
		sessions: make(map[string]*Session),
		byID:     make(map[int64]*Session),
		marked:   make(map[string]struct{}),
		records:  make(map[string][]attendanceRecord),
	}
}

func (s *store) addAdmin(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[username] = password
}

func (s *store) addStudent(studentID, name string, hasProfile bool) *Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	st := &Student{
		UserID:     s.nextUserID,
		StudentID:  studentID,
		Name:       name,
		HasProfile: hasProfile,
	}
	s.students[studentID] = st
	s.byUserID[st.UserID] = st
	return st
}

func (s *store) createSession(className, roomNumber string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sess := &Session{
		ID:         s.nextID,
		ClassName:  className,
		RoomNumber: roomNumber,
		Code:       uuid.NewString(),
		Active:     true,
	}
	s.sessions[sess.Code] = sess
	s.byID[sess.ID] = sess
	return sess
}

func (s *store) student(studentID string) *Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.students[studentID]
}

func (s *store) adminPassword(username string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pw, ok := s.admins[username]
	return pw, ok
}

// sessionByCode returns a copy, so handlers never observe a session
// mutating under them.
func (s *store) sessionByCode(code string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.sessions[code]; sess != nil {
		cp := *sess
		return &cp
	}
	return nil
}

func (s *store) deactivate(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.byID[id]; sess != nil {
		sess.Active = false
	}
}

func (s *store) sessionByID(id int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.byID[id]; sess != nil {
		cp := *sess
		return &cp
	}
	return nil
}

// markOnce records attendance for the student in the session. The second
// attempt for the same pair reports false and stores nothing.
func (s *store) markOnce(sessionID int64, st *Student, status string, score float64, word string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d/%s", sessionID, st.StudentID)
	if _, dup := s.marked[key]; dup {
		return false
	}
	s.marked[key] = struct{}{}

	s.nextRecID++
	s.records[st.StudentID] = append(s.records[st.StudentID], attendanceRecord{
		ID:         s.nextRecID,
		SessionID:  sessionID,
		StudentID:  st.UserID,
		Status:     status,
		Score:      score,
		SpokenWord: word,
		Timestamp:  time.Now().UTC(),
	})
	return true
}

// history returns the student's records in insertion order.
func (s *store) history(studentID string) []attendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]attendanceRecord(nil), s.records[studentID]...)
}
