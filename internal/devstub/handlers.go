package devstub

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voiceroll/voiceroll/internal/common"
)

type ctxKey int

const principalKey ctxKey = 0

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError emits the service's error payload: a detail string plus an
// optional machine-readable code.
func writeError(w http.ResponseWriter, statusCode int, detail string, code ...string) {
	body := map[string]string{"detail": detail}
	if len(code) > 0 {
		body["code"] = code[0]
	}
	writeJSON(w, statusCode, body)
}

// requireAuth validates the bearer token and stores the principal on the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		p, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

func callerFrom(r *http.Request) *principal {
	p, _ := r.Context().Value(principalKey).(*principal)
	return p
}

type loginRequest struct {
	UserType  string `json:"user_type"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	StudentID string `json:"student_id"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed login request")
		return
	}

	switch req.UserType {
	case common.UserTypeAdmin:
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Username and password required for admin login")
			return
		}
		pw, ok := s.store.adminPassword(req.Username)
		if !ok || pw != req.Password {
			writeError(w, http.StatusUnauthorized, "Invalid admin credentials")
			return
		}
		p := principal{UserType: common.UserTypeAdmin, Username: req.Username}
		token, err := s.issueToken(p)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"message":      "Admin login successful",
			"access_token": token,
			"user_type":    common.UserTypeAdmin,
			"username":     req.Username,
		})

	case common.UserTypeStudent:
		if req.StudentID == "" {
			writeError(w, http.StatusBadRequest, "Student ID required for student login")
			return
		}
		st := s.store.student(req.StudentID)
		if st == nil {
			writeError(w, http.StatusUnauthorized, "Invalid student ID or student not found")
			return
		}
		p := principal{
			UserID:    st.UserID,
			UserType:  common.UserTypeStudent,
			Username:  st.Name,
			StudentID: st.StudentID,
		}
		token, err := s.issueToken(p)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"message":      "Student login successful",
			"access_token": token,
			"user_type":    common.UserTypeStudent,
			"user_id":      st.UserID,
			"student_id":   st.StudentID,
		})

	default:
		writeError(w, http.StatusBadRequest, "Invalid user type")
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logout successful. Please remove the token from client storage.",
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p := callerFrom(r)
	token, err := s.issueToken(*p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Token refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Token refreshed",
		"access_token": token,
		"user_type":    p.UserType,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := callerFrom(r)
	body := map[string]any{
		"id":        p.UserID,
		"user_type": p.UserType,
		"username":  p.Username,
		"is_active": true,
	}
	if p.UserType == common.UserTypeStudent {
		if st := s.store.student(p.StudentID); st != nil {
			body["student_id"] = st.StudentID
			body["name"] = st.Name
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	p := callerFrom(r)
	if p.UserType != common.UserTypeStudent {
		writeError(w, http.StatusForbidden, "Student access required")
		return
	}

	sess := s.store.sessionByCode(r.URL.Query().Get("qr_code"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "Invalid QR code or session not found")
		return
	}
	if !sess.Active {
		writeError(w, http.StatusBadRequest, "Session is not active")
		return
	}

	st := s.store.student(p.StudentID)
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	if !st.HasProfile {
		writeError(w, http.StatusBadRequest, "Voice profile not found. Please enroll your voice first.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Successfully joined session",
		"session_id":  sess.ID,
		"class_name":  sess.ClassName,
		"room_number": sess.RoomNumber,
		"random_word": randomWord(),
	})
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	p := callerFrom(r)
	if p.UserType != common.UserTypeStudent {
		writeError(w, http.StatusForbidden, "Student access required")
		return
	}

	sessionID, err := strconv.ParseInt(r.URL.Query().Get("session_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Malformed session id")
		return
	}
	spokenWord := r.URL.Query().Get("spoken_word")

	sess := s.store.sessionByID(sessionID)
	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if !sess.Active {
		writeError(w, http.StatusBadRequest, "Session is not active")
		return
	}

	st := s.store.student(p.StudentID)
	if st == nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	if !st.HasProfile {
		writeError(w, http.StatusBadRequest, "Voice profile not found. Please enroll first.")
		return
	}

	file, _, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Audio file is required")
		return
	}
	defer file.Close()
	sample, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read the audio file")
		return
	}

	score, match := s.verify(spokenWord, sample)
	status := "absent"
	if match {
		status = "present"
	}

	if !s.store.markOnce(sessionID, st, status, score, spokenWord) {
		writeError(w, http.StatusBadRequest, "Attendance already marked for this session")
		return
	}
	s.log.Info(r.Context(), "attendance marked",
		"session_id", sessionID, "student_id", st.StudentID, "status", status)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          match,
		"message":          "Attendance marked as " + status,
		"status":           status,
		"similarity_score": score,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	p := callerFrom(r)
	if p.UserType != common.UserTypeStudent {
		writeError(w, http.StatusForbidden, "Student access required")
		return
	}

	records := s.store.history(p.StudentID)
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any{
			"id":                 rec.ID,
			"session_id":         rec.SessionID,
			"student_id":         rec.StudentID,
			"status":             rec.Status,
			"verification_score": rec.Score,
			"timestamp":          rec.Timestamp.Format(time.RFC3339),
			"spoken_word":        rec.SpokenWord,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
