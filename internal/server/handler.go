package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/roach88/avada/internal/content"
	"github.com/roach88/avada/internal/profile"
	"github.com/roach88/avada/internal/skill"
)

var errServerClosed = errors.New("server is shutting down")

// maxBodyBytes bounds a turn request body.
const maxBodyBytes = 64 << 10

// TurnRequest is the body of POST /v1/turn.
type TurnRequest struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	Platform    string `json:"platform"`
	Locale      string `json:"locale"`
	Intent      string `json:"intent"`
	DisplayName string `json:"display_name,omitempty"`
}

// ErrorBody is returned for every non-2xx response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in ErrorDetail.Code.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeUnavailable = "unavailable"
	ErrCodeInternal    = "internal"
)

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON: "+err.Error())
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "session_id is required")
		return
	}

	ctx := r.Context()
	sess, err := s.session(ctx, req)
	if err != nil {
		s.writeStartError(w, req, err)
		return
	}

	resp, err := sess.Handle(ctx, req.Intent)
	if errors.Is(err, skill.ErrSessionEnded) {
		// Swept between lookup and Handle; a fresh session takes the turn.
		s.forget(sess)
		if sess, err = s.session(ctx, req); err != nil {
			s.writeStartError(w, req, err)
			return
		}
		resp, err = sess.Handle(ctx, req.Intent)
	}
	switch {
	case err == nil:
	case errors.Is(err, skill.ErrPersist):
		// The conversation is over either way; the platform still gets its goodbye.
		s.logger.Error("profile not saved", "session_id", req.SessionID, "error", err)
	default:
		s.logger.Error("turn failed", "session_id", req.SessionID, "intent", req.Intent, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "turn failed")
		return
	}

	if resp.EndSession {
		s.forget(sess)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeStartError(w http.ResponseWriter, req TurnRequest, err error) {
	switch {
	case errors.Is(err, errServerClosed):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case errors.Is(err, content.ErrUnknownPlatform), errors.Is(err, profile.ErrEmptyUserID):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		s.logger.Error("session start failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "session start failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
