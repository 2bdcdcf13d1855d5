package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
	"github.com/sweeney/moodfuse/internal/session"
)

const maxBody = 16 << 10

// MoodRequest is the body of POST /api/mood.
type MoodRequest struct {
	Mood string `json:"mood"`
}

// MoodResponse returns the recorded entry.
type MoodResponse struct {
	Entry logic.MoodEntry `json:"entry"`
}

// MessageRequest is the body of POST /api/message.
type MessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse reports the triage result. The backend reply follows as
// a MESSAGE event.
type MessageResponse struct {
	CrisisLevel logic.CrisisLevel `json:"crisis_level"`
}

// PetResponse is the outcome of a pet action.
type PetResponse struct {
	Action  logic.PetAction `json:"action"`
	OK      bool            `json:"ok"`
	Message string          `json:"message"`
	Stats   logic.PetStats  `json:"stats"`
	State   logic.PetState  `json:"state"`
}

// DismissResponse reports whether a crisis was active.
type DismissResponse struct {
	Dismissed bool `json:"dismissed"`
}

// ErrorResponse is returned with every non-2xx API status.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

// engineError maps an engine failure to a status code.
func engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, session.ErrEmptyMessage), errors.Is(err, logic.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err)
	default:
		log.Warn("api request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse body: %w", err)
	}
	return nil
}
