package web

import (
	"net/http"

	"github.com/sweeney/moodfuse/internal/logic"
)

func (s *Server) handleMood(w http.ResponseWriter, r *http.Request) {
	var req MoodRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mood, err := logic.ParseMood(req.Mood)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := s.engine.Choose(r.Context(), mood)
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MoodResponse{Entry: entry})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	level, err := s.engine.SendMessage(r.Context(), req.Text)
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageResponse{CrisisLevel: level})
}

func (s *Server) handlePet(w http.ResponseWriter, r *http.Request) {
	action, err := logic.ParsePetAction(r.PathValue("action"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	res, err := s.engine.PetAction(r.Context(), action)
	if err != nil {
		engineError(w, err)
		return
	}
	// A failed precondition is feedback, not an error.
	writeJSON(w, http.StatusOK, PetResponse{
		Action:  res.Action,
		OK:      res.OK,
		Message: res.Message,
		Stats:   res.Stats,
		State:   logic.Classify(res.Stats),
	})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	dismissed, err := s.engine.DismissCrisis(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DismissResponse{Dismissed: dismissed})
}

func (s *Server) handleBreathing(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.StartBreathing(r.Context()); err != nil {
		engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
