package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/cyber-assessment/internal/assessment"
	"github.com/terra-clan/cyber-assessment/internal/models"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var info models.RespondentInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resp, err := s.sessions.Start(r.Context(), info)
	if err != nil {
		LoggerFromContext(r.Context()).Error("failed to start session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to start session")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := s.sessions.Get(r.Context(), id)
	s.respondSession(w, r, resp, err)
}

func (s *Server) handleSetRespondent(w http.ResponseWriter, r *http.Request) {
	var info models.RespondentInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	resp, err := s.sessions.SetRespondent(r.Context(), id, info)
	s.respondSession(w, r, resp, err)
}

func (s *Server) handleSelectAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.SelectAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	questionID := chi.URLParam(r, "questionId")
	if questionID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "question id is required")
		return
	}

	id := chi.URLParam(r, "id")
	resp, err := s.sessions.SelectAnswer(r.Context(), id, questionID, req.Weight)
	s.respondSession(w, r, resp, err)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := s.sessions.Next(r.Context(), id)
	s.respondSession(w, r, resp, err)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := s.sessions.Back(r.Context(), id)
	s.respondSession(w, r, resp, err)
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, resp *models.SessionResponse, err error) {
	if err == nil {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	switch {
	case errors.Is(err, assessment.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, assessment.ErrNotAnswering):
		respondError(w, http.StatusConflict, "not_answering", err.Error())
	case errors.Is(err, assessment.ErrCompleted):
		respondError(w, http.StatusConflict, "completed", err.Error())
	default:
		LoggerFromContext(r.Context()).Error("session command failed", "error", err, "id", chi.URLParam(r, "id"))
		respondError(w, http.StatusInternalServerError, "internal_error", "session command failed")
	}
}
