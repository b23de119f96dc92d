package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/terra-clan/cyber-assessment/internal/assessment"
	"github.com/terra-clan/cyber-assessment/internal/models"
	"github.com/terra-clan/cyber-assessment/internal/report"
)

const maxAssessmentBody = 64 << 10

// Messages returned by /api/send-assessment. Browser clients match on them.
const (
	MessageSent             = "Assessment results sent successfully"
	MessageSendFailed       = "Failed to send assessment results"
	MessageMethodNotAllowed = "Method Not Allowed"
	MessageInvalidBody      = "Invalid request body"
)

func respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(models.MessageResponse{Message: message}); err != nil {
		slog.Error("failed to encode message response", "error", err)
	}
}

func (s *Server) handleSendAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondMessage(w, http.StatusMethodNotAllowed, MessageMethodNotAllowed)
		return
	}

	logger := LoggerFromContext(r.Context())

	var req models.AssessmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAssessmentBody)).Decode(&req); err != nil {
		logger.Warn("invalid assessment body", "error", err)
		respondMessage(w, http.StatusBadRequest, MessageInvalidBody)
		return
	}

	// The submitted score is reported as-is
	if sum := assessment.Score(req.Answers); sum != req.Score {
		logger.Warn("submitted score differs from answer weights",
			"submitted", req.Score,
			"computed", sum,
		)
	}

	rep := report.Render(s.bank, req.PersonalInfo, req.Answers, req.Score)

	// A client hanging up must not abort a send already in flight.
	outcome := s.deliverer.Deliver(context.WithoutCancel(r.Context()), rep)
	if !outcome.Succeeded() {
		logger.Error("assessment delivery failed", "reason", outcome.Reason)
		respondMessage(w, http.StatusInternalServerError, MessageSendFailed)
		return
	}

	respondMessage(w, http.StatusOK, MessageSent)
}
