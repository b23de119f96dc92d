// Package delivery emails completed assessment reports to the fixed
// recipient. A delivery either succeeds or fails; nothing is retried or
// queued.
package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/cyber-assessment/internal/models"
)

// Status is the settled state of a delivery
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is the result of one delivery attempt
type Outcome struct {
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	SettledAt time.Time `json:"settled_at,omitempty"`
}

// Succeeded reports whether the report was handed to the transport
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// Deliverer sends a report and reports how it went
type Deliverer interface {
	Deliver(ctx context.Context, rep models.Report) Outcome
}

// Service renders reports and hands them to a transport
type Service struct {
	transport Transport
	now       func() time.Time
}

// NewService creates a delivery service on top of transport
func NewService(transport Transport) *Service {
	return &Service{
		transport: transport,
		now:       time.Now,
	}
}

// Deliver renders rep and sends it to Recipient
func (s *Service) Deliver(ctx context.Context, rep models.Report) Outcome {
	body, err := Document(rep)
	if err != nil {
		slog.Error("failed to render assessment report", "error", err)
		return s.failed(err)
	}

	msg := Message{
		To:      Recipient,
		Subject: Subject,
		HTML:    body,
	}

	if err := s.transport.Send(ctx, msg); err != nil {
		slog.Error("failed to send assessment report",
			"error", err,
			"recipient", Recipient,
			"respondent_email", rep.Respondent.Email,
		)
		return s.failed(err)
	}

	slog.Info("assessment report sent",
		"recipient", Recipient,
		"respondent_email", rep.Respondent.Email,
		"score", rep.Score,
		"answers", len(rep.Rows),
	)

	return Outcome{Status: StatusSucceeded, SettledAt: s.now()}
}

func (s *Service) failed(err error) Outcome {
	return Outcome{
		Status:    StatusFailed,
		Reason:    err.Error(),
		SettledAt: s.now(),
	}
}
