package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/cyber-assessment/internal/models"
)

// ErrInvalidSession is returned when a session cannot be stored
var ErrInvalidSession = errors.New("invalid session")

// Store defines the interface for in-flight session persistence.
// Get returns nil, nil when the session does not exist or has expired.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)

	// Health
	Type() string
	HealthCheck(ctx context.Context) error
	Close() error
}

func validate(s *models.Session) error {
	if s == nil || s.ID == "" {
		return ErrInvalidSession
	}
	return nil
}
