package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/cyber-assessment/internal/models"
	"github.com/terra-clan/cyber-assessment/internal/questions"
	"github.com/terra-clan/cyber-assessment/internal/storage"
)

// ErrSessionNotFound is returned for unknown, expired or completed sessions
var ErrSessionNotFound = errors.New("session not found")

// Manager runs controllers for sessions kept in a store. Commands on the
// same session id are serialised.
type Manager struct {
	bank       *questions.Bank
	store      storage.Store
	dispatcher Dispatcher
	ttl        time.Duration
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a session manager
func NewManager(bank *questions.Bank, store storage.Store, dispatcher Dispatcher, ttl time.Duration) *Manager {
	return &Manager{
		bank:       bank,
		store:      store,
		dispatcher: dispatcher,
		ttl:        ttl,
		now:        time.Now,
		locks:      make(map[string]*sessionLock),
	}
}

// Start opens a new session on the respondent info step
func (m *Manager) Start(ctx context.Context, info models.RespondentInfo) (*models.SessionResponse, error) {
	c, err := NewController(m.bank, m.dispatcher, WithClock(m.now))
	if err != nil {
		return nil, err
	}
	if err := c.SetRespondent(info); err != nil {
		return nil, err
	}

	s := c.Session()
	if m.ttl > 0 {
		s.ExpiresAt = s.CreatedAt.Add(m.ttl)
	}
	if err := m.store.Save(ctx, &s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("assessment session started", "session_id", s.ID, "expires_at", s.ExpiresAt)

	return m.response(c, s.ExpiresAt), nil
}

// Get returns the current state of a session
func (m *Manager) Get(ctx context.Context, id string) (*models.SessionResponse, error) {
	return m.apply(ctx, id, nil)
}

// SetRespondent replaces the respondent details of a session
func (m *Manager) SetRespondent(ctx context.Context, id string, info models.RespondentInfo) (*models.SessionResponse, error) {
	return m.apply(ctx, id, func(c *Controller) error {
		return c.SetRespondent(info)
	})
}

// SelectAnswer records an answer on the current question step
func (m *Manager) SelectAnswer(ctx context.Context, id, questionID string, weight int) (*models.SessionResponse, error) {
	return m.apply(ctx, id, func(c *Controller) error {
		return c.SelectAnswer(questionID, weight)
	})
}

// Next advances the session. Completing it removes it from the store.
func (m *Manager) Next(ctx context.Context, id string) (*models.SessionResponse, error) {
	return m.apply(ctx, id, func(c *Controller) error {
		return c.Next()
	})
}

// Back moves the session to the previous question
func (m *Manager) Back(ctx context.Context, id string) (*models.SessionResponse, error) {
	return m.apply(ctx, id, func(c *Controller) error {
		c.Back()
		return nil
	})
}

// Sweep removes expired sessions and returns how many were removed
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	ids, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	for _, id := range ids {
		slog.Info("expired assessment session removed", "session_id", id)
	}
	return len(ids), nil
}

func (m *Manager) apply(ctx context.Context, id string, cmd func(*Controller) error) (*models.SessionResponse, error) {
	unlock := m.lock(id)
	defer unlock()

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}

	c, err := NewController(m.bank, m.dispatcher, WithSession(*s), WithClock(m.now))
	if err != nil {
		return nil, err
	}

	if cmd == nil {
		return m.response(c, s.ExpiresAt), nil
	}

	if err := cmd(c); err != nil {
		return nil, err
	}

	if c.Phase() == PhaseResult {
		if err := m.store.Delete(ctx, id); err != nil {
			slog.Error("failed to discard completed session", "error", err, "session_id", id)
		}
		return m.response(c, time.Time{}), nil
	}

	updated := c.Session()
	if err := m.store.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return m.response(c, updated.ExpiresAt), nil
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

func (m *Manager) response(c *Controller, expires time.Time) *models.SessionResponse {
	s := c.Session()
	resp := &models.SessionResponse{
		ID:         s.ID,
		Phase:      c.Phase(),
		Step:       c.Step(),
		Questions:  m.bank.Count(),
		Progress:   c.Progress(),
		Respondent: s.Respondent,
		Answers:    s.Answers,
	}

	if q, ok := c.Current(); ok {
		resp.Question = &q
	}
	if r, ok := c.Result(); ok {
		resp.Result = &r
	}
	if !expires.IsZero() {
		resp.ExpiresAt = &expires
	}
	return resp
}
