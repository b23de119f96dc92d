package models

import "time"

// RespondentInfo is the free-text contact block collected on the first step
type RespondentInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Position string `json:"position"`
}

// Session is the in-flight state of one respondent's assessment.
// Step 0 is the respondent info step, 1..N are question steps and N+1 is
// the result step.
type Session struct {
	ID         string         `json:"id"`
	Respondent RespondentInfo `json:"respondent"`
	Answers    AnswerSet      `json:"answers"`
	Step       int            `json:"step"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// IsExpired reports whether the session TTL has elapsed at now
func (s *Session) IsExpired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt)
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = s.Answers.Clone()
	return &c
}

// SessionResponse is returned by the session endpoints
type SessionResponse struct {
	ID         string         `json:"id"`
	Phase      string         `json:"phase"`
	Step       int            `json:"step"`
	Questions  int            `json:"questions"`
	Progress   float64        `json:"progress"`
	Question   *Question      `json:"question,omitempty"`
	Respondent RespondentInfo `json:"respondent"`
	Answers    AnswerSet      `json:"answers"`
	Result     *Result        `json:"result,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

// SelectAnswerRequest selects a weight for a question
type SelectAnswerRequest struct {
	Weight int `json:"weight"`
}
