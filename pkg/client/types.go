package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// PersonalInfo identifies the respondent
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Position string `json:"position"`
}

// Answer is the option weight selected for one question
type Answer struct {
	QuestionID string
	Weight     int
}

// Answers are selected weights in the order they were given. The server
// renders report rows in this order, so it is kept on the wire.
type Answers []Answer

// Get returns the weight selected for questionID
func (a Answers) Get(questionID string) (int, bool) {
	for _, ans := range a {
		if ans.QuestionID == questionID {
			return ans.Weight, true
		}
	}
	return 0, false
}

// MarshalJSON encodes answers as an object of question ID to weight string
func (a Answers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ans := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ans.QuestionID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Quote(strconv.Itoa(ans.Weight)))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an answers object keeping its key order
func (a *Answers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("answers: expected object, got %v", tok)
	}

	out := Answers{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return err
		}

		var n int64
		switch w := v.(type) {
		case string:
			n, err = strconv.ParseInt(w, 10, 64)
		case json.Number:
			n, err = w.Int64()
		default:
			err = fmt.Errorf("unexpected %T", v)
		}
		if err != nil {
			return fmt.Errorf("answers: weight of %q: %w", key, err)
		}
		out = append(out, Answer{QuestionID: key, Weight: int(n)})
	}
	*a = out
	return nil
}

// AssessmentRequest is the body of POST /api/send-assessment
type AssessmentRequest struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Answers      Answers      `json:"answers"`
	Score        int          `json:"score"`
}

// Option is one answer choice of a question
type Option struct {
	Weight int    `json:"weight"`
	Label  string `json:"label"`
}

// Question is one entry of the question bank
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Band is the maturity classification of a score
type Band struct {
	Level   string `json:"level"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Result is the scored outcome of a completed session
type Result struct {
	Score    int  `json:"score"`
	MaxScore int  `json:"max_score"`
	Band     Band `json:"band"`
}

// Session is the server's view of an assessment session
type Session struct {
	ID         string       `json:"id"`
	Phase      string       `json:"phase"`
	Step       int          `json:"step"`
	Questions  int          `json:"questions"`
	Progress   float64      `json:"progress"`
	Question   *Question    `json:"question,omitempty"`
	Respondent PersonalInfo `json:"respondent"`
	Answers    Answers      `json:"answers"`
	Result     *Result      `json:"result,omitempty"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty"`
}

type selectAnswerRequest struct {
	Weight int `json:"weight"`
}

type messageResponse struct {
	Message string `json:"message"`
}
