package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidAnswers is returned when an answers object cannot be decoded
var ErrInvalidAnswers = errors.New("invalid answers")

// UnknownWeight is recorded for values that are not a canonical integer.
// No option carries it, so it renders as an unknown answer and scores 0.
const UnknownWeight = -1

// Answer is the weight selected for one question
type Answer struct {
	QuestionID string `json:"question_id"`
	Weight     int    `json:"weight"`
}

// AnswerSet maps question IDs to selected weights and remembers the order
// in which questions were first answered. Overwriting an answer keeps its
// original position.
type AnswerSet struct {
	entries []Answer
}

// NewAnswerSet builds a set from answers in order
func NewAnswerSet(answers ...Answer) AnswerSet {
	var set AnswerSet
	for _, a := range answers {
		set.Set(a.QuestionID, a.Weight)
	}
	return set
}

// Set records a weight for a question
func (a *AnswerSet) Set(questionID string, weight int) {
	for i := range a.entries {
		if a.entries[i].QuestionID == questionID {
			a.entries[i].Weight = weight
			return
		}
	}
	a.entries = append(a.entries, Answer{QuestionID: questionID, Weight: weight})
}

// Get returns the weight recorded for a question
func (a AnswerSet) Get(questionID string) (int, bool) {
	for _, e := range a.entries {
		if e.QuestionID == questionID {
			return e.Weight, true
		}
	}
	return 0, false
}

// Len returns the number of answered questions
func (a AnswerSet) Len() int {
	return len(a.entries)
}

// Entries returns a copy of the answers in insertion order
func (a AnswerSet) Entries() []Answer {
	out := make([]Answer, len(a.entries))
	copy(out, a.entries)
	return out
}

// Clone returns an independent copy of the set
func (a AnswerSet) Clone() AnswerSet {
	return AnswerSet{entries: a.Entries()}
}

// MarshalJSON encodes the set as {"q1": "10", ...} in insertion order
func (a AnswerSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range a.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.QuestionID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Quote(strconv.Itoa(e.Weight)))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an answers object keeping document order.
// Values may be weight strings ("10") or plain numbers. Any other scalar
// is kept as UnknownWeight; only a malformed object is an error.
func (a *AnswerSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	if tok == nil {
		a.entries = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected object", ErrInvalidAnswers)
	}

	var set AnswerSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("%w: expected question id", ErrInvalidAnswers)
		}

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
		}
		weight, err := parseWeight(valTok)
		if err != nil {
			return fmt.Errorf("%w: question %q: %v", ErrInvalidAnswers, key, err)
		}
		set.Set(key, weight)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}

	*a = set
	return nil
}

func parseWeight(tok json.Token) (int, error) {
	switch v := tok.(type) {
	case string:
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || strconv.Itoa(n) != v {
			return UnknownWeight, nil
		}
		return n, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil || n < 0 {
			return UnknownWeight, nil
		}
		return int(n), nil
	case json.Delim:
		return 0, fmt.Errorf("unexpected %v", v)
	default:
		return UnknownWeight, nil
	}
}
