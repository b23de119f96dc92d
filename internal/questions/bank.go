package questions

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/cyber-assessment/internal/models"
)

//go:embed bank.yaml
var defaultBank []byte

// ErrInvalidBank is returned when a question bank fails validation
var ErrInvalidBank = errors.New("invalid question bank")

// Bank is the ordered, read-only catalog of assessment questions
type Bank struct {
	questions []models.Question
	index     map[string]int
}

// New validates the questions and builds a bank from them
func New(qs []models.Question) (*Bank, error) {
	if len(qs) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidBank)
	}

	b := &Bank{
		questions: make([]models.Question, 0, len(qs)),
		index:     make(map[string]int, len(qs)),
	}

	for i, q := range qs {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrInvalidBank, i+1, err)
		}
		if _, dup := b.index[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrInvalidBank, q.ID)
		}

		opts := make([]models.Option, len(q.Options))
		copy(opts, q.Options)
		q.Options = opts

		b.index[q.ID] = len(b.questions)
		b.questions = append(b.questions, q)
	}

	return b, nil
}

// LoadDefault parses the question bank compiled into the binary
func LoadDefault() (*Bank, error) {
	return Parse(defaultBank)
}

// MustLoadDefault is LoadDefault for callers that cannot recover from a broken build
func MustLoadDefault() *Bank {
	b, err := LoadDefault()
	if err != nil {
		panic(err)
	}
	return b
}

// Load reads the bank from path, or the built-in bank when path is empty
func Load(path string) (*Bank, error) {
	if path == "" {
		return LoadDefault()
	}
	return LoadFromFile(path)
}

// LoadFromFile loads a question bank from a YAML file
func LoadFromFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	b, err := Parse(data)
	if err != nil {
		return nil, err
	}

	slog.Info("question bank loaded", "file", path, "questions", b.Count(), "max_score", b.MaxScore())
	return b, nil
}

// Parse decodes a YAML question bank
func Parse(data []byte) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	qs := make([]models.Question, 0, len(f.Questions))
	for _, qf := range f.Questions {
		q := models.Question{
			ID:   qf.ID,
			Text: qf.Text,
		}
		for _, of := range qf.Options {
			q.Options = append(q.Options, models.Option{
				Weight: of.Weight,
				Label:  of.Label,
			})
		}
		qs = append(qs, q)
	}

	return New(qs)
}

// Count returns the number of questions N
func (b *Bank) Count() int {
	return len(b.questions)
}

// QuestionAt returns the question for a 1-based step index.
// It panics when index is outside 1..Count().
func (b *Bank) QuestionAt(index int) models.Question {
	if index < 1 || index > len(b.questions) {
		panic(fmt.Sprintf("questions: index %d out of range [1, %d]", index, len(b.questions)))
	}
	return b.questions[index-1]
}

// Find looks up a question by ID
func (b *Bank) Find(id string) (models.Question, bool) {
	i, ok := b.index[id]
	if !ok {
		return models.Question{}, false
	}
	return b.questions[i], true
}

// All returns the questions in order
func (b *Bank) All() []models.Question {
	out := make([]models.Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// MaxScore is the sum of every question's highest weight
func (b *Bank) MaxScore() int {
	total := 0
	for _, q := range b.questions {
		total += q.Highest().Weight
	}
	return total
}

func validateQuestion(q models.Question) error {
	if q.ID == "" {
		return errors.New("id is required")
	}
	if q.Text == "" {
		return fmt.Errorf("question %q: text is required", q.ID)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("question %q: at least one option is required", q.ID)
	}

	seen := make(map[int]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt.Weight < 0 {
			return fmt.Errorf("question %q: negative weight %d", q.ID, opt.Weight)
		}
		if seen[opt.Weight] {
			return fmt.Errorf("question %q: duplicate weight %d", q.ID, opt.Weight)
		}
		if opt.Label == "" {
			return fmt.Errorf("question %q: option with weight %d has no label", q.ID, opt.Weight)
		}
		seen[opt.Weight] = true
	}
	return nil
}

// --- YAML file structs ---

type bankFile struct {
	Questions []questionFile `yaml:"questions"`
}

type questionFile struct {
	ID      string       `yaml:"id"`
	Text    string       `yaml:"text"`
	Options []optionFile `yaml:"options"`
}

type optionFile struct {
	Weight int    `yaml:"weight"`
	Label  string `yaml:"label"`
}
