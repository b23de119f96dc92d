// Package assessment drives a respondent through the question bank and
// turns the final answers into a score and maturity band.
package assessment

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"

	"github.com/terra-clan/cyber-assessment/internal/delivery"
	"github.com/terra-clan/cyber-assessment/internal/models"
	"github.com/terra-clan/cyber-assessment/internal/questions"
	"github.com/terra-clan/cyber-assessment/internal/report"
)

// Phases of an assessment. Kept untyped for statekit.StateID.
const (
	PhaseCollectingInfo = "collecting_info"
	PhaseAnswering      = "answering"
	PhaseResult         = "result"
)

const (
	eventStart  = "start"
	eventFinish = "finish"

	guardLastQuestion = "atLastQuestion"
)

// Common errors
var (
	ErrNotAnswering = errors.New("answers can only be selected on a question step")
	ErrCompleted    = errors.New("assessment already completed")
	ErrInvalidStep  = errors.New("invalid step")
)

// Dispatcher hands a finished report to delivery without waiting on it
type Dispatcher interface {
	Dispatch(rep models.Report) *delivery.Pending
}

type machineContext struct {
	AtLastQuestion func() bool
}

// Controller owns one assessment session
type Controller struct {
	bank       *questions.Bank
	dispatcher Dispatcher
	session    models.Session
	machine    *statekit.Interpreter[machineContext]
	result     *models.Result
	delivery   *delivery.Pending
	now        func() time.Time
}

// Option configures a controller
type Option func(*Controller)

// WithSession resumes from a stored session snapshot
func WithSession(s models.Session) Option {
	return func(c *Controller) {
		s.Answers = s.Answers.Clone()
		c.session = s
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller. A nil dispatcher disables delivery.
func NewController(bank *questions.Bank, dispatcher Dispatcher, opts ...Option) (*Controller, error) {
	c := &Controller{
		bank:       bank,
		dispatcher: dispatcher,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.session.ID == "" {
		now := c.now()
		c.session.ID = uuid.New().String()
		c.session.CreatedAt = now
		c.session.UpdatedAt = now
	}

	n := bank.Count()
	if c.session.Step < 0 || c.session.Step > n+1 {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidStep, c.session.Step, n+1)
	}

	machine, err := c.buildMachine(phaseForStep(c.session.Step, n))
	if err != nil {
		return nil, err
	}
	c.machine = machine

	// A restored completed session shows its result but is never re-delivered.
	if c.Phase() == PhaseResult {
		c.result = c.computeResult()
	}

	return c, nil
}

func phaseForStep(step, n int) string {
	switch {
	case step == 0:
		return PhaseCollectingInfo
	case step > n:
		return PhaseResult
	default:
		return PhaseAnswering
	}
}

func (c *Controller) buildMachine(initial string) (*statekit.Interpreter[machineContext], error) {
	builder := statekit.NewMachine[machineContext]("assessment").
		WithInitial(statekit.StateID(initial)).
		WithContext(machineContext{
			AtLastQuestion: func() bool { return c.session.Step == c.bank.Count() },
		}).
		WithGuard(guardLastQuestion, func(ctx machineContext, e statekit.Event) bool {
			return ctx.AtLastQuestion()
		})

	builder.State(PhaseCollectingInfo).
		On(eventStart).Target(PhaseAnswering).
		Done()

	builder.State(PhaseAnswering).
		On(eventFinish).Target(PhaseResult).Guard(guardLastQuestion).
		Done()

	builder.State(PhaseResult).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build assessment state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return interpreter, nil
}

func (c *Controller) send(event string) error {
	before := c.Phase()
	c.machine.Send(statekit.Event{Type: statekit.EventType(event)})
	if c.Phase() != before {
		return nil
	}
	return fmt.Errorf("event %q not allowed in phase %q", event, before)
}

// Phase returns the current phase
func (c *Controller) Phase() string {
	return string(c.machine.State().Value)
}

// Step returns the current step index (0 info, 1..N questions, N+1 result)
func (c *Controller) Step() int {
	return c.session.Step
}

// Questions returns the number of question steps
func (c *Controller) Questions() int {
	return c.bank.Count()
}

// Progress returns (step+1)/(N+1), capped at 1
func (c *Controller) Progress() float64 {
	return Progress(c.session.Step, c.bank.Count())
}

// Current returns the question shown on the current step
func (c *Controller) Current() (models.Question, bool) {
	if c.Phase() != PhaseAnswering {
		return models.Question{}, false
	}
	return c.bank.QuestionAt(c.session.Step), true
}

// Session returns a snapshot of the session state
func (c *Controller) Session() models.Session {
	s := c.session
	s.Answers = s.Answers.Clone()
	return s
}

// Result returns the score and band once the result step is reached
func (c *Controller) Result() (models.Result, bool) {
	if c.result == nil {
		return models.Result{}, false
	}
	return *c.result, true
}

// Delivery returns the report delivery started on completion, if any
func (c *Controller) Delivery() *delivery.Pending {
	return c.delivery
}

// SetRespondent replaces the respondent details
func (c *Controller) SetRespondent(info models.RespondentInfo) error {
	if c.Phase() == PhaseResult {
		return ErrCompleted
	}
	c.session.Respondent = info
	c.touch()
	return nil
}

// SelectAnswer records weight for questionID. It never advances the step.
func (c *Controller) SelectAnswer(questionID string, weight int) error {
	if c.Phase() != PhaseAnswering {
		return ErrNotAnswering
	}
	c.session.Answers.Set(questionID, weight)
	c.touch()
	return nil
}

// Next advances one step. Leaving the last question completes the
// assessment and starts delivery of the report.
func (c *Controller) Next() error {
	switch c.Phase() {
	case PhaseCollectingInfo:
		if err := c.send(eventStart); err != nil {
			return err
		}
		c.session.Step = 1

	case PhaseAnswering:
		if c.session.Step < c.bank.Count() {
			c.session.Step++
			break
		}
		if err := c.send(eventFinish); err != nil {
			return err
		}
		c.session.Step = c.bank.Count() + 1
		c.complete()

	case PhaseResult:
		return ErrCompleted
	}

	c.touch()
	return nil
}

// Back returns to the previous question. It does nothing on the first
// question, on the info step or once completed.
func (c *Controller) Back() {
	if c.Phase() != PhaseAnswering || c.session.Step <= 1 {
		return
	}
	c.session.Step--
	c.touch()
}

func (c *Controller) complete() {
	c.result = c.computeResult()

	slog.Info("assessment completed",
		"session_id", c.session.ID,
		"score", c.result.Score,
		"band", c.result.Band.Level,
		"answered", c.session.Answers.Len(),
	)

	if c.dispatcher == nil {
		slog.Warn("no dispatcher configured, report not delivered", "session_id", c.session.ID)
		return
	}

	rep := report.FromSession(c.bank, &c.session, c.result.Score)
	c.delivery = c.dispatcher.Dispatch(rep)
}

func (c *Controller) computeResult() *models.Result {
	score := Score(c.session.Answers)
	return &models.Result{
		Score:    score,
		MaxScore: c.bank.MaxScore(),
		Band:     Classify(score),
	}
}

func (c *Controller) touch() {
	c.session.UpdatedAt = c.now()
}
