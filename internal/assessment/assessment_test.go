package assessment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/cyber-assessment/internal/delivery"
	"github.com/terra-clan/cyber-assessment/internal/models"
	"github.com/terra-clan/cyber-assessment/internal/questions"
	"github.com/terra-clan/cyber-assessment/internal/storage"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	reports []models.Report
}

func (d *recordingDispatcher) Dispatch(rep models.Report) *delivery.Pending {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = append(d.reports, rep)
	return delivery.Settled(delivery.Outcome{Status: delivery.StatusSucceeded})
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reports)
}

func newTestController(t *testing.T, d Dispatcher) *Controller {
	t.Helper()
	c, err := NewController(questions.MustLoadDefault(), d)
	require.NoError(t, err)
	return c
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		level string
	}{
		{0, "immediate"},
		{34, "immediate"},
		{35, "basic"},
		{64, "basic"},
		{65, "aligned"},
		{84, "aligned"},
		{85, "advanced"},
		{134, "advanced"},
		{136, "advanced"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, Classify(tt.score).Level, "score %d", tt.score)
	}
}

func TestClassify_Summaries(t *testing.T) {
	assert.Equal(t, "Advanced Cyber Maturity - Fine as it is.", Classify(90).Summary)
	assert.Equal(t, "Aligned to Foundational Values - May look at framework standards.", Classify(70).Summary)
	assert.Equal(t, "Basic Measures in Place - Thorough assessment required in the mid-term.", Classify(40).Summary)
	assert.Equal(t, "Immediate assessment required in Cyber Posture.", Classify(10).Summary)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(models.AnswerSet{}))

	answers := models.NewAnswerSet(
		models.Answer{QuestionID: "q1", Weight: 10},
		models.Answer{QuestionID: "q2", Weight: 7},
		models.Answer{QuestionID: "q9", Weight: 8},
	)
	assert.Equal(t, 25, Score(answers))

	answers.Set("q1", 0)
	assert.Equal(t, 15, Score(answers), "overwrite replaces the previous weight")

	answers.Set("q3", models.UnknownWeight)
	assert.Equal(t, 15, Score(answers), "unknown weights count 0")
}

func TestTick(t *testing.T) {
	assert.Equal(t, 1, Tick(0, 42))
	assert.Equal(t, 42, Tick(41, 42))
	assert.Equal(t, 42, Tick(42, 42))
	assert.Equal(t, 9, Tick(10, 5))

	v, steps := 0, 0
	for v != 42 {
		v = Tick(v, 42)
		steps++
	}
	assert.Equal(t, 42, steps)
}

func TestProgress(t *testing.T) {
	assert.InDelta(t, 1.0/16.0, Progress(0, 15), 1e-9)
	assert.InDelta(t, 15.0/16.0, Progress(14, 15), 1e-9)
	assert.InDelta(t, 1.0, Progress(15, 15), 1e-9)
	assert.InDelta(t, 1.0, Progress(16, 15), 1e-9, "result step never exceeds 100%")
}

func TestController_InitialState(t *testing.T) {
	c := newTestController(t, nil)

	assert.Equal(t, PhaseCollectingInfo, c.Phase())
	assert.Equal(t, 0, c.Step())
	assert.NotEmpty(t, c.Session().ID)

	_, ok := c.Current()
	assert.False(t, ok)
	_, ok = c.Result()
	assert.False(t, ok)
	assert.Nil(t, c.Delivery())
}

func TestController_SelectAnswerOnlyWhileAnswering(t *testing.T) {
	c := newTestController(t, nil)

	assert.ErrorIs(t, c.SelectAnswer("q1", 10), ErrNotAnswering)

	require.NoError(t, c.Next())
	require.NoError(t, c.SelectAnswer("q1", 10))
	require.NoError(t, c.SelectAnswer("q1", 4))
	assert.Equal(t, 1, c.Step(), "selecting never advances")

	w, ok := c.Session().Answers.Get("q1")
	require.True(t, ok)
	assert.Equal(t, 4, w)
}

func TestController_BackNoOps(t *testing.T) {
	c := newTestController(t, nil)

	c.Back()
	assert.Equal(t, 0, c.Step(), "back on info step")

	require.NoError(t, c.Next())
	c.Back()
	assert.Equal(t, 1, c.Step(), "back on first question")

	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	c.Back()
	assert.Equal(t, 2, c.Step())
	assert.Equal(t, PhaseAnswering, c.Phase())
}

func TestController_CurrentFollowsStep(t *testing.T) {
	c := newTestController(t, nil)
	require.NoError(t, c.Next())

	q, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "q1", q.ID)

	require.NoError(t, c.Next())
	q, _ = c.Current()
	assert.Equal(t, "q2", q.ID)
}

func answerAll(t *testing.T, c *Controller, pick func(models.Question) models.Option) {
	t.Helper()
	require.NoError(t, c.Next())
	for c.Phase() == PhaseAnswering {
		q, ok := c.Current()
		require.True(t, ok)
		require.NoError(t, c.SelectAnswer(q.ID, pick(q).Weight))
		require.NoError(t, c.Next())
	}
}

func TestController_LowestOptions(t *testing.T) {
	d := &recordingDispatcher{}
	c := newTestController(t, d)

	answerAll(t, c, models.Question.Lowest)

	res, ok := c.Result()
	require.True(t, ok)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "immediate", res.Band.Level)
	assert.Equal(t, 16, c.Step())
	assert.InDelta(t, 1.0, c.Progress(), 1e-9)
	assert.Equal(t, 1, d.count())
}

func TestController_HighestOptions(t *testing.T) {
	d := &recordingDispatcher{}
	c := newTestController(t, d)
	require.NoError(t, c.SetRespondent(models.RespondentInfo{Name: "Ada", Email: "ada@example.com"}))

	answerAll(t, c, models.Question.Highest)

	res, ok := c.Result()
	require.True(t, ok)
	assert.Equal(t, 136, res.Score)
	assert.Equal(t, 136, res.MaxScore)
	assert.Equal(t, "advanced", res.Band.Level)

	require.Equal(t, 1, d.count())
	rep := d.reports[0]
	assert.Equal(t, 136, rep.Score)
	assert.Equal(t, "Ada", rep.Respondent.Name)
	assert.Len(t, rep.Rows, 15)

	require.NotNil(t, c.Delivery())
	outcome, err := c.Delivery().Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
}

func TestController_ResultIsTerminal(t *testing.T) {
	d := &recordingDispatcher{}
	c := newTestController(t, d)
	answerAll(t, c, models.Question.Highest)

	assert.ErrorIs(t, c.Next(), ErrCompleted)
	assert.ErrorIs(t, c.SetRespondent(models.RespondentInfo{}), ErrCompleted)
	assert.ErrorIs(t, c.SelectAnswer("q1", 0), ErrNotAnswering)

	c.Back()
	assert.Equal(t, PhaseResult, c.Phase())
	assert.Equal(t, 1, d.count(), "dispatched exactly once")
}

func TestController_SkippedQuestionsScoreZero(t *testing.T) {
	c := newTestController(t, nil)
	require.NoError(t, c.Next())
	require.NoError(t, c.SelectAnswer("q1", 10))
	for c.Phase() == PhaseAnswering {
		require.NoError(t, c.Next())
	}

	res, ok := c.Result()
	require.True(t, ok)
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, "immediate", res.Band.Level)
}

func TestController_RestoreSession(t *testing.T) {
	s := models.Session{
		ID:      "restored",
		Answers: models.NewAnswerSet(models.Answer{QuestionID: "q1", Weight: 7}),
		Step:    15,
	}

	c, err := NewController(questions.MustLoadDefault(), nil, WithSession(s))
	require.NoError(t, err)
	assert.Equal(t, PhaseAnswering, c.Phase())
	assert.Equal(t, "restored", c.Session().ID)

	require.NoError(t, c.Next())
	assert.Equal(t, PhaseResult, c.Phase())

	res, _ := c.Result()
	assert.Equal(t, 7, res.Score)
}

func TestController_RestoreInvalidStep(t *testing.T) {
	_, err := NewController(questions.MustLoadDefault(), nil, WithSession(models.Session{ID: "x", Step: 99}))
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func newTestManager(t *testing.T, d Dispatcher) (*Manager, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewManager(questions.MustLoadDefault(), store, d, time.Hour), store
}

func TestManager_Flow(t *testing.T) {
	ctx := context.Background()
	d := &recordingDispatcher{}
	m, store := newTestManager(t, d)

	resp, err := m.Start(ctx, models.RespondentInfo{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, PhaseCollectingInfo, resp.Phase)
	assert.Equal(t, 15, resp.Questions)
	require.NotNil(t, resp.ExpiresAt)
	id := resp.ID

	resp, err = m.Next(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, resp.Question)
	assert.Equal(t, "q1", resp.Question.ID)

	resp, err = m.SelectAnswer(ctx, id, "q1", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Answers.Len())

	resp, err = m.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Step)

	for i := 0; i < 15; i++ {
		resp, err = m.Next(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, PhaseResult, resp.Phase)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 10, resp.Result.Score)
	assert.Equal(t, 1, d.count())

	_, err = m.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound, "completed sessions are discarded")
	assert.Equal(t, 0, store.Len())
}

func TestManager_UnknownSession(t *testing.T) {
	m, _ := newTestManager(t, nil)
	_, err := m.Next(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_ControllerErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	resp, err := m.Start(ctx, models.RespondentInfo{})
	require.NoError(t, err)

	_, err = m.SelectAnswer(ctx, resp.ID, "q1", 10)
	assert.ErrorIs(t, err, ErrNotAnswering)
}

func TestManager_ConcurrentCommandsSerialise(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)

	resp, err := m.Start(ctx, models.RespondentInfo{})
	require.NoError(t, err)
	_, err = m.Next(ctx, resp.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Next(ctx, resp.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Step)
}

func TestManager_Sweep(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, nil)

	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Start(ctx, models.RespondentInfo{})
	require.NoError(t, err)

	removed, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	m.now = func() time.Time { return now.Add(2 * time.Hour) }
	removed, err = m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, store.Len())
}
