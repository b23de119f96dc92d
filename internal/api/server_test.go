package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/cyber-assessment/internal/assessment"
	"github.com/terra-clan/cyber-assessment/internal/config"
	"github.com/terra-clan/cyber-assessment/internal/delivery"
	"github.com/terra-clan/cyber-assessment/internal/health"
	"github.com/terra-clan/cyber-assessment/internal/models"
	"github.com/terra-clan/cyber-assessment/internal/questions"
	"github.com/terra-clan/cyber-assessment/internal/report"
	"github.com/terra-clan/cyber-assessment/internal/storage"
)

type stubDeliverer struct {
	mu      sync.Mutex
	fail    bool
	reports []models.Report
	ctxErrs []error
}

func (d *stubDeliverer) Deliver(ctx context.Context, rep models.Report) delivery.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = append(d.reports, rep)
	d.ctxErrs = append(d.ctxErrs, ctx.Err())
	if d.fail {
		return delivery.Outcome{Status: delivery.StatusFailed, Reason: "smtp: connection refused"}
	}
	return delivery.Outcome{Status: delivery.StatusSucceeded}
}

type stubChecker struct{ err error }

func (c stubChecker) Type() string { return "stub" }

func (c stubChecker) HealthCheck(ctx context.Context) error { return c.err }

func newTestServer(t *testing.T, d *stubDeliverer) *Server {
	t.Helper()
	bank := questions.MustLoadDefault()
	manager := assessment.NewManager(bank, storage.NewMemoryStore(), nil, time.Hour)
	cfg := config.ServerConfig{ScoreTickInterval: time.Millisecond}
	return NewServer(cfg, bank, manager, d, health.NewRegistry())
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var msg models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	return msg.Message
}

const validAssessment = `{
	"personalInfo": {"name": "Ada", "email": "ada@example.com", "company": "Acme", "position": "CISO"},
	"answers": {"q1": "10", "q2": "7"},
	"score": 17
}`

func TestSendAssessment_Success(t *testing.T) {
	d := &stubDeliverer{}
	srv := newTestServer(t, d)

	rec := do(t, srv, http.MethodPost, "/api/send-assessment", validAssessment)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MessageSent, decodeMessage(t, rec))

	require.Len(t, d.reports, 1)
	rep := d.reports[0]
	assert.Equal(t, 17, rep.Score)
	assert.Equal(t, "Ada", rep.Respondent.Name)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, "How mature is your organization's risk management strategy?", rep.Rows[0].Question)
}

func TestSendAssessment_TransportFailure(t *testing.T) {
	srv := newTestServer(t, &stubDeliverer{fail: true})

	rec := do(t, srv, http.MethodPost, "/api/send-assessment", validAssessment)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MessageSendFailed, decodeMessage(t, rec))
}

func TestSendAssessment_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		d := &stubDeliverer{}
		srv := newTestServer(t, d)

		rec := do(t, srv, method, "/api/send-assessment", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, `{"message":"Method Not Allowed"}`, strings.TrimSpace(rec.Body.String()))
		assert.Empty(t, d.reports, "nothing is sent for %s", method)
	}
}

func TestSendAssessment_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `hello`},
		{"answers not object", `{"answers":["10"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &stubDeliverer{}
			srv := newTestServer(t, d)

			rec := do(t, srv, http.MethodPost, "/api/send-assessment", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, MessageInvalidBody, decodeMessage(t, rec))
			assert.Empty(t, d.reports)
		})
	}
}

func TestSendAssessment_UsesSubmittedScore(t *testing.T) {
	d := &stubDeliverer{}
	srv := newTestServer(t, d)

	body := `{"personalInfo":{},"answers":{"q1":"10"},"score":99}`
	rec := do(t, srv, http.MethodPost, "/api/send-assessment", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.reports, 1)
	assert.Equal(t, 99, d.reports[0].Score)
}

func TestSendAssessment_UnknownWeightRendersPlaceholder(t *testing.T) {
	d := &stubDeliverer{}
	srv := newTestServer(t, d)

	body := `{"personalInfo":{"name":"Ada"},"answers":{"q1":"ten","q2":"7"},"score":7}`
	rec := do(t, srv, http.MethodPost, "/api/send-assessment", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MessageSent, decodeMessage(t, rec))
	require.Len(t, d.reports, 1)
	rows := d.reports[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "How mature is your organization's risk management strategy?", rows[0].Question)
	assert.Equal(t, report.UnknownAnswer, rows[0].Answer)
	assert.NotEqual(t, report.UnknownAnswer, rows[1].Answer)
}

func TestSendAssessment_DeliveryOutlivesClientDisconnect(t *testing.T) {
	d := &stubDeliverer{}
	srv := newTestServer(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/send-assessment", strings.NewReader(validAssessment)).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.ctxErrs, 1)
	assert.NoError(t, d.ctxErrs[0])
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    models.SessionResponse `json:"data"`
	Error   *apiError              `json:"error"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSessions_Flow(t *testing.T) {
	srv := newTestServer(t, &stubDeliverer{})

	rec := do(t, srv, http.MethodPost, "/api/sessions", `{"name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeSession(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, assessment.PhaseCollectingInfo, env.Data.Phase)
	assert.Equal(t, "Ada", env.Data.Respondent.Name)
	id := env.Data.ID

	rec = do(t, srv, http.MethodPut, "/api/sessions/"+id+"/answers/q1", `{"weight":10}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/next", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeSession(t, rec)
	require.NotNil(t, env.Data.Question)
	assert.Equal(t, "q1", env.Data.Question.ID)

	rec = do(t, srv, http.MethodPut, "/api/sessions/"+id+"/answers/q1", `{"weight":10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/back", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeSession(t, rec).Data.Step)

	rec = do(t, srv, http.MethodPut, "/api/sessions/"+id+"/respondent", `{"name":"Grace","company":"Navy"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Grace", decodeSession(t, rec).Data.Respondent.Name)

	for i := 0; i < 15; i++ {
		rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/next", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	env = decodeSession(t, rec)
	assert.Equal(t, assessment.PhaseResult, env.Data.Phase)
	require.NotNil(t, env.Data.Result)
	assert.Equal(t, 10, env.Data.Result.Score)
	assert.Equal(t, "immediate", env.Data.Result.Band.Level)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessions_NotFound(t *testing.T) {
	srv := newTestServer(t, &stubDeliverer{})

	rec := do(t, srv, http.MethodGet, "/api/sessions/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env := decodeSession(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestQuestions_List(t *testing.T) {
	srv := newTestServer(t, &stubDeliverer{})

	rec := do(t, srv, http.MethodGet, "/api/questions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			Questions []models.Question `json:"questions"`
			Total     int               `json:"total"`
			MaxScore  int               `json:"max_score"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 15, env.Data.Total)
	assert.Len(t, env.Data.Questions, 15)
	assert.Equal(t, 136, env.Data.MaxScore)
}

func TestHealthAndReady(t *testing.T) {
	registry := health.NewRegistry()
	bank := questions.MustLoadDefault()
	srv := NewServer(config.ServerConfig{}, bank, nil, &stubDeliverer{}, registry)

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	registry.Register("sessions", stubChecker{})
	registry.Register("redis", stubChecker{})
	rec = do(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var ready struct {
		Data struct {
			Status       string            `json:"status"`
			Dependencies []string          `json:"dependencies"`
			Checks       map[string]string `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready.Data.Status)
	assert.Equal(t, []string{"redis", "sessions"}, ready.Data.Dependencies)
	assert.Equal(t, "ok", ready.Data.Checks["sessions"])

	registry.Register("smtp", stubChecker{err: assert.AnError})
	rec = do(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScoreStream(t *testing.T) {
	srv := newTestServer(t, &stubDeliverer{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/score/stream?target=5"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var values []int
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg ScoreMessage
		require.NoError(t, json.NewDecoder(bytes.NewReader(data)).Decode(&msg))
		if msg.Type == "done" {
			assert.Equal(t, 5, msg.Value)
			break
		}
		values = append(values, msg.Value)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, values)
}

func TestScoreStream_InvalidTarget(t *testing.T) {
	srv := newTestServer(t, &stubDeliverer{})

	for _, target := range []string{"", "abc", "-1", "1000"} {
		rec := do(t, srv, http.MethodGet, "/api/score/stream?target="+target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
