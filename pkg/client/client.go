// Package client is a Go SDK for the cyber-assessment HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a Go SDK for the cyber-assessment API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new cyber-assessment client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d: %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendAssessment submits a completed assessment for delivery by email
func (c *Client) SendAssessment(ctx context.Context, req AssessmentRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	status, resp, err := c.doRequest(ctx, http.MethodPost, "/api/send-assessment", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var msg messageResponse
	if err := json.Unmarshal(resp, &msg); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if status != http.StatusOK {
		return "", &APIError{StatusCode: status, Message: msg.Message}
	}

	return msg.Message, nil
}

// Questions lists the question bank
func (c *Client) Questions(ctx context.Context) ([]Question, error) {
	data, err := call[struct {
		Questions []Question `json:"questions"`
	}](ctx, c, http.MethodGet, "/api/questions", nil)
	if err != nil {
		return nil, err
	}
	return data.Questions, nil
}

// StartSession opens a new assessment session
func (c *Client) StartSession(ctx context.Context, info PersonalInfo) (*Session, error) {
	return call[*Session](ctx, c, http.MethodPost, "/api/sessions", info)
}

// GetSession retrieves a session by ID
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	return call[*Session](ctx, c, http.MethodGet, sessionPath(id, ""), nil)
}

// SetRespondent replaces the respondent details of a session
func (c *Client) SetRespondent(ctx context.Context, id string, info PersonalInfo) (*Session, error) {
	return call[*Session](ctx, c, http.MethodPut, sessionPath(id, "/respondent"), info)
}

// SelectAnswer selects the option with weight for a question
func (c *Client) SelectAnswer(ctx context.Context, id, questionID string, weight int) (*Session, error) {
	path := sessionPath(id, "/answers/"+url.PathEscape(questionID))
	return call[*Session](ctx, c, http.MethodPut, path, selectAnswerRequest{Weight: weight})
}

// Next advances a session
func (c *Client) Next(ctx context.Context, id string) (*Session, error) {
	return call[*Session](ctx, c, http.MethodPost, sessionPath(id, "/next"), nil)
}

// Back moves a session to the previous question
func (c *Client) Back(ctx context.Context, id string) (*Session, error) {
	return call[*Session](ctx, c, http.MethodPost, sessionPath(id, "/back"), nil)
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return &APIError{StatusCode: status, Message: string(body)}
	}
	return nil
}

func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

// call performs a request against an endpoint using the success/data/error envelope
func call[T any](ctx context.Context, c *Client, method, path string, payload interface{}) (T, error) {
	var zero T

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	status, resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return zero, err
	}

	var result envelope[T]
	if err := json.Unmarshal(resp, &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal response (HTTP %d): %w", status, err)
	}

	if !result.Success {
		apiErr := &APIError{StatusCode: status}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return zero, apiErr
	}

	return result.Data, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
