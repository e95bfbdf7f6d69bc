package content

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

	"github.com/google/uuid"

	"github.com/abhisek/amcdrill/internal/logging"
)

// DefaultBaseURL is the content service address used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:5001"

// Client is the HTTP adapter for the content service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

var (
	_ Source   = (*Client)(nil)
	_ Resetter = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse content base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("content base URL %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// InitializeSession opens a session on the service. A missing session id in
// the response is replaced with a client-generated one.
func (c *Client) InitializeSession(ctx context.Context, req SessionRequest) (SessionInfo, error) {
	const op = "initialize session"
	data, status, msg, err := c.do(ctx, http.MethodPost, "/api/problems/session", nil, req)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	switch {
	case status == http.StatusNotFound:
		return SessionInfo{}, fmt.Errorf("%s: %w", op, ErrNoMoreProblems)
	case status >= 300:
		return SessionInfo{}, &StatusError{Op: op, StatusCode: status, Message: msg}
	}
	if err := validate(op, "session", data); err != nil {
		return SessionInfo{}, err
	}

	var ws wireSession
	if err := json.Unmarshal(data, &ws); err != nil {
		return SessionInfo{}, &InvalidPayloadError{Op: op, Content: data, Err: err}
	}
	if ws.SessionID == "" {
		ws.SessionID = uuid.NewString()
		logging.Debug("content service returned no session id, using %s", ws.SessionID)
	}
	return SessionInfo{
		SessionID:     ws.SessionID,
		TotalProblems: ws.TotalProblems,
		Shuffle:       ws.Shuffle,
	}, nil
}

// NextProblem fetches the next problem in session order. Any 404 from the
// service ends the set.
func (c *Client) NextProblem(ctx context.Context, sessionID string) (*Problem, error) {
	const op = "next problem"
	q := url.Values{"session_id": {sessionID}}
	data, status, msg, err := c.do(ctx, http.MethodGet, "/api/problems/next", q, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch {
	case status == http.StatusNotFound:
		logging.Debug("next problem: %s", msg)
		return nil, ErrNoMoreProblems
	case status >= 300:
		return nil, &StatusError{Op: op, StatusCode: status, Message: msg}
	}
	return decodeProblem(op, data)
}

// ProblemByID fetches a single problem.
func (c *Client) ProblemByID(ctx context.Context, id string) (*Problem, error) {
	const op = "get problem"
	data, status, msg, err := c.do(ctx, http.MethodGet, "/api/problems/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	case status >= 300:
		return nil, &StatusError{Op: op, StatusCode: status, Message: msg}
	}
	return decodeProblem(op, data)
}

// Reset asks the service to clear state for the session being restarted.
func (c *Client) Reset(ctx context.Context, req SessionRequest) error {
	const op = "reset session"
	_, status, msg, err := c.do(ctx, http.MethodPost, "/api/reset-session", nil, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if status >= 300 {
		return &StatusError{Op: op, StatusCode: status, Message: msg}
	}
	return nil
}

func decodeProblem(op string, data json.RawMessage) (*Problem, error) {
	if err := validate(op, "problem", data); err != nil {
		return nil, err
	}
	var wp wireProblem
	if err := json.Unmarshal(data, &wp); err != nil {
		return nil, &InvalidPayloadError{Op: op, Content: data, Err: err}
	}
	return wp.toProblem(), nil
}

// do performs a request and returns the unwrapped data, the status code and
// the service message. A 401 is returned as ErrUnauthorized.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, int, string, error) {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, "", fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, 0, "", err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, resp.StatusCode, "", ErrUnauthorized
	}
	data, msg := unwrapEnvelope(raw)
	return data, resp.StatusCode, msg, nil
}
