package persist

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

// HTTPSaver posts finished sessions to the persistence service.
type HTTPSaver struct {
	endpoint string
	http     *http.Client
	token    string
}

var _ Saver = (*HTTPSaver)(nil)

// NewHTTPSaver creates a saver for the service at baseURL. token, if set,
// is sent as a bearer token.
func NewHTTPSaver(baseURL, token string, timeout time.Duration) (*HTTPSaver, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse persistence base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSaver{
		endpoint: u.JoinPath("/api/sessions/update").String(),
		http:     &http.Client{Timeout: timeout},
		token:    token,
	}, nil
}

type saveRequest struct {
	Username    string  `json:"username"`
	SessionData Payload `json:"sessionData"`
}

// SaveSession sends p. A 429 response is returned as *RateLimitError; any
// other non-2xx status or transport failure is returned as is.
func (s *HTTPSaver) SaveSession(ctx context.Context, user string, p Payload) error {
	body, err := json.Marshal(saveRequest{Username: user, SessionData: p})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("post session: %w", err)
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	default:
		return fmt.Errorf("post session: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
