package content

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestInitializeSession(t *testing.T) {
	var got SessionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/problems/session", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		writeJSON(w, 200, map[string]any{
			"success": true,
			"data":    map[string]any{"session_id": "s-1", "total_problems": 25, "shuffle": true},
		})
	})

	info, err := c.InitializeSession(context.Background(), SessionRequest{Contest: "AMC 10A", Year: 2022, Shuffle: true})
	require.NoError(t, err)
	assert.Equal(t, SessionInfo{SessionID: "s-1", TotalProblems: 25, Shuffle: true}, info)
	assert.Equal(t, "AMC 10A", got.Contest)
	assert.Equal(t, 2022, got.Year)
	assert.True(t, got.Shuffle)
}

func TestInitializeSession_GeneratesMissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"total_problems": 3}})
	})
	info, err := c.InitializeSession(context.Background(), SessionRequest{Contest: "AMC 8"})
	require.NoError(t, err)
	assert.NotEmpty(t, info.SessionID)
	assert.Equal(t, 3, info.TotalProblems)
}

func TestInitializeSession_NoProblems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]any{"success": false, "message": "No problems found for the specified criteria"})
	})
	_, err := c.InitializeSession(context.Background(), SessionRequest{Contest: "AMC 12B", Year: 1999})
	assert.ErrorIs(t, err, ErrNoMoreProblems)
}

func TestInitializeSession_InvalidPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"total_problems": "many"}})
	})
	_, err := c.InitializeSession(context.Background(), SessionRequest{Contest: "AMC 8"})
	var inv *InvalidPayloadError
	assert.True(t, errors.As(err, &inv), "got %v", err)
}

func TestNextProblem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/problems/next", r.URL.Path)
		assert.Equal(t, "s-1", r.URL.Query().Get("session_id"))
		writeJSON(w, 200, map[string]any{
			"success": true,
			"data": map[string]any{
				"_id":            "64f0",
				"problem_number": "7",
				"problem_text":   "What is $2+2$?",
				"answer_choices": []string{"3", "4", "5", "6", "7"},
				"correct_answer": "B",
				"difficulty":     3,
				"topics":         []string{"arithmetic"},
				"contest_id":     "AMC10A_2022",
			},
		})
	})

	p, err := c.NextProblem(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "64f0", p.ID)
	assert.Equal(t, 7, p.Number)
	assert.Equal(t, "What is $2+2$?", p.Statement)
	assert.Len(t, p.Choices, 5)
	assert.Equal(t, "B", p.CorrectAnswer)
	assert.Equal(t, "3", p.Difficulty)
	assert.Equal(t, "AMC 10A", p.Contest)
	assert.Equal(t, 2022, p.Year)
}

func TestNextProblem_EndOfSet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]any{"success": false, "message": "End of problem set reached"})
	})
	_, err := c.NextProblem(context.Background(), "s-1")
	assert.ErrorIs(t, err, ErrNoMoreProblems)
}

func TestNextProblem_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, map[string]any{"success": false, "message": "boom"})
	})
	_, err := c.NextProblem(context.Background(), "s-1")
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, 500, se.StatusCode)
	assert.Equal(t, "boom", se.Message)
}

func TestNextProblem_SchemaViolation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"_id": "x", "answer_choices": []string{"only"}}})
	})
	_, err := c.NextProblem(context.Background(), "s-1")
	var inv *InvalidPayloadError
	assert.True(t, errors.As(err, &inv), "got %v", err)
}

func TestProblemByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/problems/abc" {
			writeJSON(w, 404, map[string]any{"success": false, "message": "Problem not found"})
			return
		}
		// Unwrapped responses are accepted too.
		writeJSON(w, 200, map[string]any{
			"id":                "abc",
			"problem_statement": "Find x.",
			"answer_choices":    []string{"1", "2"},
			"correct_answer":    "2",
			"contest":           "AMC 12B",
			"year":              2021,
		})
	})

	p, err := c.ProblemByID(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Find x.", p.Statement)
	assert.Equal(t, "AMC 12B", p.Contest)
	assert.Equal(t, 2021, p.Year)

	_, err = c.ProblemByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBearerTokenAndUnauthorized(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}, WithToken("tok"))

	_, err := c.NextProblem(context.Background(), "s-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Bearer tok", auth)
}

func TestReset(t *testing.T) {
	var hit bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hit = r.URL.Path == "/api/reset-session" && r.Method == http.MethodPost
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{}, "message": "Session reset successfully"})
	})
	require.NoError(t, c.Reset(context.Background(), SessionRequest{SessionID: "s-1"}))
	assert.True(t, hit)
}

func TestNewClient_RejectsBadScheme(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)
}
