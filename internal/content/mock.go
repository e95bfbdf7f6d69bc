package content

import (
	"context"
	"sync"
)

// MockSource is a deterministic Source for testing. Problems are served in
// FIFO order; once the queue is empty NextProblem returns ErrNoMoreProblems.
type MockSource struct {
	mu       sync.Mutex
	info     SessionInfo
	initErr  error
	problems []*Problem
	errs     []error
	byID     map[string]*Problem
	gate     chan struct{}

	InitCalls  []SessionRequest
	NextCalls  []string
	ResetCalls []SessionRequest
}

var (
	_ Source   = (*MockSource)(nil)
	_ Resetter = (*MockSource)(nil)
)

// NewMockSource creates a MockSource that opens sessions with the given
// info and serves problems in order.
func NewMockSource(info SessionInfo, problems ...*Problem) *MockSource {
	m := &MockSource{info: info, byID: make(map[string]*Problem)}
	for _, p := range problems {
		m.AddProblem(p)
	}
	return m
}

// AddProblem appends a problem to the queue.
func (m *MockSource) AddProblem(p *Problem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.problems = append(m.problems, p)
	m.errs = append(m.errs, nil)
	m.byID[p.ID] = p
}

// AddError queues an error to be returned by the next NextProblem call in
// its position.
func (m *MockSource) AddError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.problems = append(m.problems, nil)
	m.errs = append(m.errs, err)
}

// SetInitError makes InitializeSession fail with err.
func (m *MockSource) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = err
}

// Block makes NextProblem wait until Unblock is called.
func (m *MockSource) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
}

// Unblock releases calls held by Block.
func (m *MockSource) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

func (m *MockSource) InitializeSession(_ context.Context, req SessionRequest) (SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitCalls = append(m.InitCalls, req)
	if m.initErr != nil {
		return SessionInfo{}, m.initErr
	}
	return m.info, nil
}

func (m *MockSource) NextProblem(ctx context.Context, sessionID string) (*Problem, error) {
	m.mu.Lock()
	m.NextCalls = append(m.NextCalls, sessionID)
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.problems) == 0 {
		return nil, ErrNoMoreProblems
	}
	p, err := m.problems[0], m.errs[0]
	m.problems, m.errs = m.problems[1:], m.errs[1:]
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (m *MockSource) ProblemByID(_ context.Context, id string) (*Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *MockSource) Reset(_ context.Context, req SessionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls = append(m.ResetCalls, req)
	return nil
}

// NextCallCount returns the number of NextProblem calls made.
func (m *MockSource) NextCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.NextCalls)
}

// InitCallCount returns the number of InitializeSession calls made.
func (m *MockSource) InitCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.InitCalls)
}
