package persist

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MirrorStats is the per-user local copy of historical statistics. Session
// entries are opaque to this package.
type MirrorStats struct {
	Sessions    []json.RawMessage `json:"sessions"`
	BestScore   *int              `json:"bestScore"`
	LastSession *time.Time        `json:"lastSession"`
}

// StatsMirror stores MirrorStats per user. Implementations are best effort.
type StatsMirror interface {
	Get(ctx context.Context, user string) (MirrorStats, error)
	Set(ctx context.Context, user string, stats MirrorStats) error
}

type sessionStub struct {
	SessionID   string    `json:"session_id"`
	Score       int       `json:"score"`
	Attempted   int       `json:"attempted"`
	TotalTimeMs int64     `json:"totalTime"`
	Contest     string    `json:"contest"`
	Year        int       `json:"year,omitempty"`
	Mode        string    `json:"mode"`
	CompletedAt time.Time `json:"completed_at"`
}

// WithSession returns stats updated for a newly saved session: a stub is
// appended, the best score raised if beaten and the last session time set.
func (s MirrorStats) WithSession(p Payload) MirrorStats {
	stub, _ := json.Marshal(sessionStub{
		SessionID:   p.SessionID,
		Score:       p.Score,
		Attempted:   p.Attempted,
		TotalTimeMs: p.TotalTimeMs,
		Contest:     p.Contest,
		Year:        p.Year,
		Mode:        p.Mode,
		CompletedAt: p.CompletedAt,
	})

	out := MirrorStats{
		Sessions:    append(append([]json.RawMessage(nil), s.Sessions...), stub),
		BestScore:   s.BestScore,
		LastSession: s.LastSession,
	}
	if out.BestScore == nil || p.Score > *out.BestScore {
		best := p.Score
		out.BestScore = &best
	}
	completed := p.CompletedAt
	out.LastSession = &completed
	return out
}

// MemoryMirror is an in-process StatsMirror.
type MemoryMirror struct {
	mu    sync.Mutex
	stats map[string]MirrorStats
}

var _ StatsMirror = (*MemoryMirror)(nil)

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{stats: make(map[string]MirrorStats)}
}

func (m *MemoryMirror) Get(_ context.Context, user string) (MirrorStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[user], nil
}

func (m *MemoryMirror) Set(_ context.Context, user string, stats MirrorStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[user] = stats
	return nil
}
