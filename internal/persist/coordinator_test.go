package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/amcdrill/internal/clock"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func request(id string, score int) Request {
	return Request{
		SessionID: id,
		User:      "amy",
		Payload: Payload{
			SessionID:   id,
			Score:       score,
			Attempted:   score,
			Contest:     "AMC 10A",
			Year:        2022,
			Mode:        "practice",
			CompletedAt: epoch,
		},
	}
}

func autoClock() *clock.Fake {
	fc := clock.NewFake(epoch)
	fc.SetAutoAdvance(true)
	return fc
}

func collect(c *Coordinator) func() []Result {
	var mu sync.Mutex
	var got []Result
	c.OnResult(func(r Result) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
	})
	return func() []Result {
		mu.Lock()
		defer mu.Unlock()
		return append([]Result(nil), got...)
	}
}

func TestCoordinator_RetriesRateLimitWithLinearBackoff(t *testing.T) {
	fc := autoClock()
	saver := NewMockSaver(&RateLimitError{}, &RateLimitError{}, nil)
	mirror := NewMemoryMirror()
	c := NewCoordinator(saver, mirror, fc, DefaultConfig())
	results := collect(c)

	status := c.Submit(context.Background(), request("s1", 2))
	require.Equal(t, StatusScheduled, status)
	c.Wait()

	assert.Equal(t, 3, saver.CallCount())
	assert.Equal(t, []time.Duration{time.Second, time.Second, 2 * time.Second}, fc.Slept(),
		"debounce, then 1s and 2s backoff")
	assert.True(t, c.Saved("s1"))

	res := results()
	require.Len(t, res, 1)
	assert.NoError(t, res[0].Err)
	assert.Equal(t, 3, res[0].Attempts)

	stats, err := mirror.Get(context.Background(), "amy")
	require.NoError(t, err)
	assert.Len(t, stats.Sessions, 1)
	require.NotNil(t, stats.BestScore)
	assert.Equal(t, 2, *stats.BestScore)
	require.NotNil(t, stats.LastSession)
	assert.True(t, stats.LastSession.Equal(epoch))
}

func TestCoordinator_GivesUpAfterMaxAttempts(t *testing.T) {
	fc := autoClock()
	saver := NewMockSaver(&RateLimitError{}, &RateLimitError{}, &RateLimitError{}, nil)
	c := NewCoordinator(saver, nil, fc, DefaultConfig())
	results := collect(c)

	c.Submit(context.Background(), request("s1", 1))
	c.Wait()

	assert.Equal(t, 3, saver.CallCount())
	assert.False(t, c.Saved("s1"))
	res := results()
	require.Len(t, res, 1)
	var pe *PersistenceError
	require.True(t, errors.As(res[0].Err, &pe))
	assert.Equal(t, 3, pe.Attempts)
	var rl *RateLimitError
	assert.True(t, errors.As(res[0].Err, &rl))
}

func TestCoordinator_TerminalErrorNotRetried(t *testing.T) {
	fc := autoClock()
	saver := NewMockSaver(errors.New("HTTP 500"))
	mirror := NewMemoryMirror()
	c := NewCoordinator(saver, mirror, fc, DefaultConfig())
	results := collect(c)

	c.Submit(context.Background(), request("s1", 1))
	c.Wait()

	assert.Equal(t, 1, saver.CallCount())
	assert.Equal(t, []time.Duration{time.Second}, fc.Slept())
	assert.False(t, c.Saved("s1"))
	var pe *PersistenceError
	assert.True(t, errors.As(results()[0].Err, &pe))

	stats, _ := mirror.Get(context.Background(), "amy")
	assert.Empty(t, stats.Sessions, "mirror untouched on failure")

	// An unsaved session may be submitted again.
	assert.Equal(t, StatusScheduled, c.Submit(context.Background(), request("s1", 1)))
	c.Wait()
	assert.True(t, c.Saved("s1"))
}

func TestCoordinator_IdempotentAfterSave(t *testing.T) {
	fc := autoClock()
	saver := NewMockSaver()
	c := NewCoordinator(saver, nil, fc, DefaultConfig())

	c.Submit(context.Background(), request("s1", 1))
	c.Wait()
	require.True(t, c.Saved("s1"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, StatusAlreadySaved, c.Submit(context.Background(), request("s1", 9)))
	}
	c.Wait()
	assert.Equal(t, 1, saver.CallCount())
}

func TestCoordinator_DebounceCoalescesToNewest(t *testing.T) {
	fc := clock.NewFake(epoch)
	saver := NewMockSaver()
	c := NewCoordinator(saver, nil, fc, DefaultConfig())

	require.Equal(t, StatusScheduled, c.Submit(context.Background(), request("s1", 1)))
	fc.BlockUntil(1)
	assert.Equal(t, StatusQueued, c.Submit(context.Background(), request("s1", 2)))
	assert.Equal(t, StatusQueued, c.Submit(context.Background(), request("s1", 3)))
	assert.True(t, c.Busy())

	fc.Advance(time.Second)
	c.Wait()

	require.Equal(t, 1, saver.CallCount())
	p, _ := saver.LastPayload()
	assert.Equal(t, 3, p.Score)
	assert.False(t, c.Busy())
}

func TestCoordinator_DebounceKeepsEachSession(t *testing.T) {
	fc := clock.NewFake(epoch)
	var mu sync.Mutex
	var order []string
	scores := map[string]int{}
	saver := SaverFunc(func(_ context.Context, _ string, p Payload) error {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, p.SessionID)
		scores[p.SessionID] = p.Score
		return nil
	})
	c := NewCoordinator(saver, nil, fc, DefaultConfig())
	results := collect(c)

	require.Equal(t, StatusScheduled, c.Submit(context.Background(), request("a", 1)))
	fc.BlockUntil(1)
	assert.Equal(t, StatusQueued, c.Submit(context.Background(), request("b", 5)))
	assert.Equal(t, StatusQueued, c.Submit(context.Background(), request("a", 2)))

	fc.Advance(time.Second)
	c.Wait()

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, map[string]int{"a": 2, "b": 5}, scores)
	assert.True(t, c.Saved("a"))
	assert.True(t, c.Saved("b"))

	got := results()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SessionID)
	assert.Equal(t, "b", got[1].SessionID)
}

func TestCoordinator_PendingRunsAfterInFlightNeverConcurrently(t *testing.T) {
	fc := clock.NewFake(epoch)
	started := make(chan struct{})
	release := make(chan struct{})
	var inFlight, maxInFlight atomic.Int32
	var once sync.Once
	var mu sync.Mutex
	var order []string

	saver := SaverFunc(func(_ context.Context, _ string, p Payload) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		mu.Lock()
		order = append(order, p.SessionID)
		mu.Unlock()
		once.Do(func() {
			close(started)
			<-release
		})
		return nil
	})
	c := NewCoordinator(saver, nil, fc, DefaultConfig())

	c.Submit(context.Background(), request("s1", 1))
	fc.BlockUntil(1)
	fc.Advance(time.Second)
	<-started

	assert.Equal(t, StatusQueued, c.Submit(context.Background(), request("s2", 1)))
	close(release)
	c.Wait()

	assert.Equal(t, []string{"s1", "s2"}, order)
	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.True(t, c.Saved("s1"))
	assert.True(t, c.Saved("s2"))
}

func TestCoordinator_SurvivesCallerCancellation(t *testing.T) {
	fc := autoClock()
	saver := NewMockSaver()
	c := NewCoordinator(saver, nil, fc, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Submit(ctx, request("s1", 1))
	c.Wait()

	assert.Equal(t, 1, saver.CallCount())
	assert.True(t, c.Saved("s1"))
}

func TestCoordinator_WaitContext(t *testing.T) {
	fc := clock.NewFake(epoch)
	c := NewCoordinator(NewMockSaver(), nil, fc, DefaultConfig())
	require.NoError(t, c.WaitContext(context.Background()), "idle coordinator returns at once")

	c.Submit(context.Background(), request("s1", 1))
	fc.BlockUntil(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.WaitContext(ctx), context.DeadlineExceeded)

	fc.Advance(time.Second)
	c.Wait()
}

func TestMirrorStats_WithSession(t *testing.T) {
	var s MirrorStats
	p := request("s1", 5).Payload
	s = s.WithSession(p)
	require.NotNil(t, s.BestScore)
	assert.Equal(t, 5, *s.BestScore)

	lower := request("s2", 3).Payload
	lower.CompletedAt = epoch.Add(time.Hour)
	s2 := s.WithSession(lower)
	assert.Equal(t, 5, *s2.BestScore, "best score not lowered")
	assert.True(t, s2.LastSession.Equal(epoch.Add(time.Hour)))
	assert.Len(t, s2.Sessions, 2)
	assert.Len(t, s.Sessions, 1, "receiver unchanged")
	assert.JSONEq(t,
		`{"session_id":"s2","score":3,"attempted":3,"totalTime":0,"contest":"AMC 10A","year":2022,"mode":"practice","completed_at":"2024-03-01T10:00:00Z"}`,
		string(s2.Sessions[1]))
}

func TestTee(t *testing.T) {
	primary := NewMockSaver()
	secondary := NewMockSaver(errors.New("disk full"))
	s := Tee(primary, secondary)

	require.NoError(t, s.SaveSession(context.Background(), "amy", request("s1", 1).Payload))
	assert.Equal(t, 1, primary.CallCount())
	assert.Equal(t, 1, secondary.CallCount())

	failing := NewMockSaver(&RateLimitError{})
	s = Tee(failing, secondary)
	err := s.SaveSession(context.Background(), "amy", request("s2", 1).Payload)
	var rl *RateLimitError
	assert.True(t, errors.As(err, &rl))
	assert.Equal(t, 1, secondary.CallCount(), "secondary skipped when primary fails")
}
