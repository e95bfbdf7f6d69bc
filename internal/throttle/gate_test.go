package throttle

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

func TestGate_FirstCallAccepted(t *testing.T) {
	g := New(clock.NewFake(epoch), DefaultMinInterval)
	require.True(t, g.TryAcquire())
	assert.True(t, g.InFlight())
	g.Release()
	assert.False(t, g.InFlight())
}

func TestGate_RejectsWhileInFlight(t *testing.T) {
	fc := clock.NewFake(epoch)
	g := New(fc, DefaultMinInterval)

	require.True(t, g.TryAcquire())
	fc.Advance(2 * time.Second)
	assert.False(t, g.TryAcquire(), "second call must be rejected while first is in flight")

	g.Release()
	assert.True(t, g.TryAcquire())
}

func TestGate_ThrottleEnforcement(t *testing.T) {
	fc := clock.NewFake(epoch)
	g := New(fc, DefaultMinInterval)
	var dispatched int

	call := func() {
		_ = g.Do(context.Background(), func(context.Context) error {
			dispatched++
			return nil
		})
	}

	call() // t=0
	fc.Advance(100 * time.Millisecond)
	call() // t=100ms, too soon
	assert.Equal(t, 1, dispatched)

	fc.Advance(500 * time.Millisecond)
	call() // t=600ms
	assert.Equal(t, 2, dispatched)
}

func TestGate_IntervalMeasuredFromDispatch(t *testing.T) {
	fc := clock.NewFake(epoch)
	g := New(fc, DefaultMinInterval)

	require.True(t, g.TryAcquire())
	fc.Advance(450 * time.Millisecond)
	g.Release()

	fc.Advance(40 * time.Millisecond)
	assert.False(t, g.TryAcquire(), "490ms after dispatch is still too soon")
	fc.Advance(10 * time.Millisecond)
	assert.True(t, g.TryAcquire())
}

func TestGate_DoReleasesOnError(t *testing.T) {
	fc := clock.NewFake(epoch)
	g := New(fc, DefaultMinInterval)
	boom := errors.New("boom")

	err := g.Do(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, g.InFlight())

	err = g.Do(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrRejected, "interval guard still applies after a failed call")
}

func TestGate_ConcurrentCallsSingleFlight(t *testing.T) {
	fc := clock.NewFake(epoch)
	g := New(fc, DefaultMinInterval)

	var accepted atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Do(context.Background(), func(context.Context) error {
				accepted.Add(1)
				<-release
				return nil
			})
		}()
	}
	// Let the goroutines race for the gate before unblocking the winner.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}

func TestNew_DefaultInterval(t *testing.T) {
	fc := clock.NewFake(epoch)
	g := New(fc, 0)
	require.True(t, g.TryAcquire())
	g.Release()
	fc.Advance(499 * time.Millisecond)
	assert.False(t, g.TryAcquire())
}
