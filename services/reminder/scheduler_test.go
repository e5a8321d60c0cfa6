package reminder

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	last  atomic.Value
}

func (c *countingSweeper) Sweep(_ context.Context, now time.Time) (SweepReport, error) {
	c.calls.Add(1)
	c.last.Store(now)
	return SweepReport{Scanned: 1}, nil
}

func TestSchedulerRunNow(t *testing.T) {
	sw := &countingSweeper{}
	s := NewScheduler(sw, time.Hour, nil)
	fixed := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	report, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, int32(1), sw.calls.Load())
	assert.Equal(t, fixed, sw.last.Load())
}

func TestSchedulerTicksUntilStopped(t *testing.T) {
	sw := &countingSweeper{}
	s := NewScheduler(sw, 10*time.Millisecond, nil)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := sw.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, sw.calls.Load())

	s.Stop()
}

func TestSchedulerStopsWithContext(t *testing.T) {
	sw := &countingSweeper{}
	s := NewScheduler(sw, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}
