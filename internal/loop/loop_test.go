package loop_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/servoctl/internal/logger"
	"codeberg.org/mutker/servoctl/internal/loop"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func startLoop(t *testing.T) (*loop.Loop, *clock.Mock) {
	t.Helper()

	clk := clock.NewMock()
	l := loop.New(clk, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return l, clk
}

func TestPostRunsInOrder(t *testing.T) {
	l, _ := startLoop(t)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 10; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 10
	}, waitFor, tick)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestAfterFunc(t *testing.T) {
	l, clk := startLoop(t)

	var fired atomic.Int32
	task := l.AfterFunc(time.Second, func() { fired.Add(1) })
	assert.True(t, task.Active())

	clk.Add(500 * time.Millisecond)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, tick)

	clk.Add(500 * time.Millisecond)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
	assert.False(t, task.Active())
	assert.False(t, task.Stop(), "a fired task cannot be stopped")
}

func TestAfterFuncStopped(t *testing.T) {
	l, clk := startLoop(t)

	var fired atomic.Int32
	task := l.AfterFunc(time.Second, func() { fired.Add(1) })
	assert.True(t, task.Stop())
	assert.False(t, task.Stop())

	clk.Add(2 * time.Second)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, tick)
}

func TestEvery(t *testing.T) {
	l, clk := startLoop(t)

	var ticks atomic.Int32
	task := l.Every(time.Second, func() { ticks.Add(1) })

	for i := int32(1); i <= 3; i++ {
		clk.Add(time.Second)
		want := i
		require.Eventually(t, func() bool { return ticks.Load() == want }, waitFor, tick)
	}

	require.True(t, task.Stop())
	clk.Add(time.Second)
	assert.Never(t, func() bool { return ticks.Load() > 3 }, 50*time.Millisecond, tick)
}

func TestPostAfterStopDoesNotBlock(t *testing.T) {
	l := loop.New(clock.NewMock(), logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, l.Run(ctx))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			l.Post(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Post blocked on a stopped loop")
	}
}

func TestPanicInCallbackIsRecovered(t *testing.T) {
	l, _ := startLoop(t)

	var after atomic.Bool
	l.Post(func() { panic("boom") })
	l.Post(func() { after.Store(true) })

	require.Eventually(t, after.Load, waitFor, tick)
}

func TestNilClockUsesWallClock(t *testing.T) {
	l := loop.New(nil, logger.Nop())
	assert.WithinDuration(t, time.Now(), l.Now(), time.Second)
}
