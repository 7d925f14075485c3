// Package loop runs deferred callbacks serially on a single goroutine.
//
// Timers are driven by a clock.Clock so tests can advance time with a
// mock clock. Whatever goroutine a timer fires on, its callback is queued
// and executed by Run, so callbacks never run concurrently with each other.
package loop

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/servoctl/internal/logger"
	"github.com/benbjohnson/clock"
)

// Loop is the shared cooperative event loop
type Loop struct {
	clock   clock.Clock
	mu      sync.Mutex
	pending []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
	logger  logger.Logger
}

// New creates a loop on clk. A nil clk uses the wall clock and a nil log
// discards output.
func New(clk clock.Clock, log logger.Logger) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Loop{
		clock:  clk,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: log.With("component", "loop"),
	}
}

// Clock returns the clock driving the loop
func (l *Loop) Clock() clock.Clock {
	return l.clock
}

// Now returns the loop clock's current time
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Run executes queued callbacks until ctx is done
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()

	l.logger.Debug().Msg("Event loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug().Msg("Event loop stopped")
			return nil
		case <-l.wake:
			for _, fn := range l.take() {
				l.call(fn)
			}
		}
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.pending
	l.pending = nil
	return batch
}

func (l *Loop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.pending = nil
	l.mu.Unlock()
	l.once.Do(func() { close(l.done) })
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Recovered panic in loop callback")
		}
	}()
	fn()
}

// Post queues fn to run on the loop. It never blocks, so callbacks may post
// further work. fn is dropped once the loop has stopped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc runs fn on the loop once d has elapsed
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Task {
	t := newTask()
	timer := l.clock.AfterFunc(d, func() {
		l.Post(func() {
			if t.fire() {
				fn()
			}
		})
	})
	t.setCancel(func() { timer.Stop() })

	return t
}

// Every runs fn on the loop every d until the task is stopped
func (l *Loop) Every(d time.Duration, fn func()) *Task {
	t := newTask()
	ticker := l.clock.Ticker(d)
	quit := make(chan struct{})
	t.setCancel(func() { close(quit) })

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-l.done:
				return
			case <-ticker.C:
				l.Post(func() {
					if t.Active() {
						fn()
					}
				})
			}
		}
	}()

	return t
}
