package loop

import "sync"

// Task is a handle on a scheduled callback
type Task struct {
	mu     sync.Mutex
	done   bool
	cancel func()
}

func newTask() *Task {
	return &Task{}
}

func (t *Task) setCancel(cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// Stop cancels the task. A callback already queued on the loop is dropped.
// It returns false if the task had already fired or been stopped.
func (t *Task) Stop() bool {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return false
	}
	t.done = true
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

// Active reports whether the task can still run
func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.done
}

// fire marks a one-shot task as done, reporting whether it should run
func (t *Task) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}
