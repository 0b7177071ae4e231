// Package scheduler provides cancellable repeating tasks bound to a
// liveness flag. Cancellation is cooperative: a callback already running
// finishes, and no further callback starts once Cancel has returned.
package scheduler

import (
	"sync"
	"time"
)

// Task is a handle to scheduled work.
type Task interface {
	// Cancel stops the task. Calling it more than once is a no-op.
	Cancel()
	// Alive reports whether the task has not been cancelled yet.
	Alive() bool
	// Done is closed on cancellation.
	Done() <-chan struct{}
}

// Scheduler runs fn every d until the returned Task is cancelled.
type Scheduler interface {
	Every(d time.Duration, fn func()) Task
	Now() time.Time
}

type task struct {
	once sync.Once
	done chan struct{}
}

// NewTask returns a live task with no work attached. Loops that schedule
// themselves use it as their liveness flag.
func NewTask() Task {
	return &task{done: make(chan struct{})}
}

func (t *task) Cancel() {
	t.once.Do(func() { close(t.done) })
}

func (t *task) Alive() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *task) Done() <-chan struct{} {
	return t.done
}

// Real schedules on the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Every(d time.Duration, fn func()) Task {
	t := &task{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				if !t.Alive() {
					return
				}
				fn()
			}
		}
	}()
	return t
}
