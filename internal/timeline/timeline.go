// Package timeline holds the delayed transitions of a session (showing the
// opponent's reply, taking back a wrong move) as explicit steps that the
// caller runs with Tick, so sessions never start timers of their own.
package timeline

import (
	"errors"
	"time"
)

// ErrEmpty is returned by Tick when nothing is scheduled.
var ErrEmpty = errors.New("no pending step")

// Step is a scheduled transition. Delay is how long a real-time front end
// should wait before running it.
type Step struct {
	Name  string
	Delay time.Duration
	run   func() error
}

// Queue runs steps in the order they were scheduled. The zero value is an
// empty queue. It is not safe for concurrent use.
type Queue struct {
	steps []Step
}

// Schedule appends a step.
func (q *Queue) Schedule(name string, delay time.Duration, run func() error) {
	q.steps = append(q.steps, Step{Name: name, Delay: delay, run: run})
}

// Pending returns the next step without running it.
func (q *Queue) Pending() (Step, bool) {
	if len(q.steps) == 0 {
		return Step{}, false
	}
	return q.steps[0], true
}

// Busy reports whether any step is waiting.
func (q *Queue) Busy() bool { return len(q.steps) > 0 }

func (q *Queue) Len() int { return len(q.steps) }

// Tick removes the next step and runs it. A step may schedule further steps.
func (q *Queue) Tick() (Step, error) {
	if len(q.steps) == 0 {
		return Step{}, ErrEmpty
	}
	s := q.steps[0]
	q.steps = q.steps[1:]
	if s.run == nil {
		return s, nil
	}
	return s, s.run()
}

// Drain runs steps until the queue is empty or one fails. wait, if not nil,
// is called with each step before it runs.
func (q *Queue) Drain(wait func(Step)) error {
	for len(q.steps) > 0 {
		if wait != nil {
			wait(q.steps[0])
		}
		if _, err := q.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Clear drops every step without running it.
func (q *Queue) Clear() { q.steps = nil }
