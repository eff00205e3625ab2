// Package limiter runs units of work with a hard cap on how many execute at
// the same time. Units that cannot start immediately wait in a FIFO queue.
package limiter

import (
	"fmt"
	"sync"
)

// Unit is a zero-argument piece of work.
type Unit[T any] func() (T, error)

// Settled is the outcome of one unit passed to RunAll.
type Settled[T any] struct {
	Value T
	Err   error
}

// Fulfilled reports whether the unit completed without an error.
func (s Settled[T]) Fulfilled() bool {
	return s.Err == nil
}

// PanicError is returned for a unit that panicked.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("unit panicked: %v", e.Value)
}

// Handle resolves with the unit's own value and error once it has finished.
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed when the unit has finished.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the unit has finished.
func (h *Handle[T]) Wait() (T, error) {
	<-h.done
	return h.value, h.err
}

type Limiter struct {
	limit int

	mu      sync.Mutex
	running int
	queue   []func()
}

func New(limit int) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	return &Limiter{limit: limit}
}

func (l *Limiter) Limit() int {
	return l.limit
}

// Running returns the number of units currently executing.
func (l *Limiter) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Queued returns the number of units waiting for a free slot.
func (l *Limiter) Queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Run starts u now if a slot is free, otherwise queues it behind earlier units.
func Run[T any](l *Limiter, u Unit[T]) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}

	task := func() {
		defer close(h.done)
		defer l.release()
		h.value, h.err = call(u)
	}

	l.mu.Lock()
	if l.running < l.limit {
		l.running++
		l.mu.Unlock()
		go task()
		return h
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	return h
}

// RunAll submits every unit in order and waits for all of them. The result at
// index i belongs to units[i]; a failing unit never stops the others.
func RunAll[T any](l *Limiter, units []Unit[T]) []Settled[T] {
	handles := make([]*Handle[T], len(units))
	for i, u := range units {
		handles[i] = Run(l, u)
	}

	results := make([]Settled[T], len(units))
	for i, h := range handles {
		v, err := h.Wait()
		results[i] = Settled[T]{Value: v, Err: err}
	}

	return results
}

func (l *Limiter) release() {
	l.mu.Lock()
	l.running--
	if len(l.queue) == 0 || l.running >= l.limit {
		l.mu.Unlock()
		return
	}

	next := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	l.running++
	l.mu.Unlock()

	go next()
}

func call[T any](u Unit[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return u()
}
