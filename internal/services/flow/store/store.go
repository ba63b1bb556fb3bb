// Package store owns application state and feeds dispatched events to
// reducers and background listeners.
//
// Dispatch is the only writer: every event is reduced exactly once, in
// dispatch order, under one lock. Listeners consume matching events from
// their own unbounded queue on a dedicated goroutine and fork workers for
// slow work.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/task"
)

// ErrSubscriptionClosed is returned by Next after Close.
var ErrSubscriptionClosed = errors.New("subscription closed")

// Reducer folds one event into state.
type Reducer[S any] func(state S, evt event.Event) S

// Observer sees every event with the state it produced. Observers run
// under the store lock and must not dispatch.
type Observer[S any] func(evt event.Event, state S)

// Store is the dispatcher and task runtime for one application state.
type Store[S any] struct {
	mu        sync.Mutex
	state     S
	reduce    Reducer[S]
	subs      []*Subscription
	observers []Observer[S]
	logf      func(string, ...any)

	pending int
	idle    chan struct{}

	running sync.WaitGroup
}

// Option configures a Store.
type Option[S any] func(*Store[S])

// WithLogf sets the logger used for listener and worker faults.
func WithLogf[S any](logf func(string, ...any)) Option[S] {
	return func(s *Store[S]) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// WithObserver registers an observer.
func WithObserver[S any](observer Observer[S]) Option[S] {
	return func(s *Store[S]) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// New creates a store holding initial.
func New[S any](initial S, reduce Reducer[S], opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		state:  initial,
		reduce: reduce,
		logf:   func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces evt and queues it for every matching subscription.
func (s *Store[S]) Dispatch(evt event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reduce != nil {
		s.state = s.reduce(s.state, evt)
	}
	for _, sub := range s.subs {
		if sub.match != nil && !sub.match(evt) {
			continue
		}
		if sub.push(evt) && sub.tracked {
			s.beginLocked(1)
		}
	}
	for _, observer := range s.observers {
		observer(evt, s.state)
	}
}

// Start subscribes every listener and runs each on its own goroutine until
// ctx is done. Subscriptions are in place when Start returns, so events
// dispatched afterwards are never missed.
func (s *Store[S]) Start(ctx context.Context, listeners ...task.Listener) {
	for _, l := range listeners {
		sub := s.subscribe(l.Match, true)
		s.running.Go(func() { s.run(ctx, l, sub) })
	}
}

// Stopped blocks until every listener goroutine started by Start has
// returned, or ctx is done. Listeners return once their Start context is
// cancelled and the in-flight handler finishes. Forked workers are not
// waited on.
func (s *Store[S]) Stopped(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store[S]) run(ctx context.Context, l task.Listener, sub *Subscription) {
	defer sub.Close()
	for {
		evt, err := sub.Next(ctx)
		if err != nil {
			return
		}
		s.handle(ctx, l, evt)
		s.finish(1)
	}
}

func (s *Store[S]) handle(ctx context.Context, l task.Listener, evt event.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logf("store: listener %s panic on %s: %v", l.Name, evt.Type, r)
		}
	}()
	if l.Handle != nil {
		l.Handle(ctx, evt, s)
	}
}

// Fork runs fn on a new goroutine. The worker outlives cancellation of ctx
// and is counted until it returns.
func (s *Store[S]) Fork(ctx context.Context, name string, fn func(ctx context.Context)) {
	s.mu.Lock()
	s.beginLocked(1)
	s.mu.Unlock()

	workerCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.finish(1)
		defer func() {
			if r := recover(); r != nil {
				s.logf("store: worker %s panic: %v", name, r)
			}
		}()
		fn(workerCtx)
	}()
}

// Wait blocks until no queued listener event or forked worker remains, or
// ctx is done.
func (s *Store[S]) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.pending == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a subscription receiving every event matched by match,
// or every event when match is nil. Subscribe does not hold Wait open.
func (s *Store[S]) Subscribe(match event.Matcher) *Subscription {
	return s.subscribe(match, false)
}

func (s *Store[S]) subscribe(match event.Matcher, tracked bool) *Subscription {
	sub := &Subscription{
		match:   match,
		tracked: tracked,
		notify:  make(chan struct{}, 1),
	}
	sub.unsubscribe = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, candidate := range s.subs {
			if candidate == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
		if dropped := sub.drain(); tracked && dropped > 0 {
			s.finishLocked(dropped)
		}
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return sub
}

func (s *Store[S]) beginLocked(n int) {
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending += n
}

func (s *Store[S]) finish(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(n)
}

func (s *Store[S]) finishLocked(n int) {
	s.pending -= n
	if s.pending <= 0 {
		s.pending = 0
		if s.idle != nil {
			close(s.idle)
			s.idle = nil
		}
	}
}

var _ task.Runtime = (*Store[struct{}])(nil)
