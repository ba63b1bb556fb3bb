package store

import (
	"context"
	"sync"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
)

// Subscription is an unbounded FIFO of dispatched events.
type Subscription struct {
	match   event.Matcher
	tracked bool
	notify  chan struct{}

	mu     sync.Mutex
	queue  []event.Event
	closed bool

	closeOnce   sync.Once
	unsubscribe func()
}

// Next returns the oldest queued event, waiting for one when the queue is
// empty.
func (s *Subscription) Next(ctx context.Context) (event.Event, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			evt := s.queue[0]
			s.queue[0] = event.Event{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return evt, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return event.Event{}, ErrSubscriptionClosed
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return event.Event{}, ctx.Err()
		}
	}
}

// Close stops delivery and discards queued events.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.wake()
	})
}

// push queues evt and reports whether it was accepted.
func (s *Subscription) push(evt event.Event) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, evt)
	s.mu.Unlock()
	s.wake()
	return true
}

// drain closes the queue and returns how many events it dropped.
func (s *Subscription) drain() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	dropped := len(s.queue)
	s.queue = nil
	return dropped
}

func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
