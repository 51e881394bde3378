package eventbus

import (
	"context"
	"sync"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/sirupsen/logrus"
)

// Bus fans messages out of the automation loop to any number of observers.
// Every subscriber sees the same total order. Publish never waits for a
// subscriber: each one owns an unbounded queue drained by its own goroutine.
type Bus struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
	sinks  sync.WaitGroup
}

var _ ports.EventPublisher = (*Bus)(nil)

func New() *Bus {
	return &Bus{}
}

func (b *Bus) Publish(msg domain.Message) {
	if msg == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, sub := range b.subs {
		sub.push(msg)
	}
}

// Subscribe returns a subscription receiving every message published after
// this call.
func (b *Bus) Subscribe() *Subscription {
	sub := newSubscription()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.end()
		return sub
	}
	sub.detach = func() { b.remove(sub) }
	b.subs = append(b.subs, sub)
	return sub
}

// Sink consumes bus messages.
type Sink interface {
	Handle(ctx context.Context, msg domain.Message) error
}

type SinkFunc func(ctx context.Context, msg domain.Message) error

func (f SinkFunc) Handle(ctx context.Context, msg domain.Message) error {
	return f(ctx, msg)
}

// Attach drains a fresh subscription into sink until the bus closes. Sink
// errors are logged and never stop delivery.
func (b *Bus) Attach(ctx context.Context, name string, sink Sink, log logrus.FieldLogger) {
	sub := b.Subscribe()
	b.sinks.Add(1)
	go func() {
		defer b.sinks.Done()
		for msg := range sub.C() {
			if err := sink.Handle(ctx, msg); err != nil {
				log.WithError(err).WithField("sink", name).Warn("event sink failed")
			}
		}
	}()
}

// Close stops accepting messages, lets every subscriber drain what was
// already published and waits for attached sinks to finish.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.sinks.Wait()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		sub.end()
	}
	b.sinks.Wait()
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

type Subscription struct {
	out  chan domain.Message
	wake chan struct{}
	stop chan struct{}

	mu      sync.Mutex
	pending []domain.Message
	ended   bool

	stopOnce sync.Once
	detach   func()
}

func newSubscription() *Subscription {
	s := &Subscription{
		out:  make(chan domain.Message),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *Subscription) C() <-chan domain.Message {
	return s.out
}

// Close unsubscribes and drops anything not yet received.
func (s *Subscription) Close() {
	if s.detach != nil {
		s.detach()
	}
	s.mu.Lock()
	s.ended = true
	s.pending = nil
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Subscription) push(msg domain.Message) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, msg)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) end() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		ended := s.ended
		s.mu.Unlock()

		for _, msg := range batch {
			select {
			case s.out <- msg:
			case <-s.stop:
				return
			}
		}

		if len(batch) > 0 {
			continue
		}
		if ended {
			return
		}

		select {
		case <-s.wake:
		case <-s.stop:
			return
		}
	}
}
