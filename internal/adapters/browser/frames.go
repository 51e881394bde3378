package browser

import (
	"sync"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
)

// frameQueue decouples the CDP event dispatcher, which must never block, from
// the consumer. Frames are buffered without bound and delivered in arrival
// order by a single pump goroutine.
type frameQueue struct {
	out  chan domain.Frame
	wake chan struct{}
	stop chan struct{}

	mu      sync.Mutex
	pending []domain.Frame
	ended   bool
	err     error

	stopOnce sync.Once
	release  func()
}

var _ ports.FrameSubscription = (*frameQueue)(nil)

func newFrameQueue(release func()) *frameQueue {
	q := &frameQueue{
		out:     make(chan domain.Frame),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		release: release,
	}
	go q.pump()
	return q
}

func (q *frameQueue) Frames() <-chan domain.Frame {
	return q.out
}

func (q *frameQueue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Close detaches the listener and ends the stream without an error. It is
// safe to call more than once.
func (q *frameQueue) Close() error {
	q.finish(nil, true)
	return nil
}

func (q *frameQueue) push(frame domain.Frame) {
	q.mu.Lock()
	if q.ended {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, frame)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// end lets already queued frames drain before the stream closes with err.
func (q *frameQueue) end(err error) {
	q.finish(err, false)
}

func (q *frameQueue) finish(err error, discard bool) {
	q.mu.Lock()
	if !q.ended {
		q.ended = true
		q.err = err
	}
	if discard {
		q.pending = nil
	}
	q.mu.Unlock()

	if discard {
		q.stopOnce.Do(func() { close(q.stop) })
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *frameQueue) pump() {
	defer func() {
		if q.release != nil {
			q.release()
		}
		close(q.out)
	}()

	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		ended := q.ended
		q.mu.Unlock()

		for _, frame := range batch {
			select {
			case q.out <- frame:
			case <-q.stop:
				return
			}
		}

		if ended && len(batch) == 0 {
			return
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-q.wake:
		case <-q.stop:
			return
		}
	}
}
