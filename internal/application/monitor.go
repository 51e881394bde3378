package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/sirupsen/logrus"
)

type UpdateKind string

const (
	UpdateJackpot       UpdateKind = "jackpot"
	UpdateWin           UpdateKind = "win"
	UpdateChannelClosed UpdateKind = "channel_closed"
)

// MonitorUpdate is one item of a jackpot stream. UpdateChannelClosed is
// always the last item.
type MonitorUpdate struct {
	Kind  UpdateKind
	State domain.JackpotState
	Win   domain.JackpotWin
	Err   error
}

// FrameMetrics counts what the monitor does with incoming frames.
type FrameMetrics interface {
	FrameAccepted(id domain.AccountID)
	FrameDropped(id domain.AccountID, reason string)
}

const (
	DropUnknownShape    = "unknown_shape"
	DropStaleSequence   = "stale_sequence"
	DropReplayedPayload = "replayed_payload"
)

type noopFrameMetrics struct{}

func (noopFrameMetrics) FrameAccepted(domain.AccountID)        {}
func (noopFrameMetrics) FrameDropped(domain.AccountID, string) {}

// Monitor turns raw push-channel frames into ordered jackpot updates.
type Monitor struct {
	events  ports.EventPublisher
	clock   ports.Clock
	log     logrus.FieldLogger
	metrics FrameMetrics
}

func NewMonitor(events ports.EventPublisher, clock ports.Clock, log logrus.FieldLogger, metrics FrameMetrics) *Monitor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if metrics == nil {
		metrics = noopFrameMetrics{}
	}
	return &Monitor{events: events, clock: clock, log: orDiscard(log), metrics: metrics}
}

// AttachOptions identifies whose stream this is. Nickname reports the
// logged-in player's nickname, used to recognise own wins.
type AttachOptions struct {
	AccountID domain.AccountID
	Nickname  func() string
}

// Attach subscribes to src and returns a live stream of jackpot updates.
// The stream cannot be restarted once it ends.
func (m *Monitor) Attach(ctx context.Context, src ports.FrameSource, opts AttachOptions) (*JackpotStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub, err := src.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe to push channel: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s := &JackpotStream{
		updates: make(chan MonitorUpdate),
		sub:     sub,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	run := &monitorRun{
		Monitor:  m,
		opts:     opts,
		reporter: newReporter(m.events, m.clock, opts.AccountID),
		log:      m.log.WithField("account", opts.AccountID),
	}
	go run.pump(streamCtx, s)

	run.reporter.info(domain.CategoryChannel, "Monitoring push channel")
	return s, nil
}

// JackpotStream is the output of one Attach call.
type JackpotStream struct {
	updates chan MonitorUpdate
	sub     ports.FrameSubscription
	cancel  context.CancelFunc
	done    chan struct{}

	closeOnce sync.Once
}

func (s *JackpotStream) Updates() <-chan MonitorUpdate {
	return s.updates
}

// Close detaches from the channel. It waits for the pump to exit.
func (s *JackpotStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.sub.Close()
		<-s.done
	})
	return err
}

type monitorRun struct {
	*Monitor
	opts     AttachOptions
	reporter reporter
	log      logrus.FieldLogger

	state        domain.JackpotState
	lastSequence uint64
	accepted     bool

	// Payload sequence numbers are a separate numbering space, only compared
	// with each other.
	lastPayloadSeq uint64
	seenPayloadSeq bool
}

// payloadSeqWindow bounds how far back a payload sequence may step and still
// count as a replay. A larger step back is taken as a server-side reset.
const payloadSeqWindow = 64

func (r *monitorRun) pump(ctx context.Context, s *JackpotStream) {
	defer close(s.done)
	defer close(s.updates)

	frames := s.sub.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				r.finish(ctx, s, s.sub.Err())
				return
			}
			update, ok := r.handle(frame)
			if !ok {
				continue
			}
			r.reporter.publish(updateMessage(update))
			select {
			case s.updates <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *monitorRun) finish(ctx context.Context, s *JackpotStream, cause error) {
	if cause == nil {
		cause = domain.ErrChannelClosed
	}
	if !errors.Is(cause, domain.ErrChannelClosed) && !errors.Is(cause, domain.ErrSessionLost) {
		cause = fmt.Errorf("%w: %w", domain.ErrChannelClosed, cause)
	}
	r.log.WithError(cause).Warn("push channel ended")

	select {
	case s.updates <- MonitorUpdate{Kind: UpdateChannelClosed, Err: cause}:
	case <-ctx.Done():
	}
}

func (r *monitorRun) handle(frame domain.Frame) (MonitorUpdate, bool) {
	parsed, ok := ParseFrame(frame.Payload)
	if !ok {
		r.metrics.FrameDropped(r.opts.AccountID, DropUnknownShape)
		r.log.WithField("frame", truncate(frame.Payload, 120)).Trace("ignoring frame")
		return MonitorUpdate{}, false
	}

	sequence := frame.Sequence
	if r.accepted && sequence <= r.lastSequence {
		r.metrics.FrameDropped(r.opts.AccountID, DropStaleSequence)
		r.log.WithFields(logrus.Fields{"sequence": sequence, "last": r.lastSequence}).Debug("dropping out-of-order frame")
		return MonitorUpdate{}, false
	}
	if parsed.HasSequence {
		if r.seenPayloadSeq && parsed.Sequence <= r.lastPayloadSeq && r.lastPayloadSeq-parsed.Sequence < payloadSeqWindow {
			r.metrics.FrameDropped(r.opts.AccountID, DropReplayedPayload)
			r.reporter.debug(domain.CategoryChannel, "Ignoring replayed jackpot frame (seq %d after %d)", parsed.Sequence, r.lastPayloadSeq)
			return MonitorUpdate{}, false
		}
		r.seenPayloadSeq = true
		r.lastPayloadSeq = parsed.Sequence
	}
	r.accepted = true
	r.lastSequence = sequence
	r.metrics.FrameAccepted(r.opts.AccountID)

	now := frame.ReceivedAt
	if now.IsZero() {
		now = r.clock.Now()
	}

	switch parsed.Type {
	case FrameJackpotValue:
		r.state.SpecialJackpot = parsed.Value
	case FrameMiniJackpotValue:
		mini := parsed.Value
		r.state.MiniJackpot = &mini
	case FrameJackpotWin, FrameMiniJackpotWin:
		win := domain.JackpotWin{
			AccountID: r.opts.AccountID,
			Kind:      domain.WinMini,
			Nickname:  parsed.Nickname,
			Value:     parsed.RawValue,
			Mine:      r.isMine(parsed.Nickname),
			At:        now,
			Sequence:  sequence,
		}
		if parsed.Type == FrameJackpotWin {
			win.Kind = domain.WinUltimate
			r.state.SpecialJackpot = 0
		}
		r.announce(win)
		return MonitorUpdate{Kind: UpdateWin, Win: win}, true
	}

	r.state.AccountID = r.opts.AccountID
	r.state.UpdatedAt = now
	r.state.Sequence = sequence
	return MonitorUpdate{Kind: UpdateJackpot, State: r.state}, true
}

func (r *monitorRun) announce(win domain.JackpotWin) {
	prize := "jackpot"
	if win.Kind == domain.WinMini {
		prize = "mini jackpot"
	}
	if win.Mine {
		r.reporter.success(domain.CategoryWinner, "You won %s: %s", prize, win.Value)
		return
	}
	r.reporter.info(domain.CategoryWinner, "User '%s' won %s: %s", win.Nickname, prize, win.Value)
}

func (r *monitorRun) isMine(nickname string) bool {
	if r.opts.Nickname == nil || nickname == "" {
		return false
	}
	own := r.opts.Nickname()
	return own != "" && strings.EqualFold(strings.TrimSpace(own), strings.TrimSpace(nickname))
}

func updateMessage(u MonitorUpdate) domain.Message {
	if u.Kind == UpdateWin {
		return u.Win
	}
	return u.State
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
