package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Spinner executes one spin request against a live session.
type Spinner interface {
	ExecuteAction(ctx context.Context, req domain.SpinRequest) domain.SpinOutcome
}

type SpinnerFunc func(ctx context.Context, req domain.SpinRequest) domain.SpinOutcome

func (f SpinnerFunc) ExecuteAction(ctx context.Context, req domain.SpinRequest) domain.SpinOutcome {
	return f(ctx, req)
}

type EngineConfig struct {
	AccountID domain.AccountID
	Tier      domain.SpinTier
	TierLabel string
	// Target <= 0 disables spinning; the engine then only watches.
	Target   int64
	Cooldown time.Duration
	// MaxAttempts bounds failed spins per threshold-crossing episode.
	MaxAttempts int
}

// EngineSnapshot is a consistent view of the engine for observers.
type EngineSnapshot struct {
	State    domain.EngineState
	Target   int64
	Jackpot  domain.JackpotState
	Spins    int
	Failures int
}

// Engine decides when to spin. Its loop is the only goroutine touching the
// episode state; everything else talks to it through channels.
type Engine struct {
	cfg      EngineConfig
	spinner  Spinner
	clock    ports.Clock
	log      logrus.FieldLogger
	reporter reporter
	newID    func() string

	targets  chan int64
	stop     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	snapshot EngineSnapshot
}

func NewEngine(cfg EngineConfig, spinner Spinner, events ports.EventPublisher, clock ports.Clock, log logrus.FieldLogger) *Engine {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.TierLabel == "" {
		cfg.TierLabel = fmt.Sprintf("Spin %d", int(cfg.Tier))
	}
	return &Engine{
		cfg:      cfg,
		spinner:  spinner,
		clock:    clock,
		log:      orDiscard(log).WithField("account", cfg.AccountID),
		reporter: newReporter(events, clock, cfg.AccountID),
		newID:    uuid.NewString,
		targets:  make(chan int64, 1),
		stop:     make(chan struct{}),
		snapshot: EngineSnapshot{State: domain.EngineIdle, Target: cfg.Target},
	}
}

func (e *Engine) State() EngineSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// SetTarget changes the threshold. It never blocks; the newest value wins.
func (e *Engine) SetTarget(target int64) {
	for {
		select {
		case e.targets <- target:
			return
		default:
		}
		select {
		case <-e.targets:
		default:
		}
	}
}

// Stop asks the loop to finish at its next suspension point.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

type episode struct {
	spins    int
	failures int
	// exhausted is set once failures reach the attempt bound.
	exhausted bool
}

// Run consumes updates until a stop request, ctx cancellation or the end of
// the channel. It returns nil on a requested stop and an error wrapping
// domain.ErrChannelClosed when the stream ends.
func (e *Engine) Run(ctx context.Context, updates <-chan MonitorUpdate) error {
	e.transition(domain.EngineWatching)

	var (
		target   = e.cfg.Target
		current  domain.JackpotState
		ep       episode
		epoch    int
		spin     *spinCall
		cooldown <-chan time.Time
	)
	defer func() { spin.abort() }()

	for {
		select {
		case <-e.stop:
			e.halt("Auto-spin stopped")
			return nil

		case <-ctx.Done():
			e.halt("Auto-spin stopped")
			return ctx.Err()

		case t := <-e.targets:
			if t != target {
				e.reporter.info(domain.CategoryEngine, "Target special jackpot set to %s", formatAmount(t))
			}
			target = t
			e.update(func(s *EngineSnapshot) { s.Target = t })

		case u, ok := <-updates:
			if !ok {
				u = MonitorUpdate{Kind: UpdateChannelClosed, Err: domain.ErrChannelClosed}
			}

			switch u.Kind {
			case UpdateChannelClosed:
				spin.abort()
				cause := u.Err
				if cause == nil {
					cause = domain.ErrChannelClosed
				}
				if errors.Is(cause, domain.ErrSessionLost) {
					e.log.WithError(cause).Debug("push channel ended with the browser session")
				} else {
					e.reporter.fail(domain.CategoryChannel, "Push channel closed: %v", cause)
				}
				e.transition(domain.EngineStopped)
				return markReported(cause)

			case UpdateWin:
				if u.Win.Kind == domain.WinUltimate {
					if spin != nil {
						spin.abort()
						e.log.WithField("correlation_id", spin.req.CorrelationID).Debug("jackpot won, cancelling in-flight spin")
					}
					current.SpecialJackpot = 0
					ep = episode{}
					epoch++
					e.update(func(s *EngineSnapshot) { s.Jackpot = current; s.Spins, s.Failures = 0, 0 })
				}

			case UpdateJackpot:
				previous := current
				current = u.State
				e.update(func(s *EngineSnapshot) { s.Jackpot = current })

				if current.SpecialJackpot < target || current.SpecialJackpot < previous.SpecialJackpot {
					if current.SpecialJackpot < previous.SpecialJackpot {
						spin.abort()
					}
					if ep != (episode{}) {
						epoch++
					}
					ep = episode{}
					e.update(func(s *EngineSnapshot) { s.Spins, s.Failures = 0, 0 })
				}

				if e.State().State != domain.EngineWatching {
					continue
				}

				e.transition(domain.EngineEvaluating)
				if target <= 0 || current.SpecialJackpot < target {
					e.transition(domain.EngineWatching)
					continue
				}
				if !previous.Known() || previous.SpecialJackpot < target {
					e.reporter.emit(domain.SeverityInfo, domain.CategoryJackpot, "Special Jackpot has reached %s", formatAmount(target))
				}
				if ep.exhausted {
					e.log.WithField("failures", ep.failures).Debug("attempt bound reached for this episode")
					e.transition(domain.EngineWatching)
					continue
				}

				req := domain.SpinRequest{
					AccountID:     e.cfg.AccountID,
					Tier:          e.cfg.Tier,
					RequestedAt:   e.clock.Now(),
					CorrelationID: e.newID(),
				}
				ep.spins++
				e.transition(domain.EngineSpinning)
				e.reporter.info(domain.CategorySpin, "Auto-spinning with %s at %s", e.cfg.TierLabel, formatAmount(current.SpecialJackpot))

				spin = e.startSpin(ctx, req, epoch)
			}

		case outcome := <-spin.results():
			done := spin
			spin = nil
			done.abort()
			if outcome.CorrelationID == "" {
				outcome.CorrelationID = done.req.CorrelationID
			}
			if outcome.AccountID == "" {
				outcome.AccountID = e.cfg.AccountID
			}
			e.reporter.publish(outcome)

			switch {
			case outcome.Succeeded():
				e.reportReward(outcome)
			case done.epoch != epoch:
				e.reporter.info(domain.CategorySpin, "Spin %s after the jackpot reset", outcome.Result)
			default:
				ep.failures++
				if ep.failures >= e.cfg.MaxAttempts {
					ep.exhausted = true
				}
				e.reporter.warn(domain.CategorySpin, "Spin %s (%d/%d): %s", outcome.Result, ep.failures, e.cfg.MaxAttempts, outcome.Detail)
			}
			if outcome.NewJackpotValue != nil {
				current.SpecialJackpot = *outcome.NewJackpotValue
			}
			e.update(func(s *EngineSnapshot) {
				s.Jackpot = current
				s.Spins, s.Failures = ep.spins, ep.failures
			})

			e.transition(domain.EngineCooling)
			cooldown = e.clock.After(e.cfg.Cooldown)

		case <-cooldown:
			cooldown = nil
			e.transition(domain.EngineWatching)
		}
	}
}

// spinCall is one in-flight spin. Its outcome arrives on out even after
// abort, tagged with the epoch it was issued in.
type spinCall struct {
	req    domain.SpinRequest
	epoch  int
	out    chan domain.SpinOutcome
	cancel context.CancelFunc
}

func (e *Engine) startSpin(ctx context.Context, req domain.SpinRequest, epoch int) *spinCall {
	spinCtx, cancel := context.WithCancel(ctx)
	call := &spinCall{req: req, epoch: epoch, out: make(chan domain.SpinOutcome, 1), cancel: cancel}
	go func() {
		call.out <- e.spinner.ExecuteAction(spinCtx, req)
	}()
	return call
}

// results is nil while no spin is in flight, which blocks its select case.
func (c *spinCall) results() <-chan domain.SpinOutcome {
	if c == nil {
		return nil
	}
	return c.out
}

func (c *spinCall) abort() {
	if c != nil {
		c.cancel()
	}
}

func (e *Engine) reportReward(outcome domain.SpinOutcome) {
	if len(outcome.Rewards) == 0 {
		e.reporter.success(domain.CategoryReward, "Spin succeeded")
		return
	}
	e.reporter.success(domain.CategoryReward, "Spin rewards: %s", strings.Join(outcome.Rewards, ", "))
}

func (e *Engine) halt(message string) {
	if e.State().State == domain.EngineStopped {
		return
	}
	e.reporter.info(domain.CategoryEngine, "%s", message)
	e.transition(domain.EngineStopped)
}

func (e *Engine) transition(to domain.EngineState) {
	e.mu.Lock()
	from := e.snapshot.State
	e.snapshot.State = to
	e.mu.Unlock()

	if from == to {
		return
	}
	e.log.WithFields(logrus.Fields{"from": from, "to": to}).Trace("engine transition")
	e.reporter.publish(domain.EngineTransition{AccountID: e.cfg.AccountID, From: from, To: to, At: e.clock.Now()})
}

func (e *Engine) update(fn func(*EngineSnapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.snapshot)
}
