package metrics

import (
	"context"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fca"

var engineStates = []domain.EngineState{
	domain.EngineIdle,
	domain.EngineWatching,
	domain.EngineEvaluating,
	domain.EngineSpinning,
	domain.EngineCooling,
	domain.EngineStopped,
}

// Collector turns bus messages into prometheus series. It is attached to the
// event bus as a sink and handed to the monitor for frame accounting.
type Collector struct {
	specialJackpot *prometheus.GaugeVec
	miniJackpot    *prometheus.GaugeVec
	spins          *prometheus.CounterVec
	wins           *prometheus.CounterVec
	framesAccepted *prometheus.CounterVec
	framesDropped  *prometheus.CounterVec
	engineState    *prometheus.GaugeVec
	sessionsLost   *prometheus.CounterVec
}

func NewCollector() *Collector {
	return &Collector{
		specialJackpot: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "special_jackpot_value",
			Help:      "Last accepted special jackpot value.",
		}, []string{"account"}),
		miniJackpot: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mini_jackpot_value",
			Help:      "Last accepted mini jackpot value.",
		}, []string{"account"}),
		spins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spins_total",
			Help:      "Spin attempts by result.",
		}, []string{"account", "result"}),
		wins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jackpot_wins_total",
			Help:      "Announced jackpot wins by kind.",
		}, []string{"account", "kind", "mine"}),
		framesAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_accepted_total",
			Help:      "Push channel frames accepted as jackpot updates.",
		}, []string{"account"}),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Push channel frames dropped by reason.",
		}, []string{"account", "reason"}),
		engineState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_state",
			Help:      "1 for the current auto-spin engine state.",
		}, []string{"account", "state"}),
		sessionsLost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_lost_total",
			Help:      "Browser sessions lost.",
		}, []string{"account"}),
	}
}

func (c *Collector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.specialJackpot,
		c.miniJackpot,
		c.spins,
		c.wins,
		c.framesAccepted,
		c.framesDropped,
		c.engineState,
		c.sessionsLost,
	}
}

func (c *Collector) FrameAccepted(id domain.AccountID) {
	c.framesAccepted.WithLabelValues(string(id)).Inc()
}

func (c *Collector) FrameDropped(id domain.AccountID, reason string) {
	c.framesDropped.WithLabelValues(string(id), reason).Inc()
}

func (c *Collector) Handle(_ context.Context, msg domain.Message) error {
	switch m := msg.(type) {
	case domain.JackpotState:
		c.specialJackpot.WithLabelValues(string(m.AccountID)).Set(float64(m.SpecialJackpot))
		if m.MiniJackpot != nil {
			c.miniJackpot.WithLabelValues(string(m.AccountID)).Set(float64(*m.MiniJackpot))
		}
	case domain.SpinOutcome:
		c.spins.WithLabelValues(string(m.AccountID), string(m.Result)).Inc()
	case domain.JackpotWin:
		mine := "false"
		if m.Mine {
			mine = "true"
		}
		c.wins.WithLabelValues(string(m.AccountID), string(m.Kind), mine).Inc()
	case domain.EngineTransition:
		for _, state := range engineStates {
			value := 0.0
			if state == m.To {
				value = 1
			}
			c.engineState.WithLabelValues(string(m.AccountID), string(state)).Set(value)
		}
	case domain.SessionLost:
		c.sessionsLost.WithLabelValues(string(m.AccountID)).Inc()
	}
	return nil
}
