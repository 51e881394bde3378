package eventbus

import (
	"context"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/sirupsen/logrus"
)

// LogSink writes every message as a structured log entry.
type LogSink struct {
	log logrus.FieldLogger
}

func NewLogSink(log logrus.FieldLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Handle(_ context.Context, msg domain.Message) error {
	switch m := msg.(type) {
	case domain.ActivityEvent:
		entry := s.log.WithFields(logrus.Fields{
			"account":  m.AccountID,
			"category": m.Category,
		})
		switch m.Severity {
		case domain.SeverityDebug:
			entry.Debug(m.Message)
		case domain.SeverityWarning:
			entry.Warn(m.Message)
		case domain.SeverityError:
			entry.Error(m.Message)
		default:
			entry.Info(m.Message)
		}
	case domain.JackpotState:
		s.log.WithFields(logrus.Fields{
			"account":  m.AccountID,
			"special":  m.SpecialJackpot,
			"sequence": m.Sequence,
		}).Debug("jackpot update")
	case domain.EngineTransition:
		s.log.WithFields(logrus.Fields{
			"account": m.AccountID,
			"from":    m.From,
			"to":      m.To,
		}).Trace("engine transition")
	case domain.JackpotWin:
		s.log.WithFields(logrus.Fields{
			"account":  m.AccountID,
			"kind":     m.Kind,
			"nickname": m.Nickname,
			"value":    m.Value,
			"mine":     m.Mine,
		}).Info("jackpot won")
	case domain.SessionLost:
		s.log.WithFields(logrus.Fields{
			"account": m.AccountID,
			"session": m.SessionID,
		}).Warn("session lost: " + m.Reason)
	case domain.SpinOutcome:
		s.log.WithFields(logrus.Fields{
			"account":     m.AccountID,
			"correlation": m.CorrelationID,
			"result":      m.Result,
		}).Debug("spin outcome")
	}
	return nil
}
