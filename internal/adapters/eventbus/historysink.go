package eventbus

import (
	"context"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
)

// HistorySink records jackpot samples and wins for one event.
type HistorySink struct {
	repo  ports.HistoryRepository
	event string
}

func NewHistorySink(repo ports.HistoryRepository, event string) *HistorySink {
	return &HistorySink{repo: repo, event: event}
}

func (s *HistorySink) Handle(ctx context.Context, msg domain.Message) error {
	switch m := msg.(type) {
	case domain.JackpotState:
		if !m.Known() || m.SpecialJackpot <= 0 {
			return nil
		}
		return s.repo.RecordJackpot(ctx, s.event, m)
	case domain.JackpotWin:
		return s.repo.RecordWin(ctx, s.event, m)
	}
	return nil
}
