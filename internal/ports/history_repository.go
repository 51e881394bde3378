package ports

import (
	"context"

	"github.com/bnema/fconline-autospin/internal/domain"
)

type HistoryRepository interface {
	RecordJackpot(ctx context.Context, event string, state domain.JackpotState) error
	RecordWin(ctx context.Context, event string, win domain.JackpotWin) error
	Recent(ctx context.Context, id domain.AccountID, limit int) ([]domain.HistoryEntry, error)
}
