package domain

import "time"

type HistoryKind string

const (
	HistoryValue       HistoryKind = "value"
	HistoryUltimateWin HistoryKind = "jackpot"
	HistoryMiniWin     HistoryKind = "mini_jackpot"
)

type HistoryEntry struct {
	AccountID AccountID
	Event     string
	Kind      HistoryKind
	Value     int64
	Nickname  string
	At        time.Time
}
