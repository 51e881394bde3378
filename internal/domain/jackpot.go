package domain

import (
	"strings"
	"time"
)

// JackpotState is one accepted snapshot of the live jackpot. The zero value
// means "unknown", which is what every fresh session starts from.
type JackpotState struct {
	AccountID      AccountID
	SpecialJackpot int64
	MiniJackpot    *int64
	UpdatedAt      time.Time
	Sequence       uint64
}

func (s JackpotState) Known() bool {
	return !s.UpdatedAt.IsZero()
}

func (s JackpotState) MessageKind() MessageKind {
	return KindJackpot
}

type WinKind string

const (
	WinUltimate WinKind = "jackpot"
	WinMini     WinKind = "mini_jackpot"
)

// JackpotWin announces that somebody won a prize. An ultimate win resets the
// special jackpot.
type JackpotWin struct {
	AccountID AccountID
	Kind      WinKind
	Nickname  string
	Value     string
	Mine      bool
	At        time.Time
	Sequence  uint64
}

func (w JackpotWin) MessageKind() MessageKind {
	return KindWin
}

// Frame is one raw push-channel message as delivered by the transport.
type Frame struct {
	Payload    string
	Source     string
	ReceivedAt time.Time
	// Sequence is the transport arrival order. It is the only ordering the
	// monitor enforces on JackpotState.
	Sequence uint64
}

// ParseJackpotValue reads a whole jackpot amount the way event pages print
// it, tolerating thousands separators such as "10,010" or "10.010". Every
// group after a separator must hold exactly three digits, so decimal strings
// like "10.5" are rejected rather than misread.
func ParseJackpotValue(raw string) (int64, bool) {
	var (
		value  int64
		group  int
		groups int
	)
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			if value > (1<<62)/10 {
				return 0, false
			}
			value = value*10 + int64(r-'0')
			group++
		case r == ',' || r == '.' || r == ' ' || r == '_':
			if group == 0 || (groups == 0 && group > 3) || (groups > 0 && group != 3) {
				return 0, false
			}
			groups++
			group = 0
		default:
			return 0, false
		}
	}
	if group == 0 || (groups > 0 && group != 3) {
		return 0, false
	}
	return value, true
}
