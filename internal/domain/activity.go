package domain

import "time"

type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Category string

const (
	CategorySession Category = "session"
	CategoryLogin   Category = "login"
	CategoryChannel Category = "channel"
	CategoryJackpot Category = "jackpot"
	CategorySpin    Category = "spin"
	CategoryReward  Category = "reward"
	CategoryWinner  Category = "winner"
	CategoryVault   Category = "vault"
	CategoryEngine  Category = "engine"
	CategoryUser    Category = "user"
)

// ActivityEvent is the only observability record that crosses out of the
// automation loop. Events are append-only and ordered by emission.
type ActivityEvent struct {
	Timestamp time.Time
	AccountID AccountID
	Severity  Severity
	Category  Category
	Message   string
}

func (e ActivityEvent) MessageKind() MessageKind {
	return KindActivity
}
