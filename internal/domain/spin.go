package domain

import (
	"fmt"
	"time"
)

// SpinTier is the cost class of a spin action, 1-based as on the event page.
type SpinTier int

const (
	MinSpinTier SpinTier = 1
	MaxSpinTier SpinTier = 4
)

func (t SpinTier) Valid() bool {
	return t >= MinSpinTier && t <= MaxSpinTier
}

func ParseSpinTier(n int) (SpinTier, error) {
	tier := SpinTier(n)
	if !tier.Valid() {
		return 0, fmt.Errorf("spin action must be between %d and %d, got %d", MinSpinTier, MaxSpinTier, n)
	}
	return tier, nil
}

type SpinRequest struct {
	AccountID     AccountID
	Tier          SpinTier
	RequestedAt   time.Time
	CorrelationID string
}

type SpinResult string

const (
	SpinSucceeded SpinResult = "succeeded"
	SpinFailed    SpinResult = "failed"
	SpinTimedOut  SpinResult = "timed_out"
)

type SpinOutcome struct {
	AccountID       AccountID
	CorrelationID   string
	Result          SpinResult
	NewJackpotValue *int64
	Rewards         []string
	// Detail carries the server error code or transport error text.
	Detail      string
	CompletedAt time.Time
}

func (o SpinOutcome) MessageKind() MessageKind {
	return KindSpinOutcome
}

func (o SpinOutcome) Succeeded() bool {
	return o.Result == SpinSucceeded
}
