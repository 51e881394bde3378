package domain

import "time"

type MessageKind string

const (
	KindActivity    MessageKind = "activity"
	KindJackpot     MessageKind = "jackpot"
	KindWin         MessageKind = "jackpot_win"
	KindSpinOutcome MessageKind = "spin_outcome"
	KindSessionLost MessageKind = "session_lost"
	KindUserInfo    MessageKind = "user_info"
	KindEngineState MessageKind = "engine_state"
)

// Message is anything carried by the event bus.
type Message interface {
	MessageKind() MessageKind
}

type SessionLost struct {
	AccountID AccountID
	SessionID SessionID
	Reason    string
	At        time.Time
}

func (m SessionLost) MessageKind() MessageKind {
	return KindSessionLost
}

type UserInfo struct {
	AccountID AccountID
	UID       string
	Nickname  string
	FC        int64
	MC        int64
	FreeSpin  int64
}

func (m UserInfo) MessageKind() MessageKind {
	return KindUserInfo
}

type EngineState string

const (
	EngineIdle       EngineState = "idle"
	EngineWatching   EngineState = "watching"
	EngineEvaluating EngineState = "evaluating"
	EngineSpinning   EngineState = "spinning"
	EngineCooling    EngineState = "cooling"
	EngineStopped    EngineState = "stopped"
)

type EngineTransition struct {
	AccountID AccountID
	From      EngineState
	To        EngineState
	At        time.Time
}

func (m EngineTransition) MessageKind() MessageKind {
	return KindEngineState
}
