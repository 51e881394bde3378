package domain

import "time"

type SessionID string

// SessionInfo is the read-only view of a browser session handed to callers.
type SessionInfo struct {
	ID        SessionID
	AccountID AccountID
	State     AuthState
	CreatedAt time.Time
}
