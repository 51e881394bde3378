package ports

import "github.com/bnema/fconline-autospin/internal/domain"

// EventPublisher hands messages out of the automation loop. Publish never
// blocks on slow observers.
type EventPublisher interface {
	Publish(msg domain.Message)
}
