package application

import (
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
)

// Profile is the read model rendered by status listings.
type Profile struct {
	Account       domain.Account
	HasCredential bool
	LastLogin     *time.Time
}
