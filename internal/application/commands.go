package application

import (
	"fmt"
	"strings"

	"github.com/bnema/fconline-autospin/internal/domain"
)

type AddAccountCommand struct {
	ID     domain.AccountID
	Name   string
	Event  string
	Tier   domain.SpinTier
	Target *int64
}

func (c AddAccountCommand) Validate() error {
	if strings.TrimSpace(string(c.ID)) == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidProfile)
	}
	if c.Tier != 0 && !c.Tier.Valid() {
		return fmt.Errorf("%w: spin tier %d", ErrInvalidProfile, c.Tier)
	}
	if c.Target != nil && *c.Target < 0 {
		return fmt.Errorf("%w: negative target", ErrInvalidProfile)
	}
	return nil
}
