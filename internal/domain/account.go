package domain

import "time"

type AccountID string

// Account is the persisted, non-secret profile of one game account.
type Account struct {
	ID       AccountID
	Name     string
	Event    string
	Settings SpinSettings
	// CredentialRef names the vault entry holding the encrypted credential.
	CredentialRef string
	LastLoginAt   time.Time
}

type SpinSettings struct {
	Tier                 SpinTier
	TargetSpecialJackpot int64
}

func (a Account) HasCredential() bool {
	return a.CredentialRef != ""
}
