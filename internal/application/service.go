package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
)

var ErrInvalidProfile = errors.New("invalid account profile")

// Service manages account profiles and the credentials sealed for them.
type Service struct {
	repo    ports.AccountRepository
	vault   ports.CredentialVault
	cookies ports.CookieStore
	clock   ports.Clock
}

func NewService(repo ports.AccountRepository, vault ports.CredentialVault, cookies ports.CookieStore, clock ports.Clock) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		repo:    repo,
		vault:   vault,
		cookies: cookies,
		clock:   clock,
	}
}

func credentialRef(id domain.AccountID) string {
	return "vault://" + string(id)
}

// SetCredential seals cred for the account and records the reference on its
// profile, creating the profile when missing. A failed profile save restores
// the previously stored credential.
func (s *Service) SetCredential(ctx context.Context, id domain.AccountID, cred domain.Credential) error {
	if !cred.Valid() {
		return fmt.Errorf("%w: username and password are required", ErrInvalidProfile)
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("get account by id: %w", err)
		}
		account = newAccount(id)
	}

	var previous *domain.Credential
	if account.HasCredential() {
		if loaded, loadErr := s.vault.Load(ctx, id); loadErr == nil {
			previous = &loaded
		}
	}

	if err := s.vault.Store(ctx, id, cred); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	account.CredentialRef = credentialRef(id)
	if err := s.repo.Save(ctx, account); err != nil {
		var rollbackErr error
		if previous != nil {
			rollbackErr = s.vault.Store(ctx, id, *previous)
		} else {
			rollbackErr = s.vault.Clear(ctx, id)
		}
		if rollbackErr != nil {
			return fmt.Errorf("save account credential and rollback stored credential: %w", errors.Join(err, rollbackErr))
		}

		return fmt.Errorf("save account credential: %w", err)
	}

	return nil
}

// ClearCredential drops the sealed credential and any saved session cookies.
// When the vault refuses, the profile reference is restored.
func (s *Service) ClearCredential(ctx context.Context, id domain.AccountID) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}
	original := account

	account.CredentialRef = ""
	if err := s.repo.Save(ctx, account); err != nil {
		return fmt.Errorf("save account credential: %w", err)
	}

	if err := s.vault.Clear(ctx, id); err != nil {
		if restoreErr := s.repo.Save(ctx, original); restoreErr != nil {
			return fmt.Errorf("clear credential and restore profile: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("clear credential: %w", err)
	}

	if s.cookies != nil {
		if err := s.cookies.ClearCookies(ctx, id); err != nil {
			return fmt.Errorf("clear session cookies: %w", err)
		}
	}

	return nil
}

// Credential opens the sealed credential. A missing profile or one without a
// reference yields domain.ErrCredentialNotSet; damaged ciphertext yields a
// *domain.DecryptionError.
func (s *Service) Credential(ctx context.Context, id domain.AccountID) (domain.Credential, error) {
	account, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Credential{}, fmt.Errorf("%w: no profile for %s", domain.ErrCredentialNotSet, id)
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("get account by id: %w", err)
	}
	if !account.HasCredential() {
		return domain.Credential{}, fmt.Errorf("%w: %s", domain.ErrCredentialNotSet, id)
	}

	cred, err := s.vault.Load(ctx, id)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("load credential: %w", err)
	}
	return cred, nil
}

func (s *Service) AddAccount(ctx context.Context, cmd AddAccountCommand) (domain.Account, error) {
	if err := cmd.Validate(); err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Account{}, fmt.Errorf("get account by id: %w", err)
		}
		account = newAccount(cmd.ID)
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		account.Name = name
	}
	if cmd.Event != "" {
		account.Event = cmd.Event
	}
	if cmd.Tier != 0 {
		account.Settings.Tier = cmd.Tier
	}
	if cmd.Target != nil {
		account.Settings.TargetSpecialJackpot = *cmd.Target
	}

	if err := s.repo.Save(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("save account profile: %w", err)
	}
	return account, nil
}

// SaveProfile replaces the editable fields of a profile. The credential
// reference and last login time are kept from the stored copy.
func (s *Service) SaveProfile(ctx context.Context, account domain.Account) error {
	if strings.TrimSpace(string(account.ID)) == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidProfile)
	}
	if account.Settings.Tier != 0 && !account.Settings.Tier.Valid() {
		return fmt.Errorf("%w: spin tier %d", ErrInvalidProfile, account.Settings.Tier)
	}

	stored, err := s.repo.GetByID(ctx, account.ID)
	switch {
	case err == nil:
		account.CredentialRef = stored.CredentialRef
		account.LastLoginAt = stored.LastLoginAt
	case errors.Is(err, domain.ErrAccountNotFound):
		account.CredentialRef = ""
	default:
		return fmt.Errorf("get account by id: %w", err)
	}

	if err := s.repo.Save(ctx, account); err != nil {
		return fmt.Errorf("save account profile: %w", err)
	}
	return nil
}

func (s *Service) RemoveProfile(ctx context.Context, id domain.AccountID) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}

	if account.HasCredential() {
		if err := s.ClearCredential(ctx, id); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (s *Service) MarkLogin(ctx context.Context, id domain.AccountID) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account by id: %w", err)
	}

	account.LastLoginAt = s.clock.Now()

	if err := s.repo.Save(ctx, account); err != nil {
		return fmt.Errorf("save account login time: %w", err)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, id domain.AccountID) (Profile, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("get account by id: %w", err)
	}

	return profileFromAccount(account), nil
}

func (s *Service) Profiles(ctx context.Context) ([]Profile, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	profiles := make([]Profile, 0, len(accounts))
	for _, account := range accounts {
		profiles = append(profiles, profileFromAccount(account))
	}

	return profiles, nil
}

func newAccount(id domain.AccountID) domain.Account {
	return domain.Account{
		ID:       id,
		Name:     fmt.Sprintf("Account %s", id),
		Settings: domain.SpinSettings{Tier: domain.MinSpinTier},
	}
}

func profileFromAccount(account domain.Account) Profile {
	profile := Profile{
		Account:       account,
		HasCredential: account.HasCredential(),
	}
	if !account.LastLoginAt.IsZero() {
		at := account.LastLoginAt
		profile.LastLogin = &at
	}
	return profile
}
