package keyring

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	zkr "github.com/zalando/go-keyring"
)

const (
	DefaultService = "fconline-autospin"
	// DisableEnv turns the OS keychain off for headless hosts and CI.
	DisableEnv = "FCA_KEYRING_DISABLED"
)

var ErrUnavailable = errors.New("os keychain unavailable")

// Store keeps secrets in the platform keychain (Secret Service, macOS
// Keychain, Windows Credential Manager).
type Store struct {
	service string
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(service string) *Store {
	if service == "" {
		service = DefaultService
	}
	return &Store{service: service}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if disabled() {
		return ErrUnavailable
	}

	if err := zkr.Set(s.service, key, value); err != nil {
		return fmt.Errorf("keychain put %q: %w", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if disabled() {
		return "", ErrUnavailable
	}

	value, err := zkr.Get(s.service, key)
	if err != nil {
		if errors.Is(err, zkr.ErrNotFound) {
			return "", fmt.Errorf("keychain get %q: %w", key, domain.ErrSecretNotFound)
		}
		return "", fmt.Errorf("keychain get %q: %w", key, err)
	}

	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if disabled() {
		return ErrUnavailable
	}

	if err := zkr.Delete(s.service, key); err != nil && !errors.Is(err, zkr.ErrNotFound) {
		return fmt.Errorf("keychain delete %q: %w", key, err)
	}

	return nil
}

// Available probes the keychain with a write/delete cycle.
func (s *Store) Available() bool {
	if disabled() {
		return false
	}
	probe := s.service + "-probe"
	if err := zkr.Set(probe, "probe", "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(probe, "probe")
	return true
}

func disabled() bool {
	return os.Getenv(DisableEnv) == "1"
}
