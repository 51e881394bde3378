package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	keyringstore "github.com/bnema/fconline-autospin/internal/adapters/secrets/keyring"
	passstore "github.com/bnema/fconline-autospin/internal/adapters/secrets/pass"
	"github.com/bnema/fconline-autospin/internal/ports"
	"github.com/sirupsen/logrus"
)

// Backend is one named link of the chain.
type Backend struct {
	Name  string
	Store ports.SecretStore
}

// Store reads and writes through its backends in order. A backend error moves
// on to the next one unless the context is done.
type Store struct {
	backends []Backend
	log      logrus.FieldLogger
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNoBackends = errors.New("secret chain has no backends")
	errNilBackend = errors.New("secret backend is nil")
)

// New builds a chain from backends, highest priority first.
func New(log logrus.FieldLogger, backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, b := range backends {
		if b.Store == nil {
			return nil, fmt.Errorf("%w: %s (position %d)", errNilBackend, b.Name, i)
		}
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Store{backends: backends, log: log}, nil
}

// NewStore chains primary and fallback and panics on nil stores.
func NewStore(primary ports.SecretStore, fallback ports.SecretStore) *Store {
	store, err := New(nil, Backend{Name: "primary", Store: primary}, Backend{Name: "fallback", Store: fallback})
	if err != nil {
		panic(err)
	}

	return store
}

// NewKeyringFirstWithPassFallback prefers the OS keychain and falls back to
// pass(1) on hosts without a secret service.
func NewKeyringFirstWithPassFallback(log logrus.FieldLogger, service string, passPrefix string) (*Store, error) {
	return New(log,
		Backend{Name: "keyring", Store: keyringstore.NewStore(service)},
		Backend{Name: "pass", Store: passstore.NewStore(passPrefix)},
	)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var failures []string
	for _, b := range s.backends {
		err := b.Store.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if contextDone(err) {
			return err
		}
		s.log.WithError(err).WithField("backend", b.Name).Debug("secret put failed, trying next backend")
		failures = append(failures, fmt.Sprintf("%s backend put failed: %v", b.Name, err))
	}

	return errors.New(strings.Join(failures, "; "))
}

// Get returns the first value found. ErrSecretNotFound survives when every
// backend reports it.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	for _, b := range s.backends {
		value, err := b.Store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if contextDone(err) {
			return "", err
		}
		errs = append(errs, fmt.Errorf("%s backend get failed: %w", b.Name, err))
	}

	return "", errors.Join(errs...)
}

// Delete removes key from every backend so a stale copy cannot resurface
// through a later link.
func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, b := range s.backends {
		err := b.Store.Delete(ctx, key)
		if err == nil {
			continue
		}
		if contextDone(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s backend delete failed: %w", b.Name, err))
	}
	if len(errs) < len(s.backends) {
		return nil
	}

	return errors.Join(errs...)
}

func contextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
