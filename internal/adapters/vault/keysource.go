package vault

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	MasterKeyName = "vault/master_key"

	hkdfSalt = "fconline-autospin vault v1"
	hkdfInfo = "credential key"
)

var (
	errNoMachineSecret = errors.New("no machine secret available")

	machineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}
)

// KeyProvider hands out the vault key. A random master key kept in platform
// secure storage is preferred; when that storage is unavailable a key is
// derived from stable machine identifiers.
type KeyProvider struct {
	secrets ports.SecretStore
	machine func() ([]byte, error)
	rand    io.Reader

	mu     sync.Mutex
	stored []byte
}

func NewKeyProvider(secrets ports.SecretStore) *KeyProvider {
	return &KeyProvider{
		secrets: secrets,
		machine: MachineSecret,
		rand:    rand.Reader,
	}
}

// EncryptionKey returns the key new blobs are sealed with.
func (p *KeyProvider) EncryptionKey(ctx context.Context) ([]byte, keySource, error) {
	key, err := p.storedKey(ctx, true)
	if err == nil {
		return key, sourceStored, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, 0, err
	}

	machineKey, machineErr := p.machineKey()
	if machineErr != nil {
		return nil, 0, fmt.Errorf("%w: secure storage: %w; machine key: %w", domain.ErrEncryption, err, machineErr)
	}
	return machineKey, sourceMachine, nil
}

// DecryptionKey returns the key a blob sealed under source needs.
func (p *KeyProvider) DecryptionKey(ctx context.Context, source keySource) ([]byte, error) {
	switch source {
	case sourceStored:
		return p.storedKey(ctx, false)
	case sourceMachine:
		return p.machineKey()
	default:
		return nil, fmt.Errorf("unknown key source %s", source)
	}
}

// Forget deletes the stored master key. Blobs sealed with it can no longer be
// opened.
func (p *KeyProvider) Forget(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	clear(p.stored)
	p.stored = nil
	if p.secrets == nil {
		return nil
	}
	if err := p.secrets.Delete(ctx, MasterKeyName); err != nil {
		return fmt.Errorf("delete master key: %w", err)
	}
	return nil
}

func (p *KeyProvider) storedKey(ctx context.Context, create bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.secrets == nil {
		return nil, errors.New("no secure storage configured")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stored != nil {
		return p.stored, nil
	}

	encoded, err := p.secrets.Get(ctx, MasterKeyName)
	switch {
	case err == nil:
		key, decodeErr := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if decodeErr != nil || len(key) != chacha20poly1305.KeySize {
			return nil, errors.New("stored master key is malformed")
		}
		p.stored = key
		return key, nil
	case errors.Is(err, domain.ErrSecretNotFound) && create:
	default:
		return nil, fmt.Errorf("read master key: %w", err)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(p.rand, key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	if err := p.secrets.Put(ctx, MasterKeyName, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("save master key: %w", err)
	}
	p.stored = key
	return key, nil
}

func (p *KeyProvider) machineKey() ([]byte, error) {
	if p.machine == nil {
		return nil, errNoMachineSecret
	}
	secret, err := p.machine()
	if err != nil {
		return nil, err
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, []byte(hkdfSalt), []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive machine key: %w", err)
	}
	return key, nil
}

// MachineSecret combines the machine id, host name and user id into the
// input keying material for the fallback key.
func MachineSecret() ([]byte, error) {
	var machineID string
	for _, path := range machineIDPaths {
		data, err := os.ReadFile(path)
		if err == nil && strings.TrimSpace(string(data)) != "" {
			machineID = strings.TrimSpace(string(data))
			break
		}
	}
	host, _ := os.Hostname()
	if machineID == "" && host == "" {
		return nil, errNoMachineSecret
	}

	return []byte(strings.Join([]string{machineID, host, strconv.Itoa(os.Getuid())}, "\x00")), nil
}
