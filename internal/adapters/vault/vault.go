package vault

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/bnema/fconline-autospin/internal/ports"
)

// Vault seals credentials and session cookies, one blob per account.
type Vault struct {
	blobs ports.BlobStore
	keys  *KeyProvider
	rand  io.Reader
}

var (
	_ ports.CredentialVault = (*Vault)(nil)
	_ ports.CookieStore     = (*Vault)(nil)
)

type sealedCredential struct {
	Username string `json:"u"`
	Secret   string `json:"s"`
}

func New(blobs ports.BlobStore, keys *KeyProvider) *Vault {
	return &Vault{blobs: blobs, keys: keys, rand: rand.Reader}
}

func (v *Vault) Store(ctx context.Context, id domain.AccountID, credential domain.Credential) error {
	if !credential.Valid() {
		return errors.New("credential requires a username and a secret")
	}

	plaintext, err := json.Marshal(sealedCredential{Username: credential.Username, Secret: credential.Secret})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	defer clear(plaintext)

	return v.sealTo(ctx, credentialKey(id), credentialPurpose(id), plaintext)
}

func (v *Vault) Load(ctx context.Context, id domain.AccountID) (domain.Credential, error) {
	plaintext, err := v.openFrom(ctx, credentialKey(id), credentialPurpose(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Credential{}, fmt.Errorf("account %q: %w", id, domain.ErrCredentialNotSet)
		}
		return domain.Credential{}, fmt.Errorf("load credential for %q: %w", id, err)
	}
	defer clear(plaintext)

	var sealed sealedCredential
	if err := json.Unmarshal(plaintext, &sealed); err != nil {
		return domain.Credential{}, &domain.DecryptionError{Reason: domain.DecryptionCorrupted, Err: err}
	}

	return domain.Credential{Username: sealed.Username, Secret: sealed.Secret}, nil
}

func (v *Vault) Clear(ctx context.Context, id domain.AccountID) error {
	if err := v.blobs.Remove(ctx, credentialKey(id)); err != nil {
		return fmt.Errorf("clear credential for %q: %w", id, err)
	}
	return nil
}

// ResetKey invalidates the master key. Every credential sealed with it must be
// entered again.
func (v *Vault) ResetKey(ctx context.Context) error {
	return v.keys.Forget(ctx)
}

func (v *Vault) SaveCookies(ctx context.Context, id domain.AccountID, cookies []ports.Cookie) error {
	plaintext, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	defer clear(plaintext)

	return v.sealTo(ctx, cookieKey(id), cookiePurpose(id), plaintext)
}

// LoadCookies returns no cookies and no error when none were saved.
func (v *Vault) LoadCookies(ctx context.Context, id domain.AccountID) ([]ports.Cookie, error) {
	plaintext, err := v.openFrom(ctx, cookieKey(id), cookiePurpose(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cookies for %q: %w", id, err)
	}
	defer clear(plaintext)

	var cookies []ports.Cookie
	if err := json.Unmarshal(plaintext, &cookies); err != nil {
		return nil, &domain.DecryptionError{Reason: domain.DecryptionCorrupted, Err: err}
	}
	return cookies, nil
}

func (v *Vault) ClearCookies(ctx context.Context, id domain.AccountID) error {
	if err := v.blobs.Remove(ctx, cookieKey(id)); err != nil {
		return fmt.Errorf("clear cookies for %q: %w", id, err)
	}
	return nil
}

func (v *Vault) sealTo(ctx context.Context, key string, purpose string, plaintext []byte) error {
	secret, source, err := v.keys.EncryptionKey(ctx)
	if err != nil {
		return err
	}

	blob, err := seal(v.rand, secret, source, purpose, plaintext)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEncryption, err)
	}

	if err := v.blobs.Write(ctx, key, blob); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// openFrom passes os.ErrNotExist through untouched so callers can tell a
// missing blob from a damaged one.
func (v *Vault) openFrom(ctx context.Context, key string, purpose string) ([]byte, error) {
	blob, err := v.blobs.Read(ctx, key)
	if err != nil {
		return nil, err
	}

	head, err := parseHeader(blob)
	if err != nil {
		return nil, &domain.DecryptionError{Reason: domain.DecryptionCorrupted, Err: err}
	}

	secret, err := v.keys.DecryptionKey(ctx, head.source)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &domain.DecryptionError{Reason: domain.DecryptionKeyAbsent, Err: err}
	}
	if fingerprint(secret) != head.fingerprint {
		return nil, &domain.DecryptionError{
			Reason: domain.DecryptionKeyRotated,
			Err:    fmt.Errorf("blob was sealed with a different %s key", head.source),
		}
	}

	plaintext, err := open(secret, blob, purpose)
	if err != nil {
		return nil, &domain.DecryptionError{Reason: domain.DecryptionCorrupted, Err: err}
	}
	return plaintext, nil
}

func credentialKey(id domain.AccountID) string {
	return "credentials/" + string(id) + ".bin"
}

func cookieKey(id domain.AccountID) string {
	return "cookies/" + string(id) + ".bin"
}

func credentialPurpose(id domain.AccountID) string {
	return "credential:" + string(id)
}

func cookiePurpose(id domain.AccountID) string {
	return "cookies:" + string(id)
}
