package ports

import (
	"context"

	"github.com/bnema/fconline-autospin/internal/domain"
)

// CredentialVault persists credentials encrypted at rest.
//
// Load distinguishes a missing entry (domain.ErrCredentialNotSet) from one that
// exists but cannot be opened (*domain.DecryptionError).
type CredentialVault interface {
	Store(ctx context.Context, id domain.AccountID, credential domain.Credential) error
	Load(ctx context.Context, id domain.AccountID) (domain.Credential, error)
	Clear(ctx context.Context, id domain.AccountID) error
}

type CookieStore interface {
	SaveCookies(ctx context.Context, id domain.AccountID, cookies []Cookie) error
	LoadCookies(ctx context.Context, id domain.AccountID) ([]Cookie, error)
	ClearCookies(ctx context.Context, id domain.AccountID) error
}

// BlobStore keeps opaque byte blobs under relative keys.
type BlobStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}
