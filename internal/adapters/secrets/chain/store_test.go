package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/fconline-autospin/internal/domain"
	portmocks "github.com/bnema/fconline-autospin/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const masterKey = "vault/master_key"

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, masterKey).Return("from-keyring", nil).Once()

	value, err := store.Get(context.Background(), masterKey)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, masterKey).Return("", errors.New("keychain locked")).Once()
	fallback.EXPECT().Get(mock.Anything, masterKey).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), masterKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetKeepsNotFoundWhenBothBackendsMiss(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, masterKey).Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, masterKey).Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), masterKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, masterKey).Return("", errors.New("keychain failed")).Once()
	fallback.EXPECT().Get(mock.Anything, masterKey).Return("", errors.New("pass failed")).Once()

	_, err := store.Get(context.Background(), masterKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "keychain failed")
	assert.ErrorContains(t, err, "pass failed")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, masterKey, "secret").Return(errors.New("keychain failed")).Once()
	fallback.EXPECT().Put(mock.Anything, masterKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), masterKey, "secret"))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, masterKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), masterKey, "secret"))
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, masterKey).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, masterKey).Return(errors.New("pass unavailable")).Once()

	require.NoError(t, store.Delete(context.Background(), masterKey))
}

func TestStoreDeleteFailsWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, masterKey).Return(errors.New("keychain failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, masterKey).Return(errors.New("pass failed")).Once()

	err := store.Delete(context.Background(), masterKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "keychain failed")
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, masterKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), masterKey)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsMissingBackends(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, errNoBackends)

	_, err = New(nil, Backend{Name: "keyring", Store: portmocks.NewMockSecretStore(t)}, Backend{Name: "pass"})
	require.ErrorIs(t, err, errNilBackend)
	assert.ErrorContains(t, err, "pass")
}

func TestStoreGetWalksEveryBackendInOrder(t *testing.T) {
	t.Parallel()

	first := portmocks.NewMockSecretStore(t)
	second := portmocks.NewMockSecretStore(t)
	third := portmocks.NewMockSecretStore(t)
	store, err := New(nil,
		Backend{Name: "keyring", Store: first},
		Backend{Name: "pass", Store: second},
		Backend{Name: "file", Store: third},
	)
	require.NoError(t, err)

	first.EXPECT().Get(mock.Anything, masterKey).Return("", domain.ErrSecretNotFound).Once()
	second.EXPECT().Get(mock.Anything, masterKey).Return("", errors.New("gpg agent down")).Once()
	third.EXPECT().Get(mock.Anything, masterKey).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), masterKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}
