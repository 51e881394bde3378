package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, accountsPath string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set(AccountsPathKey, accountsPath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))

	first := domain.Account{
		ID:            "main",
		Name:          "Main",
		Event:         "bilac",
		Settings:      domain.SpinSettings{Tier: 2, TargetSpecialJackpot: 10_000},
		CredentialRef: "credentials/main.bin",
		LastLoginAt:   time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC),
	}
	second := domain.Account{
		ID:       "alt",
		Name:     "Alt",
		Event:    "typhu",
		Settings: domain.SpinSettings{Tier: 4, TargetSpecialJackpot: 25_000},
	}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Account{first, second}, accounts)
}

func TestRepositorySaveUpdatesInPlace(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.Account{ID: "main", Event: "bilac", Settings: domain.SpinSettings{Tier: 1}}))
	require.NoError(t, repo.Save(ctx, domain.Account{ID: "main", Event: "vqtg", Settings: domain.SpinSettings{Tier: 3}}))

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "vqtg", accounts[0].Event)
	assert.Equal(t, domain.SpinTier(3), accounts[0].Settings.Tier)
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.Account{ID: "main"}))
	require.NoError(t, repo.Save(ctx, domain.Account{ID: "alt"}))

	require.NoError(t, repo.Delete(ctx, "main"))
	require.ErrorIs(t, repo.Delete(ctx, "main"), domain.ErrAccountNotFound)

	_, err := repo.GetByID(ctx, "main")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, domain.AccountID("alt"), accounts[0].ID)
}

func TestRepositoryReadsHandWrittenFile(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte(strings.Join([]string{
		"version = 1",
		"",
		"[[accounts]]",
		"id = \"main\"",
		"event = \"tcss\"",
		"",
		"[accounts.spin]",
		"action = 4",
		"target_special_jackpot = 12000",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, accountsPath)

	account, err := repo.GetByID(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "tcss", account.Event)
	assert.Equal(t, domain.SpinTier(4), account.Settings.Tier)
	assert.Equal(t, int64(12_000), account.Settings.TargetSpecialJackpot)
	assert.False(t, account.HasCredential())
	assert.True(t, account.LastLoginAt.IsZero())
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), domain.Account{ID: "main", Name: "Main"}))

	accountsPath := filepath.Join(configDir, "fca", "accounts.toml")
	assert.Equal(t, accountsPath, repo.Path())
	info, err := os.Stat(accountsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "accounts.toml"))

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = repo.GetByID(context.Background(), "main")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte("accounts = ["), 0o600))

	repo := newTestRepository(t, accountsPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode accounts file")
}

func TestRepositorySaveRejectsEmptyID(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))

	require.Error(t, repo.Save(context.Background(), domain.Account{Name: "nameless"}))
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "accounts.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.Account{ID: "main", Name: "Main"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesPreserveAllAccounts(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	repoA := newTestRepository(t, accountsPath)
	repoB := newTestRepository(t, accountsPath)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	write := func(repo *Repository, prefix string) {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repo.Save(context.Background(), domain.Account{ID: domain.AccountID(prefix + strconv.Itoa(i))})
		}
	}
	go write(repoA, "a-")
	go write(repoB, "b-")

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	accounts, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, perRepoWrites*2)
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	repo := newTestRepository(t, accountsPath)

	require.NoError(t, repo.Save(context.Background(), domain.Account{ID: "main", Name: "Main"}))

	data, err := os.ReadFile(accountsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	accountsPath := filepath.Join(t.TempDir(), "accounts.toml")
	require.NoError(t, os.WriteFile(accountsPath, []byte("version = 999\n\naccounts = []\n"), 0o600))

	repo := newTestRepository(t, accountsPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported accounts schema version")
}
