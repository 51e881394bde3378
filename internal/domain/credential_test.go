package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialNeverRendersSecret(t *testing.T) {
	cred := Credential{Username: "player-1", Secret: "hunter2"}

	for _, rendered := range []string{
		cred.String(),
		fmt.Sprintf("%v", cred),
		fmt.Sprintf("%+v", cred),
		fmt.Sprintf("%#v", cred),
	} {
		assert.NotContains(t, rendered, "hunter2")
		assert.Contains(t, rendered, "player-1")
	}

	encoded, err := json.Marshal(cred)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "hunter2")
}

func TestCredentialValid(t *testing.T) {
	assert.True(t, Credential{Username: "a", Secret: "b"}.Valid())
	assert.False(t, Credential{Username: " ", Secret: "b"}.Valid())
	assert.False(t, Credential{Username: "a"}.Valid())
}

func TestDecryptionErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("load: %w", &DecryptionError{Reason: DecryptionCorrupted, Err: errors.New("auth tag mismatch")})

	assert.ErrorIs(t, err, ErrDecryption)
	assert.NotErrorIs(t, err, ErrCredentialNotSet)
	assert.True(t, IsCorrupted(err))
	assert.False(t, IsCorrupted(&DecryptionError{Reason: DecryptionKeyAbsent}))
}
