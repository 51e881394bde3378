package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrCredentialNotSet   = errors.New("credential not set")
	ErrEncryption         = errors.New("credential encryption unavailable")
	ErrDecryption         = errors.New("credential decryption failed")
	ErrSessionActive      = errors.New("account already has an active session")
	ErrSessionClosed      = errors.New("session closed")
	ErrSessionLost        = errors.New("session lost")
	ErrChannelClosed      = errors.New("push channel closed")
	ErrBrowserUnavailable = errors.New("browser unavailable")
	ErrEventNotFound      = errors.New("event not found")
	ErrSpinInFlight       = errors.New("spin already in flight")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginTimeout       = errors.New("login timed out")
)

type DecryptionReason string

const (
	DecryptionCorrupted  DecryptionReason = "corrupted"
	DecryptionKeyAbsent  DecryptionReason = "key_absent"
	DecryptionKeyRotated DecryptionReason = "key_rotated"
)

// DecryptionError is returned when persisted ciphertext exists but cannot be
// opened. It matches ErrDecryption with errors.Is.
type DecryptionError struct {
	Reason DecryptionReason
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrDecryption, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", ErrDecryption, e.Reason, e.Err)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryption
}

// IsCorrupted reports whether err is a decryption failure caused by damaged
// or tampered ciphertext.
func IsCorrupted(err error) bool {
	var decErr *DecryptionError
	return errors.As(err, &decErr) && decErr.Reason == DecryptionCorrupted
}
