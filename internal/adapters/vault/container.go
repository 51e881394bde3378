package vault

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed blob layout:
//
//	magic(4) | version(1) | key source(1) | key fingerprint(8) | nonce(24) | ciphertext+tag
//
// The header and the blob's purpose are authenticated as additional data, so
// moving a blob to another account or editing its header fails to open.
const (
	magic           = "FCAV"
	formatVersion   = byte(1)
	fingerprintSize = 8
	headerSize      = len(magic) + 1 + 1 + fingerprintSize
)

type keySource byte

const (
	sourceStored  keySource = 1
	sourceMachine keySource = 2
)

func (s keySource) String() string {
	switch s {
	case sourceStored:
		return "stored"
	case sourceMachine:
		return "machine"
	default:
		return fmt.Sprintf("unknown(%d)", byte(s))
	}
}

var errMalformed = errors.New("malformed vault container")

type header struct {
	source      keySource
	fingerprint [fingerprintSize]byte
}

func fingerprint(key []byte) [fingerprintSize]byte {
	sum := sha256.Sum256(key)
	var fp [fingerprintSize]byte
	copy(fp[:], sum[:fingerprintSize])
	return fp
}

func encodeHeader(h header) []byte {
	out := make([]byte, 0, headerSize)
	out = append(out, magic...)
	out = append(out, formatVersion, byte(h.source))
	out = append(out, h.fingerprint[:]...)
	return out
}

func parseHeader(blob []byte) (header, error) {
	if len(blob) < headerSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return header{}, fmt.Errorf("%w: %d bytes is too short", errMalformed, len(blob))
	}
	if !bytes.Equal(blob[:len(magic)], []byte(magic)) {
		return header{}, fmt.Errorf("%w: bad magic", errMalformed)
	}
	if v := blob[len(magic)]; v != formatVersion {
		return header{}, fmt.Errorf("%w: unsupported version %d", errMalformed, v)
	}

	h := header{source: keySource(blob[len(magic)+1])}
	if h.source != sourceStored && h.source != sourceMachine {
		return header{}, fmt.Errorf("%w: unknown key source %d", errMalformed, byte(h.source))
	}
	copy(h.fingerprint[:], blob[len(magic)+2:headerSize])

	return h, nil
}

func seal(rand io.Reader, key []byte, source keySource, purpose string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	head := encodeHeader(header{source: source, fingerprint: fingerprint(key)})
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(head)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, head...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, additionalData(head, purpose)), nil
}

func open(key []byte, blob []byte, purpose string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	head := blob[:headerSize]
	nonce := blob[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ciphertext := blob[headerSize+chacha20poly1305.NonceSizeX:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData(head, purpose))
	if err != nil {
		return nil, fmt.Errorf("authenticate vault container: %w", err)
	}
	return plaintext, nil
}

func additionalData(head []byte, purpose string) []byte {
	aad := make([]byte, 0, len(head)+len(purpose))
	aad = append(aad, head...)
	return append(aad, purpose...)
}
