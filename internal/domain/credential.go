package domain

import (
	"encoding/json"
	"strings"
)

const redacted = "[redacted]"

// Credential is the decrypted login pair. It only lives in memory for the
// duration of a login call and never renders its secret.
type Credential struct {
	Username string
	Secret   string
}

func (c Credential) Valid() bool {
	return strings.TrimSpace(c.Username) != "" && c.Secret != ""
}

func (c Credential) String() string {
	return "Credential{Username:" + c.Username + " Secret:" + redacted + "}"
}

func (c Credential) GoString() string {
	return c.String()
}

func (c Credential) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Username string `json:"username"`
		Secret   string `json:"secret"`
	}{Username: c.Username, Secret: redacted})
}
