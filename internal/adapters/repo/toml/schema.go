package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ID          string      `toml:"id"`
	Name        string      `toml:"name"`
	Event       string      `toml:"event"`
	Spin        spinSchema  `toml:"spin"`
	Credential  vaultSchema `toml:"credential"`
	LastLoginAt string      `toml:"last_login_at,omitempty"`
}

type spinSchema struct {
	Action               int   `toml:"action"`
	TargetSpecialJackpot int64 `toml:"target_special_jackpot"`
}

type vaultSchema struct {
	Ref string `toml:"ref"`
}
