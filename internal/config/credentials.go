package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/bnema/fconline-autospin/internal/domain"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type envCredentials struct {
	Username string `env:"FC_USERNAME"`
	Password string `env:"FC_PASSWORD,unset"`
}

// LoadDotenv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// EnvCredential reads FC_USERNAME and FC_PASSWORD. The password variable is
// removed from the environment once read. ok is false when either is empty.
func EnvCredential(environ map[string]string) (domain.Credential, bool, error) {
	var parsed envCredentials
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&parsed, opts); err != nil {
		return domain.Credential{}, false, fmt.Errorf("parse credential environment: %w", err)
	}

	cred := domain.Credential{Username: parsed.Username, Secret: parsed.Password}
	return cred, cred.Valid(), nil
}
