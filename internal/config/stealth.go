package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed stealth/*.js
var stealthFS embed.FS

const languagesPlaceholder = "__FCA_LANGUAGES__"

// StealthScripts returns the pre-navigation patches in file order, with the
// navigator.languages patch bound to locale.
func StealthScripts(locale string) ([]string, error) {
	names, err := fs.Glob(stealthFS, "stealth/*.js")
	if err != nil {
		return nil, fmt.Errorf("list stealth scripts: %w", err)
	}
	sort.Strings(names)

	languages, err := json.Marshal(Languages(locale))
	if err != nil {
		return nil, fmt.Errorf("encode languages: %w", err)
	}

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		body, err := stealthFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read stealth script %s: %w", name, err)
		}
		scripts = append(scripts, strings.ReplaceAll(string(body), languagesPlaceholder, string(languages)))
	}
	return scripts, nil
}

// Languages is the navigator.languages list matching a locale such as
// "vi-VN": the locale itself, its base language, then English.
func Languages(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return []string{"en-US", "en"}
	}

	out := []string{locale}
	base, _, found := strings.Cut(locale, "-")
	if found && base != "" {
		out = append(out, base)
	}
	if base != "en" {
		out = append(out, "en-US", "en")
	}
	return out
}
