// Package author resolves the translator identity recorded in generated
// PO headers. Explicit values win; missing halves fall back to the git
// configuration (user.name / user.email).
package author

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitConfig reads a git configuration value. Replaceable in tests.
type GitConfig func(key string) (string, error)

// gitConfig shells out to `git config <key>`.
func gitConfig(key string) (string, error) {
	out, err := exec.Command("git", "config", key).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Resolve returns the "Name <email>" string for the Last-Translator
// field. Name and email may each be empty; missing halves are read from
// git via cfg (pass nil for the real git). An error means git is not
// installed or user.name/user.email are not configured.
func Resolve(name, email string, cfg GitConfig) (string, error) {
	if name == "" || email == "" {
		if cfg == nil {
			cfg = gitConfig
		}
		gitName, err1 := cfg("user.name")
		gitEmail, err2 := cfg("user.email")
		if err1 != nil || err2 != nil || gitName == "" || gitEmail == "" {
			return "", fmt.Errorf("obtaining author information from git: either git is not installed, or the user.name and user.email configuration options have not been defined")
		}
		if name == "" {
			name = gitName
		}
		if email == "" {
			email = gitEmail
		}
	}
	return fmt.Sprintf("%s <%s>", name, email), nil
}
