// Package xdg resolves XDG Base Directory paths for foodshare.
//
// Directories are created on first use with private permissions, falling back
// to the traditional ~/.config and ~/.local/state locations when the XDG
// variables are unset.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the per-application directory name.
const AppName = "foodshare"

// ConfigDir returns the XDG config directory for foodshare, creating it 0700.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for foodshare, creating it 0700.
// The file-backed keyring lives here when no OS keychain is available.
func StateDir() (string, error) {
	return ensure("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func ensure(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
