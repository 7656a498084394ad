// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tokenstore

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
	log "github.com/sirupsen/logrus"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "foodshare"

// KeyToken is the only entry the CLI persists.
const KeyToken = "auth_token"

// ErrNotFound is returned by backends when the key has no stored value.
var ErrNotFound = errors.New("key not found")

// secretBackend defines the minimal operations a native credential helper provides.
type secretBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Keychain is a Store backed by the OS credential store.
// On macOS the `security` command is preferred; elsewhere the keyring library
// picks the first usable backend, ending with an encrypted file in FileDir.
type Keychain struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend secretBackend
}

// Options tune how the keychain is opened.
type Options struct {
	// FileDir is where the encrypted file backend keeps its data.
	FileDir string
	// FilePassphrase unlocks the file backend without prompting.
	FilePassphrase string
	// FileOnly skips the OS credential store and uses the file backend.
	FileOnly bool
}

// OpenKeychain opens the OS keychain, falling back to the file backend.
func OpenKeychain(opts Options) (*Keychain, error) {
	if runtime.GOOS == "darwin" && !opts.FileOnly {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Keychain{backend: backend}, nil
		}
		log.Debugf("tokenstore: security backend unavailable: %v", err)
	}

	ring, err := openRing(opts)
	if err != nil {
		return nil, err
	}
	return NewKeychain(ring), nil
}

// NewKeychain wraps an already opened keyring.
func NewKeychain(ring keyring.Keyring) *Keychain {
	return &Keychain{ring: ring}
}

func openRing(opts Options) (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	}
	if opts.FileDir != "" {
		allowed = append(allowed, keyring.FileBackend)
	}
	if opts.FileOnly {
		if opts.FileDir == "" {
			return nil, errors.New("file keyring requested but no keyring directory configured")
		}
		allowed = []keyring.BackendType{keyring.FileBackend}
	}

	if opts.FilePassphrase == "" && usesFileBackend(allowed) {
		log.Warn("tokenstore: file keyring has no passphrase (keyring.passphrase); the token is protected by file permissions only")
	}

	cfg := keyring.Config{
		ServiceName:      ServiceName,
		AllowedBackends:  allowed,
		PassPrefix:       ServiceName,
		FileDir:          opts.FileDir,
		FilePasswordFunc: keyring.FixedStringPrompt(opts.FilePassphrase),
	}
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, errors.New("no secure storage available; rerun with --no-keychain to use the file keyring")
	}
	return ring, nil
}

// usesFileBackend reports whether keyring.Open will end up on the file backend:
// it is the only choice, or no other allowed backend is available here.
func usesFileBackend(allowed []keyring.BackendType) bool {
	available := map[keyring.BackendType]bool{}
	for _, b := range keyring.AvailableBackends() {
		available[b] = true
	}
	file := false
	for _, b := range allowed {
		if b == keyring.FileBackend {
			file = true
			continue
		}
		if available[b] {
			return false
		}
	}
	return file
}

// Set stores token, replacing any prior value.
func (k *Keychain) Set(token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.backend != nil {
		return k.backend.Set(KeyToken, token)
	}
	return k.ring.Set(keyring.Item{Key: KeyToken, Data: []byte(token)})
}

// Get returns the stored token. Backend failures are logged and reported as absent.
func (k *Keychain) Get() (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.backend != nil {
		token, err := k.backend.Get(KeyToken)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Debugf("tokenstore: read failed: %v", err)
			}
			return "", false
		}
		return token, token != ""
	}

	it, err := k.ring.Get(KeyToken)
	if err != nil {
		if !errors.Is(err, keyring.ErrKeyNotFound) {
			log.Debugf("tokenstore: read failed: %v", err)
		}
		return "", false
	}
	return string(it.Data), len(it.Data) > 0
}

// Clear removes the token. Missing keys are not an error.
func (k *Keychain) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.backend != nil {
		return k.backend.Delete(KeyToken)
	}
	if err := k.ring.Remove(KeyToken); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
