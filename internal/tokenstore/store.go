// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tokenstore holds the single bearer credential the CLI authenticates with.
//
// Exactly one token is persisted at a time under the "foodshare" namespace.
// The Session Manager and the Request Pipeline are the only readers; feature
// commands never touch the token directly.
package tokenstore

import "sync"

// Store persists one opaque bearer token.
//
// Set replaces any prior value without validating its shape. Get reports
// whether a token is present. Clear is idempotent.
type Store interface {
	Set(token string) error
	Get() (string, bool)
	Clear() error
}

// Memory is a process-local Store. It is used by tests and by --no-keychain runs.
// An empty token is indistinguishable from no token, as with the keychain.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Set(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
