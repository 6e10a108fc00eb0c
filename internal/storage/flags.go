// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/morganforge/draftsmith/internal/util"
)

// =============================================================================
// LOCAL FLAGS
// =============================================================================

// ErrUnsupportedFlagType is returned for flag values other than bool or
// string.
var ErrUnsupportedFlagType = errors.New("flag values must be bool or string")

// Flags is a small key/value store for UI state that survives restarts
// (sidebar open/closed, resume-in-floating-assistant). Values are bool or
// string only; this is not a structured store. The file is read once at
// open and written through on every set.
type Flags struct {
	path string

	mu     sync.Mutex
	values map[string]any
}

// OpenFlags loads the flag file, creating an empty store if it does not
// exist.
func OpenFlags(path string) (*Flags, error) {
	f := &Flags{
		path:   path,
		values: make(map[string]any),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		return nil, err
	}
	return f, nil
}

// GetBool returns the boolean flag, or the fallback when absent or not a
// bool.
func (f *Flags) GetBool(key string, fallback bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.values[key].(bool); ok {
		return v
	}
	return fallback
}

// GetString returns the string flag, or the fallback when absent or not a
// string.
func (f *Flags) GetString(key string, fallback string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.values[key].(string); ok {
		return v
	}
	return fallback
}

// Set stores a flag and writes the file through.
func (f *Flags) Set(key string, value any) error {
	switch value.(type) {
	case bool, string:
	default:
		return ErrUnsupportedFlagType
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
	return f.writeLocked()
}

// Unset removes a flag and writes the file through.
func (f *Flags) Unset(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.writeLocked()
}

func (f *Flags) writeLocked() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(f.path, data, 0644)
}
