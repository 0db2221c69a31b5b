// Package prefs provides the small typed key-value store the thermal policy
// persists into, in the spirit of Android shared preferences.
package prefs

import (
	"sync"
)

// Store is a persistent string/bool key-value store.
type Store interface {
	// String returns the value for key and whether it was present.
	String(key string) (string, bool, error)
	// SetString persists value under key.
	SetString(key, value string) error
	// UpdateString runs fn on the current value of key and persists the
	// result when fn asks for a write. Other writers cannot interleave
	// between the read and the write. An error from fn aborts the update.
	UpdateString(key string, fn UpdateFunc) error
	// Bool returns the value for key, or def if absent.
	Bool(key string, def bool) (bool, error)
	// SetBool persists value under key.
	SetBool(key string, value bool) error
}

// UpdateFunc receives the current value and whether it was present, and
// returns the new value and whether to persist it.
type UpdateFunc func(old string, ok bool) (value string, write bool, err error)

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu      sync.Mutex
	strings map[string]string
	bools   map[string]bool
}

// NewMemory returns an empty in-process Store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) String(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m *Memory) SetString(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.strings == nil {
		m.strings = make(map[string]string)
	}
	m.strings[key] = value
	return nil
}

func (m *Memory) UpdateString(key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.strings[key]
	v, write, err := fn(old, ok)
	if err != nil || !write {
		return err
	}
	if m.strings == nil {
		m.strings = make(map[string]string)
	}
	m.strings[key] = v
	return nil
}

func (m *Memory) Bool(key string, def bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.bools[key]
	if !ok {
		return def, nil
	}
	return v, nil
}

func (m *Memory) SetBool(key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bools == nil {
		m.bools = make(map[string]bool)
	}
	m.bools[key] = value
	return nil
}
