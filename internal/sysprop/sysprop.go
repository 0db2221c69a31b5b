// Package sysprop reads and writes system-wide string properties such as
// vendor.thermal.mode.
package sysprop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"thermalctl/internal/cmd"
)

// Sink is a system property store.
type Sink interface {
	// Get returns the property value, or def if it is unset or unreadable.
	Get(name, def string) string
	// Set writes the property.
	Set(name, value string) error
}

// ---------- Android properties ----------

// Setprop talks to the Android property service through the getprop and
// setprop binaries.
type Setprop struct {
	Timeout time.Duration
}

const defaultTimeout = 5 * time.Second

func (s Setprop) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}

func (s Setprop) Get(name, def string) string {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()

	out, err := cmd.Output(ctx, "getprop", name)
	if err != nil || out == "" {
		return def
	}
	return out
}

func (s Setprop) Set(name, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()

	if _, err := cmd.Output(ctx, "setprop", name, value); err != nil {
		return fmt.Errorf("failed to set property %s: %w", name, err)
	}
	return nil
}

// ---------- Property directory ----------

// Dir keeps one file per property under Root. It is used on hosts without
// an Android property service and by setups that bridge the file to a
// driver node.
type Dir struct {
	Root string
}

func (d Dir) Get(name, def string) string {
	data, err := os.ReadFile(filepath.Join(d.Root, name))
	if err != nil {
		return def
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return def
	}
	return v
}

func (d Dir) Set(name, value string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid property name %q", name)
	}
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create property directory: %w", err)
	}

	path := filepath.Join(d.Root, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write property %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write property %s: %w", name, err)
	}
	return nil
}

// ---------- In-memory ----------

// Write records one Set call on a Memory sink.
type Write struct {
	Name  string
	Value string
}

// ErrInjected is returned by Memory.Set while failing is switched on.
var ErrInjected = errors.New("injected property write failure")

// Memory holds properties in process memory and records every write. It
// backs the --sink memory dry-run mode and the tests.
type Memory struct {
	mu     sync.Mutex
	props  map[string]string
	writes []Write
	fail   bool
}

// NewMemory returns a Memory sink pre-populated with initial.
func NewMemory(initial map[string]string) *Memory {
	m := &Memory{props: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.props[k] = v
	}
	return m
}

func (m *Memory) Get(name, def string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.props[name]
	if !ok || v == "" {
		return def
	}
	return v
}

func (m *Memory) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ErrInjected
	}
	if m.props == nil {
		m.props = make(map[string]string)
	}
	m.props[name] = value
	m.writes = append(m.writes, Write{Name: name, Value: value})
	return nil
}

// SetFailing makes subsequent Set calls fail with ErrInjected.
func (m *Memory) SetFailing(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

// Writes returns a copy of every successful Set call so far.
func (m *Memory) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Write(nil), m.writes...)
}
