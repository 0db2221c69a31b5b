// Package backup remembers the value a system property had before thermalctl
// first wrote it, so the device can be put back the way it was.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"thermalctl/internal/sysprop"
)

// State holds the original property values.
type State struct {
	Timestamp  string                    `json:"timestamp"`
	Properties map[string]PropertyBackup `json:"properties"`
}

// PropertyBackup holds a single property's original value.
type PropertyBackup struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Existed bool   `json:"existed"` // if the property was set before we changed it
}

// backupFilename is the name of the backup state file.
const backupFilename = "backup_state.json"

// Backup is the on-disk backup under one directory.
type Backup struct {
	mu    sync.Mutex
	dir   string
	state *State
	// recorded names properties known to be in the file on disk.
	recorded map[string]bool
}

// New returns a Backup stored in dir. Nothing is read until Load.
func New(dir string) *Backup {
	return &Backup{dir: dir, state: newEmptyState(), recorded: make(map[string]bool)}
}

func newEmptyState() *State {
	return &State{
		Timestamp:  time.Now().Format(time.RFC3339),
		Properties: make(map[string]PropertyBackup),
	}
}

// Path returns the full path to the backup state JSON file.
func (b *Backup) Path() string {
	return filepath.Join(b.dir, backupFilename)
}

// SaveProperty records the current value of name unless an earlier value is
// already recorded, then writes the state to disk. The first recorded value
// is the one RestoreAll puts back. Once a property is recorded, later calls
// only check that the file still exists.
func (b *Backup) SaveProperty(sink sysprop.Sink, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.recorded[name] {
		if _, err := os.Stat(b.Path()); err == nil {
			return nil
		}
		clear(b.recorded)
	}

	if err := b.load(); errors.Is(err, os.ErrNotExist) {
		b.state = newEmptyState()
	} else if err != nil {
		return err
	}
	if _, ok := b.state.Properties[name]; ok {
		b.recorded[name] = true
		return nil
	}

	value := sink.Get(name, "")
	b.state.Properties[name] = PropertyBackup{
		Name:    name,
		Value:   value,
		Existed: value != "",
	}
	if err := b.save(); err != nil {
		return err
	}
	b.recorded[name] = true
	return nil
}

// Load reads the backup state from disk.
func (b *Backup) Load() (*State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(); err != nil {
		return nil, err
	}
	return b.state, nil
}

func (b *Backup) load() error {
	data, err := os.ReadFile(b.Path())
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	loaded := &State{}
	if err := json.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}
	if loaded.Properties == nil {
		loaded.Properties = make(map[string]PropertyBackup)
	}
	b.state = loaded
	return nil
}

func (b *Backup) save() error {
	b.state.Timestamp = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(b.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup state: %w", err)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := os.WriteFile(b.Path(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// RestoreAll writes every recorded property back. A property that was unset
// before is cleared. On success the backup file is removed so the next write
// records a fresh original value.
func (b *Backup) RestoreAll(sink sysprop.Sink) ([]PropertyBackup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(b.state.Properties))
	for name := range b.state.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var restored []PropertyBackup
	var errs []string
	for _, name := range names {
		p := b.state.Properties[name]
		value := p.Value
		if !p.Existed {
			value = ""
		}
		if err := sink.Set(p.Name, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", p.Name, err))
			continue
		}
		restored = append(restored, p)
	}
	if len(errs) > 0 {
		return restored, fmt.Errorf("some properties could not be restored:\n%s", strings.Join(errs, "\n"))
	}

	if err := os.Remove(b.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return restored, fmt.Errorf("failed to remove backup file: %w", err)
	}
	b.state = newEmptyState()
	clear(b.recorded)
	return restored, nil
}

// HasBackup checks whether a backup file exists on disk.
func (b *Backup) HasBackup() bool {
	info, err := os.Stat(b.Path())
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
