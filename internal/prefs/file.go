package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// document is the on-disk layout of a FileStore.
type document struct {
	Strings map[string]string `json:"strings,omitempty"`
	Bools   map[string]bool   `json:"bools,omitempty"`
}

// FileStore keeps preferences in a single JSON file. Every access takes an
// OS-level lock on a sibling ".lock" file so that separate processes (the
// CLI and the watch daemon) serialise their read-modify-write cycles.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on the
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) String(key string) (string, bool, error) {
	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Strings[key]
	return v, ok, nil
}

func (s *FileStore) SetString(key, value string) error {
	return s.update(func(doc *document) (bool, error) {
		doc.setString(key, value)
		return true, nil
	})
}

// UpdateString holds the exclusive file lock from the read through the
// write, so a concurrent process cannot slip a write in between.
func (s *FileStore) UpdateString(key string, fn UpdateFunc) error {
	return s.update(func(doc *document) (bool, error) {
		old, ok := doc.Strings[key]
		v, write, err := fn(old, ok)
		if err != nil || !write {
			return false, err
		}
		doc.setString(key, v)
		return true, nil
	})
}

func (d *document) setString(key, value string) {
	if d.Strings == nil {
		d.Strings = make(map[string]string)
	}
	d.Strings[key] = value
}

func (s *FileStore) Bool(key string, def bool) (bool, error) {
	doc, err := s.read()
	if err != nil {
		return def, err
	}
	v, ok := doc.Bools[key]
	if !ok {
		return def, nil
	}
	return v, nil
}

func (s *FileStore) SetBool(key string, value bool) error {
	return s.update(func(doc *document) (bool, error) {
		if doc.Bools == nil {
			doc.Bools = make(map[string]bool)
		}
		doc.Bools[key] = value
		return true, nil
	})
}

func (s *FileStore) read() (document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return document{}, fmt.Errorf("failed to create prefs directory: %w", err)
	}
	unlock, err := lockFile(s.path+".lock", false)
	if err != nil {
		return document{}, fmt.Errorf("failed to lock prefs: %w", err)
	}
	defer unlock()

	return readDocument(s.path)
}

// update applies fn under the exclusive lock and writes the document back
// when fn reports a change.
func (s *FileStore) update(fn func(*document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create prefs directory: %w", err)
	}
	unlock, err := lockFile(s.path+".lock", true)
	if err != nil {
		return fmt.Errorf("failed to lock prefs: %w", err)
	}
	defer unlock()

	doc, err := readDocument(s.path)
	if err != nil {
		return err
	}
	write, err := fn(&doc)
	if err != nil || !write {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}
	if err := writeFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write prefs file: %w", err)
	}
	return nil
}

// readDocument reads path; a missing or empty file is an empty document.
func readDocument(path string) (document, error) {
	var doc document
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read prefs file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("failed to parse prefs file: %w", err)
	}
	return doc, nil
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
