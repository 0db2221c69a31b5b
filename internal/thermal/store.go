// Package thermal keeps the per-package thermal profile table and decides
// which thermal mode the system should run in.
package thermal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"thermalctl/internal/logging"
	"thermalctl/internal/prefs"
	"thermalctl/internal/thermal/profiles"
)

// Preference keys. They match the keys used by the LineageOS parts app so an
// exported preferences file can be read as-is.
const (
	KeyTable    = "thermal_control"
	KeyOverride = "performance_mode_enabled"
)

// Store is the durable package → profile classification. All access goes
// through one mutex so a read never observes a half-applied write and two
// concurrent writers cannot lose each other's update.
type Store struct {
	mu    sync.Mutex
	prefs prefs.Store
	log   zerolog.Logger
}

// NewStore returns a Store persisting into p.
func NewStore(p prefs.Store) *Store {
	return &Store{prefs: p, log: logging.With("store")}
}

// Profile returns the profile assigned to pkg. Storage failures read as
// Default.
func (s *Store) Profile(pkg string) profiles.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, _, err := s.load()
	if err != nil {
		s.log.Warn().Err(err).Str("pkg", pkg).Msg("profile table unreadable, using default")
		return profiles.Default
	}
	return t.Lookup(pkg)
}

// SetProfile assigns profile p to pkg and persists the table. The read and
// the write happen under one exclusive lock on the backing store, so
// concurrent writers in other processes cannot lose each other's update.
func (s *Store) SetProfile(pkg string, p profiles.Profile) error {
	if err := ValidatePackage(pkg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var read, changed bool
	err := s.prefs.UpdateString(KeyTable, func(raw string, ok bool) (string, bool, error) {
		read = true
		t, dirty := Table{}, false
		if ok && raw != "" {
			t, dirty = s.decode(raw)
		}
		changed = t.Set(pkg, p)
		return t.String(), changed || dirty || !ok || raw == "", nil
	})
	if err != nil {
		if !read {
			return fmt.Errorf("%w: %w", ErrStorageRead, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, KeyTable, err)
	}
	if changed {
		s.log.Info().Str("pkg", pkg).Stringer("profile", p).Msg("profile updated")
	}
	return nil
}

// Value returns the serialized table, creating the empty table if none is
// stored yet.
func (s *Store) Value() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, _, err := s.load()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return t.String(), nil
}

// Table returns a snapshot of the classification table. Storage failures
// read as an empty table.
func (s *Store) Table() Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, _, err := s.load()
	if err != nil {
		s.log.Warn().Err(err).Msg("profile table unreadable, listing nothing")
		return Table{}
	}
	return t.Clone()
}

// Override reports the persisted global performance override. Storage
// failures read as disabled.
func (s *Store) Override() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	on, err := s.prefs.Bool(KeyOverride, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("override flag unreadable, treating as off")
		return false
	}
	return on
}

// SetOverride persists the global performance override.
func (s *Store) SetOverride(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prefs.SetBool(KeyOverride, enabled); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, KeyOverride, err)
	}
	return nil
}

// load reads the table; the caller holds s.mu. A missing table is created
// and persisted. A malformed one is returned empty with dirty set, so the
// next write replaces it with a well-formed value.
func (s *Store) load() (t Table, dirty bool, err error) {
	raw, ok, err := s.prefs.String(KeyTable)
	if err != nil {
		return Table{}, false, err
	}
	if !ok || raw == "" {
		return s.bootstrap(), false, nil
	}
	t, dirty = s.decode(raw)
	return t, dirty, nil
}

// bootstrap writes the empty table unless another writer stored one since
// load looked. Whatever value ends up stored is returned.
func (s *Store) bootstrap() Table {
	var current string
	err := s.prefs.UpdateString(KeyTable, func(raw string, ok bool) (string, bool, error) {
		if ok && raw != "" {
			current = raw
			return raw, false, nil
		}
		return EmptyValue, true, nil
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("could not initialise profile table")
	}
	if current == "" {
		return Table{}
	}
	t, _ := s.decode(current)
	return t
}

func (s *Store) decode(raw string) (Table, bool) {
	t, err := ParseTable(raw)
	if errors.Is(err, ErrMalformedTable) {
		s.log.Warn().Str("value", raw).Msg("profile table malformed, treating as empty")
		return Table{}, true
	}
	return t, false
}
