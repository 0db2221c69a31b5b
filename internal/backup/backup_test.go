package backup

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"thermalctl/internal/sysprop"
)

const prop = "vendor.thermal.mode"

func TestSaveProperty(t *testing.T) {
	b := New(t.TempDir())
	sink := sysprop.NewMemory(map[string]string{prop: "eqs"})

	if b.HasBackup() {
		t.Fatal("fresh backup should not exist on disk")
	}
	if err := b.SaveProperty(sink, prop); err != nil {
		t.Fatalf("SaveProperty returned error: %v", err)
	}
	if !b.HasBackup() {
		t.Fatal("SaveProperty should write the backup file")
	}

	data, err := os.ReadFile(b.Path())
	if err != nil {
		t.Fatal(err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("backup file is not valid JSON: %v", err)
	}
	got := s.Properties[prop]
	if got.Value != "eqs" || !got.Existed {
		t.Errorf("expected eqs/existed, got %+v", got)
	}
}

func TestSavePropertyKeepsFirstValue(t *testing.T) {
	dir := t.TempDir()
	sink := sysprop.NewMemory(map[string]string{prop: "eqs"})

	if err := New(dir).SaveProperty(sink, prop); err != nil {
		t.Fatal(err)
	}
	_ = sink.Set(prop, "perf")

	// A second process must not overwrite the original.
	if err := New(dir).SaveProperty(sink, prop); err != nil {
		t.Fatal(err)
	}

	s, err := New(dir).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.Properties[prop].Value != "eqs" {
		t.Errorf("expected original eqs to be kept, got %q", s.Properties[prop].Value)
	}
}

func TestSavePropertySkipsRereadOnceRecorded(t *testing.T) {
	b := New(t.TempDir())
	sink := sysprop.NewMemory(map[string]string{prop: "eqs"})

	if err := b.SaveProperty(sink, prop); err != nil {
		t.Fatal(err)
	}

	// An unparseable file would fail a reload; a recorded property must not
	// trigger one.
	if err := os.WriteFile(b.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := b.SaveProperty(sink, prop); err != nil {
			t.Fatalf("SaveProperty %d returned error: %v", i, err)
		}
	}

	// A removed file invalidates what was recorded.
	if err := os.Remove(b.Path()); err != nil {
		t.Fatal(err)
	}
	_ = sink.Set(prop, "perf")
	if err := b.SaveProperty(sink, prop); err != nil {
		t.Fatal(err)
	}
	s, err := New(b.dir).Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.Properties[prop].Value != "perf" {
		t.Errorf("expected perf to be recorded again, got %q", s.Properties[prop].Value)
	}
}

func TestRestoreAll(t *testing.T) {
	t.Run("ExistingValue", func(t *testing.T) {
		b := New(t.TempDir())
		sink := sysprop.NewMemory(map[string]string{prop: "eqs"})

		if err := b.SaveProperty(sink, prop); err != nil {
			t.Fatal(err)
		}
		_ = sink.Set(prop, "game-perf")

		restored, err := b.RestoreAll(sink)
		if err != nil {
			t.Fatalf("RestoreAll returned error: %v", err)
		}
		if len(restored) != 1 {
			t.Fatalf("expected 1 restored property, got %d", len(restored))
		}
		if v := sink.Get(prop, ""); v != "eqs" {
			t.Errorf("expected eqs, got %q", v)
		}
		if b.HasBackup() {
			t.Error("backup file should be removed after a restore")
		}
	})

	t.Run("PreviouslyUnset", func(t *testing.T) {
		b := New(t.TempDir())
		sink := sysprop.NewMemory(nil)

		if err := b.SaveProperty(sink, prop); err != nil {
			t.Fatal(err)
		}
		_ = sink.Set(prop, "perf")

		if _, err := b.RestoreAll(sink); err != nil {
			t.Fatalf("RestoreAll returned error: %v", err)
		}
		if v := sink.Get(prop, "unset"); v != "unset" {
			t.Errorf("property should be cleared, got %q", v)
		}
	})

	t.Run("SinkFailure", func(t *testing.T) {
		b := New(t.TempDir())
		sink := sysprop.NewMemory(map[string]string{prop: "eqs"})

		if err := b.SaveProperty(sink, prop); err != nil {
			t.Fatal(err)
		}
		sink.SetFailing(true)

		if _, err := b.RestoreAll(sink); err == nil {
			t.Fatal("expected an error when the sink fails")
		}
		if !b.HasBackup() {
			t.Error("backup must survive a failed restore")
		}
	})

	t.Run("NoBackup", func(t *testing.T) {
		b := New(t.TempDir())
		if _, err := b.RestoreAll(sysprop.NewMemory(nil)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected a not-exist error, got %v", err)
		}
	})
}

func TestLoadCorruptFile(t *testing.T) {
	b := New(t.TempDir())
	if err := os.WriteFile(b.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Load(); err == nil {
		t.Error("expected a parse error for a corrupt backup file")
	}
}
