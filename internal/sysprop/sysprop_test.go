package sysprop

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSink(t *testing.T) {
	d := Dir{Root: filepath.Join(t.TempDir(), "props")}

	if got := d.Get("vendor.thermal.mode", "eqs"); got != "eqs" {
		t.Errorf("expected default %q for a missing property, got %q", "eqs", got)
	}

	if err := d.Set("vendor.thermal.mode", "game-perf"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := d.Get("vendor.thermal.mode", "eqs"); got != "game-perf" {
		t.Errorf("expected %q, got %q", "game-perf", got)
	}

	data, err := os.ReadFile(filepath.Join(d.Root, "vendor.thermal.mode"))
	if err != nil {
		t.Fatalf("property file not written: %v", err)
	}
	if string(data) != "game-perf\n" {
		t.Errorf("unexpected property file content %q", data)
	}
}

func TestDirSinkRejectsPathNames(t *testing.T) {
	d := Dir{Root: t.TempDir()}
	for _, name := range []string{"", "../escape", `a\b`} {
		if err := d.Set(name, "eqs"); err == nil {
			t.Errorf("Set(%q) should fail", name)
		}
	}
}

func TestMemorySink(t *testing.T) {
	m := NewMemory(map[string]string{"vendor.thermal.mode": "perf"})

	if got := m.Get("vendor.thermal.mode", "eqs"); got != "perf" {
		t.Errorf("expected initial value %q, got %q", "perf", got)
	}
	if got := m.Get("other", "x"); got != "x" {
		t.Errorf("expected default %q, got %q", "x", got)
	}

	if err := m.Set("vendor.thermal.mode", "eqs"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	m.SetFailing(true)
	if err := m.Set("vendor.thermal.mode", "game-perf"); !errors.Is(err, ErrInjected) {
		t.Errorf("expected ErrInjected, got %v", err)
	}
	if got := m.Get("vendor.thermal.mode", ""); got != "eqs" {
		t.Errorf("failed write must not change the value, got %q", got)
	}

	writes := m.Writes()
	if len(writes) != 1 {
		t.Fatalf("expected 1 recorded write, got %d", len(writes))
	}
	if writes[0] != (Write{Name: "vendor.thermal.mode", Value: "eqs"}) {
		t.Errorf("unexpected write %+v", writes[0])
	}
}

func TestSetpropGetFallsBack(t *testing.T) {
	// On hosts without getprop the default comes back instead of an error.
	var s Setprop
	got := s.Get("thermalctl.test.unset.property", "eqs")
	if got == "" {
		t.Error("Get should never return an empty string when a default is given")
	}
	t.Logf("getprop returned %q", got)
}
