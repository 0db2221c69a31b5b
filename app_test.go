package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"thermalctl/internal/config"
	"thermalctl/internal/sysprop"
	"thermalctl/internal/thermal"
	"thermalctl/internal/thermal/profiles"
)

func testConfig(t *testing.T, sink string) config.Config {
	t.Helper()
	return config.Config{
		Home:     t.TempDir(),
		Property: thermal.DefaultProperty,
		Sink:     config.SinkConfig{Kind: sink},
		Watch:    config.WatchConfig{Interval: time.Second},
		Log:      config.LogConfig{Level: "error", Format: "text"},
	}
}

func newTestApp(t *testing.T) (*App, *sysprop.Memory) {
	t.Helper()
	a, err := NewApp(testConfig(t, config.SinkMemory))
	if err != nil {
		t.Fatalf("NewApp returned error: %v", err)
	}
	return a, a.sink.(*sysprop.Memory)
}

func TestAppProfiles(t *testing.T) {
	a, _ := newTestApp(t)

	t.Run("DefaultForUnknown", func(t *testing.T) {
		info, err := a.GetProfile("com.example.app")
		if err != nil {
			t.Fatalf("GetProfile returned error: %v", err)
		}
		if info.Profile != profiles.Default {
			t.Errorf("expected default, got %s", info.Profile)
		}
	})

	t.Run("SetAndGet", func(t *testing.T) {
		if _, err := a.SetProfile("com.example.game", "gaming"); err != nil {
			t.Fatalf("SetProfile returned error: %v", err)
		}
		if _, err := a.SetProfile("com.example.bench", "perf"); err != nil {
			t.Fatalf("SetProfile returned error: %v", err)
		}
		info, _ := a.GetProfile("com.example.bench")
		if info.Profile != profiles.Performance {
			t.Errorf("expected benchmark, got %s", info.Profile)
		}

		value, err := a.TableValue()
		if err != nil {
			t.Fatalf("TableValue returned error: %v", err)
		}
		if value != "gaming=com.example.game,:benchmark=com.example.bench," {
			t.Errorf("unexpected table value %q", value)
		}
		if len(a.Classified()) != 2 {
			t.Errorf("expected 2 classified packages, got %d", len(a.Classified()))
		}
	})

	t.Run("InvalidPackage", func(t *testing.T) {
		if _, err := a.SetProfile("com.bad,pkg", "gaming"); !errors.Is(err, thermal.ErrInvalidPackage) {
			t.Errorf("expected ErrInvalidPackage, got %v", err)
		}
		if _, err := a.GetProfile(""); !errors.Is(err, thermal.ErrInvalidPackage) {
			t.Errorf("expected ErrInvalidPackage, got %v", err)
		}
	})

	t.Run("UnknownProfile", func(t *testing.T) {
		if _, err := a.SetProfile("com.example.app", "turbo"); err == nil {
			t.Error("expected an error for an unknown profile")
		}
	})
}

func TestAppApply(t *testing.T) {
	a, sink := newTestApp(t)

	if _, err := a.SetProfile("com.example.game", "gaming"); err != nil {
		t.Fatal(err)
	}

	mode, err := a.Apply("com.example.game")
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if mode != profiles.ModeGamePerf {
		t.Errorf("expected game-perf, got %s", mode)
	}

	mode, _ = a.Apply("com.example.other")
	if mode != profiles.ModeEQS {
		t.Errorf("expected eqs, got %s", mode)
	}

	writes := sink.Writes()
	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(writes))
	}

	sink.SetFailing(true)
	if _, err := a.Apply("com.example.game"); !errors.Is(err, thermal.ErrSinkWrite) {
		t.Errorf("expected ErrSinkWrite, got %v", err)
	}
}

func TestAppOverridePersists(t *testing.T) {
	cfg := testConfig(t, config.SinkMemory)

	a, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.GetOverride() {
		t.Fatal("override should start disabled")
	}
	if err := a.SetOverride(true); err != nil {
		t.Fatalf("SetOverride returned error: %v", err)
	}
	if a.resolver.Current() != profiles.ModeGamePerf {
		t.Errorf("expected game-perf after enabling override, got %s", a.resolver.Current())
	}

	b, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !b.GetOverride() {
		t.Error("override should be read back from the preferences file")
	}
}

func TestAppDirSink(t *testing.T) {
	cfg := testConfig(t, config.SinkDir)

	a, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp returned error: %v", err)
	}
	if _, err := a.SetProfile("com.example.bench", "benchmark"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Apply("com.example.bench"); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Home, "props", thermal.DefaultProperty))
	if err != nil {
		t.Fatalf("property file not written: %v", err)
	}
	if strings.TrimSpace(string(data)) != "perf" {
		t.Errorf("expected perf, got %q", data)
	}
}

func TestAppStatusWithoutSensors(t *testing.T) {
	a, sink := newTestApp(t)
	if _, err := a.SetProfile("com.example.game", "gaming"); err != nil {
		t.Fatal(err)
	}

	st, err := a.Status(context.Background(), false)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if st.Mode != profiles.ModeEQS || st.Override || st.Classified != 1 {
		t.Errorf("unexpected status %+v", st)
	}
	if st.Snapshot != nil {
		t.Error("snapshot should be nil without sensors")
	}
	if len(sink.Writes()) != 0 {
		t.Error("status must not write the property")
	}
}

func TestAppWatchLines(t *testing.T) {
	a, sink := newTestApp(t)
	if _, err := a.SetProfile("com.example.game", "gaming"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.SetProfile("com.example.bench", "benchmark"); err != nil {
		t.Fatal(err)
	}

	in := strings.NewReader("com.example.game\ncom.example.game\n\ncom.example.bench\ncom.android.launcher\n")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Watch(ctx, in, time.Second); err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	var got []string
	for _, w := range sink.Writes() {
		got = append(got, w.Value)
	}
	want := []string{"game-perf", "perf", "eqs"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("expected writes %v, got %v", want, got)
	}
	if a.resolver.Foreground() != "com.android.launcher" {
		t.Errorf("expected launcher in foreground, got %q", a.resolver.Foreground())
	}
}

func TestAppWatchStopsOnCancelWithIdleInput(t *testing.T) {
	a, _ := newTestApp(t)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- a.Watch(ctx, pr, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel while stdin was idle")
	}
}

func TestFormatBytesHuman(t *testing.T) {
	cases := map[int64]string{
		0:                      "0 B",
		512:                    "512.0 B",
		1536:                   "1.5 KB",
		300 * 1024 * 1024:      "300.0 MB",
		3 * 1024 * 1024 * 1024: "3.0 GB",
	}
	for in, want := range cases {
		if got := formatBytesHuman(in); got != want {
			t.Errorf("formatBytesHuman(%d): expected %q, got %q", in, want, got)
		}
	}
}

func TestAppRestore(t *testing.T) {
	a, sink := newTestApp(t)

	restored, err := a.Restore()
	if err != nil || len(restored) != 0 {
		t.Fatalf("expected nothing to restore, got %v (err %v)", restored, err)
	}

	if _, err := a.SetProfile("com.example.game", "gaming"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Apply("com.example.game"); err != nil {
		t.Fatal(err)
	}
	if !a.backup.HasBackup() {
		t.Fatal("the first property write should record the original value")
	}

	restored, err = a.Restore()
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if len(restored) != 1 || restored[0].Name != thermal.DefaultProperty || restored[0].Existed {
		t.Errorf("unexpected restore result %+v", restored)
	}
	if v := sink.Get(thermal.DefaultProperty, "unset"); v != "unset" {
		t.Errorf("property should be cleared, got %q", v)
	}
}
