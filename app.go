package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"thermalctl/internal/apps"
	"thermalctl/internal/backup"
	"thermalctl/internal/config"
	"thermalctl/internal/logging"
	"thermalctl/internal/monitor"
	"thermalctl/internal/prefs"
	"thermalctl/internal/sysprop"
	"thermalctl/internal/system"
	"thermalctl/internal/thermal"
	"thermalctl/internal/thermal/profiles"
	"thermalctl/internal/watcher"
)

// App wires the preference file, the profile store, the property sink and
// the resolver together for the commands and the menu.
type App struct {
	cfg      config.Config
	prefs    *prefs.FileStore
	store    *thermal.Store
	sink     sysprop.Sink
	backup   *backup.Backup
	resolver *thermal.Resolver
}

func NewApp(cfg config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create home %s: %w", cfg.Home, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.PrefsPath()), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create preferences dir: %w", err)
	}

	sink, err := newSink(cfg)
	if err != nil {
		return nil, err
	}

	fs := prefs.NewFileStore(cfg.PrefsPath())
	store := thermal.NewStore(fs)
	b := backup.New(filepath.Join(cfg.Home, "backups"))
	return &App{
		cfg:      cfg,
		prefs:    fs,
		store:    store,
		sink:     sink,
		backup:   b,
		resolver: thermal.NewResolver(store, originalSink{Sink: sink, backup: b}, thermal.WithProperty(cfg.Property)),
	}, nil
}

// originalSink records a property's value in the backup before the first
// write to it.
type originalSink struct {
	sysprop.Sink
	backup *backup.Backup
}

func (s originalSink) Set(name, value string) error {
	if err := s.backup.SaveProperty(s.Sink, name); err != nil {
		logging.Logger.Warn().Err(err).Str("property", name).Msg("could not record original property value")
	}
	return s.Sink.Set(name, value)
}

func newSink(cfg config.Config) (sysprop.Sink, error) {
	switch cfg.Sink.Kind {
	case config.SinkSetprop:
		return sysprop.Setprop{}, nil
	case config.SinkDir:
		dir := cfg.SinkDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create property dir %s: %w", dir, err)
		}
		return sysprop.Dir{Root: dir}, nil
	case config.SinkMemory:
		return sysprop.NewMemory(nil), nil
	}
	return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
}

// ============================================================
// Profiles
// ============================================================

func (a *App) ListProfiles() []profiles.ProfileInfo {
	return profiles.AllProfiles()
}

// GetProfile returns the profile assigned to pkg.
func (a *App) GetProfile(pkg string) (profiles.ProfileInfo, error) {
	if err := thermal.ValidatePackage(pkg); err != nil {
		return profiles.ProfileInfo{}, err
	}
	return a.store.Profile(pkg).Info(), nil
}

// SetProfile assigns the profile named by id (or one of its aliases) to pkg.
func (a *App) SetProfile(pkg, id string) (profiles.ProfileInfo, error) {
	p, err := profiles.ParseProfile(id)
	if err != nil {
		return profiles.ProfileInfo{}, err
	}
	if err := a.store.SetProfile(pkg, p); err != nil {
		return profiles.ProfileInfo{}, err
	}
	return p.Info(), nil
}

// Classified lists every package that is not in the default profile.
func (a *App) Classified() []thermal.Entry {
	return a.store.Table().Entries()
}

// TableValue returns the stored table in its serialized form.
func (a *App) TableValue() (string, error) {
	return a.store.Value()
}

// ============================================================
// Override & resolver
// ============================================================

func (a *App) GetOverride() bool {
	return a.resolver.OverrideEnabled()
}

func (a *App) SetOverride(enabled bool) error {
	return a.resolver.SetOverrideEnabled(enabled)
}

// Apply resolves and writes the thermal mode as if pkg had just come to the
// foreground.
func (a *App) Apply(pkg string) (profiles.Mode, error) {
	if err := a.resolver.OnForegroundPackageChanged(pkg); err != nil {
		return a.resolver.Current(), err
	}
	return a.resolver.Current(), nil
}

// Restore puts back the property values seen before thermalctl first wrote
// them. A running watch daemon will write again on the next foreground
// change.
func (a *App) Restore() ([]backup.PropertyBackup, error) {
	if !a.backup.HasBackup() {
		return nil, nil
	}
	return a.backup.RestoreAll(a.sink)
}

// ============================================================
// Running apps
// ============================================================

// RunningApp is a running package together with its assigned profile.
type RunningApp struct {
	apps.App
	Profile profiles.Profile `json:"profile"`
}

func (a *App) RunningApps(ctx context.Context) ([]RunningApp, error) {
	running, err := apps.Running(ctx)
	if err != nil {
		return nil, err
	}
	table := a.store.Table()
	out := make([]RunningApp, 0, len(running))
	for _, r := range running {
		out = append(out, RunningApp{App: r, Profile: table.Lookup(r.Package)})
	}
	return out, nil
}

// ============================================================
// Status
// ============================================================

// Status is the state shown by the status command and the menu.
type Status struct {
	Property   string                 `json:"property"`
	Mode       profiles.Mode          `json:"mode"`
	Override   bool                   `json:"override"`
	Classified int                    `json:"classified"`
	Device     *system.Device         `json:"device,omitempty"`
	Snapshot   *monitor.Snapshot      `json:"snapshot,omitempty"`
	Alerts     []monitor.ThermalAlert `json:"alerts,omitempty"`
}

// Status reports the thermal property as last observed and, when
// withSensors is set, the device description and a temperature snapshot
// with throttling alerts. It never writes the property.
func (a *App) Status(ctx context.Context, withSensors bool) (*Status, error) {
	st := &Status{
		Property:   a.resolver.Property(),
		Mode:       a.resolver.Current(),
		Override:   a.resolver.OverrideEnabled(),
		Classified: a.store.Table().Len(),
	}
	if !withSensors {
		return st, nil
	}
	st.Device = system.GetDevice(ctx, a.sink)
	snap, err := monitor.GetSnapshot(ctx)
	if err != nil {
		return st, err
	}
	st.Snapshot = snap
	st.Alerts = monitor.CheckThermalThrottling(snap.Sensors, monitor.DefaultThreshold)
	return st, nil
}

// ============================================================
// Daemon
// ============================================================

// Watch follows foreground changes until ctx is cancelled. Package names
// are read from in when it is non-nil, otherwise dumpsys is polled every
// interval. Edits to the preferences file by other processes re-apply the
// mode for the current foreground package.
func (a *App) Watch(ctx context.Context, in io.Reader, interval time.Duration) error {
	log := logging.With("daemon")

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	defer func() {
		cancel()
		<-done
	}()

	go func() {
		defer close(done)
		err := watcher.OnFileChange(ctx, a.prefs.Path(), func() {
			if err := a.resolver.Refresh(); err != nil {
				log.Warn().Err(err).Msg("refresh after preferences change failed")
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("preferences watch stopped")
		}
	}()

	log.Info().
		Str("property", a.resolver.Property()).
		Stringer("mode", a.resolver.Current()).
		Bool("override", a.resolver.OverrideEnabled()).
		Msg("watching foreground app")

	if in != nil {
		return watcher.Lines(ctx, in, a.resolver)
	}
	return watcher.New(watcher.Dumpsys{}, a.resolver, interval).Run(ctx)
}
