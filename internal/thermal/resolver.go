package thermal

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"thermalctl/internal/logging"
	"thermalctl/internal/sysprop"
	"thermalctl/internal/thermal/profiles"
)

// DefaultProperty is the property read by the vendor thermal HAL.
const DefaultProperty = "vendor.thermal.mode"

// Resolver is the single writer of the thermal property. It remembers the
// last value it applied and skips writes that would not change it.
//
// State machine: current ∈ {eqs, game-perf, perf}, seeded from the sink at
// construction. OnForegroundPackageChanged and SetOverrideEnabled are the
// only transitions; each target is a pure function of the override flag and
// the foreground package's profile.
type Resolver struct {
	mu         sync.Mutex
	store      *Store
	sink       sysprop.Sink
	property   string
	current    profiles.Mode
	foreground string
	log        zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProperty overrides the property name written by the resolver.
func WithProperty(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.property = name
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// NewResolver reads the sink once to seed the debounce cache. An unset
// property counts as eqs.
func NewResolver(store *Store, sink sysprop.Sink, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		sink:     sink,
		property: DefaultProperty,
		log:      logging.With("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current = r.observe()
	r.log.Debug().Str("property", r.property).Stringer("mode", r.current).Msg("resolver initialised")
	return r
}

// OnForegroundPackageChanged applies the mode for pkg becoming the
// foreground app.
func (r *Resolver) OnForegroundPackageChanged(pkg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.foreground = pkg
	return r.apply(r.target())
}

// SetOverrideEnabled persists the override flag and applies its effect
// right away. Disabling falls back to the last foreground package's
// profile, or eqs when no package has been reported yet.
func (r *Resolver) SetOverrideEnabled(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.SetOverride(enabled); err != nil {
		return err
	}
	if enabled {
		return r.apply(profiles.ModeGamePerf)
	}
	return r.apply(r.profileMode())
}

// OverrideEnabled reports the persisted override flag.
func (r *Resolver) OverrideEnabled() bool {
	return r.store.Override()
}

// Refresh re-reads the sink into the cache and re-applies the mode for the
// last foreground package. Used when another process may have changed the
// preferences or the property.
func (r *Resolver) Refresh() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = r.observe()
	return r.apply(r.target())
}

// Current returns the last mode applied or observed.
func (r *Resolver) Current() profiles.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Foreground returns the last reported foreground package.
func (r *Resolver) Foreground() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.foreground
}

// Property returns the property name the resolver writes.
func (r *Resolver) Property() string { return r.property }

func (r *Resolver) observe() profiles.Mode {
	return profiles.ParseMode(r.sink.Get(r.property, profiles.ModeEQS.String()))
}

func (r *Resolver) target() profiles.Mode {
	if r.store.Override() {
		return profiles.ModeGamePerf
	}
	return r.profileMode()
}

func (r *Resolver) profileMode() profiles.Mode {
	if r.foreground == "" {
		return profiles.ModeEQS
	}
	return profiles.ModeFor(r.store.Profile(r.foreground))
}

// apply writes target unless it is already current; the caller holds r.mu.
func (r *Resolver) apply(target profiles.Mode) error {
	if target == r.current {
		r.log.Debug().Str("pkg", r.foreground).Stringer("mode", target).Msg("thermal mode unchanged")
		return nil
	}
	if err := r.sink.Set(r.property, target.String()); err != nil {
		return fmt.Errorf("%w: %s=%s: %w", ErrSinkWrite, r.property, target, err)
	}
	r.log.Info().
		Str("pkg", r.foreground).
		Stringer("from", r.current).
		Stringer("to", target).
		Msg("thermal mode applied")
	r.current = target
	return nil
}
