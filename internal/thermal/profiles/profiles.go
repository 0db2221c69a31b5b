package profiles

import (
	"fmt"
	"strings"
)

// Profile is the thermal classification assigned to a package.
type Profile int

const (
	Default Profile = iota
	Gaming
	Performance
)

// Mode is a value of the system-wide thermal property.
type Mode int

const (
	// ModeUnset marks a property value this package does not recognise.
	// It never equals a computed target, so the next resolution writes.
	ModeUnset Mode = iota
	ModeEQS
	ModeGamePerf
	ModePerf
)

// ProfileInfo describes a profile for listing in menus and tables.
type ProfileInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
	Profile     Profile `json:"profile"`
	Mode        string  `json:"mode"`
}

// AllProfiles returns the three profiles in menu order.
func AllProfiles() []ProfileInfo {
	return []ProfileInfo{
		DefaultInfo(),
		GamingInfo(),
		PerformanceInfo(),
	}
}

// GetProfileByID returns a profile by its ID, or nil if not found.
func GetProfileByID(id string) *ProfileInfo {
	for _, p := range AllProfiles() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// DefaultInfo is the balanced, lowest-power profile every package starts in.
func DefaultInfo() ProfileInfo {
	return ProfileInfo{
		ID:          "default",
		Name:        "Default",
		Icon:        "leaf",
		Description: "Balanced thermal limits. Used for every app that has not been classified.",
		Profile:     Default,
		Mode:        ModeEQS.String(),
	}
}

// GamingInfo relaxes thermal limits for sustained frame rates.
func GamingInfo() ProfileInfo {
	return ProfileInfo{
		ID:          "gaming",
		Name:        "Gaming",
		Icon:        "gamepad",
		Description: "Relaxed thermal limits while the app is in the foreground. Same mode as the global performance override.",
		Profile:     Gaming,
		Mode:        ModeGamePerf.String(),
	}
}

// PerformanceInfo favours peak clocks for short bursts such as benchmarks.
func PerformanceInfo() ProfileInfo {
	return ProfileInfo{
		ID:          "benchmark",
		Name:        "Benchmark",
		Icon:        "gauge",
		Description: "Peak clocks for benchmarks and heavy short workloads.",
		Profile:     Performance,
		Mode:        ModePerf.String(),
	}
}

// ModeFor maps a profile to the thermal mode applied while its package is
// in the foreground.
func ModeFor(p Profile) Mode {
	switch p {
	case Gaming:
		return ModeGamePerf
	case Performance:
		return ModePerf
	default:
		return ModeEQS
	}
}

func (p Profile) String() string {
	switch p {
	case Gaming:
		return "gaming"
	case Performance:
		return "benchmark"
	default:
		return "default"
	}
}

func (p Profile) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Info returns the catalog entry for p.
func (p Profile) Info() ProfileInfo {
	switch p {
	case Gaming:
		return GamingInfo()
	case Performance:
		return PerformanceInfo()
	default:
		return DefaultInfo()
	}
}

// ParseProfile accepts the profile IDs plus the aliases "perf" and
// "performance" for the benchmark profile.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "":
		return Default, nil
	case "gaming", "game":
		return Gaming, nil
	case "benchmark", "perf", "performance":
		return Performance, nil
	}
	return Default, fmt.Errorf("unknown profile %q", s)
}

// Property values understood by the thermal HAL.
const (
	valueEQS      = "eqs"
	valueGamePerf = "game-perf"
	valuePerf     = "perf"
)

func (m Mode) String() string {
	switch m {
	case ModeEQS:
		return valueEQS
	case ModeGamePerf:
		return valueGamePerf
	case ModePerf:
		return valuePerf
	default:
		return "unset"
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ParseMode converts a raw property value. Unknown values map to ModeUnset.
func ParseMode(s string) Mode {
	switch strings.TrimSpace(s) {
	case valueEQS:
		return ModeEQS
	case valueGamePerf:
		return ModeGamePerf
	case valuePerf:
		return ModePerf
	default:
		return ModeUnset
	}
}
