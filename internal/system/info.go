// Package system describes the device thermalctl runs on.
package system

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"thermalctl/internal/sysprop"
)

// staticCache holds hardware info that never changes during a session.
var (
	staticOnce  sync.Once
	staticCache *staticInfo
)

type staticInfo struct {
	OS         string
	Hostname   string
	Platform   string
	Kernel     string
	CPUModel   string
	CPUCores   int
	CPUThreads int
	RAMTotal   uint64
}

// loadStaticInfo collects details that don't change at runtime. Called once
// and cached via sync.Once.
func loadStaticInfo(ctx context.Context) *staticInfo {
	staticOnce.Do(func() {
		s := &staticInfo{OS: runtime.GOOS}

		if hostInfo, err := host.InfoWithContext(ctx); err == nil {
			s.Hostname = hostInfo.Hostname
			s.Platform = hostInfo.Platform + " " + hostInfo.PlatformVersion
			s.Kernel = hostInfo.KernelVersion
		}

		if cpuInfos, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfos) > 0 {
			s.CPUModel = cpuInfos[0].ModelName
		}
		if n, err := cpu.CountsWithContext(ctx, false); err == nil {
			s.CPUCores = n
		}
		if n, err := cpu.CountsWithContext(ctx, true); err == nil {
			s.CPUThreads = n
		}

		if ramInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
			s.RAMTotal = ramInfo.Total
		}

		staticCache = s
	})
	return staticCache
}

// Device holds what the status screen shows about the host.
type Device struct {
	OS         string `json:"os"`
	Hostname   string `json:"hostname"`
	Platform   string `json:"platform"`
	Kernel     string `json:"kernel"`
	Model      string `json:"model,omitempty"`
	Android    string `json:"android,omitempty"`
	SoC        string `json:"soc,omitempty"`
	CPUModel   string `json:"cpuModel"`
	CPUCores   int    `json:"cpuCores"`
	CPUThreads int    `json:"cpuThreads"`
	RAMTotal   uint64 `json:"ramTotal"`
	Uptime     string `json:"uptime"`
}

// Android build properties. Off-device they read as empty.
const (
	propModel   = "ro.product.model"
	propRelease = "ro.build.version.release"
	propSoC     = "ro.board.platform"
)

// GetDevice gathers host details plus the Android build properties read from
// props. Static hardware data is cached after the first call.
func GetDevice(ctx context.Context, props sysprop.Sink) *Device {
	s := loadStaticInfo(ctx)

	d := &Device{
		OS:         s.OS,
		Hostname:   s.Hostname,
		Platform:   s.Platform,
		Kernel:     s.Kernel,
		CPUModel:   s.CPUModel,
		CPUCores:   s.CPUCores,
		CPUThreads: s.CPUThreads,
		RAMTotal:   s.RAMTotal,
	}

	if props != nil {
		d.Model = props.Get(propModel, "")
		d.Android = props.Get(propRelease, "")
		d.SoC = props.Get(propSoC, "")
	}

	if secs, err := host.UptimeWithContext(ctx); err == nil {
		d.Uptime = formatUptime(secs)
	}
	return d
}

// Name is the best display name for the device.
func (d *Device) Name() string {
	switch {
	case d.Model != "" && d.Android != "":
		return fmt.Sprintf("%s (Android %s)", d.Model, d.Android)
	case d.Model != "":
		return d.Model
	case d.Hostname != "":
		return d.Hostname
	default:
		return d.OS
	}
}

// formatUptime converts seconds into a human-readable string like "3d 5h 23m".
func formatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
