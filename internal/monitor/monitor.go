package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"
)

// Sensor is one temperature reading in Celsius.
type Sensor struct {
	Key      string  `json:"key"`
	Temp     float64 `json:"temp"`
	Critical float64 `json:"critical"`
}

// Snapshot holds a point-in-time view of load and temperatures.
type Snapshot struct {
	Timestamp int64    `json:"timestamp"`
	CPUUsage  float64  `json:"cpuUsage"`
	RAMUsage  float64  `json:"ramUsage"`
	Sensors   []Sensor `json:"sensors"`
}

// ThermalAlert represents a thermal throttling warning for a sensor.
type ThermalAlert struct {
	Component string  `json:"component"`
	Temp      float64 `json:"temp"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

// DefaultThreshold is used for sensors that do not report a critical trip
// point.
const DefaultThreshold = 85.0

// GetSnapshot gathers CPU load, memory use and all readable temperature
// sensors. Each part is best effort; a missing sensor leaves its field zero.
func GetSnapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{
		Timestamp: time.Now().Unix(),
	}

	// CPU usage (sampled over 200ms)
	cpuPercents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err == nil && len(cpuPercents) > 0 {
		snapshot.CPUUsage = roundFloat(cpuPercents[0], 2)
	}

	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err == nil {
		snapshot.RAMUsage = roundFloat(vmStat.UsedPercent, 2)
	}

	// gopsutil returns partial readings together with a warnings error.
	temps, _ := sensors.TemperaturesWithContext(ctx)
	for _, t := range temps {
		if t.Temperature <= 0 || t.Temperature >= 150 {
			continue
		}
		snapshot.Sensors = append(snapshot.Sensors, Sensor{
			Key:      t.SensorKey,
			Temp:     roundFloat(t.Temperature, 1),
			Critical: t.Critical,
		})
	}
	sort.Slice(snapshot.Sensors, func(i, j int) bool {
		return snapshot.Sensors[i].Temp > snapshot.Sensors[j].Temp
	})

	return snapshot, nil
}

// Hottest returns the warmest sensor, or false if none were read.
func (s *Snapshot) Hottest() (Sensor, bool) {
	if s == nil || len(s.Sensors) == 0 {
		return Sensor{}, false
	}
	hottest := s.Sensors[0]
	for _, sn := range s.Sensors[1:] {
		if sn.Temp > hottest.Temp {
			hottest = sn
		}
	}
	return hottest, true
}

// CheckThermalThrottling compares readings against their critical trip
// point, or against threshold when the sensor reports none, and returns an
// alert for each one at or above it.
func CheckThermalThrottling(readings []Sensor, threshold float64) []ThermalAlert {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var alerts []ThermalAlert
	for _, r := range readings {
		limit := threshold
		if r.Critical > 0 {
			limit = r.Critical
		}
		if r.Temp < limit {
			continue
		}
		alerts = append(alerts, ThermalAlert{
			Component: componentName(r.Key),
			Temp:      r.Temp,
			Threshold: limit,
			Message: fmt.Sprintf("%s temperature is %.1f°C, exceeding the %.0f°C threshold. Thermal throttling may occur.",
				componentName(r.Key), r.Temp, limit),
		})
	}
	return alerts
}

// componentName shortens kernel sensor keys such as "cpu-0-0-usr_input"
// or "coretemp_package_id_0" to a display label.
func componentName(key string) string {
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "gpu"):
		return "GPU"
	case strings.Contains(lower, "cpu"), strings.Contains(lower, "core"), strings.Contains(lower, "package"):
		return "CPU"
	case strings.Contains(lower, "battery"):
		return "Battery"
	case strings.Contains(lower, "skin"):
		return "Skin"
	case key == "":
		return "Unknown"
	default:
		return key
	}
}

// roundFloat rounds a float64 to the specified number of decimal places.
func roundFloat(val float64, places int) float64 {
	factor := 1.0
	for i := 0; i < places; i++ {
		factor *= 10
	}
	return float64(int(val*factor+0.5)) / factor
}
