package monitor

import (
	"context"
	"testing"
	"time"
)

func TestGetSnapshot(t *testing.T) {
	snapshot, err := GetSnapshot(context.Background())
	if err != nil {
		t.Fatalf("GetSnapshot returned error: %v", err)
	}
	if snapshot == nil {
		t.Fatal("GetSnapshot returned nil")
	}

	now := time.Now().Unix()
	if snapshot.Timestamp < now-10 || snapshot.Timestamp > now+10 {
		t.Errorf("Timestamp %d is too far from current time %d", snapshot.Timestamp, now)
	}
	if snapshot.CPUUsage < 0 || snapshot.CPUUsage > 100 {
		t.Errorf("CPUUsage out of range [0, 100]: %f", snapshot.CPUUsage)
	}
	if snapshot.RAMUsage < 0 || snapshot.RAMUsage > 100 {
		t.Errorf("RAMUsage out of range [0, 100]: %f", snapshot.RAMUsage)
	}
	for _, s := range snapshot.Sensors {
		if s.Temp <= 0 || s.Temp >= 150 {
			t.Errorf("sensor %q out of range: %f", s.Key, s.Temp)
		}
	}

	t.Logf("Snapshot: cpu=%.1f%%, ram=%.1f%%, sensors=%d",
		snapshot.CPUUsage, snapshot.RAMUsage, len(snapshot.Sensors))
}

func TestHottest(t *testing.T) {
	var empty *Snapshot
	if _, ok := empty.Hottest(); ok {
		t.Error("nil snapshot should have no hottest sensor")
	}

	s := &Snapshot{Sensors: []Sensor{
		{Key: "battery", Temp: 31},
		{Key: "cpu-0-0", Temp: 58.5},
		{Key: "gpu0", Temp: 47},
	}}
	hot, ok := s.Hottest()
	if !ok {
		t.Fatal("expected a hottest sensor")
	}
	if hot.Key != "cpu-0-0" {
		t.Errorf("expected cpu-0-0, got %q", hot.Key)
	}
}

func TestCheckThermalThrottling(t *testing.T) {
	readings := []Sensor{
		{Key: "cpu-0-0-usr", Temp: 90},
		{Key: "gpu0-usr", Temp: 70},
		{Key: "battery", Temp: 46, Critical: 45},
		{Key: "skin-therm", Temp: 40, Critical: 55},
	}

	alerts := CheckThermalThrottling(readings, 0)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d: %+v", len(alerts), alerts)
	}

	if alerts[0].Component != "CPU" || alerts[0].Threshold != DefaultThreshold {
		t.Errorf("unexpected first alert %+v", alerts[0])
	}
	if alerts[1].Component != "Battery" || alerts[1].Threshold != 45 {
		t.Errorf("expected the sensor's own critical point to apply, got %+v", alerts[1])
	}
	if alerts[0].Message == "" {
		t.Error("alert message is empty")
	}
}

func TestComponentName(t *testing.T) {
	cases := map[string]string{
		"coretemp_package_id_0": "CPU",
		"cpu-1-2-usr":           "CPU",
		"gpuss-0-usr":           "GPU",
		"battery":               "Battery",
		"skin-msm-therm":        "Skin",
		"pm8150b-ibat-lvl0":     "pm8150b-ibat-lvl0",
		"":                      "Unknown",
	}
	for key, want := range cases {
		if got := componentName(key); got != want {
			t.Errorf("componentName(%q): expected %q, got %q", key, want, got)
		}
	}
}

func TestRoundFloat(t *testing.T) {
	if got := roundFloat(45.678, 1); got != 45.7 {
		t.Errorf("expected 45.7, got %v", got)
	}
	if got := roundFloat(12.344, 2); got != 12.34 {
		t.Errorf("expected 12.34, got %v", got)
	}
}
