package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"thermalctl/internal/cmd"
)

// Dumpsys reads the resumed activity from `dumpsys activity activities`.
type Dumpsys struct {
	Timeout time.Duration
}

func (d Dumpsys) Foreground(ctx context.Context) (string, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := cmd.Output(ctx, "dumpsys", "activity", "activities")
	if err != nil {
		return "", err
	}
	pkg, ok := ParseResumedActivity(out)
	if !ok {
		return "", fmt.Errorf("no resumed activity in dumpsys output")
	}
	return pkg, nil
}

// ParseResumedActivity extracts the package of the resumed activity from
// dumpsys output. Newer releases print "topResumedActivity=ActivityRecord{…}",
// older ones "mResumedActivity: ActivityRecord{…}"; the component token
// inside the record is "<package>/<activity>".
func ParseResumedActivity(out string) (string, bool) {
	var fallback string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		top := strings.HasPrefix(line, "topResumedActivity")
		if !top && !strings.HasPrefix(line, "mResumedActivity") && !strings.HasPrefix(line, "ResumedActivity") {
			continue
		}
		pkg := componentPackage(line)
		if pkg == "" {
			continue
		}
		if top {
			return pkg, true
		}
		if fallback == "" {
			fallback = pkg
		}
	}
	return fallback, fallback != ""
}

func componentPackage(line string) string {
	start := strings.Index(line, "{")
	if start < 0 {
		return ""
	}
	for _, field := range strings.Fields(line[start+1:]) {
		if pkg, _, ok := strings.Cut(field, "/"); ok && pkg != "" {
			return pkg
		}
	}
	return ""
}
