// Package apps enumerates application packages that can be given a thermal
// profile. On Android every app process is named after its package, so the
// running processes are a good stand-in for the launcher app list.
package apps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// App is one running application package.
type App struct {
	Package   string  `json:"package"`
	PIDs      []int32 `json:"pids"`
	MemoryRSS uint64  `json:"memoryRss"`
}

// Running lists running application packages, sorted by name. Processes
// that disappear mid-scan or whose command line cannot be read are skipped.
func Running(ctx context.Context) ([]App, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	byPkg := make(map[string]*App)
	for _, p := range procs {
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			continue
		}
		pkg, ok := PackageFromCmdline(cmdline)
		if !ok {
			continue
		}

		app := byPkg[pkg]
		if app == nil {
			app = &App{Package: pkg}
			byPkg[pkg] = app
		}
		app.PIDs = append(app.PIDs, p.Pid)
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			app.MemoryRSS += mi.RSS
		}
	}

	out := make([]App, 0, len(byPkg))
	for _, a := range byPkg {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out, nil
}

// PackageFromCmdline returns the package an app process belongs to. The
// first argument is the process name; secondary processes carry a
// ":<name>" suffix (com.example:remote).
func PackageFromCmdline(cmdline string) (string, bool) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return "", false
	}
	name, _, _ := strings.Cut(fields[0], ":")
	if !IsPackageName(name) {
		return "", false
	}
	return name, true
}

// IsPackageName reports whether s looks like a Java-style package name:
// at least two dot-separated segments, each starting with a letter and
// containing only letters, digits and underscores.
func IsPackageName(s string) bool {
	segments := strings.Split(s, ".")
	if len(segments) < 2 {
		return false
	}
	for _, seg := range segments {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case i > 0 && (r >= '0' && r <= '9' || r == '_'):
			default:
				return false
			}
		}
	}
	return true
}
