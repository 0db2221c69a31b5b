//go:build unix

package system

import "golang.org/x/sys/unix"

// IsPrivileged reports whether the process runs as root. Writing vendor.*
// properties through setprop needs it.
func IsPrivileged() bool {
	return unix.Geteuid() == 0
}
