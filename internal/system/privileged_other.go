//go:build !unix && !windows

package system

func IsPrivileged() bool { return false }
