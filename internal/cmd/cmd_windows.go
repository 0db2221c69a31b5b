package cmd

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// hide keeps getprop-style helpers from flashing a console window.
func hide(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NO_WINDOW}
}
