package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command creates a context-aware exec.Cmd. On Windows the child gets the
// CREATE_NO_WINDOW flag so no console window flashes up.
// The command will be killed when the context deadline is exceeded.
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	c := exec.CommandContext(ctx, name, args...)
	hide(c)
	return c
}

// Output runs the command and returns its trimmed combined output.
func Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := Command(ctx, name, args...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed == "" {
			return "", fmt.Errorf("%s failed: %w", name, err)
		}
		return trimmed, fmt.Errorf("%s failed: %w (output: %s)", name, err, trimmed)
	}
	return trimmed, nil
}
