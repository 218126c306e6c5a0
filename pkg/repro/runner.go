package repro

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a shell command line and returns the first line of its
// output. A non-zero exit is an error.
type Runner func(ctx context.Context, cmdline string) (string, error)

// ShellFirstLine is the default Runner: /bin/sh -c, synchronous, first
// output line captured and stripped of surrounding whitespace.
func ShellFirstLine(ctx context.Context, cmdline string) (string, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdline)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("running %q: %w", cmdline, err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("running %q: %w", cmdline, err)
	}

	var line string
	sc := bufio.NewScanner(stdout)
	if sc.Scan() {
		line = sc.Text()
	}
	// Drain so the child never blocks on a full pipe.
	for sc.Scan() {
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("running %q: %w", cmdline, err)
	}
	return strings.TrimSpace(line), nil
}
