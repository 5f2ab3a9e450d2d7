package versions

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single version query
const DefaultTimeout = 5 * time.Second

// ExecProbe queries installed tools for their version string
type ExecProbe struct {
	Timeout time.Duration

	// lookPath and command are replaced in tests
	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewExecProbe creates a probe with the given per-tool timeout
func NewExecProbe(timeout time.Duration) *ExecProbe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecProbe{
		Timeout:  timeout,
		lookPath: exec.LookPath,
		command:  exec.CommandContext,
	}
}

// versionArgs returns the arguments that make tool print its version
func versionArgs(tool string) []string {
	switch tool {
	case "gitleaks":
		return []string{"version"}
	default:
		return []string{"--version"}
	}
}

// Version runs the tool and returns its normalized version. The boolean is
// false when the tool is missing, fails, times out or prints nothing.
func (p *ExecProbe) Version(ctx context.Context, tool string) (string, bool) {
	path, err := p.lookPath(tool)
	if err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := p.command(ctx, path, versionArgs(tool)...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", false
	}

	v := Normalize(tool, stdout.String())
	return v, v != ""
}

// Normalize reduces raw version output to the bare version string:
// "pre-commit 3.6.0" and "git version 2.43.0" both lose their prefix.
func Normalize(tool, output string) string {
	line := strings.TrimSpace(output)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	fields := strings.Fields(line)
	for len(fields) > 1 && (strings.EqualFold(fields[0], tool) || strings.EqualFold(fields[0], "version")) {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}
