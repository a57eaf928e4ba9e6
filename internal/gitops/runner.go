package gitops

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/chainguard-dev/clog"
)

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// Run executes name with args in dir and returns the combined output.
// Errors include the output so git's diagnostics reach the user.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	clog.FromContext(ctx).Debugf("Running %s", RedactCommand(name, args))

	//nolint:gosec // G204: arguments come from validated configuration
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s failed: %w: %s", RedactCommand(name, args[:min(len(args), 1)]), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// RedactCommand renders a command line with URL passwords masked.
func RedactCommand(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, RedactURL(a))
	}
	return strings.Join(parts, " ")
}

// RedactURL masks the password of a URL. Other strings are returned as is.
func RedactURL(s string) string {
	if !strings.Contains(s, "://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	return u.Redacted()
}
