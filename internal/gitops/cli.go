package gitops

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chainguard-dev/clog"
)

// CLI implements Git by running the git binary.
type CLI struct {
	runner Runner
	dir    string
}

// NewCLI creates a CLI backend. A nil runner uses ExecRunner.
func NewCLI(runner Runner) *CLI {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &CLI{runner: runner}
}

// Dir returns the working tree created by Clone.
func (g *CLI) Dir() string {
	return g.dir
}

// Clone runs git clone into dir.
func (g *CLI) Clone(ctx context.Context, url, dir string, depth int) error {
	args := []string{"clone"}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	args = append(args, url, dir)

	clog.FromContext(ctx).Infof("Cloning %s into %s", RedactURL(url), dir)
	if _, err := g.runner.Run(ctx, "", "git", args...); err != nil {
		return fmt.Errorf("git clone: %w", err)
	}

	g.dir = dir
	return nil
}

// ConfigureIdentity sets user.name and user.email in the repository config.
func (g *CLI) ConfigureIdentity(ctx context.Context, id Identity) error {
	if err := g.git(ctx, "config", "user.name", id.Name); err != nil {
		return fmt.Errorf("git config user.name: %w", err)
	}
	if err := g.git(ctx, "config", "user.email", id.Email); err != nil {
		return fmt.Errorf("git config user.email: %w", err)
	}
	return nil
}

// Add stages path.
func (g *CLI) Add(ctx context.Context, path string) error {
	if err := g.git(ctx, "add", path); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

// Commit records the staged changes.
func (g *CLI) Commit(ctx context.Context, message string) error {
	if err := g.git(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

// Push pushes HEAD to branch on origin and sets it as upstream.
func (g *CLI) Push(ctx context.Context, branch string) error {
	if g.dir == "" {
		return ErrNotCloned
	}

	out, err := g.runner.Run(ctx, g.dir, "git", "push", "--set-upstream", "origin", "HEAD:"+branch)
	if err != nil {
		if isRejection(string(out)) || isRejection(err.Error()) {
			return fmt.Errorf("%w: %w", ErrPushRejected, err)
		}
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}

// Sync fetches branch and hard-resets the working tree to it.
func (g *CLI) Sync(ctx context.Context, branch string) error {
	if err := g.git(ctx, "fetch", "--depth", "1", "origin", branch); err != nil {
		return fmt.Errorf("git fetch: %w", err)
	}
	if err := g.git(ctx, "reset", "--hard", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("git reset: %w", err)
	}
	return nil
}

func (g *CLI) git(ctx context.Context, args ...string) error {
	if g.dir == "" {
		return ErrNotCloned
	}
	_, err := g.runner.Run(ctx, g.dir, "git", args...)
	return err
}

// isRejection reports whether git output describes a refused ref update.
func isRejection(output string) bool {
	for _, marker := range []string{"[rejected]", "non-fast-forward", "fetch first", "[remote rejected]"} {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}
