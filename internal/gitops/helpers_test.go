package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type call struct {
	dir  string
	name string
	args []string
}

func (c call) String() string {
	return c.name + " " + strings.Join(c.args, " ")
}

type response struct {
	out string
	err error
}

// recordingRunner records commands and answers them by git subcommand.
type recordingRunner struct {
	calls     []call
	responses map[string]response
}

func (r *recordingRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, call{dir: dir, name: name, args: args})
	if len(args) > 0 {
		if resp, ok := r.responses[args[0]]; ok {
			return []byte(resp.out), resp.err
		}
	}
	return nil, nil
}

func (r *recordingRunner) commands() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.String())
	}
	return out
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

// newOrigin creates a bare repository on branch main holding manifest.yaml.
// It returns a file:// URL for the origin.
func newOrigin(t *testing.T, content string) string {
	t.Helper()
	requireGit(t)

	root := t.TempDir()
	bare := filepath.Join(root, "origin.git")
	seed := filepath.Join(root, "seed")

	runGit(t, root, "init", "--bare", "--initial-branch=main", bare)
	runGit(t, root, "init", "--initial-branch=main", seed)
	require.NoError(t, os.WriteFile(filepath.Join(seed, "manifest.yaml"), []byte(content), 0o644))
	runGit(t, seed, "add", "manifest.yaml")
	runGit(t, seed, "commit", "-m", "initial")
	runGit(t, seed, "push", bare, "HEAD:main")

	return "file://" + bare
}
