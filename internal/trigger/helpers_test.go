package trigger

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/deploybump/internal/config"
	"github.com/cameronsjo/deploybump/internal/gitops"
	"github.com/cameronsjo/deploybump/internal/ui"
)

const manifestPath = "sandbox/sandbox/applications.yaml"

// fakeGit materializes files on Clone and records every call.
type fakeGit struct {
	files    map[string]string
	ops      []string
	dir      string
	pushErrs []error
	onSync   func(dir string)
}

func (f *fakeGit) Clone(_ context.Context, url, dir string, depth int) error {
	f.ops = append(f.ops, fmt.Sprintf("clone %s %d", url, depth))
	f.dir = dir
	for rel, content := range f.files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeGit) ConfigureIdentity(_ context.Context, id gitops.Identity) error {
	f.ops = append(f.ops, fmt.Sprintf("identity %s <%s>", id.Name, id.Email))
	return nil
}

func (f *fakeGit) Add(_ context.Context, path string) error {
	f.ops = append(f.ops, "add "+filepath.ToSlash(path))
	return nil
}

func (f *fakeGit) Commit(_ context.Context, message string) error {
	f.ops = append(f.ops, "commit "+message)
	return nil
}

func (f *fakeGit) Push(_ context.Context, branch string) error {
	f.ops = append(f.ops, "push "+branch)
	if len(f.pushErrs) == 0 {
		return nil
	}
	err := f.pushErrs[0]
	f.pushErrs = f.pushErrs[1:]
	return err
}

func (f *fakeGit) Sync(_ context.Context, branch string) error {
	f.ops = append(f.ops, "sync "+branch)
	if f.onSync != nil {
		f.onSync(f.dir)
	}
	return nil
}

func (f *fakeGit) count(prefix string) int {
	n := 0
	for _, op := range f.ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeGit) manifest(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, filepath.FromSlash(manifestPath)))
	require.NoError(t, err)
	return string(data)
}

// newEnv returns the environment of a CI job bumping "demo" to 1.0.5.
// Entries in overrides replace the defaults; an empty value unsets the key.
func newEnv(t *testing.T, overrides map[string]string) *config.Env {
	t.Helper()

	vars := map[string]string{
		"DEPLOYMENT_TYPE":         "applications",
		"TRIGGER_DEPLOYMENT":      "repository: terragrunt-applications\nenvironment: sandbox/sandbox\n",
		"REPOSITORY_NAME":         "demo",
		"RELEASED_VERSION":        "1.0.5",
		"BRANCH_NAME":             "main",
		"GITHUB_APP_OWNER":        "acme",
		"GH_TOKEN":                "tok",
		"DEPLOYBUMP_WORK_DIR":     t.TempDir(),
		"DEPLOYBUMP_KEEP_WORKDIR": "true",
	}
	for k, v := range overrides {
		if v == "" {
			delete(vars, k)
			continue
		}
		vars[k] = v
	}

	env, err := config.Load(context.Background(), envconfig.MapLookuper(vars))
	require.NoError(t, err)
	return env
}

func captureUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	var buf bytes.Buffer
	restore := ui.SetOutput(&buf, &buf)
	t.Cleanup(func() {
		restore()
		color.NoColor = orig
	})
	return &buf
}

func failureLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, "Git push failed on attempt") {
			lines = append(lines, strings.TrimPrefix(strings.TrimSpace(l), "⚠ "))
		}
	}
	return lines
}
