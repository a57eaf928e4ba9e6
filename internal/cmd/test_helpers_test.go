package cmd

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

	"github.com/cameronsjo/deploybump/internal/config"
	"github.com/cameronsjo/deploybump/internal/gitops"
	"github.com/cameronsjo/deploybump/internal/preflight"
	"github.com/cameronsjo/deploybump/internal/ui"
)

// resetRootCmd resets command state for test isolation and routes all
// output into the returned buffer.
func resetRootCmd(t *testing.T, vars map[string]string) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	rootCmd.SetArgs([]string{})
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	for _, cmd := range rootCmd.Commands() {
		cmd.SetContext(context.TODO())
	}
	triggerDryRun = false
	mavenDir = "."
	checkOnly = false
	envFiles = nil

	origColor := color.NoColor
	color.NoColor = true
	restoreUI := ui.SetOutput(buf, buf)

	origLookuper, origVerify, origCheck := envLookuper, verifyBinaries, checkBinaries
	origGit, origRunner := newGit, mavenRunner
	envLookuper = envconfig.MapLookuper(vars)
	verifyBinaries = func([]preflight.BinaryCheck) ([]string, error) { return nil, nil }
	checkBinaries = func([]preflight.BinaryCheck) ([]string, []string) { return nil, nil }

	t.Cleanup(func() {
		restoreUI()
		color.NoColor = origColor
		envLookuper, verifyBinaries, checkBinaries = origLookuper, origVerify, origCheck
		newGit, mavenRunner = origGit, origRunner
		envFiles = nil
	})
	return buf
}

// executeCmd executes the root command with the given args. Output is
// collected in the buffer returned by resetRootCmd.
func executeCmd(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// fakeGit materializes a manifest on Clone and records calls.
type fakeGit struct {
	files map[string]string
	ops   []string
}

func (f *fakeGit) Clone(_ context.Context, _ string, dir string, _ int) error {
	f.ops = append(f.ops, "clone")
	for rel, content := range f.files {
		path := filepath.Join(dir, rel)
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
	f.ops = append(f.ops, "identity "+id.Name)
	return nil
}

func (f *fakeGit) Add(_ context.Context, path string) error {
	f.ops = append(f.ops, "add "+path)
	return nil
}

func (f *fakeGit) Commit(_ context.Context, message string) error {
	f.ops = append(f.ops, "commit "+message)
	return nil
}

func (f *fakeGit) Push(_ context.Context, branch string) error {
	f.ops = append(f.ops, "push "+branch)
	return nil
}

func (f *fakeGit) Sync(_ context.Context, branch string) error {
	f.ops = append(f.ops, "sync "+branch)
	return nil
}

func (f *fakeGit) String() string {
	return fmt.Sprintf("[%s]", strings.Join(f.ops, ", "))
}

// useFakeGit makes the trigger command use g.
func useFakeGit(g *fakeGit) {
	newGit = func(*config.Env) gitops.Git { return g }
}

// triggerVars is the environment of a CI job bumping demo to 1.0.5.
func triggerVars(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		"DEPLOYMENT_TYPE":     "applications",
		"TRIGGER_DEPLOYMENT":  "repository: terragrunt-applications\nenvironment: sandbox/sandbox\n",
		"REPOSITORY_NAME":     "demo",
		"RELEASED_VERSION":    "1.0.5",
		"BRANCH_NAME":         "main",
		"GITHUB_APP_OWNER":    "acme",
		"GH_TOKEN":            "tok",
		"DEPLOYBUMP_WORK_DIR": t.TempDir(),
	}
}
