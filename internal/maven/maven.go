// Package maven assembles and runs Maven wrapper command lines from CI
// environment variables.
package maven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"

	"github.com/cameronsjo/deploybump/internal/ui"
)

// ErrMissingGoal indicates the goal is blank.
var ErrMissingGoal = errors.New("missing required environment variable MAVEN_GOAL")

// Wrapper is the Maven wrapper script invoked from the project root.
const Wrapper = "./mvnw"

// Build flags appended for release and release-candidate branches.
const (
	ReleaseFlag   = "-Dbuild.release"
	CandidateFlag = "-Dbuild.candidate"
)

// Env holds the Maven inputs. Branch flags are compared against the
// literal "true" as CI systems export them.
type Env struct {
	Goal                     string `env:"MAVEN_GOAL, required"`
	DefaultArguments         string `env:"DEFAULT_ARGUMENTS"`
	ExtraArguments           string `env:"EXTRA_ARGUMENTS"`
	MavenExtraArguments      string `env:"MAVEN_EXTRA_ARGUMENTS"`
	IsMainBranch             string `env:"IS_MAIN_BRANCH"`
	IsReleaseBranch          string `env:"IS_RELEASE_BRANCH"`
	IsReleaseCandidateBranch string `env:"IS_RELEASE_CANDIDATE_BRANCH"`
}

// Load reads Env from l. An unset MAVEN_GOAL fails with
// envconfig.ErrMissingRequired.
func Load(ctx context.Context, l envconfig.Lookuper) (*Env, error) {
	var env Env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("load maven environment: %w", err)
	}
	return &env, nil
}

// Command assembles the wrapper command line.
func Command(env *Env) (string, error) {
	if strings.TrimSpace(env.Goal) == "" {
		return "", ErrMissingGoal
	}

	parts := []string{Wrapper, env.Goal}
	if env.DefaultArguments != "" {
		parts = append(parts, env.DefaultArguments)
	}

	extra := env.ExtraArguments
	if extra == "" {
		extra = env.MavenExtraArguments
	}
	if extra != "" {
		parts = append(parts, extra)
	}

	if env.IsMainBranch == "true" || env.IsReleaseBranch == "true" {
		parts = append(parts, ReleaseFlag)
	}
	if env.IsReleaseCandidateBranch == "true" {
		parts = append(parts, CandidateFlag)
	}

	return strings.Join(parts, " "), nil
}

// Runner executes a process. It matches gitops.Runner.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// StreamRunner runs processes with their output attached to the given
// writers instead of buffering it. Nil writers use the process's own.
type StreamRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = StreamRunner{}

// Run executes name and always returns nil output.
func (r StreamRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	//nolint:gosec // G204: the command line is the point of this package
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return nil, nil
}

// Run prints the command for env and executes it through sh in dir.
func Run(ctx context.Context, r Runner, dir string, env *Env) error {
	command, err := Command(env)
	if err != nil {
		return err
	}

	ui.Command("%s", command)
	clog.FromContext(ctx).Infof("Running maven goal %s", env.Goal)

	if _, err := r.Run(ctx, dir, "sh", "-c", command); err != nil {
		return fmt.Errorf("running %s: %w", command, err)
	}
	return nil
}
