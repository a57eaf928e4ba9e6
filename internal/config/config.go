// Package config loads deploybump's settings from the environment and
// resolves them into a deployment request.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Git backends.
const (
	// BackendCLI drives the git binary.
	BackendCLI = "cli"

	// BackendGoGit uses the in-process go-git implementation.
	BackendGoGit = "gogit"
)

// Push strategies.
const (
	// StrategyRetry re-pushes the same commit.
	StrategyRetry = "retry"

	// StrategyRebase replays the version bump on top of the remote branch
	// after a rejected push.
	StrategyRebase = "rebase"
)

// ErrInvalidSetting indicates a tuning variable has an unusable value.
var ErrInvalidSetting = errors.New("invalid setting")

// Env holds every input read from the environment. It is loaded once per
// invocation and never modified afterwards.
//
// Inputs whose absence is reported separately from emptiness are pointers
// that stay nil when the variable is unset.
type Env struct {
	DeploymentType    *string
	TriggerDeployment *string
	RepositoryName    *string
	ReleasedVersion   *string
	BranchName        *string

	// AppOwner is the organization that owns the deployment repository.
	AppOwner string `env:"GITHUB_APP_OWNER"`
	// Token is the access token used for clone and push.
	Token string `env:"GH_TOKEN"`
	// GitHubHost is the git host serving the deployment repository.
	GitHubHost string `env:"GITHUB_HOST, default=github.com"`

	// GitBackend selects the version-control implementation.
	GitBackend string `env:"DEPLOYBUMP_GIT_BACKEND, default=cli"`
	// PushAttempts is the total number of push attempts.
	PushAttempts int `env:"DEPLOYBUMP_PUSH_ATTEMPTS, default=3"`
	// PushRetryDelay is the pause between push attempts.
	PushRetryDelay time.Duration `env:"DEPLOYBUMP_PUSH_RETRY_DELAY, default=0s"`
	// PushStrategy decides what happens between attempts.
	PushStrategy string `env:"DEPLOYBUMP_PUSH_STRATEGY, default=retry"`
	// CommitMessage overrides the commit message template.
	CommitMessage string `env:"DEPLOYBUMP_COMMIT_MESSAGE"`
	// WorkDir is where deployment repositories are cloned. Empty means the
	// system temp dir.
	WorkDir string `env:"DEPLOYBUMP_WORK_DIR"`
	// KeepWorkDir leaves the clone on disk after the run.
	KeepWorkDir bool `env:"DEPLOYBUMP_KEEP_WORKDIR, default=false"`
}

// Logging holds log output settings.
type Logging struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Format string `env:"LOG_FORMAT, default=text"`
}

// Load reads Env from l and validates the tuning variables.
// Request inputs are validated later by Resolve.
func Load(ctx context.Context, l envconfig.Lookuper) (*Env, error) {
	var env Env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	env.DeploymentType = lookup(l, "DEPLOYMENT_TYPE")
	env.TriggerDeployment = lookup(l, "TRIGGER_DEPLOYMENT")
	env.RepositoryName = lookup(l, "REPOSITORY_NAME")
	env.ReleasedVersion = lookup(l, "RELEASED_VERSION")
	env.BranchName = lookup(l, "BRANCH_NAME")

	if err := env.validate(); err != nil {
		return nil, err
	}

	return &env, nil
}

// lookup returns nil when key is unset, and a pointer to its value
// (possibly empty) otherwise.
func lookup(l envconfig.Lookuper, key string) *string {
	v, ok := l.Lookup(key)
	if !ok {
		return nil
	}
	return &v
}

// LoadLogging reads Logging from l.
func LoadLogging(ctx context.Context, l envconfig.Lookuper) (*Logging, error) {
	var cfg Logging
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("load logging settings: %w", err)
	}
	return &cfg, nil
}

func (e *Env) validate() error {
	switch e.GitBackend {
	case BackendCLI, BackendGoGit:
	default:
		return fmt.Errorf("%w: DEPLOYBUMP_GIT_BACKEND %q (supported: %s, %s)", ErrInvalidSetting, e.GitBackend, BackendCLI, BackendGoGit)
	}

	switch e.PushStrategy {
	case StrategyRetry, StrategyRebase:
	default:
		return fmt.Errorf("%w: DEPLOYBUMP_PUSH_STRATEGY %q (supported: %s, %s)", ErrInvalidSetting, e.PushStrategy, StrategyRetry, StrategyRebase)
	}

	if e.PushAttempts < 1 {
		return fmt.Errorf("%w: DEPLOYBUMP_PUSH_ATTEMPTS must be at least 1, got %d", ErrInvalidSetting, e.PushAttempts)
	}

	if e.PushRetryDelay < 0 {
		return fmt.Errorf("%w: DEPLOYBUMP_PUSH_RETRY_DELAY cannot be negative", ErrInvalidSetting)
	}

	return nil
}
