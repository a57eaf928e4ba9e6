// Package trigger bumps a released component's version in a deployment
// repository.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/cameronsjo/deploybump/internal/config"
	"github.com/cameronsjo/deploybump/internal/gitops"
	"github.com/cameronsjo/deploybump/internal/manifest"
	"github.com/cameronsjo/deploybump/internal/ui"
)

// Outcome describes how a run ended.
type Outcome int

const (
	// Failed is returned alongside every error.
	Failed Outcome = iota
	// Updated means the new version was committed and pushed.
	Updated
	// BranchMismatch means the branch is not allowed to trigger deployments.
	BranchMismatch
	// NotApplicable means the manifest has no entry for the component.
	NotApplicable
	// Unchanged means the entry opted out or already holds the version.
	Unchanged
	// DryRun means the entry would have been updated.
	DryRun
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case BranchMismatch:
		return "branch-mismatch"
	case NotApplicable:
		return "not-applicable"
	case Unchanged:
		return "unchanged"
	case DryRun:
		return "dry-run"
	default:
		return "failed"
	}
}

// Trigger runs the version bump workflow.
type Trigger struct {
	git    gitops.Git
	dryRun bool
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithGit sets the version-control implementation. By default it is chosen
// from the environment by NewGit.
func WithGit(g gitops.Git) Option {
	return func(t *Trigger) {
		t.git = g
	}
}

// WithDryRun stops the run before anything is written or pushed.
func WithDryRun(dryRun bool) Option {
	return func(t *Trigger) {
		t.dryRun = dryRun
	}
}

// New creates a Trigger.
func New(opts ...Option) *Trigger {
	t := &Trigger{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewGit returns the backend selected by DEPLOYBUMP_GIT_BACKEND.
func NewGit(env *config.Env) gitops.Git {
	if env.GitBackend == config.BackendGoGit {
		return gitops.NewGoGit(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: env.Token}))
	}
	return gitops.NewCLI(gitops.ExecRunner{})
}

// Run resolves the request in env and carries it through to a pushed commit.
// Informational endings are reported with a nil error; see Outcome.
func (t *Trigger) Run(ctx context.Context, env *config.Env) (Outcome, error) {
	log := clog.FromContext(ctx).With("run", uuid.New().String()[:8])
	ctx = clog.WithLogger(ctx, log)

	req, err := config.Resolve(env)
	if err != nil {
		return Failed, err
	}
	log = log.With("repository", req.Repository, "component", req.RepositoryName, "type", string(req.DeploymentType))
	ctx = clog.WithLogger(ctx, log)

	if !req.Applicable {
		ui.Info("Branch '%s' does not match the configured branch pattern of %s", req.BranchName, req.BranchPattern)
		return BranchMismatch, nil
	}

	message, err := gitops.RenderMessage(env.CommitMessage, gitops.MessageData{
		RepositoryName:  req.RepositoryName,
		ReleasedVersion: req.ReleasedVersion,
		Environment:     req.Environment,
		DeploymentType:  string(req.DeploymentType),
	})
	if err != nil {
		return Failed, err
	}

	g := t.git
	if g == nil {
		g = NewGit(env)
	}

	fetcher := gitops.NewFetcher(g, env.GitHubHost, gitops.Credentials{
		Owner: env.AppOwner,
		Token: env.Token,
	}, env.WorkDir)

	ui.Step(1, "Fetching %s/%s", env.AppOwner, req.Repository)
	dir, err := fetcher.Fetch(ctx, req.Repository)
	if err != nil {
		return Failed, err
	}
	if env.KeepWorkDir {
		defer ui.Info("Kept working directory %s", dir)
	} else {
		defer gitops.RemoveWorkDir(ctx, dir)
	}

	return t.apply(ctx, g, env, req, dir, message)
}

func (t *Trigger) apply(ctx context.Context, g gitops.Git, env *config.Env, req *config.DeploymentRequest, dir, message string) (Outcome, error) {
	relPath := manifest.RelPath(req.Environment, req.DeploymentType)
	ui.Step(2, "Updating %s in %s", req.RepositoryName, relPath)

	doc, entry, err := manifest.Locate(dir, req.Environment, req.DeploymentType, req.RepositoryName)
	switch {
	case errors.Is(err, manifest.ErrSectionNotFound):
		ui.Warning("Manifest %s is invalid. It does not contain the key '%s'", relPath, req.DeploymentType)
		return NotApplicable, nil
	case errors.Is(err, manifest.ErrEntryNotFound):
		ui.Warning("Repository '%s' not found in %s", req.RepositoryName, relPath)
		return NotApplicable, nil
	case errors.Is(err, manifest.ErrManifestParse):
		ui.Error("Error parsing YAML file %s", relPath)
		return Failed, err
	case err != nil:
		return Failed, err
	}

	decision := manifest.UpdateVersion(entry, req.ReleasedVersion)
	switch decision.Reason {
	case manifest.ReasonSkipped:
		ui.Info("%s has skip_auto_version_bump set. No version has been modified", req.RepositoryName)
		return Unchanged, nil
	case manifest.ReasonUpToDate:
		ui.Info("Released version %s matches the value defined in %s", req.ReleasedVersion, relPath)
		return Unchanged, nil
	}

	if t.dryRun {
		if err := t.preview(dir, relPath, doc, req, decision, message); err != nil {
			return Failed, err
		}
		return DryRun, nil
	}

	ui.Step(3, "Publishing to %s", req.BranchName)
	pusher := gitops.NewPusher(g, gitops.RetryPolicy{
		MaxAttempts: env.PushAttempts,
		Delay:       env.PushRetryDelay,
		Rebase:      env.PushStrategy == config.StrategyRebase,
	})

	err = pusher.Publish(ctx, gitops.Publication{
		Root:     dir,
		Path:     relPath,
		Content:  doc,
		Message:  message,
		Branch:   req.BranchName,
		Identity: IdentityFor(req.DeploymentType),
		Refresh: func(context.Context) (gitops.Encoder, bool, error) {
			doc, entry, err := manifest.Locate(dir, req.Environment, req.DeploymentType, req.RepositoryName)
			if err != nil {
				return nil, false, err
			}
			return doc, manifest.UpdateVersion(entry, req.ReleasedVersion).Changed, nil
		},
	})
	if errors.Is(err, gitops.ErrAlreadyPublished) {
		ui.Info("Released version %s matches the value defined in %s", req.ReleasedVersion, relPath)
		return Unchanged, nil
	}
	if err != nil {
		return Failed, fmt.Errorf("publishing %s: %w", relPath, err)
	}

	ui.Success("Version %s updated in %s", req.ReleasedVersion, relPath)
	return Updated, nil
}

// preview prints the change a run would make without writing it.
func (t *Trigger) preview(dir, relPath string, doc *manifest.Document, req *config.DeploymentRequest, decision manifest.Decision, message string) error {
	before, err := os.ReadFile(filepath.Join(dir, relPath))
	if err != nil {
		return fmt.Errorf("reading %s: %w", relPath, err)
	}
	after, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", relPath, err)
	}
	diff, err := manifest.Diff(relPath, before, after)
	if err != nil {
		return err
	}

	ui.Info("Dry run: %s would move from %q to %s in %s", req.RepositoryName, decision.Previous, req.ReleasedVersion, relPath)
	ui.Diff(diff)
	ui.Info("Dry run: commit message %q, branch %s", message, req.BranchName)
	return nil
}
