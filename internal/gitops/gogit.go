package gitops

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

// GoGit implements Git in-process with go-git. No git binary is required.
type GoGit struct {
	tokenSource oauth2.TokenSource
	username    string
	identity    Identity
	repo        *git.Repository
	dir         string
	depth       int
}

// NewGoGit creates a go-git backend. When tokenSource is nil, credentials
// embedded in the clone URL are used instead.
func NewGoGit(tokenSource oauth2.TokenSource) *GoGit {
	return &GoGit{tokenSource: tokenSource}
}

// Dir returns the working tree created by Clone.
func (g *GoGit) Dir() string {
	return g.dir
}

// Clone checks out rawURL into dir. Userinfo in the URL is moved into HTTP
// basic auth so the token is not persisted in the remote config.
func (g *GoGit) Clone(ctx context.Context, rawURL, dir string, depth int) error {
	remote := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.User != nil {
		g.username = u.User.Username()
		if pw, ok := u.User.Password(); ok && g.tokenSource == nil {
			g.tokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: pw})
		}
		u.User = nil
		remote = u.String()
	}

	auth, err := g.auth()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	clog.FromContext(ctx).Infof("Cloning %s into %s", remote, dir)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          remote,
		Depth:        depth,
		SingleBranch: true,
		Auth:         auth,
	})
	if err != nil {
		return fmt.Errorf("cloning repository: %w", err)
	}

	g.repo = repo
	g.dir = dir
	g.depth = depth
	return nil
}

// ConfigureIdentity writes the identity into the repository config and uses
// it as the author of later commits.
func (g *GoGit) ConfigureIdentity(_ context.Context, id Identity) error {
	if g.repo == nil {
		return ErrNotCloned
	}

	cfg, err := g.repo.Config()
	if err != nil {
		return fmt.Errorf("reading repository config: %w", err)
	}
	cfg.User.Name = id.Name
	cfg.User.Email = id.Email
	if err := g.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("writing repository config: %w", err)
	}

	g.identity = id
	return nil
}

// Add stages path.
func (g *GoGit) Add(_ context.Context, path string) error {
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Add(filepath.ToSlash(path)); err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	return nil
}

// Commit records the staged changes authored by the configured identity.
func (g *GoGit) Commit(_ context.Context, message string) error {
	wt, err := g.worktree()
	if err != nil {
		return err
	}
	if g.identity.Name == "" {
		return errors.New("committing: identity not configured")
	}

	if _, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.identity.Name,
			Email: g.identity.Email,
			When:  time.Now(),
		},
	}); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Push updates branch on origin with HEAD.
func (g *GoGit) Push(ctx context.Context, branch string) error {
	if g.repo == nil {
		return ErrNotCloned
	}

	head, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("%w: resolving HEAD: %w", ErrPushFailed, err)
	}

	auth, err := g.auth()
	if err != nil {
		return fmt.Errorf("%w: getting token: %w", ErrPushFailed, err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", head.Name(), plumbing.NewBranchReferenceName(branch)))
	clog.FromContext(ctx).Infof("Pushing %s", refSpec)

	err = g.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.ErrNonFastForwardUpdate), isRejection(err.Error()):
		return fmt.Errorf("%w: %w", ErrPushRejected, err)
	default:
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
}

// Sync fetches branch and hard-resets the working tree to its remote tip.
// Shallow clones are fetched at the depth they were cloned with.
func (g *GoGit) Sync(ctx context.Context, branch string) error {
	wt, err := g.worktree()
	if err != nil {
		return err
	}

	auth, err := g.auth()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	clog.FromContext(ctx).Infof("Fetching ref %s", branch)
	err = g.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", branch, branch))},
		Depth:      g.depth,
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetching ref %s: %w", branch, err)
	}

	remoteRef, err := g.repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("getting remote ref %s: %w", branch, err)
	}

	if err := wt.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
		return fmt.Errorf("resetting worktree: %w", err)
	}
	return nil
}

func (g *GoGit) worktree() (*git.Worktree, error) {
	if g.repo == nil {
		return nil, ErrNotCloned
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	return wt, nil
}

// auth returns nil when no credentials are known, which go-git treats as
// anonymous access.
func (g *GoGit) auth() (transport.AuthMethod, error) {
	if g.tokenSource == nil {
		return nil, nil
	}

	token, err := g.tokenSource.Token()
	if err != nil {
		return nil, err
	}

	username := g.username
	if username == "" {
		username = "x-access-token"
	}
	return &githttp.BasicAuth{
		Username: username,
		Password: token.AccessToken,
	}, nil
}
