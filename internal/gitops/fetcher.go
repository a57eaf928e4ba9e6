package gitops

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// ErrMissingCredential indicates the owner or token needed to clone is unset.
var ErrMissingCredential = errors.New("missing credential")

// DefaultHost is the forge used when no host is configured.
const DefaultHost = "github.com"

// Credentials authenticate clones against the forge.
type Credentials struct {
	// Owner is the account that owns deployment repositories.
	Owner string
	// Token is an installation or personal access token.
	Token string
}

// Fetcher clones deployment repositories into fresh working directories.
type Fetcher struct {
	git     Git
	host    string
	creds   Credentials
	baseDir string
}

// NewFetcher creates a Fetcher. An empty host uses DefaultHost and an empty
// baseDir uses the system temp directory.
func NewFetcher(g Git, host string, creds Credentials, baseDir string) *Fetcher {
	if host == "" {
		host = DefaultHost
	}
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Fetcher{git: g, host: host, creds: creds, baseDir: baseDir}
}

// CloneURL builds the authenticated HTTPS URL for owner/repository.
func CloneURL(host, owner, token, repository string) string {
	u := url.URL{
		Scheme: "https",
		User:   url.UserPassword("x-access-token", token),
		Host:   host,
		Path:   "/" + owner + "/" + repository + ".git",
	}
	return u.String()
}

// Fetch shallow-clones repository and returns the working directory.
// The directory name is unique per call so concurrent runs never collide.
func (f *Fetcher) Fetch(ctx context.Context, repository string) (string, error) {
	if f.creds.Owner == "" {
		return "", fmt.Errorf("%w: GITHUB_APP_OWNER", ErrMissingCredential)
	}
	if f.creds.Token == "" {
		return "", fmt.Errorf("%w: GH_TOKEN", ErrMissingCredential)
	}

	if err := os.MkdirAll(f.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}

	name := strings.ReplaceAll(repository, "/", "-")
	dir := filepath.Join(f.baseDir, fmt.Sprintf("%s-%s", name, uuid.New().String()[:8]))

	cloneURL := CloneURL(f.host, f.creds.Owner, f.creds.Token, repository)
	clog.FromContext(ctx).With("repository", repository).Infof("Fetching repository into %s", dir)

	if err := f.git.Clone(ctx, cloneURL, dir, 1); err != nil {
		RemoveWorkDir(ctx, dir)
		return "", fmt.Errorf("fetching %s/%s: %w", f.creds.Owner, repository, err)
	}
	return dir, nil
}

// RemoveWorkDir deletes a working directory made by Fetch. Failures are
// logged, not returned.
func RemoveWorkDir(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		clog.FromContext(ctx).Warnf("Failed to remove %s: %v", dir, err)
	}
}
