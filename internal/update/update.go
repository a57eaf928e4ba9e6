// Package update provides self-update functionality for deploybump.
package update

import (
	"context"
	"fmt"
	"runtime"

	"github.com/creativeprojects/go-selfupdate"
)

const (
	// Repository owner and name for GitHub releases.
	repoOwner = "cameronsjo"
	repoName  = "deploybump"
)

// Release contains information about an available update.
type Release struct {
	Version     string
	ReleaseURL  string
	PublishedAt string
	Changelog   string
}

// Slug returns the owner/name of the repository publishing releases.
func Slug() string {
	return repoOwner + "/" + repoName
}

// CheckForUpdate checks if a release newer than currentVersion exists.
func CheckForUpdate(ctx context.Context, currentVersion string) (*Release, bool, error) {
	_, latest, err := detectLatest(ctx, currentVersion)
	if err != nil || latest == nil {
		return nil, false, err
	}
	return newRelease(latest), true, nil
}

// Update downloads and installs the latest release over the running binary.
// It returns nil when already up to date.
func Update(ctx context.Context, currentVersion string) (*Release, error) {
	updater, latest, err := detectLatest(ctx, currentVersion)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil // Already up to date
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("getting executable path: %w", err)
	}

	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return nil, fmt.Errorf("updating binary: %w", err)
	}

	return newRelease(latest), nil
}

// detectLatest returns the newest release, or nil when currentVersion is
// already the newest.
func detectLatest(ctx context.Context, currentVersion string) (*selfupdate.Updater, *selfupdate.Release, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, nil, fmt.Errorf("creating update source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, nil, fmt.Errorf("detecting latest version: %w", err)
	}
	if !found {
		return nil, nil, fmt.Errorf("no releases found for %s", Slug())
	}

	if latest.LessOrEqual(currentVersion) {
		return updater, nil, nil
	}
	return updater, latest, nil
}

func newRelease(latest *selfupdate.Release) *Release {
	return &Release{
		Version:     latest.Version(),
		ReleaseURL:  latest.URL,
		PublishedAt: latest.PublishedAt.Format("2006-01-02"),
		Changelog:   latest.ReleaseNotes,
	}
}

// GetPlatformInfo returns the current platform information.
func GetPlatformInfo() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
