// Package gitops clones deployment repositories and publishes manifest
// changes back to them.
package gitops

import (
	"context"
	"errors"
)

// Push errors. Backends wrap push failures in one of these so callers can
// tell a rejected update from any other failure.
var (
	// ErrPushRejected indicates the remote refused the update, typically
	// because the branch moved since the clone.
	ErrPushRejected = errors.New("push rejected by remote")

	// ErrPushFailed indicates any other push failure.
	ErrPushFailed = errors.New("push failed")

	// ErrNotCloned indicates an operation ran before Clone.
	ErrNotCloned = errors.New("repository not cloned")
)

// Identity is the author recorded on commits.
type Identity struct {
	Name  string
	Email string
}

// Git is the version-control capability used to publish a manifest change.
// Implementations operate on the working tree created by Clone.
type Git interface {
	// Clone checks out url into dir. A depth above zero makes a shallow clone.
	Clone(ctx context.Context, url, dir string, depth int) error

	// ConfigureIdentity sets the author for subsequent commits.
	ConfigureIdentity(ctx context.Context, id Identity) error

	// Add stages path, relative to the working tree root.
	Add(ctx context.Context, path string) error

	// Commit records the staged changes.
	Commit(ctx context.Context, message string) error

	// Push updates branch on origin with the current HEAD.
	// Failures wrap ErrPushRejected or ErrPushFailed.
	Push(ctx context.Context, branch string) error

	// Sync discards local commits and moves the working tree to the tip of
	// branch on origin.
	Sync(ctx context.Context, branch string) error
}

// Runner executes external processes.
type Runner interface {
	// Run executes name with args in dir and returns the combined output.
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// Compile-time interface verification.
var (
	_ Git    = (*CLI)(nil)
	_ Git    = (*GoGit)(nil)
	_ Runner = ExecRunner{}
)
