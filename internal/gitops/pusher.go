package gitops

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/cameronsjo/deploybump/internal/fileutil"
	"github.com/cameronsjo/deploybump/internal/ui"
)

var (
	// ErrPushExhausted indicates every push attempt failed.
	ErrPushExhausted = errors.New("git push failed after all attempts")

	// ErrAlreadyPublished indicates the remote branch already holds the
	// change, so nothing was pushed.
	ErrAlreadyPublished = errors.New("remote branch already holds the change")
)

// DefaultPushAttempts is the number of push attempts made before giving up.
const DefaultPushAttempts = 3

// PushKind classifies a single push attempt.
type PushKind int

const (
	PushSucceeded PushKind = iota
	PushRejected
	PushFailed
)

func (k PushKind) String() string {
	switch k {
	case PushSucceeded:
		return "succeeded"
	case PushRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// PushOutcome is the result of one push attempt.
type PushOutcome struct {
	Kind    PushKind
	Attempt int
	Err     error
}

// RetryPolicy controls how failed pushes are retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of pushes tried. Values below one
	// mean DefaultPushAttempts.
	MaxAttempts int

	// Delay is the pause between attempts.
	Delay time.Duration

	// Rebase re-applies the change on the remote tip after a rejected
	// push instead of retrying the same commit.
	Rebase bool
}

// Encoder produces the bytes written to the manifest file.
type Encoder interface {
	Encode() ([]byte, error)
}

// RefreshFunc recomputes the change after the working tree has been synced
// with the remote. changed is false when the remote already holds it.
type RefreshFunc func(ctx context.Context) (content Encoder, changed bool, err error)

// Publication describes a change to commit and push.
type Publication struct {
	// Root is the working tree.
	Root string
	// Path is the file to write, relative to Root.
	Path string
	// Content is written to Path before committing.
	Content Encoder
	// Message is the commit message.
	Message string
	// Branch receives the push.
	Branch string
	// Identity authors the commit.
	Identity Identity
	// Refresh is used by the rebase strategy. It may be nil.
	Refresh RefreshFunc
}

// Pusher writes, commits and pushes a change, retrying failed pushes.
type Pusher struct {
	git    Git
	policy RetryPolicy
	sleep  func(context.Context, time.Duration) error
}

// NewPusher creates a Pusher.
func NewPusher(g Git, policy RetryPolicy) *Pusher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = DefaultPushAttempts
	}
	return &Pusher{git: g, policy: policy, sleep: sleepContext}
}

// Publish commits pub once and pushes it. A failed push is reported and
// retried until the policy's attempts are used up, after which an error
// wrapping ErrPushExhausted is returned. When a rebase finds the change
// already on the remote branch, ErrAlreadyPublished is returned.
func (p *Pusher) Publish(ctx context.Context, pub Publication) error {
	log := clog.FromContext(ctx)

	if err := p.git.ConfigureIdentity(ctx, pub.Identity); err != nil {
		return fmt.Errorf("configuring commit identity: %w", err)
	}
	if err := p.commit(ctx, pub, pub.Content); err != nil {
		return err
	}

	maxAttempts := p.policy.MaxAttempts
	for attempt := 1; ; attempt++ {
		outcome := p.push(ctx, pub.Branch, attempt)
		if outcome.Kind == PushSucceeded {
			log.Infof("Pushed to %s on attempt %d", pub.Branch, attempt)
			return nil
		}

		ui.Warning("Git push failed on attempt %d/%d", attempt, maxAttempts)
		log.With("attempt", attempt, "kind", outcome.Kind.String()).Warnf("Push failed: %v", outcome.Err)

		if attempt >= maxAttempts {
			return fmt.Errorf("%w (%d attempts): %w", ErrPushExhausted, maxAttempts, outcome.Err)
		}

		if err := p.sleep(ctx, p.policy.Delay); err != nil {
			return err
		}

		if outcome.Kind == PushRejected && p.policy.Rebase && pub.Refresh != nil {
			done, err := p.rebase(ctx, pub)
			if err != nil {
				return err
			}
			if done {
				return ErrAlreadyPublished
			}
		}
	}
}

func (p *Pusher) push(ctx context.Context, branch string, attempt int) PushOutcome {
	err := p.git.Push(ctx, branch)
	switch {
	case err == nil:
		return PushOutcome{Kind: PushSucceeded, Attempt: attempt}
	case errors.Is(err, ErrPushRejected):
		return PushOutcome{Kind: PushRejected, Attempt: attempt, Err: err}
	default:
		return PushOutcome{Kind: PushFailed, Attempt: attempt, Err: err}
	}
}

// rebase moves to the remote tip and re-applies the change. It reports true
// when the remote already holds the change and nothing is left to push.
func (p *Pusher) rebase(ctx context.Context, pub Publication) (bool, error) {
	if err := p.git.Sync(ctx, pub.Branch); err != nil {
		return false, fmt.Errorf("syncing with origin/%s: %w", pub.Branch, err)
	}

	content, changed, err := pub.Refresh(ctx)
	if err != nil {
		return false, fmt.Errorf("re-applying change: %w", err)
	}
	if !changed {
		clog.FromContext(ctx).Infof("Remote branch %s already holds the change", pub.Branch)
		return true, nil
	}
	return false, p.commit(ctx, pub, content)
}

func (p *Pusher) commit(ctx context.Context, pub Publication, content Encoder) error {
	data, err := content.Encode()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", pub.Path, err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(pub.Root, pub.Path), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", pub.Path, err)
	}
	if err := p.git.Add(ctx, pub.Path); err != nil {
		return err
	}
	return p.git.Commit(ctx, pub.Message)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
