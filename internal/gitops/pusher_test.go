package gitops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/deploybump/internal/ui"
)

type staticContent string

func (s staticContent) Encode() ([]byte, error) { return []byte(s), nil }

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

func newPublication(t *testing.T) Publication {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "production"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "production", "applications.yaml"), []byte("old\n"), 0o644))

	return Publication{
		Root:     root,
		Path:     filepath.Join("production", "applications.yaml"),
		Content:  staticContent("new\n"),
		Message:  "Update api to version 1.2.3 on production",
		Branch:   "main",
		Identity: Identity{Name: "bot", Email: "bot@example.com"},
	}
}

func failureLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, "Git push failed on attempt") {
			lines = append(lines, strings.TrimSpace(l))
		}
	}
	return lines
}

func TestPusher_FirstAttempt(t *testing.T) {
	out := captureUI(t)
	g := &fakeGit{}
	pub := newPublication(t)

	require.NoError(t, NewPusher(g, RetryPolicy{}).Publish(context.Background(), pub))

	assert.Equal(t, []string{
		"identity bot <bot@example.com>",
		"add " + pub.Path,
		"commit Update api to version 1.2.3 on production",
		"push main",
	}, g.ops)
	assert.Empty(t, failureLines(out.String()))

	data, err := os.ReadFile(filepath.Join(pub.Root, pub.Path))
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestPusher_RetriesThenSucceeds(t *testing.T) {
	out := captureUI(t)
	g := &fakeGit{pushErrs: []error{ErrPushFailed, ErrPushFailed}}

	require.NoError(t, NewPusher(g, RetryPolicy{MaxAttempts: 3}).Publish(context.Background(), newPublication(t)))

	assert.Equal(t, []string{
		"⚠ Git push failed on attempt 1/3",
		"⚠ Git push failed on attempt 2/3",
	}, failureLines(out.String()))

	var commits, pushes int
	for _, op := range g.ops {
		switch {
		case strings.HasPrefix(op, "commit "):
			commits++
		case strings.HasPrefix(op, "push "):
			pushes++
		}
	}
	assert.Equal(t, 1, commits, "the commit is made once")
	assert.Equal(t, 3, pushes)
}

func TestPusher_Exhausted(t *testing.T) {
	out := captureUI(t)
	pushErr := fmt.Errorf("%w: remote hung up", ErrPushFailed)
	g := &fakeGit{pushErrs: []error{pushErr, pushErr, pushErr}}

	err := NewPusher(g, RetryPolicy{MaxAttempts: 3}).Publish(context.Background(), newPublication(t))

	require.ErrorIs(t, err, ErrPushExhausted)
	assert.Contains(t, err.Error(), "remote hung up")
	assert.Len(t, failureLines(out.String()), 3)
}

func TestPusher_DefaultAttempts(t *testing.T) {
	captureUI(t)
	g := &fakeGit{pushErrs: []error{ErrPushFailed, ErrPushFailed, ErrPushFailed, ErrPushFailed}}

	err := NewPusher(g, RetryPolicy{MaxAttempts: 0}).Publish(context.Background(), newPublication(t))

	require.ErrorIs(t, err, ErrPushExhausted)
	assert.Len(t, g.pushErrs, 1, "DefaultPushAttempts pushes are made")
}

func TestPusher_DelayHonorsContext(t *testing.T) {
	captureUI(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &fakeGit{pushErrs: []error{ErrPushFailed}}
	err := NewPusher(g, RetryPolicy{MaxAttempts: 3, Delay: time.Hour}).Publish(ctx, newPublication(t))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPusher_Rebase(t *testing.T) {
	t.Run("re-applies on the remote tip", func(t *testing.T) {
		captureUI(t)
		g := &fakeGit{pushErrs: []error{fmt.Errorf("%w: fetch first", ErrPushRejected)}}
		pub := newPublication(t)

		var refreshed int
		pub.Refresh = func(context.Context) (Encoder, bool, error) {
			refreshed++
			return staticContent("rebased\n"), true, nil
		}

		require.NoError(t, NewPusher(g, RetryPolicy{MaxAttempts: 3, Rebase: true}).Publish(context.Background(), pub))

		assert.Equal(t, 1, refreshed)
		assert.Equal(t, []string{
			"identity bot <bot@example.com>",
			"add " + pub.Path,
			"commit " + pub.Message,
			"push main",
			"sync main",
			"add " + pub.Path,
			"commit " + pub.Message,
			"push main",
		}, g.ops)

		data, err := os.ReadFile(filepath.Join(pub.Root, pub.Path))
		require.NoError(t, err)
		assert.Equal(t, "rebased\n", string(data))
	})

	t.Run("remote already holds the change", func(t *testing.T) {
		captureUI(t)
		g := &fakeGit{pushErrs: []error{ErrPushRejected}}
		pub := newPublication(t)
		pub.Refresh = func(context.Context) (Encoder, bool, error) { return nil, false, nil }

		err := NewPusher(g, RetryPolicy{MaxAttempts: 3, Rebase: true}).Publish(context.Background(), pub)
		assert.ErrorIs(t, err, ErrAlreadyPublished)
		assert.Equal(t, "sync main", g.ops[len(g.ops)-1])
		assert.Equal(t, 1, strings.Count(strings.Join(g.ops, "\n"), "push main"))
	})

	t.Run("plain failures are retried without syncing", func(t *testing.T) {
		captureUI(t)
		g := &fakeGit{pushErrs: []error{ErrPushFailed}}
		pub := newPublication(t)
		pub.Refresh = func(context.Context) (Encoder, bool, error) {
			t.Fatal("refresh must not run for non-rejections")
			return nil, false, nil
		}

		require.NoError(t, NewPusher(g, RetryPolicy{MaxAttempts: 3, Rebase: true}).Publish(context.Background(), pub))
		assert.NotContains(t, g.ops, "sync main")
	})

	t.Run("sync failure stops publishing", func(t *testing.T) {
		captureUI(t)
		g := &fakeGit{pushErrs: []error{ErrPushRejected}, syncErr: errors.New("network down")}
		pub := newPublication(t)
		pub.Refresh = func(context.Context) (Encoder, bool, error) { return staticContent("x"), true, nil }

		err := NewPusher(g, RetryPolicy{MaxAttempts: 3, Rebase: true}).Publish(context.Background(), pub)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "network down")
	})
}

func TestPushKind_String(t *testing.T) {
	assert.Equal(t, "succeeded", PushSucceeded.String())
	assert.Equal(t, "rejected", PushRejected.String())
	assert.Equal(t, "failed", PushFailed.String())
}
