package gitops

import (
	"context"
	"fmt"
)

// fakeGit records operations and fails pushes from a script.
type fakeGit struct {
	ops      []string
	cloneErr error
	pushErrs []error
	syncErr  error
	onSync   func()
}

func (f *fakeGit) Clone(_ context.Context, url, dir string, depth int) error {
	f.ops = append(f.ops, fmt.Sprintf("clone %s %s %d", url, dir, depth))
	return f.cloneErr
}

func (f *fakeGit) ConfigureIdentity(_ context.Context, id Identity) error {
	f.ops = append(f.ops, fmt.Sprintf("identity %s <%s>", id.Name, id.Email))
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
	if len(f.pushErrs) == 0 {
		return nil
	}
	err := f.pushErrs[0]
	f.pushErrs = f.pushErrs[1:]
	return err
}

func (f *fakeGit) Sync(_ context.Context, branch string) error {
	f.ops = append(f.ops, "sync "+branch)
	if f.onSync != nil {
		f.onSync()
	}
	return f.syncErr
}
