package gitrepo

import (
	"context"
	"strings"

	"emperror.dev/errors"
)

func (r *ExecRepo) CurrentBranch(ctx context.Context) (string, error) {
	name, err := r.git(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", errors.Wrap(err, "not currently on a branch")
	}
	return name, nil
}

func (r *ExecRepo) BranchExists(ctx context.Context, name string) (bool, error) {
	_, err := r.git(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *ExecRepo) CreateBranchAtHead(ctx context.Context, name string) error {
	_, err := r.git(ctx, "branch", name)
	return err
}

func (r *ExecRepo) CreateBranchAt(ctx context.Context, name, rev string) error {
	_, err := r.git(ctx, "branch", name, rev)
	return err
}

// worktreePathFor returns the worktree path that currently has branch
// checked out, if any other than the primary one.
func (r *ExecRepo) worktreePathFor(ctx context.Context, name string) (string, bool, error) {
	out, err := r.git(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return "", false, err
	}
	var path string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			path = strings.TrimPrefix(line, "worktree ")
		case line == "branch refs/heads/"+name:
			return path, true, nil
		}
	}
	return "", false, nil
}

// CheckoutSafe refuses if the tree is dirty or the branch is checked out in
// another worktree, naming the exact path in the latter case.
func (r *ExecRepo) CheckoutSafe(ctx context.Context, name string) error {
	dirty, err := r.AnyStagedOrModified(ctx)
	if err != nil {
		return err
	}
	if dirty {
		return &DirtyWorkingTreeError{}
	}
	if path, found, err := r.worktreePathFor(ctx, name); err != nil {
		return err
	} else if found {
		current, _ := r.git(ctx, "rev-parse", "--show-toplevel")
		if path != current {
			return &WorktreeConflictError{Branch: name, Path: path}
		}
	}
	_, err = r.git(ctx, "checkout", name)
	return err
}

func (r *ExecRepo) CheckoutForce(ctx context.Context, name string) error {
	_, err := r.git(ctx, "checkout", "--force", name)
	return err
}

func (r *ExecRepo) ListBranches(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (r *ExecRepo) DeleteBranch(ctx context.Context, name string) error {
	_, err := r.git(ctx, "branch", "-D", name)
	return err
}

func (r *ExecRepo) RenameBranch(ctx context.Context, oldName, newName string) error {
	_, err := r.git(ctx, "branch", "-m", oldName, newName)
	return err
}
