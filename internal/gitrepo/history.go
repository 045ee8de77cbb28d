package gitrepo

import (
	"context"
	"strconv"
	"strings"
)

func (r *ExecRepo) MergeBase(ctx context.Context, a, b string) (string, error) {
	return r.git(ctx, "merge-base", a, b)
}

// IsAncestor reports whether ancestor is reachable from descendant, grounded
// on the teacher's mergebase.go (git merge-base --is-ancestor).
func (r *ExecRepo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	out, err := r.run(ctx, &RunOpts{Args: []string{"merge-base", "--is-ancestor", ancestor, descendant}})
	if err != nil {
		return false, err
	}
	return out.ExitCode == 0, nil
}

// IsBranchMerged reports whether every commit reachable from branch is also
// reachable from target, i.e. branch contributes nothing target lacks.
func (r *ExecRepo) IsBranchMerged(ctx context.Context, branch, target string) (bool, error) {
	return r.IsAncestor(ctx, branch, target)
}

func (r *ExecRepo) ResolveRef(ctx context.Context, rev string) (string, error) {
	return r.git(ctx, "rev-parse", rev)
}

func (r *ExecRepo) Subject(ctx context.Context, rev string) (string, error) {
	return r.git(ctx, "show", "--no-patch", "--format=%s", rev)
}

func (r *ExecRepo) RelativeTime(ctx context.Context, rev string) (string, error) {
	return r.git(ctx, "show", "--no-patch", "--format=%cr", rev)
}

// CommitsBetween counts commits reachable from head but not base.
func (r *ExecRepo) CommitsBetween(ctx context.Context, base, head string) (int, error) {
	out, err := r.git(ctx, "rev-list", "--count", base+".."+head)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ReflogHasEntries reports whether ref has any reflog entries, used to decide
// whether a fork-point rebase is possible.
func (r *ExecRepo) ReflogHasEntries(ctx context.Context, ref string) (bool, error) {
	out, err := r.git(ctx, "reflog", "show", "--format=%H", ref)
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(out) != "", nil
}
