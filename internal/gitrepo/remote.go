package gitrepo

import (
	"context"
	"strconv"
	"strings"

	"emperror.dev/errors"
)

func (r *ExecRepo) Fetch(ctx context.Context, remote string) error {
	_, err := r.git(ctx, "fetch", remote, "--prune")
	return err
}

// PushWithLease pushes branch to remote using force-with-lease, grounded on
// the teacher's CreatePullRequest push path.
func (r *ExecRepo) PushWithLease(ctx context.Context, remote, branch string) error {
	_, err := r.git(ctx, "push", "--force-with-lease", remote, branch+":"+branch)
	return err
}

func (r *ExecRepo) PushForce(ctx context.Context, remote, branch string) error {
	_, err := r.git(ctx, "push", "--force", remote, branch+":"+branch)
	return err
}

// CheckRemoteSync compares branch against its remote-tracking counterpart.
func (r *ExecRepo) CheckRemoteSync(ctx context.Context, branch string) (SyncStatus, error) {
	remoteRef := r.remoteName + "/" + branch
	if _, ok, err := r.FindRef(ctx, "refs/remotes/"+remoteRef); err != nil {
		return SyncStatus{}, err
	} else if !ok {
		return SyncStatus{Kind: SyncNoRemote}, nil
	}

	out, err := r.git(ctx, "rev-list", "--left-right", "--count", branch+"..."+remoteRef)
	if err != nil {
		return SyncStatus{}, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return SyncStatus{}, errors.Errorf("unexpected rev-list output: %q", out)
	}
	ahead, err := strconv.Atoi(fields[0])
	if err != nil {
		return SyncStatus{}, err
	}
	behind, err := strconv.Atoi(fields[1])
	if err != nil {
		return SyncStatus{}, err
	}
	switch {
	case ahead == 0 && behind == 0:
		return SyncStatus{Kind: SyncInSync}, nil
	case ahead > 0 && behind == 0:
		return SyncStatus{Kind: SyncAhead, Ahead: ahead}, nil
	case ahead == 0 && behind > 0:
		return SyncStatus{Kind: SyncBehind, Behind: behind}, nil
	default:
		return SyncStatus{Kind: SyncDiverged, Ahead: ahead, Behind: behind}, nil
	}
}

// SyncFromRemote fast-forwards (or, if force, hard-resets) branch to match
// its remote-tracking counterpart. Used to bring the trunk branch up to date
// during sync.
func (r *ExecRepo) SyncFromRemote(ctx context.Context, branch string, force bool) error {
	remoteRef := "refs/remotes/" + r.remoteName + "/" + branch
	oid, ok, err := r.FindRef(ctx, remoteRef)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("no remote-tracking ref for %s", branch)
	}
	if force {
		return r.UpdateRef(ctx, "refs/heads/"+branch, oid)
	}
	isAncestor, err := r.IsAncestor(ctx, "refs/heads/"+branch, oid)
	if err != nil {
		return err
	}
	if !isAncestor {
		return errors.Errorf("refusing non-fast-forward update of %s", branch)
	}
	return r.UpdateRef(ctx, "refs/heads/"+branch, oid)
}

// StashPush stashes uncommitted changes (including untracked files), ahead
// of an operation that requires a clean tree. ok is false when there was
// nothing to stash.
func (r *ExecRepo) StashPush(ctx context.Context) (bool, error) {
	dirty, err := r.AnyStagedOrModified(ctx)
	if err != nil {
		return false, err
	}
	if !dirty {
		return false, nil
	}
	if _, err := r.git(ctx, "stash", "push", "--include-untracked", "-m", "stackctl autostash"); err != nil {
		return false, err
	}
	return true, nil
}

func (r *ExecRepo) StashPop(ctx context.Context) error {
	_, err := r.git(ctx, "stash", "pop")
	return err
}
