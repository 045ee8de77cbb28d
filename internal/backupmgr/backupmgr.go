// Package backupmgr implements the undo-safety net described in spec §4.4:
// nanosecond-plus-counter-unique backup refs snapshotting a branch before
// any destructive rewrite, with age/keep-N garbage collection that always
// yields to an in-flight operation. Grounded directly on the original
// implementation's git_gateway/backup.rs — the teacher carries no backup or
// undo concept at all.
package backupmgr

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/dustin/go-humanize"
	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stackctl/stackctl/internal/refstore"
)

const backupRefPrefix = "refs/" + refstore.Namespace + "/backup/"

// backupCounter guarantees uniqueness even when two backups are created
// within the same nanosecond, matching the original implementation's
// BACKUP_COUNTER.
var backupCounter uint32

// Ref describes one backup snapshot.
type Ref struct {
	RefName   string
	Branch    string
	Timestamp time.Time
	CommitOID string
}

// Age renders how long ago the snapshot was taken, for `stackctl gc --dry-run`
// and `stackctl log` listings.
func (r *Ref) Age() string {
	return humanize.Time(r.Timestamp)
}

// Manager creates, lists, restores, and garbage-collects backup refs.
type Manager struct {
	repo  gitrepo.Repo
	state *opstate.Store
}

func New(repo gitrepo.Repo) *Manager {
	return &Manager{repo: repo, state: opstate.New(repo)}
}

// Create snapshots branch's current commit under a fresh, guaranteed-unique
// backup ref. Fails if branch does not exist: the caller is expected to
// snapshot before any deletion or rewrite, not after.
func (m *Manager) Create(ctx context.Context, branch string) (*Ref, error) {
	oid, err := m.repo.ResolveRef(ctx, "refs/heads/"+branch)
	if err != nil {
		return nil, errors.Wrapf(err, "branch %q not found", branch)
	}

	now := time.Now()
	nanos := now.UnixNano()
	counter := atomic.AddUint32(&backupCounter, 1) - 1
	refName := fmt.Sprintf("%s%s-%d-%d", backupRefPrefix, branch, nanos, counter)

	if err := m.repo.UpdateRef(ctx, refName, oid); err != nil {
		return nil, errors.Wrap(err, "failed to create backup ref")
	}

	return &Ref{
		RefName:   refName,
		Branch:    branch,
		Timestamp: now,
		CommitOID: oid,
	}, nil
}

// List returns every backup ref, newest first.
func (m *Manager) List(ctx context.Context) ([]Ref, error) {
	entries, err := m.repo.ListRefsGlob(ctx, backupRefPrefix+"*")
	if err != nil {
		return nil, err
	}
	var refs []Ref
	for _, e := range entries {
		suffix := strings.TrimPrefix(e.Name, backupRefPrefix)
		branch, ts, ok := parseBackupRefSuffix(suffix)
		if !ok {
			continue
		}
		refs = append(refs, Ref{
			RefName:   e.Name,
			Branch:    branch,
			Timestamp: ts,
			CommitOID: e.OID,
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Timestamp.After(refs[j].Timestamp) })
	return refs, nil
}

// parseBackupRefSuffix handles both the current nanos-counter form and the
// legacy seconds-only form, mirroring the original implementation's
// parse_backup_ref_suffix.
func parseBackupRefSuffix(suffix string) (branch string, ts time.Time, ok bool) {
	parts := strings.Split(suffix, "-")
	if len(parts) >= 3 {
		counterStr := parts[len(parts)-1]
		nanosStr := parts[len(parts)-2]
		if _, err := strconv.ParseUint(counterStr, 10, 32); err == nil && len(nanosStr) > 15 {
			if nanos, err := strconv.ParseInt(nanosStr, 10, 64); err == nil {
				branchName := strings.Join(parts[:len(parts)-2], "-")
				if branchName == "" {
					return "", time.Time{}, false
				}
				return branchName, time.Unix(0, nanos), true
			}
		}
	}
	// Legacy form: <branch>-<seconds>, split on the last dash.
	idx := strings.LastIndex(suffix, "-")
	if idx < 0 {
		return "", time.Time{}, false
	}
	branchName := suffix[:idx]
	secondsStr := suffix[idx+1:]
	seconds, err := strconv.ParseInt(secondsStr, 10, 64)
	if err != nil || branchName == "" {
		return "", time.Time{}, false
	}
	return branchName, time.Unix(seconds, 0), true
}

// Restore resets (or recreates) ref.Branch to point at ref.CommitOID.
func (m *Manager) Restore(ctx context.Context, ref Ref) error {
	exists, err := m.repo.BranchExists(ctx, ref.Branch)
	if err != nil {
		return err
	}
	if exists {
		return m.repo.UpdateRef(ctx, "refs/heads/"+ref.Branch, ref.CommitOID)
	}
	return m.repo.CreateBranchAt(ctx, ref.Branch, ref.CommitOID)
}

// Delete removes a backup ref. Idempotent: an already-missing ref is not an
// error.
func (m *Manager) Delete(ctx context.Context, ref Ref) error {
	return m.repo.DeleteRef(ctx, ref.RefName)
}

// NewestSince returns the newest backup ref for branch created at or after
// since. There is no upper bound: abort passes the operation's start time, so
// any backup taken during the operation matches, however long after the
// start it was taken.
func (m *Manager) NewestSince(ctx context.Context, branch string, since time.Time) (*Ref, bool, error) {
	refs, err := m.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, r := range refs {
		if r.Branch == branch && !r.Timestamp.Before(since) {
			return &r, true, nil
		}
	}
	return nil, false, nil
}

// gcGuard reports whether GC must be skipped because an operation is
// in-flight and may need its rollback targets.
func (m *Manager) gcGuard() (bool, error) {
	return m.state.Exists()
}

// CleanupByAge deletes backups older than maxAge. Skips entirely (returning
// 0, nil) if an operation is in progress.
func (m *Manager) CleanupByAge(ctx context.Context, maxAge time.Duration) (int, error) {
	if inProgress, err := m.gcGuard(); err != nil {
		return 0, err
	} else if inProgress {
		return 0, nil
	}
	refs, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, r := range refs {
		if r.Timestamp.Before(cutoff) {
			if err := m.Delete(ctx, r); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

// CleanupByCount keeps only the newest keepPerBranch backups for each
// branch, deleting the rest. Skips entirely if an operation is in progress.
func (m *Manager) CleanupByCount(ctx context.Context, keepPerBranch int) (int, error) {
	if inProgress, err := m.gcGuard(); err != nil {
		return 0, err
	} else if inProgress {
		return 0, nil
	}
	refs, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	byBranch := make(map[string][]Ref)
	for _, r := range refs {
		byBranch[r.Branch] = append(byBranch[r.Branch], r)
	}
	deleted := 0
	for _, branchRefs := range byBranch {
		// refs from List() are already newest-first.
		if len(branchRefs) <= keepPerBranch {
			continue
		}
		for _, r := range branchRefs[keepPerBranch:] {
			if err := m.Delete(ctx, r); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

// GC runs age-based cleanup followed by count-based cleanup, returning
// (deletedByAge, deletedByCount). Both phases are skipped together when an
// operation is in progress, guaranteeing that `gc --age 0 --keep 0` under an
// active operation is a safe no-op.
func (m *Manager) GC(ctx context.Context, maxAge time.Duration, keepPerBranch int) (int, int, error) {
	byAge, err := m.CleanupByAge(ctx, maxAge)
	if err != nil {
		return 0, 0, err
	}
	byCount, err := m.CleanupByCount(ctx, keepPerBranch)
	if err != nil {
		return byAge, 0, err
	}
	return byAge, byCount, nil
}
