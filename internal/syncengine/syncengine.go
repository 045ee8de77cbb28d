// Package syncengine implements the `sync` command's top-level flow (spec
// §4.7): bring trunk up to date with the remote, repair any metadata
// drift, prune branches the forge has already merged, and restack
// everything that's left. Grounded on the teacher's internal/sequencer's
// top-level Sync plan (fetch, then a planner pass, then run the
// sequencer) generalized onto stackctl's RefStore/BackupManager/Validator
// stack.
package syncengine

import (
	"context"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"github.com/stackctl/stackctl/internal/backupmgr"
	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/restack"
	"github.com/stackctl/stackctl/internal/validate"
)

// ErrTrunkDiverged is returned when trunk has diverged from its remote
// counterpart and Force was not requested.
var ErrTrunkDiverged = errors.Sentinel("trunk has diverged from its remote; re-run with --force to overwrite local trunk")

// Options configures a sync run.
type Options struct {
	// Force overwrites a diverged local trunk with the remote tip instead
	// of refusing.
	Force bool
	// DeleteMerged auto-deletes branches detected as merged into trunk
	// instead of only reporting them.
	DeleteMerged bool
	// DeleteRemote also deletes the remote-tracking branch for any branch
	// that gets deleted locally.
	DeleteRemote bool
}

// Result summarizes what a sync run did.
type Result struct {
	TrunkFastForwarded bool
	MergedDeleted      []string
	Restack            *restack.Outcome
}

// Engine runs the sync flow over a repository.
type Engine struct {
	repo      gitrepo.Repo
	store     *refstore.Store
	state     *opstate.Store
	backups   *backupmgr.Manager
	validator *validate.Validator
	restacker *restack.Engine
	logger    logrus.FieldLogger
}

func New(repo gitrepo.Repo) *Engine {
	return &Engine{
		repo:      repo,
		store:     refstore.New(repo),
		state:     opstate.New(repo),
		backups:   backupmgr.New(repo),
		validator: validate.New(repo),
		restacker: restack.New(repo),
		logger:    logrus.WithField("component", "sync"),
	}
}

// Run executes the full sync flow described in spec §4.7.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	if inProgress, err := e.state.Exists(); err != nil {
		return nil, err
	} else if inProgress {
		return nil, restack.ErrOperationInProgress
	}

	dirty, err := e.repo.AnyStagedOrModified(ctx)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, &gitrepo.DirtyWorkingTreeError{}
	}

	trunk, err := e.store.RequireTrunk(ctx)
	if err != nil {
		return nil, err
	}

	originalBranch, err := e.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}

	if err := e.repo.Fetch(ctx, e.repo.RemoteName()); err != nil {
		return nil, err
	}

	tracked, err := e.store.ListTrackedBranches(ctx)
	if err != nil {
		return nil, err
	}
	for _, branch := range tracked {
		if _, err := e.backups.Create(ctx, branch); err != nil {
			return nil, err
		}
	}

	res := &Result{}

	syncStatus, err := e.repo.CheckRemoteSync(ctx, trunk)
	if err != nil {
		return nil, err
	}
	switch syncStatus.Kind {
	case gitrepo.SyncBehind:
		if err := e.repo.SyncFromRemote(ctx, trunk, false); err != nil {
			return nil, err
		}
		res.TrunkFastForwarded = true
	case gitrepo.SyncDiverged:
		if !opts.Force {
			return nil, ErrTrunkDiverged
		}
		if err := e.repo.SyncFromRemote(ctx, trunk, true); err != nil {
			return nil, err
		}
		res.TrunkFastForwarded = true
	}

	if _, err := e.validator.SilentRepair(ctx); err != nil {
		return nil, err
	}

	deleted, err := e.pruneMerged(ctx, trunk, opts)
	if err != nil {
		return nil, err
	}
	res.MergedDeleted = deleted

	remaining, err := e.store.ListTrackedBranches(ctx)
	if err != nil {
		return nil, err
	}

	outcome, err := e.restacker.Run(ctx, opstate.KindSync, []string{trunk}, remaining, originalBranch)
	if err != nil {
		return nil, err
	}
	res.Restack = outcome

	return res, nil
}

// pruneMerged repeatedly finds tracked branches that have been merged into
// trunk, reparents their children to their own parent, and deletes them —
// repeating until a pass finds nothing new, so a merged chain (A merged,
// its child B also merged) is fully collapsed in one sync.
func (e *Engine) pruneMerged(ctx context.Context, trunk string, opts Options) ([]string, error) {
	var deleted []string
	for {
		tracked, err := e.store.ListTrackedBranches(ctx)
		if err != nil {
			return deleted, err
		}

		var mergedThisPass []string
		for _, branch := range tracked {
			if branch == trunk {
				continue
			}
			exists, err := e.repo.BranchExists(ctx, branch)
			if err != nil {
				return deleted, err
			}
			if !exists {
				continue
			}
			merged, err := e.repo.IsBranchMerged(ctx, branch, trunk)
			if err != nil {
				return deleted, err
			}
			if merged {
				mergedThisPass = append(mergedThisPass, branch)
			}
		}
		if len(mergedThisPass) == 0 {
			return deleted, nil
		}
		if !opts.DeleteMerged {
			// Report-only mode: the caller decides what to do next: do not
			// mutate anything, just surface the candidates once.
			return append(deleted, mergedThisPass...), nil
		}

		for _, branch := range mergedThisPass {
			parent, ok, err := e.store.GetParent(ctx, branch)
			if err != nil {
				return deleted, err
			}
			if !ok {
				parent = trunk
			}
			children, err := e.store.GetChildren(ctx, branch)
			if err != nil {
				return deleted, err
			}
			for _, child := range children {
				if err := e.store.SetParent(ctx, child, parent); err != nil {
					return deleted, err
				}
			}
			if err := e.store.RemoveParent(ctx, branch); err != nil {
				return deleted, err
			}
			if err := e.repo.DeleteBranch(ctx, branch); err != nil {
				return deleted, err
			}
			if opts.DeleteRemote {
				if _, ok, err := e.repo.FindRef(ctx, "refs/remotes/"+e.repo.RemoteName()+"/"+branch); err == nil && ok {
					e.logger.WithField("branch", branch).Info("deleting merged remote branch")
					if err := e.repo.DeleteRef(ctx, "refs/remotes/"+e.repo.RemoteName()+"/"+branch); err != nil {
						return deleted, err
					}
				}
			}
			e.logger.WithField("branch", branch).Info("deleted merged branch")
			deleted = append(deleted, branch)
		}
	}
}
