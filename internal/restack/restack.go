// Package restack implements the RestackEngine of spec §4.6 — the heart of
// the system: it rewrites every branch in a DFS-ordered set so each sits on
// top of its parent's current tip, snapshotting a backup before every
// mutation and suspending resumably on conflict. Grounded on the teacher's
// internal/sequencer/sequencer.go (the suspend/resume/abort state machine
// shape) and internal/sequencer/planner/planner.go (DFS-ordered operation
// planning), generalized from av's branch-metadata model onto stackctl's
// RefStore and reworked around fork-point rebase with a fallback warning.
package restack

import (
	"context"
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"github.com/stackctl/stackctl/internal/backupmgr"
	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stackctl/stackctl/internal/refstore"
)

func nanosToTime(nanos int64) time.Time { return time.Unix(0, nanos) }

// ErrOperationInProgress is returned by Run when an OperationState already
// exists.
var ErrOperationInProgress = errors.Sentinel("another operation is already in progress; run `stackctl continue` or `stackctl abort`")

// Warning is a non-fatal, user-visible note produced during a run (e.g. the
// fork-point-unavailable fallback).
type Warning struct {
	Branch  string
	Message string
}

// Outcome describes what happened after a Run/Resume call.
type Outcome struct {
	// Completed lists branches that were successfully rebased, in DFS
	// order.
	Completed []string
	// Conflict is populated when the run suspended on a conflict.
	Conflict *ConflictInfo
	Warnings []Warning
}

// ConflictInfo carries everything the conflict UX (§4.11) needs to render.
type ConflictInfo struct {
	Branch            string
	Parent            string
	ConflictedFiles   []gitrepo.ConflictedFile
	RemainingBranches []string
	ErrorHeadline     string
}

// Engine runs restacks over a repository.
type Engine struct {
	repo    gitrepo.Repo
	store   *refstore.Store
	state   *opstate.Store
	log     *opstate.Log
	backups *backupmgr.Manager
	logger  logrus.FieldLogger
}

func New(repo gitrepo.Repo) *Engine {
	return &Engine{
		repo:    repo,
		store:   refstore.New(repo),
		state:   opstate.New(repo),
		log:     opstate.NewLog(repo),
		backups: backupmgr.New(repo),
		logger:  logrus.WithField("component", "restack"),
	}
}

// Run restacks the subtree(s) rooted at roots, filtered to branches (nil
// means "every tracked descendant of roots"), in the canonical DFS pre-order
// of spec §4.6. It persists an OperationState under kind so the caller
// (restack vs move vs insert vs sync) is recorded for abort/continue.
func (e *Engine) Run(ctx context.Context, kind opstate.Kind, roots []string, branches []string, originalBranch string) (*Outcome, error) {
	if inProgress, err := e.state.Exists(); err != nil {
		return nil, err
	} else if inProgress {
		return nil, ErrOperationInProgress
	}

	order, err := e.store.CollectBranchesDFS(ctx, roots)
	if err != nil {
		return nil, err
	}
	if branches != nil {
		allowed := make(map[string]bool, len(branches))
		for _, b := range branches {
			allowed[b] = true
		}
		var filtered []string
		for _, b := range order {
			if allowed[b] {
				filtered = append(filtered, b)
			}
		}
		order = filtered
	}

	out, err := e.runFrom(ctx, kind, order, originalBranch, order, nil, time.Now())
	if err != nil {
		return nil, err
	}
	if out.Conflict == nil {
		if err := e.log.Append(kind, out.Completed, time.Now()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// runFrom processes remaining in order, persisting OperationState on
// conflict and returning the accumulated outcome.
func (e *Engine) runFrom(ctx context.Context, kind opstate.Kind, allBranches []string, originalBranch string, remaining []string, completed []string, startedAt time.Time) (*Outcome, error) {
	out := &Outcome{Completed: completed}

	for i, branch := range remaining {
		parent, ok, err := e.store.GetParent(ctx, branch)
		if !ok || err != nil {
			if err != nil {
				return nil, err
			}
			// Untracked/rootless: nothing to rebase onto, skip.
			continue
		}

		frozen, err := e.store.IsFrozen(ctx, branch)
		if err != nil {
			return nil, err
		}
		if frozen {
			continue
		}

		branchTip, err := e.repo.ResolveRef(ctx, "refs/heads/"+branch)
		if err != nil {
			return nil, err
		}
		alreadyBased, err := e.repo.IsAncestor(ctx, "refs/heads/"+parent, branchTip)
		if err != nil {
			return nil, err
		}
		if alreadyBased {
			out.Completed = append(out.Completed, branch)
			continue
		}

		if _, err := e.backups.Create(ctx, branch); err != nil {
			return nil, err
		}

		result, warning, err := e.rebaseBranch(ctx, branch, parent)
		if err != nil {
			return nil, err
		}
		if warning != "" {
			out.Warnings = append(out.Warnings, Warning{Branch: branch, Message: warning})
		}

		if result.Status == gitrepo.RebaseConflict {
			remainingAfter := append([]string{branch}, remaining[i+1:]...)
			st := &opstate.State{
				Kind:              kind,
				OriginalBranch:    originalBranch,
				CurrentBranch:     branch,
				AllBranches:       allBranches,
				RemainingBranches: remainingAfter,
				StartedAtUnixNano: startedAt.UnixNano(),
			}
			if err := e.state.Save(st); err != nil {
				return nil, err
			}
			out.Conflict = &ConflictInfo{
				Branch:            branch,
				Parent:            parent,
				ConflictedFiles:   result.ConflictedFiles,
				RemainingBranches: remainingAfter[1:],
				ErrorHeadline:     result.ErrorHeadline,
			}
			return out, nil
		}

		out.Completed = append(out.Completed, branch)
	}

	return out, nil
}

// rebaseBranch prefers a fork-point rebase and falls back to a plain rebase
// with a warning if the reflog has no usable history, per spec §4.6 step 3.
func (e *Engine) rebaseBranch(ctx context.Context, branch, parent string) (gitrepo.RebaseResult, string, error) {
	hasReflog, err := e.repo.ReflogHasEntries(ctx, "refs/heads/"+branch)
	if err != nil {
		return gitrepo.RebaseResult{}, "", err
	}
	if hasReflog {
		result, err := e.repo.RebaseForkPoint(ctx, branch, parent)
		if err != nil {
			return gitrepo.RebaseResult{}, "", err
		}
		return result, "", nil
	}
	warning := fmt.Sprintf("no reflog history for %q; falling back to a plain rebase, which may carry extra commits", branch)
	e.logger.Warn(warning)
	result, err := e.repo.Rebase(ctx, branch, parent)
	if err != nil {
		return gitrepo.RebaseResult{}, "", err
	}
	return result, warning, nil
}

// Continue resumes a suspended restack/sync/move/insert after the user has
// resolved the host rebase's conflict and run `git add`.
func (e *Engine) Continue(ctx context.Context) (*Outcome, error) {
	st, ok, err := e.state.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("no operation in progress")
	}

	result, err := e.repo.RebaseContinue(ctx)
	if err != nil {
		return nil, err
	}
	if result.Status == gitrepo.RebaseConflict {
		st.RemainingBranches[0] = st.CurrentBranch
		if err := e.state.Overwrite(st); err != nil {
			return nil, err
		}
		return &Outcome{
			Conflict: &ConflictInfo{
				Branch:            st.CurrentBranch,
				RemainingBranches: st.RemainingBranches[1:],
				ConflictedFiles:   result.ConflictedFiles,
				ErrorHeadline:     result.ErrorHeadline,
			},
		}, nil
	}

	// The branch that was suspended just finished; resume from the rest.
	finishedBranch := st.RemainingBranches[0]
	rest := st.RemainingBranches[1:]
	out, err := e.runFrom(ctx, st.Kind, st.AllBranches, st.OriginalBranch, rest, []string{finishedBranch}, nanosToTime(st.StartedAtUnixNano))
	if err != nil {
		return nil, err
	}
	if out.Conflict == nil {
		if err := e.log.Append(st.Kind, out.Completed, time.Now()); err != nil {
			return nil, err
		}
		if err := e.state.Clear(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Abort aborts any in-progress host rebase, restores every branch in
// AllBranches from its matching backup (for Sync/Restack) or the recorded
// old parent (for Move/Insert), checks out the original branch, and clears
// the operation state.
func (e *Engine) Abort(ctx context.Context) error {
	st, ok, err := e.state.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no operation in progress")
	}

	if inProgress, err := e.repo.RebaseInProgress(ctx); err != nil {
		return err
	} else if inProgress {
		if err := e.repo.RebaseAbort(ctx); err != nil {
			return err
		}
	}

	switch st.Kind {
	case opstate.KindSync, opstate.KindRestack:
		since := nanosToTime(st.StartedAtUnixNano)
		for _, branch := range st.AllBranches {
			ref, found, err := e.backups.NewestSince(ctx, branch, since)
			if err != nil {
				return err
			}
			if found {
				if err := e.backups.Restore(ctx, *ref); err != nil {
					return err
				}
			}
		}
	case opstate.KindMove:
		if st.OldParent != "" {
			if err := e.store.SetParent(ctx, st.CurrentBranch, st.OldParent); err != nil {
				return err
			}
		}
	case opstate.KindInsert:
		if st.OldParent != "" {
			if err := e.store.SetParent(ctx, st.CurrentBranch, st.OldParent); err != nil {
				return err
			}
		}
	}

	if exists, err := e.repo.BranchExists(ctx, st.OriginalBranch); err == nil && exists {
		if err := e.repo.CheckoutSafe(ctx, st.OriginalBranch); err != nil {
			return err
		}
	}

	return e.state.Clear()
}
