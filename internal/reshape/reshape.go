// Package reshape implements the Move and Insert stack-reshaping operations
// of spec §4.8. Both operations change a branch's parent-ref metadata and
// then replay exactly the commits unique to the moved branch onto its new
// base via Repo.RebaseOntoFrom, before handing the affected subtree to
// RestackEngine to bring descendants back into place. Grounded on the
// teacher's internal/sequencer (the suspend/resume/abort shape reused here)
// generalized onto stackctl's RefStore, since av has no equivalent
// metadata-reparenting command.
package reshape

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/stackctl/stackctl/internal/backupmgr"
	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/restack"
)

var (
	// ErrSelfMove is returned when a branch is moved onto itself.
	ErrSelfMove = errors.Sentinel("cannot move a branch onto itself")
	// ErrWouldCreateCycle is returned when the requested new parent is a
	// descendant of the branch being moved.
	ErrWouldCreateCycle = errors.Sentinel("requested parent is a descendant of the branch being moved")
	// ErrNotTracked is returned when a branch named in a Move/Insert isn't
	// tracked in the RefStore.
	ErrNotTracked = errors.Sentinel("branch is not tracked")
	// ErrWrongParent is returned by Insert when C's current parent isn't P.
	ErrWrongParent = errors.Sentinel("child's current parent does not match the expected insertion point")
)

// Outcome mirrors restack.Outcome for the initial reparent-rebase step, plus
// whatever the follow-on subtree restack produced.
type Outcome struct {
	Conflict        *restack.ConflictInfo
	SubtreeOutcome  *restack.Outcome
	RebasedBranches []string
}

// Engine runs Move and Insert over a repository.
type Engine struct {
	repo      gitrepo.Repo
	store     *refstore.Store
	state     *opstate.Store
	backups   *backupmgr.Manager
	restacker *restack.Engine
}

func New(repo gitrepo.Repo) *Engine {
	return &Engine{
		repo:      repo,
		store:     refstore.New(repo),
		state:     opstate.New(repo),
		backups:   backupmgr.New(repo),
		restacker: restack.New(repo),
	}
}

// Move reparents branch onto newParent (spec §4.8's "Move B onto P'").
func (e *Engine) Move(ctx context.Context, branch, newParent, originalBranch string) (*Outcome, error) {
	if inProgress, err := e.state.Exists(); err != nil {
		return nil, err
	} else if inProgress {
		return nil, restack.ErrOperationInProgress
	}
	if branch == newParent {
		return nil, ErrSelfMove
	}

	oldParent, ok, err := e.store.GetParent(ctx, branch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotTracked, "branch %q", branch)
	}

	if err := e.checkNotDescendant(ctx, branch, newParent); err != nil {
		return nil, err
	}

	if err := e.store.SetParent(ctx, branch, newParent); err != nil {
		return nil, err
	}

	if _, err := e.backups.Create(ctx, branch); err != nil {
		return nil, err
	}

	result, err := e.repo.RebaseOntoFrom(ctx, branch, newParent, oldParent)
	if err != nil {
		return nil, err
	}
	if result.Status == gitrepo.RebaseConflict {
		st := &opstate.State{
			Kind:              opstate.KindMove,
			OriginalBranch:    originalBranch,
			CurrentBranch:     branch,
			OldParent:         oldParent,
			NewParent:         newParent,
			StartedAtUnixNano: time.Now().UnixNano(),
		}
		if err := e.state.Save(st); err != nil {
			return nil, err
		}
		return &Outcome{
			Conflict: &restack.ConflictInfo{
				Branch:          branch,
				Parent:          newParent,
				ConflictedFiles: result.ConflictedFiles,
				ErrorHeadline:   result.ErrorHeadline,
			},
		}, nil
	}

	return e.restackSubtree(ctx, branch, opstate.KindMove, originalBranch, []string{branch})
}

// checkNotDescendant rejects a move/insert that would make branch an
// ancestor of itself: newParent must not already have branch in its
// ancestor chain.
func (e *Engine) checkNotDescendant(ctx context.Context, branch, newParent string) error {
	ancestors, err := e.store.Ancestors(ctx, newParent)
	if err != nil {
		return err
	}
	for _, a := range ancestors {
		if a == branch {
			return errors.Wrapf(ErrWouldCreateCycle, "%q is an ancestor of %q", branch, newParent)
		}
	}
	return nil
}

// Insert attaches newBranch between parent and child (spec §4.8's "Insert N
// between P and C"): child's current parent must already be parent.
func (e *Engine) Insert(ctx context.Context, newBranch, parent, child, originalBranch string) (*Outcome, error) {
	if inProgress, err := e.state.Exists(); err != nil {
		return nil, err
	} else if inProgress {
		return nil, restack.ErrOperationInProgress
	}

	for _, b := range []string{newBranch, child} {
		tracked, err := e.store.IsTracked(ctx, b)
		if err != nil {
			return nil, err
		}
		if !tracked {
			return nil, errors.Wrapf(ErrNotTracked, "branch %q", b)
		}
	}

	currentParent, ok, err := e.store.GetParent(ctx, child)
	if err != nil {
		return nil, err
	}
	if !ok || currentParent != parent {
		return nil, errors.Wrapf(ErrWrongParent, "child %q is not currently parented to %q", child, parent)
	}

	if err := e.store.SetParent(ctx, newBranch, parent); err != nil {
		return nil, err
	}
	if err := e.store.SetParent(ctx, child, newBranch); err != nil {
		return nil, err
	}

	if _, err := e.backups.Create(ctx, child); err != nil {
		return nil, err
	}

	result, err := e.repo.RebaseOntoFrom(ctx, child, newBranch, parent)
	if err != nil {
		return nil, err
	}
	if result.Status == gitrepo.RebaseConflict {
		st := &opstate.State{
			Kind:              opstate.KindInsert,
			OriginalBranch:    originalBranch,
			CurrentBranch:     child,
			OldParent:         parent,
			NewParent:         newBranch,
			StartedAtUnixNano: time.Now().UnixNano(),
		}
		if err := e.state.Save(st); err != nil {
			return nil, err
		}
		return &Outcome{
			Conflict: &restack.ConflictInfo{
				Branch:          child,
				Parent:          newBranch,
				ConflictedFiles: result.ConflictedFiles,
				ErrorHeadline:   result.ErrorHeadline,
			},
		}, nil
	}

	return e.restackSubtree(ctx, child, opstate.KindInsert, originalBranch, []string{child})
}

// restackSubtree hands the children of the just-moved-or-inserted branch to
// RestackEngine, so descendants whose own parent pointer didn't change still
// get rebased onto the new tip.
func (e *Engine) restackSubtree(ctx context.Context, movedBranch string, kind opstate.Kind, originalBranch string, rebased []string) (*Outcome, error) {
	children, err := e.store.GetChildren(ctx, movedBranch)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return &Outcome{RebasedBranches: rebased}, nil
	}

	subtreeOutcome, err := e.restacker.Run(ctx, kind, children, nil, originalBranch)
	if err != nil {
		return nil, err
	}
	return &Outcome{SubtreeOutcome: subtreeOutcome, RebasedBranches: rebased}, nil
}

// Continue resumes a suspended Move/Insert's initial reparent-rebase step
// after the user has resolved the host rebase conflict. Callers must only
// invoke this when the pending OperationState's Kind is Move or Insert —
// dispatching by Kind is the caller's responsibility (cmd/stackctl routes
// Sync/Restack states to restack.Engine.Continue instead).
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
		return &Outcome{
			Conflict: &restack.ConflictInfo{
				Branch:          st.CurrentBranch,
				Parent:          st.NewParent,
				ConflictedFiles: result.ConflictedFiles,
				ErrorHeadline:   result.ErrorHeadline,
			},
		}, nil
	}

	if err := e.state.Clear(); err != nil {
		return nil, err
	}
	return e.restackSubtree(ctx, st.CurrentBranch, st.Kind, st.OriginalBranch, []string{st.CurrentBranch})
}

// Abort aborts any in-progress host rebase and reverts the moved/inserted
// branch's parent ref back to OldParent, matching spec §4.8's "abort
// reverts the parent ref" (Move) / "abort reverts parent(C)" (Insert).
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

	if st.OldParent != "" {
		if err := e.store.SetParent(ctx, st.CurrentBranch, st.OldParent); err != nil {
			return err
		}
	}

	if exists, err := e.repo.BranchExists(ctx, st.OriginalBranch); err == nil && exists {
		if err := e.repo.CheckoutSafe(ctx, st.OriginalBranch); err != nil {
			return err
		}
	}

	return e.state.Clear()
}
