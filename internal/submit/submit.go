// Package submit implements the SubmissionPipeline of spec §4.10 — the
// single heaviest component in the system: it ensures every branch in a
// work set has an up-to-date change request on the forge with a correct
// base, then batch-refreshes every affected change request's stack
// visualization. Grounded on the teacher's cmd/av/stack_submit.go plan
// (compute work set, preflight, per-branch submit, then a description
// pass) generalized onto stackctl's RefStore/BackupManager and the narrow
// internal/forge collaborator, with the parallel description pass built on
// golang.org/x/sync/errgroup per Gizzahub-gzh-cli-gitforge's bulk update
// pattern.
package submit

import (
	"context"
	"sync"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stackctl/stackctl/internal/cache"
	"github.com/stackctl/stackctl/internal/forge"
	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/stackviz"
)

// maxParallelDescriptionUpdates bounds the batch description-update fan-out,
// the concurrency primitive spec §5 requires for the forge's "independent
// network requests...preserving input order" contract. Order doesn't
// matter for this pass's callers (each PR is updated independently), so a
// plain errgroup.SetLimit is sufficient without a result-ordering slice.
const maxParallelDescriptionUpdates = 8

// ErrBehindWithoutForce is returned when a branch's remote has diverged
// ahead and --force wasn't given.
var ErrBehindWithoutForce = errors.Sentinel("branch is behind its remote; re-run with --force to overwrite")

// ErrNotProperlyBased is returned during preflight when a branch's parent
// is not an ancestor of its tip (i.e. it needs a restack before submit).
var ErrNotProperlyBased = errors.Sentinel("branch is not based on its parent's current tip; run `stackctl restack` first")

// Status is a per-change-request progress state, per spec §4.10's
// "Pending -> Fetching -> Generating -> Updating -> Done | Skipped | Failed"
// transition list.
type Status string

const (
	StatusPending    Status = "pending"
	StatusFetching   Status = "fetching"
	StatusGenerating Status = "generating"
	StatusUpdating   Status = "updating"
	StatusDone       Status = "done"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// ProgressFunc is invoked with every status transition for branch. It may be
// called concurrently from the parallel description-update pass; callers
// that aren't already thread-safe should guard their own state.
type ProgressFunc func(branch string, status Status)

func noopProgress(string, Status) {}

// Options configures a submission pipeline run.
type Options struct {
	// Stack expands the work set to the current branch's whole stack
	// (ancestors ∪ descendants) instead of just the current branch.
	Stack bool
	// SkipValidation bypasses the "parent is an ancestor of tip" preflight
	// check.
	SkipValidation bool
	// UpdateOnly skips creating a PR for branches that don't have one yet.
	UpdateOnly bool
	// Force allows pushing a branch whose remote has diverged.
	Force bool
	// Publish converts an existing draft change request to ready-for-review.
	Publish bool
	// MergeWhenReady enables auto-merge on newly-created/updated change
	// requests.
	MergeWhenReady bool
	MergeMethod    forge.MergeMethod

	Progress ProgressFunc
}

// BranchResult records what happened to one branch's change request.
type BranchResult struct {
	Branch  string
	Number  int64
	URL     string
	Created bool
	Pushed  bool
}

// Result summarizes an entire pipeline run.
type Result struct {
	Branches []BranchResult
	// DescriptionsUpdated lists branches whose PR body was refreshed with a
	// new stack-viz block.
	DescriptionsUpdated []string
	// DescriptionFailures maps branch -> error for PRs whose body update
	// failed; a single PR failing never aborts the batch.
	DescriptionFailures map[string]error
}

// Pipeline runs SubmissionPipeline over one repository against one forge.
type Pipeline struct {
	repo   gitrepo.Repo
	store  *refstore.Store
	cache  *cache.Cache
	forge  forge.Forge
	logger logrus.FieldLogger
}

func New(repo gitrepo.Repo, f forge.Forge) *Pipeline {
	return &Pipeline{
		repo:   repo,
		store:  refstore.New(repo),
		cache:  cache.Open(repo),
		forge:  f,
		logger: logrus.WithField("component", "submit"),
	}
}

// Run executes the full submission pipeline for the given starting branch.
func (p *Pipeline) Run(ctx context.Context, startBranch string, opts Options) (*Result, error) {
	progress := opts.Progress
	if progress == nil {
		progress = noopProgress
	}

	trunk, err := p.store.RequireTrunk(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.repo.Fetch(ctx, p.repo.RemoteName()); err != nil {
		return nil, err
	}

	workSet, err := p.computeWorkSet(ctx, startBranch, opts.Stack)
	if err != nil {
		return nil, err
	}
	workSet, err = p.expandWithDivergedAncestorsWithPRs(ctx, workSet)
	if err != nil {
		return nil, err
	}

	if !opts.SkipValidation {
		if err := p.preflightBased(ctx, workSet); err != nil {
			return nil, err
		}
	}

	order, err := p.store.CollectBranchesDFS(ctx, []string{trunk})
	if err != nil {
		return nil, err
	}
	inWorkSet := make(map[string]bool, len(workSet))
	for _, b := range workSet {
		inWorkSet[b] = true
	}
	var orderedWorkSet []string
	for _, b := range order {
		if inWorkSet[b] {
			orderedWorkSet = append(orderedWorkSet, b)
		}
	}

	existCache, err := p.forge.CheckExist(ctx, orderedWorkSet)
	if err != nil {
		return nil, err
	}

	res := &Result{DescriptionFailures: make(map[string]error)}

	// Per-branch action in parent-first order. Because orderedWorkSet
	// already walks the DFS pre-order rooted at trunk, a branch's parent
	// (when it's also in the work set) has always already been submitted
	// by the time we reach it — this is the iterative form of spec
	// §4.10's "recursively submit the parent first" rule.
	for _, branch := range orderedWorkSet {
		br, err := p.submitOne(ctx, trunk, branch, existCache, opts)
		if err != nil {
			return res, errors.Wrapf(err, "submitting %q", branch)
		}
		res.Branches = append(res.Branches, *br)
	}

	if err := p.updateDescriptions(ctx, trunk, orderedWorkSet, progress, res); err != nil {
		return res, err
	}

	return res, nil
}

// computeWorkSet implements spec §4.10's "For --stack: ancestors ∪
// descendants. For single-branch: just {current}."
func (p *Pipeline) computeWorkSet(ctx context.Context, current string, stack bool) ([]string, error) {
	if !stack {
		return []string{current}, nil
	}

	ancestors, err := p.store.Ancestors(ctx, current)
	if err != nil {
		return nil, err
	}
	descendants, err := p.store.CollectBranchesDFS(ctx, []string{current})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var result []string
	for _, b := range append(ancestors, descendants...) {
		if !seen[b] {
			seen[b] = true
			result = append(result, b)
		}
	}
	return result, nil
}

// expandWithDivergedAncestorsWithPRs adds any ancestor of the work set that
// already has a forge PR and has diverged locally, since those must be
// force-pushed before the forge will see the right commit graph for their
// children.
func (p *Pipeline) expandWithDivergedAncestorsWithPRs(ctx context.Context, workSet []string) ([]string, error) {
	seen := make(map[string]bool, len(workSet))
	for _, b := range workSet {
		seen[b] = true
	}

	extra := []string{}
	for _, b := range workSet {
		ancestors, err := p.store.Ancestors(ctx, b)
		if err != nil {
			return nil, err
		}
		for _, a := range ancestors {
			if seen[a] {
				continue
			}
			_, hasHint, err := p.cache.Get(ctx, a)
			if err != nil {
				return nil, err
			}
			if !hasHint {
				continue
			}
			status, err := p.repo.CheckRemoteSync(ctx, a)
			if err != nil {
				return nil, err
			}
			if status.Kind == gitrepo.SyncDiverged || status.Kind == gitrepo.SyncAhead {
				seen[a] = true
				extra = append(extra, a)
			}
		}
	}
	return append(workSet, extra...), nil
}

// preflightBased enforces "every branch in the work set must be tracked and
// properly based on its parent" unless --skip-validation was given.
func (p *Pipeline) preflightBased(ctx context.Context, workSet []string) error {
	for _, branch := range workSet {
		parent, ok, err := p.store.GetParent(ctx, branch)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("%q is not tracked", branch)
		}
		based, err := p.repo.IsAncestor(ctx, parent, branch)
		if err != nil {
			return err
		}
		if !based {
			return errors.WrapIff(ErrNotProperlyBased, "branch %q onto parent %q", branch, parent)
		}
	}
	return nil
}

func (p *Pipeline) submitOne(ctx context.Context, trunk, branch string, existCache map[string]bool, opts Options) (*BranchResult, error) {
	result := &BranchResult{Branch: branch}

	parent, ok, err := p.store.GetParent(ctx, branch)
	if err != nil {
		return nil, err
	}
	if !ok {
		parent = trunk
	}

	syncStatus, err := p.repo.CheckRemoteSync(ctx, branch)
	if err != nil {
		return nil, err
	}
	switch syncStatus.Kind {
	case gitrepo.SyncBehind:
		if !opts.Force {
			return nil, ErrBehindWithoutForce
		}
		if err := p.repo.PushForce(ctx, p.repo.RemoteName(), branch); err != nil {
			return nil, err
		}
		result.Pushed = true
	case gitrepo.SyncInSync:
		if !existCache[branch] {
			if err := p.repo.PushWithLease(ctx, p.repo.RemoteName(), branch); err != nil {
				return nil, err
			}
			result.Pushed = true
		}
	default:
		if err := p.repo.PushWithLease(ctx, p.repo.RemoteName(), branch); err != nil {
			return nil, err
		}
		result.Pushed = true
	}

	cr, exists, err := p.forge.GetByHeadRef(ctx, branch)
	if err != nil {
		return nil, err
	}

	switch {
	case !exists:
		if opts.UpdateOnly {
			return result, nil
		}
		created, err := p.forge.Create(ctx, forge.CreateInput{
			HeadRef: branch,
			BaseRef: parent,
			Title:   branch,
			Draft:   false,
		})
		if err != nil {
			return nil, err
		}
		result.Created = true
		result.Number = created.Number
		result.URL = created.URL
		if err := p.cache.SetPRURL(ctx, branch, created.URL); err != nil {
			return nil, err
		}
		cr = created
	default:
		result.Number = cr.Number
		result.URL = cr.URL
		if cr.BaseRef != parent {
			if err := p.forge.UpdateBase(ctx, cr.Number, parent); err != nil {
				return nil, err
			}
		}
	}

	if opts.Publish && cr.Draft {
		if err := p.forge.Publish(ctx, cr.Number); err != nil {
			return nil, err
		}
	}
	if opts.MergeWhenReady {
		method := opts.MergeMethod
		if method == "" {
			method = forge.MergeMethodSquash
		}
		if err := p.forge.EnableAutoMerge(ctx, cr.Number, method); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// updateDescriptions is the batch pass of spec §4.10: fetch every open PR's
// body in the work set, splice in a fresh stack-viz block, and update in
// parallel. A single PR's failure is recorded in res.DescriptionFailures and
// never aborts the rest of the batch.
func (p *Pipeline) updateDescriptions(ctx context.Context, trunk string, workSet []string, progress ProgressFunc, res *Result) error {
	entries, err := p.buildEntries(ctx, trunk, workSet)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDescriptionUpdates)

	for _, branch := range workSet {
		branch := branch
		g.Go(func() error {
			progress(branch, StatusFetching)
			cr, ok, err := p.forge.GetByHeadRef(ctx, branch)
			if err != nil {
				progress(branch, StatusFailed)
				mu.Lock()
				res.DescriptionFailures[branch] = err
				mu.Unlock()
				return nil
			}
			if !ok || cr.State != forge.StateOpen {
				progress(branch, StatusSkipped)
				return nil
			}

			progress(branch, StatusGenerating)
			block := stackviz.Render(entries, branch)
			newBody := stackviz.UpdatePRDescription(cr.Body, block)

			progress(branch, StatusUpdating)
			if err := p.forge.UpdateBody(ctx, cr.Number, newBody); err != nil {
				progress(branch, StatusFailed)
				mu.Lock()
				res.DescriptionFailures[branch] = err
				mu.Unlock()
				return nil
			}

			progress(branch, StatusDone)
			mu.Lock()
			res.DescriptionsUpdated = append(res.DescriptionsUpdated, branch)
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

// buildEntries fetches the current forge state for every branch in workSet
// and pairs it with its tree prefix, in DFS order, ready for stackviz.Render.
func (p *Pipeline) buildEntries(ctx context.Context, trunk string, workSet []string) ([]stackviz.Entry, error) {
	entries := make([]stackviz.Entry, 0, len(workSet))
	for _, branch := range workSet {
		cr, ok, err := p.forge.GetByHeadRef(ctx, branch)
		if err != nil || !ok {
			continue
		}
		prefix, err := p.store.ComputeTreePrefix(ctx, branch, trunk)
		if err != nil {
			return nil, err
		}
		entries = append(entries, stackviz.Entry{
			Number:     cr.Number,
			URL:        cr.URL,
			Title:      cr.Title,
			State:      stackvizState(cr.State),
			Draft:      cr.Draft,
			HeadRef:    cr.HeadRef,
			BaseRef:    cr.BaseRef,
			TreePrefix: prefix,
			Updated:    cr.Updated,
		})
	}
	return entries, nil
}

func stackvizState(s forge.State) stackviz.State {
	switch s {
	case forge.StateMerged:
		return stackviz.StateMerged
	case forge.StateClosed:
		return stackviz.StateClosed
	default:
		return stackviz.StateOpen
	}
}
