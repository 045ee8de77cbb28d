package gitrepo

import (
	"context"
	"strings"
)

// runRebase drives a rebase subcommand and classifies the outcome, grounded
// on the teacher's internal/git/rebase.go (the GIT_EDITOR=true trick avoids
// ever dropping into an interactive editor for a plain rebase).
func (r *ExecRepo) runRebase(ctx context.Context, args []string) (RebaseResult, error) {
	out, err := r.run(ctx, &RunOpts{
		Args: args,
		Env:  []string{"GIT_EDITOR=true", "GIT_SEQUENCE_EDITOR=true"},
	})
	if err != nil {
		return RebaseResult{}, err
	}
	if out.ExitCode == 0 {
		return RebaseResult{Status: RebaseSuccess}, nil
	}
	files, cerr := r.ConflictedFiles(ctx)
	if cerr != nil {
		return RebaseResult{}, cerr
	}
	headline := firstNonEmptyLine(string(out.Stderr))
	if headline == "" {
		headline = firstNonEmptyLine(string(out.Stdout))
	}
	return RebaseResult{
		Status:          RebaseConflict,
		ErrorHeadline:   headline,
		ConflictedFiles: files,
	}, nil
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// Rebase replays branch onto onto directly (plain, non-fork-point rebase).
func (r *ExecRepo) Rebase(ctx context.Context, branch, onto string) (RebaseResult, error) {
	return r.runRebase(ctx, []string{"rebase", "--onto", onto, onto, branch})
}

// RebaseForkPoint replays only the commits unique to branch (as determined
// from the reflog-derived fork point) onto onto. Callers should fall back to
// Rebase with a warning when ReflogHasEntries is false, per the restack
// engine's documented fallback behavior.
func (r *ExecRepo) RebaseForkPoint(ctx context.Context, branch, onto string) (RebaseResult, error) {
	return r.runRebase(ctx, []string{"rebase", "--fork-point", "--onto", onto, onto, branch})
}

// RebaseOntoFrom replays the range (oldBase, branch] onto newBase, used by
// the move/insert reshaping operations.
func (r *ExecRepo) RebaseOntoFrom(ctx context.Context, branch, newBase, oldBase string) (RebaseResult, error) {
	return r.runRebase(ctx, []string{"rebase", "--onto", newBase, oldBase, branch})
}

func (r *ExecRepo) RebaseContinue(ctx context.Context) (RebaseResult, error) {
	return r.runRebase(ctx, []string{"rebase", "--continue"})
}

func (r *ExecRepo) RebaseAbort(ctx context.Context) error {
	_, err := r.run(ctx, &RunOpts{Args: []string{"rebase", "--abort"}})
	return err
}

// RebaseInProgress reports whether a rebase is currently suspended on a
// conflict, by checking for the rebase-merge or rebase-apply state
// directories git itself uses.
func (r *ExecRepo) RebaseInProgress(ctx context.Context) (bool, error) {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		out, err := r.run(ctx, &RunOpts{Args: []string{"rev-parse", "--git-path", name}})
		if err != nil {
			return false, err
		}
		path := strings.TrimSpace(string(out.Stdout))
		if path != "" && dirExists(r.repoDir, path) {
			return true, nil
		}
	}
	return false, nil
}
