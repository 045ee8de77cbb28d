package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/restack"
	"github.com/stackctl/stackctl/internal/validate"
)

// errConflict is returned by commands that suspended on a rebase conflict,
// so the process exits non-zero without printing a redundant Go error on
// top of the conflict details already written to stdout.

func newRestackCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "restack",
		Short: "Rebase every tracked branch onto its parent's current tip",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			store := refstore.New(repo)
			trunk, err := store.RequireTrunk(ctx())
			if err != nil {
				return err
			}

			if _, err := validate.New(repo).FullRepair(ctx()); err != nil {
				return err
			}

			original, err := repo.CurrentBranch(ctx())
			if err != nil {
				return err
			}

			roots := []string{trunk}
			if root != "" {
				roots = []string{root}
			}

			outcome, err := restack.New(repo).Run(ctx(), opstate.KindRestack, roots, nil, original)
			if err != nil {
				return err
			}
			return printRestackOutcome(outcome)
		},
	}

	cmd.Flags().StringVar(&root, "branch", "", "restack only the subtree rooted at this branch (default: the whole stack, rooted at trunk)")
	return cmd
}

func printRestackOutcome(outcome *restack.Outcome) error {
	for _, w := range outcome.Warnings {
		fmt.Printf("warning: %s: %s\n", w.Branch, w.Message)
	}
	if outcome.Conflict != nil {
		c := outcome.Conflict
		fmt.Printf("[CONFLICTED] %s onto %s\n", c.Branch, c.Parent)
		for _, f := range c.ConflictedFiles {
			fmt.Printf("  %s (%s)\n", f.Path, f.Kind)
		}
		fmt.Println(c.ErrorHeadline)
		fmt.Println("resolve the conflict and run `stackctl continue`, or `stackctl abort` to cancel")
		return errConflict
	}
	for _, b := range outcome.Completed {
		fmt.Printf("restacked %s\n", b)
	}
	return nil
}

var errConflict = errors.Sentinel("operation suspended on a conflict")
