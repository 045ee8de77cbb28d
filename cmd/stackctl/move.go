package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/reshape"
)

func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <branch> <new-parent>",
		Short: "Reparent a branch onto a new parent and restack its subtree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			original, err := repo.CurrentBranch(ctx())
			if err != nil {
				return err
			}
			outcome, err := reshape.New(repo).Move(ctx(), args[0], args[1], original)
			if err != nil {
				return err
			}
			return printReshapeOutcome(outcome)
		},
	}
	return cmd
}

func newInsertCmd() *cobra.Command {
	var parent, child string

	cmd := &cobra.Command{
		Use:   "insert <branch>",
		Short: "Insert a tracked branch between a parent and one of its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			original, err := repo.CurrentBranch(ctx())
			if err != nil {
				return err
			}
			outcome, err := reshape.New(repo).Insert(ctx(), args[0], parent, child, original)
			if err != nil {
				return err
			}
			return printReshapeOutcome(outcome)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "the existing parent branch (required)")
	cmd.Flags().StringVar(&child, "child", "", "the existing child branch currently parented to --parent (required)")
	_ = cmd.MarkFlagRequired("parent")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}

func printReshapeOutcome(outcome *reshape.Outcome) error {
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
	for _, b := range outcome.RebasedBranches {
		fmt.Printf("rebased %s\n", b)
	}
	if outcome.SubtreeOutcome != nil {
		return printRestackOutcome(outcome.SubtreeOutcome)
	}
	return nil
}
