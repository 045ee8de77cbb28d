package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/refstore"
	"github.com/stackctl/stackctl/internal/validate"
)

var currentBranchStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))

func newStackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stack",
		Short: "Print the local branch stack as a tree, rooted at trunk",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			store := refstore.New(repo)

			// Cheap, budgeted repair so a stale ref doesn't break the
			// listing on every invocation of a read-only command.
			if _, err := validate.New(repo).SilentRepair(ctx()); err != nil {
				return err
			}

			trunk, err := store.RequireTrunk(ctx())
			if err != nil {
				return err
			}
			current, err := repo.CurrentBranch(ctx())
			if err != nil {
				return err
			}

			order, err := store.CollectBranchesDFS(ctx(), []string{trunk})
			if err != nil {
				return err
			}

			fmt.Println(trunk)
			for _, branch := range order {
				if branch == trunk {
					continue
				}
				prefix, err := store.ComputeTreePrefix(ctx(), branch, trunk)
				if err != nil {
					return err
				}
				line := prefix + branch
				if branch == current {
					line = prefix + currentBranchStyle.Render(branch+" *")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
