package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/refstore"
)

func newTrackCmd() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "track [branch]",
		Short: "Start tracking a branch's parent in the stack",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			store := refstore.New(repo)

			branch := ""
			if len(args) == 1 {
				branch = args[0]
			} else {
				branch, err = repo.CurrentBranch(ctx())
				if err != nil {
					return err
				}
			}

			if parent == "" {
				parent, err = store.RequireTrunk(ctx())
				if err != nil {
					return err
				}
			}

			if err := store.SetParent(ctx(), branch, parent); err != nil {
				return err
			}
			fmt.Printf("%s is now tracked as a child of %s\n", branch, parent)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "parent branch (default: trunk)")
	return cmd
}

func newUntrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "untrack [branch]",
		Short: "Stop tracking a branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			store := refstore.New(repo)

			branch := ""
			var err2 error
			if len(args) == 1 {
				branch = args[0]
			} else {
				branch, err2 = repo.CurrentBranch(ctx())
				if err2 != nil {
					return err2
				}
			}

			if err := store.RemoveParent(ctx(), branch); err != nil {
				return err
			}
			fmt.Printf("%s is no longer tracked\n", branch)
			return nil
		},
	}
	return cmd
}
