package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/refstore"
)

func newInitCmd() *cobra.Command {
	var trunk string
	var reset bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the trunk branch for this repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			store := refstore.New(repo)

			if reset {
				if err := store.ClearAll(ctx()); err != nil {
					return err
				}
			}

			if trunk == "" {
				for _, candidate := range []string{"main", "master"} {
					exists, err := repo.BranchExists(ctx(), candidate)
					if err != nil {
						return err
					}
					if exists {
						trunk = candidate
						break
					}
				}
			}
			if trunk == "" {
				return errors.New("could not detect a trunk branch; pass --trunk explicitly")
			}
			if exists, err := repo.BranchExists(ctx(), trunk); err != nil {
				return err
			} else if !exists {
				return errors.Errorf("branch %q does not exist", trunk)
			}

			if err := store.SetTrunk(ctx(), trunk); err != nil {
				return err
			}
			fmt.Printf("trunk set to %q\n", trunk)
			return nil
		},
	}

	cmd.Flags().StringVar(&trunk, "trunk", "", "trunk branch name (default: auto-detect main/master)")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear all existing stackctl metadata before initializing")
	return cmd
}
