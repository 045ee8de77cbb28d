package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/syncengine"
)

func newSyncCmd() *cobra.Command {
	var force, deleteMerged, deleteRemote bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch trunk, prune merged branches, and restack everything else",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			res, err := syncengine.New(repo).Run(ctx(), syncengine.Options{
				Force:        force,
				DeleteMerged: deleteMerged,
				DeleteRemote: deleteRemote,
			})
			if err != nil {
				return err
			}
			if res.TrunkFastForwarded {
				fmt.Println("trunk fast-forwarded")
			}
			for _, b := range res.MergedDeleted {
				fmt.Printf("deleted merged branch %s\n", b)
			}
			if res.Restack != nil {
				return printRestackOutcome(res.Restack)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite a diverged local trunk with the remote tip")
	cmd.Flags().BoolVar(&deleteMerged, "delete-merged", true, "delete branches detected as merged into trunk")
	cmd.Flags().BoolVar(&deleteRemote, "delete-remote", false, "also delete the remote-tracking branch for deleted branches")
	return cmd
}
