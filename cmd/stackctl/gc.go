package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/backupmgr"
)

func newGCCmd() *cobra.Command {
	var age time.Duration
	var keep int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete old backup refs",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			backups := backupmgr.New(repo)

			if dryRun {
				refs, err := backups.List(ctx())
				if err != nil {
					return err
				}
				cutoff := time.Now().Add(-age)
				for _, r := range refs {
					if r.Timestamp.Before(cutoff) {
						fmt.Printf("would delete %s (%s, %s)\n", r.RefName, r.Branch, r.Age())
					}
				}
				return nil
			}

			byAge, byCount, err := backups.GC(ctx(), age, keep)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d backup(s) by age, %d by count\n", byAge, byCount)
			return nil
		},
	}

	cmd.Flags().DurationVar(&age, "age", 14*24*time.Hour, "delete backups older than this")
	cmd.Flags().IntVar(&keep, "keep", 10, "keep at most this many backups per branch")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list backups older than --age without deleting; --keep and the in-progress-operation check are not applied")
	return cmd
}
