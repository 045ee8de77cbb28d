package main

import (
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/backupmgr"
	"github.com/stackctl/stackctl/internal/opstate"
)

var errNothingToUndo = errors.Sentinel("no undoable sync/restack found in the operation log")

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the branches touched by the last sync/restack to their pre-operation state",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			log := opstate.NewLog(repo)
			entry, index, err := log.GetLastUndoableOperation()
			if err != nil {
				return err
			}
			if entry == nil {
				return errNothingToUndo
			}

			backups := backupmgr.New(repo)
			since := time.Unix(0, entry.CompletedAt).Add(-time.Hour)
			for _, branch := range entry.Branches {
				ref, ok, err := backups.NewestSince(ctx(), branch, since)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Printf("no backup found for %s, skipping\n", branch)
					continue
				}
				if err := backups.Restore(ctx(), *ref); err != nil {
					return err
				}
				fmt.Printf("restored %s from backup taken %s\n", branch, ref.Age())
			}

			return log.MarkUndone(index)
		},
	}
}
