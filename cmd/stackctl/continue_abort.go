package main

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/opstate"
	"github.com/stackctl/stackctl/internal/reshape"
	"github.com/stackctl/stackctl/internal/restack"
)

var errNoOperation = errors.Sentinel("no stackctl operation is in progress")

func newContinueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "Resume a restack/sync/move/insert suspended by a conflict",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			state := opstate.New(repo)
			st, ok, err := state.Load(ctx())
			if err != nil {
				return err
			}
			if !ok {
				return errNoOperation
			}

			switch st.Kind {
			case opstate.KindMove, opstate.KindInsert:
				outcome, err := reshape.New(repo).Continue(ctx())
				if err != nil {
					return err
				}
				return printReshapeOutcome(outcome)
			default:
				outcome, err := restack.New(repo).Continue(ctx())
				if err != nil {
					return err
				}
				return printRestackOutcome(outcome)
			}
		},
	}
}

func newAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort",
		Short: "Abort a suspended restack/sync/move/insert and restore affected branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			state := opstate.New(repo)
			st, ok, err := state.Load(ctx())
			if err != nil {
				return err
			}
			if !ok {
				return errNoOperation
			}

			switch st.Kind {
			case opstate.KindMove, opstate.KindInsert:
				if err := reshape.New(repo).Abort(ctx()); err != nil {
					return err
				}
			default:
				if err := restack.New(repo).Abort(ctx()); err != nil {
					return err
				}
			}
			fmt.Println("operation aborted")
			return nil
		},
	}
}
