package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/config"
	"github.com/stackctl/stackctl/internal/gitrepo"
)

var (
	repoDirFlag string
	remoteFlag  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stackctl",
		Short:         "Manage stacked git branches and their pull requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) {
				color.NoColor = true
			}
			if repoDirFlag == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				repoDirFlag = wd
			}
			if _, err := config.Load(nil); err != nil {
				return err
			}
			return config.LoadUserState()
		},
	}

	cmd.PersistentFlags().StringVarP(&repoDirFlag, "repo", "C", "", "path to the repository (defaults to the current directory)")
	cmd.PersistentFlags().StringVar(&remoteFlag, "remote", "origin", "name of the git remote to treat as the forge")

	cmd.AddCommand(
		newInitCmd(),
		newTrackCmd(),
		newUntrackCmd(),
		newRestackCmd(),
		newSyncCmd(),
		newMoveCmd(),
		newInsertCmd(),
		newSubmitCmd(),
		newContinueCmd(),
		newAbortCmd(),
		newValidateCmd(),
		newStackCmd(),
		newUndoCmd(),
		newGCCmd(),
		newVersionCmd(),
	)

	return cmd
}

// openRepo discovers and opens the repository named by --repo, using the
// subprocess backend: restack/sync need real rebase execution, which LibRepo
// always delegates back to ExecRepo anyway.
func openRepo() (*gitrepo.ExecRepo, error) {
	dir, err := filepath.Abs(repoDirFlag)
	if err != nil {
		return nil, err
	}
	return gitrepo.OpenExecRepo(dir, remoteFlag)
}

func ctx() context.Context {
	return context.Background()
}

var logger = logrus.WithField("component", "cmd")
