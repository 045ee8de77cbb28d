package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stackctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(config.Version)
			if config.Version == config.VersionDev {
				return nil
			}
			latest, err := config.FetchLatestVersion()
			if err != nil {
				logger.WithError(err).Debug("failed to check for a newer release")
				return nil
			}
			if latest != "" && latest != config.Version {
				fmt.Printf("a newer version is available: %s\n", latest)
			}
			return nil
		},
	}
}
