package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/validate"
)

func newValidateCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check stack metadata for cycles, orphans, and stale refs",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			v := validate.New(repo)

			if repair {
				report, err := v.FullRepair(ctx())
				if err != nil {
					return err
				}
				for _, b := range report.PrunedStaleParentRefs {
					fmt.Printf("pruned stale parent ref for %s\n", b)
				}
				for _, b := range report.ReparentedToTrunk {
					fmt.Printf("reparented %s to trunk\n", b)
				}
				for _, issue := range report.Remaining {
					fmt.Printf("[%s] %s\n", issue.Kind, issue.Message)
				}
				return nil
			}

			issues, err := v.Run(ctx())
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				fmt.Println("no issues found")
				return nil
			}
			for _, issue := range issues {
				fmt.Printf("[%s] %s\n", issue.Kind, issue.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "automatically fix what can be fixed")
	return cmd
}
