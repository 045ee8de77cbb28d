package main

import (
	"fmt"
	"strings"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/stackctl/stackctl/internal/config"
	"github.com/stackctl/stackctl/internal/forge"
	"github.com/stackctl/stackctl/internal/forge/github"
	"github.com/stackctl/stackctl/internal/gh"
	"github.com/stackctl/stackctl/internal/providers"
	"github.com/stackctl/stackctl/internal/submit"
)

var errUnsupportedProvider = errors.Sentinel("submit currently only supports GitHub-hosted remotes")

func newSubmitCmd() *cobra.Command {
	var stack bool
	var updateOnly bool
	var force bool
	var publish bool
	var mergeWhenReady bool
	var mergeMethod string
	var skipValidation bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Push the current branch (or --stack) and create/update its pull request",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}

			detected, err := providers.DetectProvider(ctx(), repo)
			if err != nil {
				return err
			}
			if detected.Provider != providers.ProviderGitHub {
				return errUnsupportedProvider
			}
			owner, name, ok := strings.Cut(detected.RepoSlug, "/")
			if !ok {
				return errors.Errorf("could not parse owner/repo from %q", detected.RepoSlug)
			}

			client, err := gh.NewClient(config.Stackctl.GitHub.Token)
			if err != nil {
				return err
			}
			f := github.New(client, owner, name)

			current, err := repo.CurrentBranch(ctx())
			if err != nil {
				return err
			}

			method := forge.MergeMethodSquash
			switch mergeMethod {
			case "merge":
				method = forge.MergeMethodMerge
			case "rebase":
				method = forge.MergeMethodRebase
			}

			res, err := submit.New(repo, f).Run(ctx(), current, submit.Options{
				Stack:          stack,
				SkipValidation: skipValidation,
				UpdateOnly:     updateOnly,
				Force:          force,
				Publish:        publish,
				MergeWhenReady: mergeWhenReady,
				MergeMethod:    method,
				Progress: func(branch string, status submit.Status) {
					logger.Debugf("%s: %s", branch, status)
				},
			})
			if err != nil {
				return err
			}

			for _, br := range res.Branches {
				switch {
				case br.Created:
					fmt.Printf("created %s (#%d)\n", br.URL, br.Number)
				case br.Pushed:
					fmt.Printf("pushed %s (#%d %s)\n", br.Branch, br.Number, br.URL)
				default:
					fmt.Printf("%s is up to date (#%d %s)\n", br.Branch, br.Number, br.URL)
				}
			}
			for _, branch := range res.DescriptionsUpdated {
				fmt.Printf("refreshed stack description for %s\n", branch)
			}
			for branch, err := range res.DescriptionFailures {
				fmt.Printf("failed to refresh description for %s: %v\n", branch, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stack, "stack", false, "submit every branch in the current stack, not just the current branch")
	cmd.Flags().BoolVar(&updateOnly, "update-only", false, "never create a new pull request, only update existing ones")
	cmd.Flags().BoolVar(&force, "force", false, "force-push branches that have diverged from their remote")
	cmd.Flags().BoolVar(&publish, "publish", false, "mark newly-created or existing draft pull requests as ready for review")
	cmd.Flags().BoolVar(&mergeWhenReady, "merge-when-ready", false, "enable auto-merge on submitted pull requests")
	cmd.Flags().StringVar(&mergeMethod, "merge-method", "squash", "merge method for --merge-when-ready: squash, merge, or rebase")
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "skip the preflight check that every branch is based on its parent's current tip")
	return cmd
}
