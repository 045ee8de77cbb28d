package config

import (
	"emperror.dev/errors"
	"github.com/spf13/viper"
	"os"
)

type GitHub struct {
	Token   string
	BaseUrl string
}

type GitLab struct {
	Token   string
	BaseURL string
}

type PullRequest struct {
	Draft       bool
	OpenBrowser bool
	// If true, the pull request will be converted to a draft if the base branch
	// needs to be changed after the pull request has been changed. This avoids
	// accidentally adding lots of unnecessary auto-added reviewers (via GitHub's
	// CODEOWNERS feature) to the pull request while the PR is in a transient
	// state.
	// If not set, the value should be considered true iff there is a CODEOWNERS
	// file in the repository.
	RebaseWithDraft *bool
}

var Stackctl = struct {
	PullRequest PullRequest
	GitHub      GitHub
	GitLab      GitLab
}{
	PullRequest: PullRequest{
		OpenBrowser: true,
	},
	GitHub: GitHub{
		BaseUrl: "https://github.com",
	},
	GitLab: GitLab{
		BaseURL: "https://gitlab.com",
	},
}

// Load initializes the configuration values.
// It may optionally be called with a list of additional paths to check for the
// config file.
// Returns a boolean indicating whether or not a config file was loaded and an
// error if one occurred.
func Load(paths []string) (bool, error) {
	loaded, err := loadFromFile(paths)
	loadFromEnv()
	return loaded, err
}

func loadFromFile(paths []string) (bool, error) {
	config := viper.New()

	// Viper has support for various formats, so it supports kson, toml, yaml,
	// and more (https://github.com/spf13/viper#reading-config-files).
	config.SetConfigName("config")

	// Reasonable places to look for config files.
	config.AddConfigPath("$XDG_CONFIG_HOME/stackctl")
	config.AddConfigPath("$HOME/.config/stackctl")
	config.AddConfigPath("$HOME/.stackctl")
	config.AddConfigPath("$STACKCTL_HOME")
	// Add additional custom paths.
	// The primary use case for this is adding repository-specific
	// configuration (e.g., $REPO/.git/stackctl/config.json).
	for _, path := range paths {
		config.AddConfigPath(path)
	}

	if err := config.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return false, nil
		}
		return false, err
	}

	if err := config.Unmarshal(&Stackctl); err != nil {
		return true, errors.Wrap(err, "failed to read stackctl configs")
	}

	return true, nil
}

func loadFromEnv() {
	if githubToken := os.Getenv("STACKCTL_GITHUB_TOKEN"); githubToken != "" {
		Stackctl.GitHub.Token = githubToken
	} else if githubToken := os.Getenv("GITHUB_TOKEN"); githubToken != "" {
		Stackctl.GitHub.Token = githubToken
	}

	if gitlabToken := os.Getenv("STACKCTL_GITLAB_TOKEN"); gitlabToken != "" {
		Stackctl.GitLab.Token = gitlabToken
	} else if gitlabToken := os.Getenv("GITLAB_TOKEN"); gitlabToken != "" {
		Stackctl.GitLab.Token = gitlabToken
	}
}
