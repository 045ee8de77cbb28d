package providers

import (
	"context"
	"net/url"
	"strings"

	"emperror.dev/errors"
	"github.com/stackctl/stackctl/internal/gitrepo"
)

// Provider represents the Git hosting provider type.
type Provider string

const (
	ProviderGitHub Provider = "github"
	ProviderGitLab Provider = "gitlab"
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// DetectionResult contains information about the detected provider.
type DetectionResult struct {
	Provider Provider
	BaseURL  string // Base URL for the provider (e.g., "https://gitlab.example.com")
	RepoSlug string // Repository slug (e.g., "owner/repo")
}

// DetectProvider determines the Git hosting provider for the given repository.
func DetectProvider(ctx context.Context, repo gitrepo.Repo) (*DetectionResult, error) {
	raw, err := repo.RemoteURL(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get repository remote")
	}
	remoteURL, slug, err := parseRemote(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse repository remote")
	}

	return DetectProviderFromURL(remoteURL, slug)
}

// parseRemote handles both HTTPS ("https://host/owner/repo.git") and scp-like
// SSH ("git@host:owner/repo.git") remote URL forms.
func parseRemote(raw string) (*url.URL, string, error) {
	raw = strings.TrimSuffix(raw, ".git")

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, "", err
		}
		return u, strings.TrimPrefix(u.Path, "/"), nil
	}

	// scp-like syntax: user@host:path
	at := strings.Index(raw, "@")
	colon := strings.Index(raw, ":")
	if at < 0 || colon < at {
		return nil, "", errors.Errorf("unrecognized remote URL %q", raw)
	}
	host := raw[at+1 : colon]
	slug := raw[colon+1:]
	return &url.URL{Host: host}, slug, nil
}

// DetectProviderFromURL determines the provider from a Git remote URL.
func DetectProviderFromURL(remoteURL *url.URL, repoSlug string) (*DetectionResult, error) {
	if remoteURL == nil {
		return nil, errors.New("remote URL is nil")
	}

	hostname := strings.ToLower(remoteURL.Hostname())

	// Detect GitHub
	if hostname == "github.com" || strings.HasSuffix(hostname, ".github.com") {
		return &DetectionResult{
			Provider: ProviderGitHub,
			BaseURL:  getBaseURL(remoteURL),
			RepoSlug: repoSlug,
		}, nil
	}

	// Detect GitLab (both GitLab.com and self-hosted)
	if hostname == "gitlab.com" || strings.HasSuffix(hostname, ".gitlab.com") {
		return &DetectionResult{
			Provider: ProviderGitLab,
			BaseURL:  getBaseURL(remoteURL),
			RepoSlug: repoSlug,
		}, nil
	}

	// For other hosts, we need to make a best guess.
	// Check common GitLab patterns in hostname.
	if strings.Contains(hostname, "gitlab") {
		return &DetectionResult{
			Provider: ProviderGitLab,
			BaseURL:  getBaseURL(remoteURL),
			RepoSlug: repoSlug,
		}, nil
	}

	// Default to GitHub for unknown providers.
	// This maintains backward compatibility with existing behavior.
	return &DetectionResult{
		Provider: ProviderGitHub,
		BaseURL:  getBaseURL(remoteURL),
		RepoSlug: repoSlug,
	}, nil
}

// getBaseURL extracts the base URL from a Git remote URL.
func getBaseURL(remoteURL *url.URL) string {
	if remoteURL.Scheme == "" {
		// Handle SSH URLs like git@github.com:owner/repo.git
		return "https://" + remoteURL.Hostname()
	}
	return remoteURL.Scheme + "://" + remoteURL.Host
}
