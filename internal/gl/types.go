package gl

import "time"

// GitLabID is GitLab's GraphQL global ID scalar, e.g. "gid://gitlab/Project/123".
type GitLabID string

func (id GitLabID) String() string {
	return string(id)
}

// GitLabTime is GitLab's GraphQL Time scalar, an RFC 3339 timestamp.
type GitLabTime struct {
	time.Time
}

// MergeRequestState mirrors GitLab's MergeRequestState GraphQL enum.
type MergeRequestState string

const (
	MergeRequestStateOpened MergeRequestState = "opened"
	MergeRequestStateClosed MergeRequestState = "closed"
	MergeRequestStateLocked MergeRequestState = "locked"
	MergeRequestStateMerged MergeRequestState = "merged"
)
