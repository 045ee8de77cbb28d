// Package gitrepo is the capability set stackctl requires from the host
// version-control system. All higher-level packages (refstore, restack,
// syncengine, submit, ...) are written against the Repo interface; they never
// shell out to git directly.
package gitrepo

import "context"

// RefFormat is the on-disk ref storage format of a repository.
type RefFormat string

const (
	FormatFiles    RefFormat = "files"
	FormatReftable RefFormat = "reftable"
)

// RebaseStatus is the outcome of a rebase attempt.
type RebaseStatus int

const (
	RebaseSuccess RebaseStatus = iota
	RebaseConflict
)

// RebaseResult describes what happened after Repo.Rebase* or RebaseContinue.
type RebaseResult struct {
	Status RebaseStatus
	// ErrorHeadline is a short human-readable description of the failure,
	// populated only when Status == RebaseConflict.
	ErrorHeadline string
	// ConflictedFiles is populated only when Status == RebaseConflict.
	ConflictedFiles []ConflictedFile
}

// ConflictKind classifies a merge conflict the way `git status --porcelain=v2`
// reports it for unmerged paths (the "u" line's XY code).
type ConflictKind string

const (
	ConflictBothModified  ConflictKind = "both-modified"
	ConflictBothAdded     ConflictKind = "both-added"
	ConflictDeletedByUs   ConflictKind = "deleted-by-us"
	ConflictDeletedByThem ConflictKind = "deleted-by-them"
	ConflictAddedByUs     ConflictKind = "added-by-us"
	ConflictAddedByThem   ConflictKind = "added-by-them"
	ConflictUnknown       ConflictKind = "unknown"
)

type ConflictedFile struct {
	Path string
	Kind ConflictKind
}

// SyncStatusKind is the relationship of a local branch to its remote tracking
// branch.
type SyncStatusKind int

const (
	SyncInSync SyncStatusKind = iota
	SyncAhead
	SyncBehind
	SyncDiverged
	SyncNoRemote
)

type SyncStatus struct {
	Kind SyncStatusKind
	// Ahead/Behind are populated for SyncAhead, SyncBehind, and SyncDiverged
	// (both, for the latter).
	Ahead  int
	Behind int
}

// RefEntry is one result row of ListRefs.
type RefEntry struct {
	Name string
	OID  string
}

// WorktreeConflictError is returned by CheckoutSafe when the target branch is
// already checked out in another worktree. It names the exact path per
// spec contract.
type WorktreeConflictError struct {
	Branch string
	Path   string
}

func (e *WorktreeConflictError) Error() string {
	return "branch " + e.Branch + " is already checked out at " + e.Path
}

// DirtyWorkingTreeError is returned by mutating operations that require a
// clean tree.
type DirtyWorkingTreeError struct{}

func (e *DirtyWorkingTreeError) Error() string {
	return "refusing to proceed: working tree has staged or modified changes"
}

// Repo is the full capability set the core packages require from the host
// repository. ExecRepo (subprocess) implements it unconditionally; LibRepo
// (go-git) implements the ref/blob subset natively and delegates everything
// else to an embedded ExecRepo. See DESIGN.md for why rebase/commit/remote
// operations always go through the subprocess path.
type Repo interface {
	// Paths/format.
	WorkDir() string
	GitDir() string
	AdminDir() string
	RefFormat(ctx context.Context) (RefFormat, error)

	// Branches.
	CurrentBranch(ctx context.Context) (string, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	CreateBranchAtHead(ctx context.Context, name string) error
	CreateBranchAt(ctx context.Context, name, rev string) error
	CheckoutSafe(ctx context.Context, name string) error
	CheckoutForce(ctx context.Context, name string) error
	ListBranches(ctx context.Context) ([]string, error)
	DeleteBranch(ctx context.Context, name string) error
	RenameBranch(ctx context.Context, oldName, newName string) error

	// Commits.
	StageAll(ctx context.Context) error
	StageTrackedUpdates(ctx context.Context) error
	StagePath(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error
	Amend(ctx context.Context, newMessage string) error

	// Refs/blobs.
	UpdateRef(ctx context.Context, ref, newOID string) error
	DeleteRef(ctx context.Context, ref string) error
	FindRef(ctx context.Context, ref string) (oid string, ok bool, err error)
	ListRefsGlob(ctx context.Context, pattern string) ([]RefEntry, error)
	CreateBlob(ctx context.Context, content []byte) (oid string, err error)
	ReadBlob(ctx context.Context, oid string) ([]byte, error)
	ObjectType(ctx context.Context, oid string) (string, error)

	// Status.
	AnyUncommitted(ctx context.Context) (bool, error)
	AnyStaged(ctx context.Context) (bool, error)
	AnyStagedOrModified(ctx context.Context) (bool, error)

	// History.
	MergeBase(ctx context.Context, a, b string) (string, error)
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
	IsBranchMerged(ctx context.Context, branch, target string) (bool, error)
	ResolveRef(ctx context.Context, rev string) (string, error)
	ShortSHA(sha string) string
	Subject(ctx context.Context, rev string) (string, error)
	RelativeTime(ctx context.Context, rev string) (string, error)
	CommitsBetween(ctx context.Context, base, head string) (int, error)
	ReflogHasEntries(ctx context.Context, ref string) (bool, error)

	// Rebase.
	Rebase(ctx context.Context, branch, onto string) (RebaseResult, error)
	RebaseForkPoint(ctx context.Context, branch, onto string) (RebaseResult, error)
	RebaseOntoFrom(ctx context.Context, branch, newBase, oldBase string) (RebaseResult, error)
	RebaseContinue(ctx context.Context) (RebaseResult, error)
	RebaseAbort(ctx context.Context) error
	RebaseInProgress(ctx context.Context) (bool, error)
	ConflictedFiles(ctx context.Context) ([]ConflictedFile, error)

	// Remote.
	RemoteName() string
	RemoteURL(ctx context.Context) (string, error)
	Fetch(ctx context.Context, remote string) error
	PushWithLease(ctx context.Context, remote, branch string) error
	PushForce(ctx context.Context, remote, branch string) error
	CheckRemoteSync(ctx context.Context, branch string) (SyncStatus, error)
	SyncFromRemote(ctx context.Context, branch string, force bool) error
	StashPush(ctx context.Context) (bool, error)
	StashPop(ctx context.Context) error
}
