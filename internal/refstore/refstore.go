// Package refstore implements the repository metadata store described in
// §4.2: branch parentage, the trunk pointer, and frozen-branch markers, all
// stored as ordinary refs under a single namespace so they replicate through
// a normal git fetch/push. This generalizes the teacher's
// internal/meta/branch.go (ref-backed blob read/write via `git hash-object`
// and `git update-ref`) but splits one field per ref rather than one JSON
// blob per branch, following the original implementation's
// git_gateway/refs.rs.
package refstore

import (
	"context"
	"sort"
	"strings"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stackctl/stackctl/internal/stackviz"
)

// Namespace is the top-level ref prefix under which all stackctl metadata
// lives.
const Namespace = "stackctl"

const (
	parentRefPrefix = "refs/" + Namespace + "/parent/"
	frozenRefPrefix = "refs/" + Namespace + "/frozen/"
	trunkRef        = "refs/" + Namespace + "/config/trunk"
)

// ErrTrunkNotSet is returned by RequireTrunk when no trunk has been
// configured.
var ErrTrunkNotSet = errors.Sentinel("no trunk branch is configured; run `stackctl init`")

// ErrCycle is returned by Ancestors when the parent chain loops back on
// itself.
var ErrCycle = errors.Sentinel("parent chain contains a cycle")

// ErrInvalidParent is returned by SetParent when the proposed parent is
// neither the trunk nor itself tracked.
var ErrInvalidParent = errors.Sentinel("parent branch must be the trunk or already tracked")

// ErrDangerousBranchName is returned by SetParent when branch's name could
// break out of the markdown/HTML a stack-viz block renders it into (spec
// §4.9's sanitization table, enforced here at tracking time so a dangerous
// name can never reach a PR body).
var ErrDangerousBranchName = errors.Sentinel("branch name is not safe to track: it could be used to inject content into a pull request description")

func parentRef(branch string) string { return parentRefPrefix + branch }
func frozenRef(branch string) string { return frozenRefPrefix + branch }

// Store is the RefStore capability described in spec §4.2, backed by any
// gitrepo.Repo implementation.
type Store struct {
	repo gitrepo.Repo
	log  logrus.FieldLogger
}

func New(repo gitrepo.Repo) *Store {
	return &Store{repo: repo, log: logrus.WithField("component", "refstore")}
}

// GetTrunk returns the configured trunk branch name, or ok=false if unset.
func (s *Store) GetTrunk(ctx context.Context) (name string, ok bool, err error) {
	return s.readBlobRef(ctx, trunkRef)
}

// RequireTrunk returns the trunk branch, failing with ErrTrunkNotSet if
// unconfigured.
func (s *Store) RequireTrunk(ctx context.Context) (string, error) {
	name, ok, err := s.GetTrunk(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrTrunkNotSet
	}
	return name, nil
}

func (s *Store) SetTrunk(ctx context.Context, name string) error {
	return s.writeBlobRef(ctx, trunkRef, name)
}

// GetParent returns the parent of branch, or ok=false when branch is the
// trunk, untracked, or its parent ref is corrupted. Corruption is logged,
// never surfaced as an error, per the corruption policy in §4.2.
func (s *Store) GetParent(ctx context.Context, branch string) (parent string, ok bool, err error) {
	return s.readBlobRef(ctx, parentRef(branch))
}

// SetParent creates or overwrites branch's parent ref. The parent must be
// either the trunk or already tracked, preventing accidental dangling
// references on creation.
func (s *Store) SetParent(ctx context.Context, branch, parent string) error {
	if stackviz.IsDangerousBranchName(branch) {
		return errors.Wrapf(ErrDangerousBranchName, "branch %q", branch)
	}

	trunk, trunkSet, err := s.GetTrunk(ctx)
	if err != nil {
		return err
	}
	if !trunkSet || parent != trunk {
		tracked, err := s.IsTracked(ctx, parent)
		if err != nil {
			return err
		}
		if !tracked {
			return errors.Wrapf(ErrInvalidParent, "parent %q", parent)
		}
	}
	return s.writeBlobRef(ctx, parentRef(branch), parent)
}

// RemoveParent deletes branch's parent ref. Idempotent.
func (s *Store) RemoveParent(ctx context.Context, branch string) error {
	return s.repo.DeleteRef(ctx, parentRef(branch))
}

func (s *Store) IsTracked(ctx context.Context, branch string) (bool, error) {
	_, ok, err := s.GetParent(ctx, branch)
	return ok, err
}

func (s *Store) IsFrozen(ctx context.Context, branch string) (bool, error) {
	_, ok, err := s.repo.FindRef(ctx, frozenRef(branch))
	return ok, err
}

func (s *Store) Freeze(ctx context.Context, branch string) error {
	oid, err := s.repo.ResolveRef(ctx, "refs/heads/"+branch)
	if err != nil {
		return err
	}
	return s.repo.UpdateRef(ctx, frozenRef(branch), oid)
}

func (s *Store) Unfreeze(ctx context.Context, branch string) error {
	return s.repo.DeleteRef(ctx, frozenRef(branch))
}

// GetChildren derives branch's children by scanning the parent namespace for
// entries whose content equals branch. Results are deterministic but
// unordered; callers sort for display.
func (s *Store) GetChildren(ctx context.Context, branch string) ([]string, error) {
	entries, err := s.repo.ListRefsGlob(ctx, parentRefPrefix+"*")
	if err != nil {
		return nil, err
	}
	var children []string
	for _, e := range entries {
		name := strings.TrimPrefix(e.Name, parentRefPrefix)
		parent, ok, err := s.readBlobContent(ctx, e.OID)
		if err != nil {
			return nil, err
		}
		if ok && parent == branch {
			children = append(children, name)
		}
	}
	return children, nil
}

// ListTrackedBranches returns every branch with a parent ref, including
// orphans whose parent has gone missing.
func (s *Store) ListTrackedBranches(ctx context.Context) ([]string, error) {
	entries, err := s.repo.ListRefsGlob(ctx, parentRefPrefix+"*")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimPrefix(e.Name, parentRefPrefix))
	}
	return names, nil
}

// Ancestors returns the chain from the first branch below trunk up to and
// including branch, in parent-first order. Cycles are detected via a
// bounded iteration and a visited set, and fail explicitly rather than
// looping forever.
func (s *Store) Ancestors(ctx context.Context, branch string) ([]string, error) {
	trunk, err := s.RequireTrunk(ctx)
	if err != nil {
		return nil, err
	}
	var chain []string
	visited := make(map[string]bool)
	cur := branch
	for i := 0; i <= len(chain)+1024; i++ {
		if cur == trunk {
			break
		}
		if visited[cur] {
			return nil, errors.Wrapf(ErrCycle, "starting from %q", branch)
		}
		visited[cur] = true
		chain = append([]string{cur}, chain...)
		parent, ok, err := s.GetParent(ctx, cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cur = parent
		if len(chain) > 10000 {
			return nil, errors.Wrapf(ErrCycle, "starting from %q", branch)
		}
	}
	return chain, nil
}

// CollectBranchesDFS performs a depth-first, pre-order enumeration starting
// from roots, with children sorted alphabetically at each level. This is the
// canonical ordering used by every stack traversal (restack, sync, stack
// viz).
func (s *Store) CollectBranchesDFS(ctx context.Context, roots []string) ([]string, error) {
	var order []string
	visited := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		visited[name] = true
		order = append(order, name)
		children, err := s.GetChildren(ctx, name)
		if err != nil {
			return err
		}
		sort.Strings(children)
		for _, c := range children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	sortedRoots := append([]string(nil), roots...)
	sort.Strings(sortedRoots)
	for _, root := range sortedRoots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ClearAll tears down all stackctl metadata refs: every parent ref, the
// trunk pointer, and every frozen marker. Used by `init --reset`.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, prefix := range []string{parentRefPrefix, frozenRefPrefix} {
		entries, err := s.repo.ListRefsGlob(ctx, prefix+"*")
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.repo.DeleteRef(ctx, e.Name); err != nil {
				return err
			}
		}
	}
	if _, ok, err := s.repo.FindRef(ctx, trunkRef); err != nil {
		return err
	} else if ok {
		if err := s.repo.DeleteRef(ctx, trunkRef); err != nil {
			return err
		}
	}
	return nil
}

// readBlobRef resolves ref to a blob and returns its trimmed UTF-8 content.
// Any form of corruption — missing ref, non-blob target, invalid UTF-8, or
// whitespace-only content — yields ok=false with the corruption logged, per
// the corruption policy: commands must never crash on corrupt metadata.
func (s *Store) readBlobRef(ctx context.Context, ref string) (string, bool, error) {
	oid, ok, err := s.repo.FindRef(ctx, ref)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return s.readBlobContent(ctx, oid)
}

func (s *Store) readBlobContent(ctx context.Context, oid string) (string, bool, error) {
	objType, err := s.repo.ObjectType(ctx, oid)
	if err != nil {
		s.log.WithError(err).WithField("oid", oid).Warn("failed to stat metadata object, treating as corrupt")
		return "", false, nil
	}
	if objType != "blob" {
		s.log.WithField("oid", oid).WithField("type", objType).Warn("metadata ref does not point at a blob, treating as corrupt")
		return "", false, nil
	}
	content, err := s.repo.ReadBlob(ctx, oid)
	if err != nil {
		s.log.WithError(err).WithField("oid", oid).Warn("failed to read metadata blob, treating as corrupt")
		return "", false, nil
	}
	name := strings.TrimSpace(string(content))
	if name == "" {
		s.log.WithField("oid", oid).Warn("metadata blob has no usable content, treating as corrupt")
		return "", false, nil
	}
	if !isValidUTF8(content) {
		s.log.WithField("oid", oid).Warn("metadata blob is not valid UTF-8, treating as corrupt")
		return "", false, nil
	}
	return name, true, nil
}

func (s *Store) writeBlobRef(ctx context.Context, ref, content string) error {
	oid, err := s.repo.CreateBlob(ctx, []byte(content))
	if err != nil {
		return err
	}
	return s.repo.UpdateRef(ctx, ref, oid)
}

func isValidUTF8(b []byte) bool {
	return strings.ToValidUTF8(string(b), "�") == string(b)
}
