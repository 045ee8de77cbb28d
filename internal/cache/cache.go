// Package cache implements the ancillary, non-replicated branch hint store
// described in spec §3: a branch name -> {pr_url?, base_sha?} mapping. It is
// pure hint data — SubmissionPipeline consults it to skip
// redundant forge round trips, but its loss is never an error, so it lives
// as a plain JSON file under the repository admin directory rather than as
// git refs, mirroring opstate's atomic-write approach without opstate's
// single-writer invariant.
package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"emperror.dev/errors"
	"github.com/stackctl/stackctl/internal/gitrepo"
)

const fileName = "hints.json"

// Entry is the per-branch hint record. Both fields are optional: a branch
// may have a known PR URL but no cached base SHA, or vice versa.
type Entry struct {
	PRURL   string `json:"prUrl,omitempty"`
	BaseSHA string `json:"baseSha,omitempty"`
}

// Cache is a process-wide, file-backed map of branch name -> Entry. It is
// safe for concurrent use from SubmissionPipeline's bounded-parallel forge
// fan-out.
type Cache struct {
	mu   sync.Mutex
	path string
	data map[string]Entry
}

// Open loads (or lazily creates) the hint cache for repo. A missing or
// corrupt cache file is treated as empty rather than an error, since this
// data is disposable.
func Open(repo gitrepo.Repo) *Cache {
	return &Cache{
		path: filepath.Join(repo.AdminDir(), fileName),
	}
}

func (c *Cache) load() error {
	if c.data != nil {
		return nil
	}
	bs, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		c.data = make(map[string]Entry)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read branch hint cache")
	}
	var data map[string]Entry
	if err := json.Unmarshal(bs, &data); err != nil {
		// Corrupt cache is never fatal: start fresh.
		c.data = make(map[string]Entry)
		return nil
	}
	c.data = data
	return nil
}

// Get returns the cached hint for branch, if any.
func (c *Cache) Get(ctx context.Context, branch string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return Entry{}, false, err
	}
	e, ok := c.data[branch]
	return e, ok, nil
}

// SetPRURL records the forge URL last known for branch's change request.
func (c *Cache) SetPRURL(ctx context.Context, branch, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return err
	}
	e := c.data[branch]
	e.PRURL = url
	c.data[branch] = e
	return c.saveLocked()
}

// SetBaseSHA records the parent tip branch was last known to be rebased
// onto. RestackEngine does not read it; its already-based check always asks
// the repository for ancestry.
func (c *Cache) SetBaseSHA(ctx context.Context, branch, sha string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return err
	}
	e := c.data[branch]
	e.BaseSHA = sha
	c.data[branch] = e
	return c.saveLocked()
}

// Forget drops any cached hint for branch, e.g. once it's untracked or
// deleted.
func (c *Cache) Forget(ctx context.Context, branch string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return err
	}
	delete(c.data, branch)
	return c.saveLocked()
}

func (c *Cache) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	bs, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".hints.*.tmp")
	if err != nil {
		// Cache writes are best-effort; a temp-file failure (e.g. read-only
		// admin dir) should not fail the caller's real operation.
		return nil //nolint:nilerr
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(bs); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil //nolint:nilerr
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil //nolint:nilerr
	}
	return os.Rename(tmpName, c.path)
}
