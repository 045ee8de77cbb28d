// Package gitrepotest spins up throwaway git repositories (with a bare
// remote) for tests of the core stackctl packages, grounded on the teacher's
// internal/git/gittest.
package gitrepotest

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stretchr/testify/require"
)

// TestRepo wraps an ExecRepo with test-only convenience helpers.
type TestRepo struct {
	*gitrepo.ExecRepo
	t         *testing.T
	RemoteDir string
}

// New initializes a local repository with an "origin" bare remote, a trunk
// branch named "main" with one commit, and pushes it. This mirrors the
// teacher's NewTempRepo default fixture.
func New(t *testing.T) *TestRepo {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "local")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	remoteDir := filepath.Join(t.TempDir(), "remote")
	require.NoError(t, os.MkdirAll(remoteDir, 0o755))

	runGit(t, remoteDir, "init", "--bare")
	runGit(t, dir, "init", "--initial-branch=main")
	runGit(t, dir, "config", "user.name", "stackctl-test")
	runGit(t, dir, "config", "user.email", "stackctl-test@nonexistent")
	runGit(t, dir, "remote", "add", "origin", remoteDir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hello\n"), 0o644))
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-m", "initial commit")
	runGit(t, dir, "push", "origin", "main")

	execRepo, err := gitrepo.OpenExecRepo(dir, "origin")
	require.NoError(t, err)

	return &TestRepo{ExecRepo: execRepo, t: t, RemoteDir: remoteDir}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
	return string(out)
}

// CommitFile writes filename with the given content in the repo working
// tree, stages it, and commits.
func (r *TestRepo) CommitFile(filename, body string) string {
	r.t.Helper()
	fp := filepath.Join(r.WorkDir(), filename)
	require.NoError(r.t, os.WriteFile(fp, []byte(body), 0o644))
	runGit(r.t, r.WorkDir(), "add", filename)
	runGit(r.t, r.WorkDir(), "commit", "-m", fmt.Sprintf("write %s", filename))
	return trimNewline(runGit(r.t, r.WorkDir(), "rev-parse", "HEAD"))
}

// CreateBranch creates branch at HEAD and checks it out.
func (r *TestRepo) CreateBranch(name string) {
	r.t.Helper()
	runGit(r.t, r.WorkDir(), "checkout", "-b", name)
}

// Checkout checks out an existing branch.
func (r *TestRepo) Checkout(name string) {
	r.t.Helper()
	runGit(r.t, r.WorkDir(), "checkout", name)
}

// Push pushes branch to origin.
func (r *TestRepo) Push(branch string) {
	r.t.Helper()
	runGit(r.t, r.WorkDir(), "push", "origin", branch)
}

// WriteAndStage overwrites filename with body and stages it, without
// committing — used to resolve a conflict before continuing a rebase.
func (r *TestRepo) WriteAndStage(t *testing.T, filename, body string) {
	t.Helper()
	fp := filepath.Join(r.WorkDir(), filename)
	require.NoError(t, os.WriteFile(fp, []byte(body), 0o644))
	runGit(t, r.WorkDir(), "add", filename)
}

// RevParse resolves rev to a full object id.
func (r *TestRepo) RevParse(rev string) string {
	r.t.Helper()
	out := runGit(r.t, r.WorkDir(), "rev-parse", rev)
	return trimNewline(out)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
