package gitrepo

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
)

// ErrRemoteNotFound is returned by RemoteName callers when the repository has
// no configured remote.
var ErrRemoteNotFound = errors.Sentinel("this repository doesn't have a remote configured")

// ExecRepo implements Repo by shelling out to the system git binary. It works
// regardless of ref-storage format (Files or Reftable) since it never touches
// the on-disk ref store directly.
type ExecRepo struct {
	repoDir    string
	gitDir     string
	remoteName string
	log        logrus.FieldLogger
}

// OpenExecRepo opens repoDir (which must be inside a git working tree) using
// the subprocess backend.
func OpenExecRepo(repoDir string, remoteName string) (*ExecRepo, error) {
	r := &ExecRepo{
		repoDir:    repoDir,
		remoteName: remoteName,
		log:        logrus.WithField("repo", filepath.Base(repoDir)),
	}
	gitDir, err := r.git(context.Background(), "rev-parse", "--git-common-dir")
	if err != nil {
		return nil, errors.Wrap(err, "not a git repository")
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(repoDir, gitDir)
	}
	r.gitDir = gitDir
	return r, nil
}

func (r *ExecRepo) WorkDir() string { return r.repoDir }
func (r *ExecRepo) GitDir() string  { return r.gitDir }

func (r *ExecRepo) AdminDir() string {
	dir := filepath.Join(r.gitDir, "stackctl")
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

func (r *ExecRepo) RemoteName() string { return r.remoteName }

// RunOpts mirrors the teacher's internal/git.RunOpts contract.
type RunOpts struct {
	Args      []string
	Env       []string
	ExitError bool
	Stdin     *bytes.Reader
}

type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (o *Output) Lines() []string {
	s := strings.TrimSpace(string(o.Stdout))
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (r *ExecRepo) cmd(ctx context.Context, args []string, env []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.repoDir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, env...)
	return cmd
}

func (r *ExecRepo) run(ctx context.Context, opts *RunOpts) (*Output, error) {
	start := time.Now()
	cmd := r.cmd(ctx, opts.Args, opts.Env)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}
	err := cmd.Run()
	log := r.log.WithField("duration", time.Since(start))
	out := &Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
	}
	if err != nil {
		log.Debugf("git %s failed: %s: %s", opts.Args, err, stderr.String())
		if opts.ExitError {
			return out, errors.Wrapf(err, "git %s: %s", strings.Join(opts.Args, " "), strings.TrimSpace(stderr.String()))
		}
	} else {
		log.Debugf("git %s", opts.Args)
	}
	return out, nil
}

// git runs a git subcommand and returns trimmed stdout, erroring on non-zero
// exit.
func (r *ExecRepo) git(ctx context.Context, args ...string) (string, error) {
	out, err := r.run(ctx, &RunOpts{Args: args, ExitError: true})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out.Stdout)), nil
}

// RemoteURL returns the configured push URL for the repo's remote.
func (r *ExecRepo) RemoteURL(ctx context.Context) (string, error) {
	return r.git(ctx, "remote", "get-url", r.remoteName)
}

func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func (r *ExecRepo) ShortSHA(sha string) string { return ShortSHA(sha) }
