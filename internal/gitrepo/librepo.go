package gitrepo

import (
	"context"
	"io"

	"emperror.dev/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// LibRepo implements the ref/blob-writing subset of Repo natively through
// go-git, and delegates everything else (branch checkout, status, rebase,
// remote operations) to an embedded ExecRepo. go-git has no support for the
// reftable ref-storage format and no interactive rebase machinery, so it can
// only ever be used when the repository's RefFormat is FormatFiles; callers
// should fall back to a plain ExecRepo otherwise. See DESIGN.md.
type LibRepo struct {
	*ExecRepo
	lib *gogit.Repository
}

// OpenLibRepo opens repoDir with go-git for ref/blob access, on top of an
// ExecRepo used for everything else.
func OpenLibRepo(repoDir string, remoteName string) (*LibRepo, error) {
	exec, err := OpenExecRepo(repoDir, remoteName)
	if err != nil {
		return nil, err
	}
	if format := DetectFormat(exec.GitDir()); format != FormatFiles {
		return nil, errors.Errorf("go-git backend requires the files ref format, repository uses %s", format)
	}
	lib, err := gogit.PlainOpenWithOptions(repoDir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open git repo")
	}
	return &LibRepo{ExecRepo: exec, lib: lib}, nil
}

func (r *LibRepo) UpdateRef(ctx context.Context, ref, newOID string) error {
	refName := plumbing.ReferenceName(ref)
	reference := plumbing.NewHashReference(refName, plumbing.NewHash(newOID))
	return r.lib.Storer.SetReference(reference)
}

func (r *LibRepo) DeleteRef(ctx context.Context, ref string) error {
	err := r.lib.Storer.RemoveReference(plumbing.ReferenceName(ref))
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return err
	}
	return nil
}

func (r *LibRepo) FindRef(ctx context.Context, ref string) (string, bool, error) {
	reference, err := r.lib.Reference(plumbing.ReferenceName(ref), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return reference.Hash().String(), true, nil
}

func (r *LibRepo) ListRefsGlob(ctx context.Context, pattern string) ([]RefEntry, error) {
	// go-git's reference iterator has no glob matching of its own; delegate
	// to the subprocess backend, which resolves patterns through
	// for-each-ref the same way the rest of the pack does.
	return r.ExecRepo.ListRefsGlob(ctx, pattern)
}

func (r *LibRepo) CreateBlob(ctx context.Context, content []byte) (string, error) {
	obj := r.lib.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	hash, err := r.lib.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

func (r *LibRepo) ReadBlob(ctx context.Context, oid string) ([]byte, error) {
	blob, err := r.lib.BlobObject(plumbing.NewHash(oid))
	if err != nil {
		return nil, err
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
