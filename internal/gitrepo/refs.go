package gitrepo

import (
	"bytes"
	"context"
	"strings"

	"emperror.dev/errors"
)

// UpdateRef creates or force-updates ref to point at newOID.
func (r *ExecRepo) UpdateRef(ctx context.Context, ref, newOID string) error {
	_, err := r.git(ctx, "update-ref", ref, newOID)
	return err
}

// DeleteRef removes ref if it exists. It is not an error for ref to be
// already missing.
func (r *ExecRepo) DeleteRef(ctx context.Context, ref string) error {
	out, err := r.run(ctx, &RunOpts{Args: []string{"update-ref", "-d", ref}})
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return errors.Errorf("git update-ref -d %s: %s", ref, strings.TrimSpace(string(out.Stderr)))
	}
	return nil
}

// FindRef resolves ref to an object id. ok is false (with a nil error) when
// the ref does not exist.
func (r *ExecRepo) FindRef(ctx context.Context, ref string) (string, bool, error) {
	out, err := r.run(ctx, &RunOpts{Args: []string{"show-ref", "--verify", ref}})
	if err != nil {
		return "", false, err
	}
	if out.ExitCode != 0 {
		return "", false, nil
	}
	fields := strings.Fields(string(out.Stdout))
	if len(fields) == 0 {
		return "", false, nil
	}
	return fields[0], true, nil
}

// ListRefsGlob lists refs matching a for-each-ref style pattern, e.g.
// "refs/stackctl/parent/*".
func (r *ExecRepo) ListRefsGlob(ctx context.Context, pattern string) ([]RefEntry, error) {
	out, err := r.git(ctx, "for-each-ref", "--format=%(objectname) %(refname)", pattern)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	var entries []RefEntry
	for _, line := range strings.Split(out, "\n") {
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		entries = append(entries, RefEntry{OID: fields[0], Name: fields[1]})
	}
	return entries, nil
}

// CreateBlob writes content as a loose blob object, grounded on the teacher's
// WriteBranch pattern (git hash-object -w --stdin) and the original
// implementation's create_blob.
func (r *ExecRepo) CreateBlob(ctx context.Context, content []byte) (string, error) {
	out, err := r.run(ctx, &RunOpts{
		Args:      []string{"hash-object", "-w", "--stdin"},
		ExitError: true,
		Stdin:     bytes.NewReader(content),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out.Stdout)), nil
}

// ReadBlob reads the contents of a blob object.
func (r *ExecRepo) ReadBlob(ctx context.Context, oid string) ([]byte, error) {
	out, err := r.run(ctx, &RunOpts{Args: []string{"cat-file", "blob", oid}, ExitError: true})
	if err != nil {
		return nil, err
	}
	return out.Stdout, nil
}

// ObjectType returns "blob", "commit", "tree", or "tag" for oid.
func (r *ExecRepo) ObjectType(ctx context.Context, oid string) (string, error) {
	return r.git(ctx, "cat-file", "-t", oid)
}
