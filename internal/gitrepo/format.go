package gitrepo

import (
	"context"
	"os"
	"path/filepath"
)

// DetectFormat probes the on-disk ref storage format, mirroring the original
// implementation's GitBackend::detect_format: a files-backed repository has a
// "refs/heads" directory (or a packed-refs file with no reftable), while a
// reftable repository has a "reftable" directory and a "refs" file (not a
// directory) under the git dir.
func DetectFormat(gitDir string) RefFormat {
	if st, err := os.Stat(filepath.Join(gitDir, "reftable")); err == nil && st.IsDir() {
		return FormatReftable
	}
	return FormatFiles
}

func (r *ExecRepo) RefFormat(ctx context.Context) (RefFormat, error) {
	return DetectFormat(r.gitDir), nil
}
