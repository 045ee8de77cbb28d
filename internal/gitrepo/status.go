package gitrepo

import (
	"context"
	"regexp"
	"strings"
)

// patternUnmerged matches a `git status --porcelain=v2` unmerged ("u") line:
// u <XY> <sub> <m1> <m2> <m3> <mW> <rH> <rI> <path>
var patternUnmerged = regexp.MustCompile(`^u (..) `)

func (r *ExecRepo) statusLines(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "status", "--porcelain=v2", "--untracked-files=no")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// AnyUncommitted reports whether there are any staged, modified, or unmerged
// changes (not counting untracked files).
func (r *ExecRepo) AnyUncommitted(ctx context.Context) (bool, error) {
	lines, err := r.statusLines(ctx)
	if err != nil {
		return false, err
	}
	return len(lines) > 0, nil
}

// AnyStaged reports whether the index differs from HEAD.
func (r *ExecRepo) AnyStaged(ctx context.Context) (bool, error) {
	lines, err := r.statusLines(ctx)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "1 ") || strings.HasPrefix(line, "2 ") {
			fields := strings.Fields(line)
			if len(fields) >= 2 && len(fields[1]) == 2 && fields[1][0] != '.' {
				return true, nil
			}
		}
	}
	return false, nil
}

// AnyStagedOrModified reports whether the working tree has staged or
// modified changes (ignoring untracked files), used as the precondition
// gate before destructive checkouts.
func (r *ExecRepo) AnyStagedOrModified(ctx context.Context) (bool, error) {
	lines, err := r.statusLines(ctx)
	if err != nil {
		return false, err
	}
	return len(lines) > 0, nil
}

func conflictKindFromXY(xy string) ConflictKind {
	switch xy {
	case "UU":
		return ConflictBothModified
	case "AA":
		return ConflictBothAdded
	case "UD", "DU":
		if xy == "DU" {
			return ConflictDeletedByUs
		}
		return ConflictDeletedByThem
	case "AU":
		return ConflictAddedByUs
	case "UA":
		return ConflictAddedByThem
	default:
		return ConflictUnknown
	}
}

// ConflictedFiles parses the unmerged ("u") entries of `git status
// --porcelain=v2` into the conflict-kind taxonomy used for the suspended
// rebase UX.
func (r *ExecRepo) ConflictedFiles(ctx context.Context) ([]ConflictedFile, error) {
	lines, err := r.statusLines(ctx)
	if err != nil {
		return nil, err
	}
	var files []ConflictedFile
	for _, line := range lines {
		m := patternUnmerged.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		path := fields[len(fields)-1]
		files = append(files, ConflictedFile{Path: path, Kind: conflictKindFromXY(m[1])})
	}
	return files, nil
}
