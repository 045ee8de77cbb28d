package refstore

import (
	"context"
	"sort"
)

// ComputeTreePrefix returns the Unicode box-drawing prefix for branch's row
// in a tree-formatted listing rooted at root, matching the ordering
// CollectBranchesDFS uses (children sorted alphabetically at each level).
func (s *Store) ComputeTreePrefix(ctx context.Context, branch, root string) (string, error) {
	chain, err := s.chainFromRoot(ctx, branch, root)
	if err != nil {
		return "", err
	}
	if len(chain) == 0 {
		return "", nil
	}

	var prefix string
	cur := root
	for i, node := range chain {
		children, err := s.GetChildren(ctx, cur)
		if err != nil {
			return "", err
		}
		sort.Strings(children)
		last := len(children) == 0 || children[len(children)-1] == node
		if i == len(chain)-1 {
			if last {
				prefix += "└── "
			} else {
				prefix += "├── "
			}
		} else {
			if last {
				prefix += "    "
			} else {
				prefix += "│   "
			}
		}
		cur = node
	}
	return prefix, nil
}

// chainFromRoot walks branch's ancestors back up to root (exclusive),
// returning the path from root's child down to branch.
func (s *Store) chainFromRoot(ctx context.Context, branch, root string) ([]string, error) {
	var chain []string
	cur := branch
	visited := make(map[string]bool)
	for cur != root {
		if visited[cur] {
			return nil, ErrCycle
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
	}
	return chain, nil
}
