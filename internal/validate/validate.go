// Package validate implements the Validator pipeline of spec §4.5: a set of
// pluggable rules over RefStore + Repo, plus two distinct auto-repair entry
// points (a full, user-visible repair before mutating commands, and a
// silent, budgeted repair before high-frequency read paths). Grounded on the
// original implementation's validation.rs (ValidationError enum, Validator
// trait, DFS cycle detection) generalized into a Go rule-function slice in
// the style of the teacher's planner.go (small, composable, pure functions
// over a snapshot).
package validate

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/stackctl/stackctl/internal/gitrepo"
	"github.com/stackctl/stackctl/internal/refstore"
)

// IssueKind classifies a validation finding, mirroring the original
// implementation's ValidationError enum.
type IssueKind string

const (
	IssueCycle                IssueKind = "cycle"
	IssueOrphanedBranch       IssueKind = "orphaned-branch"
	IssueUntrackedGitBranch   IssueKind = "untracked-git-branch"
	IssueMissingTrunk         IssueKind = "missing-trunk"
	IssueTrackedBranchMissing IssueKind = "tracked-branch-missing"
)

// Issue is a single validation finding.
type Issue struct {
	Kind    IssueKind
	Branch  string
	Path    []string // populated for IssueCycle
	Message string
}

// Validator runs the rule pipeline against a repository's current state.
type Validator struct {
	repo  gitrepo.Repo
	store *refstore.Store
	log   logrus.FieldLogger
}

func New(repo gitrepo.Repo) *Validator {
	return &Validator{repo: repo, store: refstore.New(repo), log: logrus.WithField("component", "validate")}
}

// Run executes every rule and returns all findings.
func (v *Validator) Run(ctx context.Context) ([]Issue, error) {
	var issues []Issue
	for _, rule := range []func(context.Context) ([]Issue, error){
		v.ruleTrunk,
		v.ruleGitBranch,
		v.ruleConsistency,
		v.ruleCycle,
	} {
		found, err := rule(ctx)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}
	return issues, nil
}

// ruleTrunk checks the configured trunk exists as a real branch.
func (v *Validator) ruleTrunk(ctx context.Context) ([]Issue, error) {
	trunk, ok, err := v.store.GetTrunk(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Issue{{Kind: IssueMissingTrunk, Message: "no trunk branch configured"}}, nil
	}
	exists, err := v.repo.BranchExists(ctx, trunk)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []Issue{{Kind: IssueMissingTrunk, Branch: trunk, Message: fmt.Sprintf("configured trunk %q does not exist", trunk)}}, nil
	}
	return nil, nil
}

// ruleGitBranch checks every tracked branch exists in the repository.
func (v *Validator) ruleGitBranch(ctx context.Context) ([]Issue, error) {
	tracked, err := v.store.ListTrackedBranches(ctx)
	if err != nil {
		return nil, err
	}
	var issues []Issue
	for _, name := range tracked {
		exists, err := v.repo.BranchExists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !exists {
			issues = append(issues, Issue{
				Kind:    IssueTrackedBranchMissing,
				Branch:  name,
				Message: fmt.Sprintf("tracked branch %q has no corresponding git branch", name),
			})
		}
	}
	return issues, nil
}

// ruleConsistency checks every tracked branch's parent is either the trunk
// or itself tracked (orphan detection).
func (v *Validator) ruleConsistency(ctx context.Context) ([]Issue, error) {
	trunk, ok, err := v.store.GetTrunk(ctx)
	if err != nil {
		return nil, err
	}
	tracked, err := v.store.ListTrackedBranches(ctx)
	if err != nil {
		return nil, err
	}
	trackedSet := make(map[string]bool, len(tracked))
	for _, b := range tracked {
		trackedSet[b] = true
	}
	var issues []Issue
	for _, name := range tracked {
		parent, parentOK, err := v.store.GetParent(ctx, name)
		if err != nil {
			return nil, err
		}
		if !parentOK {
			issues = append(issues, Issue{
				Kind:    IssueOrphanedBranch,
				Branch:  name,
				Message: fmt.Sprintf("branch %q has a corrupt or missing parent ref", name),
			})
			continue
		}
		if ok && parent == trunk {
			continue
		}
		if !trackedSet[parent] {
			issues = append(issues, Issue{
				Kind:    IssueOrphanedBranch,
				Branch:  name,
				Message: fmt.Sprintf("branch %q's parent %q is neither trunk nor tracked", name, parent),
			})
		}
	}
	return issues, nil
}

// RepairReport summarizes what an auto-repair pass changed.
type RepairReport struct {
	// PrunedStaleParentRefs lists branches whose parent ref was deleted
	// because the underlying git branch no longer exists.
	PrunedStaleParentRefs []string
	// ReparentedToTrunk lists branches whose parent ref was rewritten to
	// point at trunk, because it was missing, pointed at an untracked
	// branch, or was part of a cycle.
	ReparentedToTrunk []string
	// Remaining holds issues repair could not fix (e.g. a missing trunk),
	// still requiring user attention.
	Remaining []Issue
}

// FullRepair runs the full rule pipeline and fixes every issue it can,
// reparenting orphans and cycle members onto trunk and pruning parent refs
// for branches whose git branch is gone. Intended for the user-visible
// repair pass before mutating commands (sync, restack).
func (v *Validator) FullRepair(ctx context.Context) (*RepairReport, error) {
	return v.repair(ctx, true)
}

// SilentRepair runs a cheaper subset of repair — stale parent refs and
// orphans only, skipping the O(n) cycle walk — suitable for the
// high-frequency read paths (e.g. `stackctl stack`) that can't afford a
// full validation pass on every invocation.
func (v *Validator) SilentRepair(ctx context.Context) (*RepairReport, error) {
	return v.repair(ctx, false)
}

func (v *Validator) repair(ctx context.Context, includeCycles bool) (*RepairReport, error) {
	trunk, trunkOK, err := v.store.GetTrunk(ctx)
	if err != nil {
		return nil, err
	}

	report := &RepairReport{}

	rules := []func(context.Context) ([]Issue, error){v.ruleTrunk, v.ruleGitBranch, v.ruleConsistency}
	if includeCycles {
		rules = append(rules, v.ruleCycle)
	}

	for _, rule := range rules {
		issues, err := rule(ctx)
		if err != nil {
			return nil, err
		}
		for _, issue := range issues {
			switch issue.Kind {
			case IssueTrackedBranchMissing:
				if err := v.store.RemoveParent(ctx, issue.Branch); err != nil {
					return nil, err
				}
				report.PrunedStaleParentRefs = append(report.PrunedStaleParentRefs, issue.Branch)
			case IssueOrphanedBranch, IssueCycle:
				if !trunkOK {
					report.Remaining = append(report.Remaining, issue)
					continue
				}
				if err := v.store.SetParent(ctx, issue.Branch, trunk); err != nil {
					return nil, err
				}
				report.ReparentedToTrunk = append(report.ReparentedToTrunk, issue.Branch)
			default:
				report.Remaining = append(report.Remaining, issue)
			}
		}
	}

	return report, nil
}

// ruleCycle runs a DFS from each tracked branch, reporting the cycle path on
// rediscovery.
func (v *Validator) ruleCycle(ctx context.Context) ([]Issue, error) {
	tracked, err := v.store.ListTrackedBranches(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(tracked)

	reported := make(map[string]bool)
	var issues []Issue
	for _, start := range tracked {
		if reported[start] {
			continue
		}
		path := []string{}
		onPath := make(map[string]int)
		cur := start
		for {
			if idx, seen := onPath[cur]; seen {
				cyclePath := append(append([]string{}, path[idx:]...), cur)
				for _, b := range cyclePath {
					reported[b] = true
				}
				issues = append(issues, Issue{
					Kind:    IssueCycle,
					Branch:  start,
					Path:    cyclePath,
					Message: fmt.Sprintf("cycle detected: %v", cyclePath),
				})
				break
			}
			onPath[cur] = len(path)
			path = append(path, cur)

			parent, ok, err := v.store.GetParent(ctx, cur)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			cur = parent
		}
	}
	return issues, nil
}
