package validate

import (
	"context"
)

// RepairReport summarizes what a repair pass changed.
type RepairReport struct {
	PrunedStaleParentRefs []string
	ReparentedToTrunk     []string
}

func (r RepairReport) Empty() bool {
	return len(r.PrunedStaleParentRefs) == 0 && len(r.ReparentedToTrunk) == 0
}

// repair is the shared implementation behind FullRepair and SilentRepair: it
// prunes parent refs for branches no longer present in the repo, then
// reparents to trunk any tracked branch whose parent just disappeared.
func (v *Validator) repair(ctx context.Context, logFindings bool) (RepairReport, error) {
	var report RepairReport

	tracked, err := v.store.ListTrackedBranches(ctx)
	if err != nil {
		return report, err
	}

	stillTracked := make(map[string]bool, len(tracked))
	for _, name := range tracked {
		exists, err := v.repo.BranchExists(ctx, name)
		if err != nil {
			return report, err
		}
		if !exists {
			if err := v.store.RemoveParent(ctx, name); err != nil {
				return report, err
			}
			report.PrunedStaleParentRefs = append(report.PrunedStaleParentRefs, name)
			if logFindings {
				v.log.WithField("branch", name).Info("cleaned up stale ref")
			}
			continue
		}
		stillTracked[name] = true
	}

	trunk, haveTrunk, err := v.store.GetTrunk(ctx)
	if err != nil {
		return report, err
	}
	if !haveTrunk {
		return report, nil
	}

	for name := range stillTracked {
		parent, ok, err := v.store.GetParent(ctx, name)
		if err != nil {
			return report, err
		}
		if ok && parent == trunk {
			continue
		}
		if ok && stillTracked[parent] {
			continue
		}
		// The parent is gone (either it never resolved, or it was one of
		// the branches just pruned above). Reparent to trunk so the branch
		// doesn't become permanently dangling.
		if err := v.store.SetParent(ctx, name, trunk); err != nil {
			return report, err
		}
		report.ReparentedToTrunk = append(report.ReparentedToTrunk, name)
		if logFindings {
			v.log.WithField("branch", name).Info("reparented orphaned branch to trunk")
		}
	}

	return report, nil
}

// FullRepair runs before sync/restack: user-visible, logs every change it
// makes.
func (v *Validator) FullRepair(ctx context.Context) (RepairReport, error) {
	return v.repair(ctx, true)
}

// SilentRepair runs before high-frequency read-only commands (log, info,
// navigation). It performs the same two steps as FullRepair but produces no
// log output, and must stay cheap — it is budgeted at well under the ~5ms
// spec target on a 50-branch stack, which is why it reuses the same linear
// scans as FullRepair rather than anything more elaborate.
func (v *Validator) SilentRepair(ctx context.Context) (RepairReport, error) {
	return v.repair(ctx, false)
}
