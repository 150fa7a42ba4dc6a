package service

import (
	"cmp"
	"slices"
	"time"

	"campusbook/pkg/model"
)

const (
	ReasonMaintenance = "under maintenance"
	ReasonConflict    = "overlaps existing reservations"
)

// FindConflicts returns every active reservation in existing that overlaps
// [start, end), ordered by start time then id. excludeID is skipped.
func FindConflicts(existing []*model.Reservation, start, end time.Time, excludeID string) []model.ConflictSummary {
	conflicts := []model.ConflictSummary{}
	for _, r := range sortedActive(existing) {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if r.Overlaps(start, end) {
			conflicts = append(conflicts, model.SummarizeConflict(r))
		}
	}
	return conflicts
}

// Evaluate decides whether [start, end) can be booked on res. Maintenance
// wins over any reservation state.
func Evaluate(res *model.Resource, existing []*model.Reservation, start, end time.Time, excludeID string) *model.Verdict {
	if res.Status == model.ResourceStatusMaintenance {
		return &model.Verdict{
			Available: false,
			Reason:    ReasonMaintenance,
			Conflicts: []model.ConflictSummary{},
		}
	}

	conflicts := FindConflicts(existing, start, end, excludeID)
	if len(conflicts) > 0 {
		return &model.Verdict{
			Available: false,
			Reason:    ReasonConflict,
			Conflicts: conflicts,
		}
	}
	return &model.Verdict{Available: true, Conflicts: conflicts}
}

// sortedActive copies the active reservations of rs and orders them by
// start time, breaking ties by id.
func sortedActive(rs []*model.Reservation) []*model.Reservation {
	out := make([]*model.Reservation, 0, len(rs))
	for _, r := range rs {
		if r != nil && r.Status.Active() {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b *model.Reservation) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
