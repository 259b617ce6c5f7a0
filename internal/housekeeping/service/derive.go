package service

import "roomsync/pkg/model"

// DeriveStatus computes a room's housekeeping status from its tasks. Only
// PENDING and IN_PROGRESS tasks count. Precedence is MAINTENANCE, then DIRTY
// for any cleaning-family task, then INSPECTED. A room with no open work is
// CLEAN.
func DeriveStatus(tasks []*model.HousekeepingTask) model.HousekeepingStatus {
	var cleaning, inspection bool
	for _, t := range tasks {
		if t == nil || !t.Status.IsActive() {
			continue
		}
		switch {
		case t.Type == model.TaskMaintenance:
			return model.HousekeepingMaintenance
		case t.Type.IsCleaningFamily():
			cleaning = true
		case t.Type == model.TaskInspection:
			inspection = true
		}
	}

	switch {
	case cleaning:
		return model.HousekeepingDirty
	case inspection:
		return model.HousekeepingInspected
	default:
		return model.HousekeepingClean
	}
}

// HasActiveCleaning reports whether any cleaning-family task is still open.
func HasActiveCleaning(tasks []*model.HousekeepingTask) bool {
	for _, t := range tasks {
		if t != nil && t.Status.IsActive() && t.Type.IsCleaningFamily() {
			return true
		}
	}
	return false
}
