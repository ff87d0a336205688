package tier

import "math"

// Display status of one module on the dashboard.
const (
	StatusTierLocked = "tier_locked"
	StatusCompleted  = "completed"
	StatusLocked     = "locked"
	StatusInProgress = "in_progress"
	StatusAvailable  = "available"
)

// RowState is the slice of a persisted sprint_modules row the resolver
// cares about. A nil *RowState means no row exists yet.
type RowState struct {
	IsCompleted bool
	IsLocked    bool
}

// Resolve maps a descriptor plus its persisted row (or absence) to
// exactly one display status. Tier lock wins over everything the row
// says; the remaining states follow the row flags.
func Resolve(d ModuleDescriptor, row *RowState) string {
	switch {
	case d.Locked:
		return StatusTierLocked
	case row == nil:
		return StatusAvailable
	case row.IsCompleted:
		return StatusCompleted
	case row.IsLocked:
		return StatusLocked
	default:
		return StatusInProgress
	}
}

// ProgressPercent computes sprint progress from module completion:
// round(100 * completed / total) over the unlocked descriptors.
// Tier-locked modules can never complete, so they stay out of the
// denominator. Empty input yields 0.
func ProgressPercent(descriptors []ModuleDescriptor, completed map[string]bool) int {
	total := 0
	done := 0
	for _, d := range descriptors {
		if d.Locked {
			continue
		}
		total++
		if completed[d.Key] {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
