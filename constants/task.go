package constants

// Task lifecycle statuses. Transitions between them are defined by the
// workflow capability table in services.
const (
	StatusDraft         = "draft"
	StatusPendingReview = "pending_review"
	StatusReviewed      = "reviewed"
	StatusAssigned      = "assigned"
	StatusInProgress    = "in_progress"
	StatusCompleted     = "completed"
	StatusConfirmed     = "confirmed"
	StatusClosed        = "closed"
)

const (
	TaskTypeProblem     = "problem"
	TaskTypeRequirement = "requirement"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// IsTerminalStatus reports whether a task in this status has been
// closed out. closed_at is set exactly on entry to one of these.
func IsTerminalStatus(status string) bool {
	return status == StatusConfirmed || status == StatusClosed
}

func IsValidTaskType(t string) bool {
	return t == TaskTypeProblem || t == TaskTypeRequirement
}

func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
