package service

import (
	"errors"
	"time"
)

// ErrInvalidTransition is returned for any status change other than the
// single forward step from the current status.
var ErrInvalidTransition = errors.New("status transition not allowed")

// Action is the one contextual status action offered for a task.
type Action struct {
	Name   string
	Label  string
	Target Status
}

var (
	ActionStart    = Action{Name: "start", Label: "Start Work", Target: StatusInProgress}
	ActionComplete = Action{Name: "complete", Label: "Complete Work", Target: StatusCompleted}
)

// NextAction returns the forward action for s. Completed tasks have none.
func NextAction(s Status) (Action, bool) {
	switch s {
	case StatusPending:
		return ActionStart, true
	case StatusInProgress:
		return ActionComplete, true
	}
	return Action{}, false
}

// CanTransition reports whether from -> to is the allowed forward step.
func CanTransition(from, to Status) bool {
	next, ok := NextAction(from)
	return ok && next.Target == to
}

// Urgency buckets a due date relative to now.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyDueThisWeek
	UrgencyDueSoon
	UrgencyOverdue
)

func (u Urgency) String() string {
	switch u {
	case UrgencyOverdue:
		return "overdue"
	case UrgencyDueSoon:
		return "due soon"
	case UrgencyDueThisWeek:
		return "due this week"
	}
	return "normal"
}

// DueUrgency counts whole days until due, truncated toward zero.
func DueUrgency(due, now time.Time) Urgency {
	days := int(due.Sub(now).Hours() / 24)
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= 1:
		return UrgencyDueSoon
	case days <= 3:
		return UrgencyDueThisWeek
	}
	return UrgencyNormal
}
