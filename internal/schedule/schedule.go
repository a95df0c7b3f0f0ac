package schedule

import (
	"fmt"
	"math"
	"time"
)

// NextDue computes the due date that follows a completion: frequency days
// past the later of the current due date and the completion itself. Anchoring
// on the max keeps late completions from leaving the task immediately due
// again, and early completions from dragging the schedule forward.
// A frequency below one day is treated as one day.
func NextDue(currentDue *time.Time, frequencyDays int, completedAt time.Time) time.Time {
	if frequencyDays < 1 {
		frequencyDays = 1
	}
	anchor := completedAt
	if currentDue != nil && currentDue.After(anchor) {
		anchor = *currentDue
	}
	return anchor.AddDate(0, 0, frequencyDays)
}

// InitialDue is the due date for a freshly created task: frequency days
// from now.
func InitialDue(frequencyDays int, now time.Time) time.Time {
	return NextDue(nil, frequencyDays, now)
}

// IsOverdue reports whether due falls on a calendar day before now.
// The boundary is midnight in due's location; a task due today is not
// overdue.
func IsOverdue(due *time.Time, now time.Time) bool {
	if due == nil {
		return false
	}
	return daysBetween(now, *due) < 0
}

// Humanize renders a due date relative to now: "Today", "Tomorrow",
// "in Nd", or "Overdue by Nd". A nil due date renders as an em dash.
func Humanize(due *time.Time, now time.Time) string {
	if due == nil {
		return "—"
	}
	days := daysBetween(now, *due)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days > 1:
		return fmt.Sprintf("in %dd", days)
	default:
		return fmt.Sprintf("Overdue by %dd", -days)
	}
}

// daysBetween counts whole calendar days from now's date to t's date.
// Rounding absorbs the 23/25-hour days around DST transitions.
func daysBetween(now, t time.Time) int {
	a := startOfDay(now)
	b := startOfDay(t.In(now.Location()))
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
