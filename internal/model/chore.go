package model

import "time"

// Chore is a recurring household task. NextAssigneeID is the rotation
// cursor: the user currently on the hook, advanced by the ledger on each
// completion.
type Chore struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	FrequencyDays  int        `json:"frequency_days"`
	NextDueDate    *time.Time `json:"next_due_date"`
	NextAssigneeID *string    `json:"next_assignee_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ChoreCompletion is an immutable record of a chore being done.
// Corrections are new records, never edits.
type ChoreCompletion struct {
	ID              string    `json:"id"`
	ChoreID         string    `json:"chore_id"`
	UserID          string    `json:"user_id"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Comment         string    `json:"comment"`
	WasLate         bool      `json:"was_late"`
	Backdated       bool      `json:"backdated"`
}
