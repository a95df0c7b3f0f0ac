package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bmorrisey/rotaledger/internal/model"
)

// ErrChoreReferenced is returned by Delete when completions exist for the
// chore. The event log is append-only, so referenced chores stay.
var ErrChoreReferenced = errors.New("chore is referenced by history")

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

const choreCols = `id, name, description, frequency_days, next_due_date, next_assignee_id, created_at, updated_at`

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var due sql.NullTime
	var assignee sql.NullString

	err := scanner.Scan(
		&c.ID, &c.Name, &c.Description, &c.FrequencyDays,
		&due, &assignee, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if due.Valid {
		c.NextDueDate = &due.Time
	}
	if assignee.Valid {
		c.NextAssigneeID = &assignee.String
	}
	return &c, nil
}

func (s *ChoreStore) Create(name, description string, frequencyDays int, nextDue *time.Time, nextAssigneeID *string) (*model.Chore, error) {
	id := NewID()
	_, err := s.db.Exec(
		`INSERT INTO chores (id, name, description, frequency_days, next_due_date, next_assignee_id) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, description, frequencyDays, nullTime(nextDue), nullString(nextAssigneeID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id string) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// List returns all chores, soonest due first with never-due last.
func (s *ChoreStore) List() ([]model.Chore, error) {
	rows, err := s.db.Query(`SELECT ` + choreCols + ` FROM chores ORDER BY next_due_date IS NULL, next_due_date ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(id, name, description string, frequencyDays int, nextDue *time.Time, nextAssigneeID *string) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET name = ?, description = ?, frequency_days = ?, next_due_date = ?, next_assignee_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, description, frequencyDays, nullTime(nextDue), nullString(nextAssigneeID), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

// CompletionCount reports how many completions reference the chore.
func (s *ChoreStore) CompletionCount(id string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chore_completions WHERE chore_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return n, nil
}

// Delete hard-removes a chore. Refused while completion history exists.
func (s *ChoreStore) Delete(id string) error {
	n, err := s.CompletionCount(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("delete chore %s: %w", id, ErrChoreReferenced)
	}
	if _, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// --- Ledger methods (transaction-scoped) ---

// AppendCompletion inserts an immutable completion row using the caller's
// transaction.
func (s *ChoreStore) AppendCompletion(q Querier, c *model.ChoreCompletion) error {
	_, err := q.Exec(
		`INSERT INTO chore_completions (id, chore_id, user_id, completed_at, duration_minutes, comment, was_late, backdated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ChoreID, c.UserID, c.CompletedAt, c.DurationMinutes, c.Comment, c.WasLate, c.Backdated,
	)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

// AdvanceRotation moves the chore's cursor and due date as one statement,
// inside the caller's transaction.
func (s *ChoreStore) AdvanceRotation(q Querier, id string, nextAssigneeID *string, nextDue time.Time) error {
	_, err := q.Exec(
		`UPDATE chores SET next_assignee_id = ?, next_due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullString(nextAssigneeID), nextDue, id,
	)
	if err != nil {
		return fmt.Errorf("advance chore rotation: %w", err)
	}
	return nil
}

const completionCols = `id, chore_id, user_id, completed_at, duration_minutes, comment, was_late, backdated`

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.ChoreCompletion, error) {
	var c model.ChoreCompletion
	err := scanner.Scan(
		&c.ID, &c.ChoreID, &c.UserID, &c.CompletedAt,
		&c.DurationMinutes, &c.Comment, &c.WasLate, &c.Backdated,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCompletion fetches a single completion by id.
func (s *ChoreStore) GetCompletion(id string) (*model.ChoreCompletion, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM chore_completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
