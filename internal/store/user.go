package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bmorrisey/rotaledger/internal/model"
)

// ErrUserReferenced is returned by Delete when the user still appears in
// the event log. Referenced users can only be deactivated.
var ErrUserReferenced = errors.New("user is referenced by history")

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, name, avatar_path, active, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Name, &u.AvatarPath, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Create(name, avatarPath string) (*model.User, error) {
	id := NewID()
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, avatar_path, active) VALUES (?, ?, ?, 1)`,
		id, name, avatarPath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List returns all users, active or not, in rotation order.
func (s *UserStore) List() ([]model.User, error) {
	return s.list(`SELECT ` + userCols + ` FROM users ORDER BY name ASC, id ASC`)
}

// ListActive returns the users currently eligible for rotation, in
// rotation order.
func (s *UserStore) ListActive() ([]model.User, error) {
	return s.list(`SELECT ` + userCols + ` FROM users WHERE active = 1 ORDER BY name ASC, id ASC`)
}

func (s *UserStore) list(query string) ([]model.User, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) Update(id, name, avatarPath string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, avatar_path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, avatarPath, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// SetActive flips rotation eligibility. Deactivation never touches the
// user's events; any rotation cursor pointing here resolves past it.
func (s *UserStore) SetActive(id string, active bool) error {
	_, err := s.db.Exec(
		`UPDATE users SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id,
	)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return nil
}

// ReferenceCount reports how many ledger events name the user as actor.
func (s *UserStore) ReferenceCount(id string) (int, error) {
	var completions, purchases int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chore_completions WHERE user_id = ?`, id).Scan(&completions)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM purchase_records WHERE user_id = ?`, id).Scan(&purchases)
	if err != nil {
		return 0, fmt.Errorf("count purchases: %w", err)
	}
	return completions + purchases, nil
}

// Delete hard-removes a user. Only permitted when no historical event
// references them; referenced users must be deactivated instead.
func (s *UserStore) Delete(id string) error {
	refs, err := s.ReferenceCount(id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("delete user %s: %w", id, ErrUserReferenced)
	}
	// Clear any rotation cursors pointing at the user before removal.
	if _, err := s.db.Exec(`UPDATE chores SET next_assignee_id = NULL WHERE next_assignee_id = ?`, id); err != nil {
		return fmt.Errorf("clear chore cursors: %w", err)
	}
	if _, err := s.db.Exec(`UPDATE items SET next_buyer_id = NULL WHERE next_buyer_id = ?`, id); err != nil {
		return fmt.Errorf("clear item cursors: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
