// Package history reads the immutable event log. Queries are filtered and
// sorted in SQL; referenced users and tasks are resolved in one batched
// follow-up query each, never per row.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmorrisey/rotaledger/internal/model"
)

// ErrBadSort flags a sort field the queried event kind does not carry,
// e.g. amount on completions.
var ErrBadSort = errors.New("unsupported sort field")

// SortField selects the sort column for a history query.
type SortField string

const (
	SortByDate     SortField = "date"
	SortByDuration SortField = "duration"
	SortByAmount   SortField = "amount"
)

// Filter narrows a history query. Zero-value fields impose no constraint;
// set fields are combined with AND. The date range is half-open: From
// inclusive, To exclusive.
type Filter struct {
	TaskID  string
	ActorID string
	From    *time.Time
	To      *time.Time
	Sort    SortField // default SortByDate
	Asc     bool      // default newest first
}

// CompletionEntry is a completion with its references resolved for display.
type CompletionEntry struct {
	model.ChoreCompletion
	ChoreName string `json:"chore_name"`
	UserName  string `json:"user_name"`
}

// PurchaseEntry is a purchase with its references resolved for display.
type PurchaseEntry struct {
	model.PurchaseRecord
	ItemName string `json:"item_name"`
	UserName string `json:"user_name"`
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Completions returns chore completions matching the filter. Each call is
// a fresh consistent read of the log.
func (s *Service) Completions(f Filter) ([]CompletionEntry, error) {
	where, args := f.clauses("chore_id", "completed_at")
	order, err := f.orderBy("completed_at", "duration_minutes", SortByDuration)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, chore_id, user_id, completed_at, duration_minutes, comment, was_late, backdated FROM chore_completions` + where + order
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	var entries []CompletionEntry
	for rows.Next() {
		var c model.ChoreCompletion
		err := rows.Scan(&c.ID, &c.ChoreID, &c.UserID, &c.CompletedAt, &c.DurationMinutes, &c.Comment, &c.WasLate, &c.Backdated)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		entries = append(entries, CompletionEntry{ChoreCompletion: c})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(entries))
	taskIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
		taskIDs = append(taskIDs, e.ChoreID)
	}
	userNames, err := s.namesFor("users", userIDs)
	if err != nil {
		return nil, err
	}
	choreNames, err := s.namesFor("chores", taskIDs)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].UserName = userNames[entries[i].UserID]
		entries[i].ChoreName = choreNames[entries[i].ChoreID]
	}
	return entries, nil
}

// Purchases returns purchase records matching the filter.
func (s *Service) Purchases(f Filter) ([]PurchaseEntry, error) {
	where, args := f.clauses("item_id", "purchased_at")
	order, err := f.orderBy("purchased_at", "total_price_cents", SortByAmount)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, item_id, user_id, purchased_at, quantity, total_price_cents, comment, was_late, backdated FROM purchase_records` + where + order
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var entries []PurchaseEntry
	for rows.Next() {
		var p model.PurchaseRecord
		err := rows.Scan(&p.ID, &p.ItemID, &p.UserID, &p.PurchasedAt, &p.Quantity, &p.TotalPriceCents, &p.Comment, &p.WasLate, &p.Backdated)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		entries = append(entries, PurchaseEntry{PurchaseRecord: p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(entries))
	taskIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
		taskIDs = append(taskIDs, e.ItemID)
	}
	userNames, err := s.namesFor("users", userIDs)
	if err != nil {
		return nil, err
	}
	itemNames, err := s.namesFor("items", taskIDs)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].UserName = userNames[entries[i].UserID]
		entries[i].ItemName = itemNames[entries[i].ItemID]
	}
	return entries, nil
}

func (f Filter) clauses(taskCol, dateCol string) (string, []any) {
	var conds []string
	var args []any
	if f.TaskID != "" {
		conds = append(conds, taskCol+" = ?")
		args = append(args, f.TaskID)
	}
	if f.ActorID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.ActorID)
	}
	if f.From != nil {
		conds = append(conds, dateCol+" >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		conds = append(conds, dateCol+" < ?")
		args = append(args, *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f Filter) orderBy(dateCol, metricCol string, metric SortField) (string, error) {
	var col string
	switch f.Sort {
	case "", SortByDate:
		col = dateCol
	case metric:
		col = metricCol
	default:
		return "", fmt.Errorf("%w: %q", ErrBadSort, f.Sort)
	}
	dir := "DESC"
	if f.Asc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir), nil
}

// namesFor resolves display names for a set of ids with a single IN query.
func (s *Service) namesFor(table string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	distinct := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, seen := names[id]; !seen {
			names[id] = ""
			distinct = append(distinct, id)
		}
	}
	if len(distinct) == 0 {
		return names, nil
	}

	placeholders := strings.Repeat("?,", len(distinct))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(distinct))
	for i, id := range distinct {
		args[i] = id
	}

	rows, err := s.db.Query(`SELECT id, name FROM `+table+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve %s names: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan %s name: %w", table, err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
