package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bmorrisey/rotaledger/internal/model"
)

// ErrItemReferenced is returned by Delete when purchases exist for the
// item.
var ErrItemReferenced = errors.New("item is referenced by history")

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemCols = `id, name, description, frequency_days, next_restock_date, next_buyer_id, created_at, updated_at`

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var it model.Item
	var due sql.NullTime
	var buyer sql.NullString

	err := scanner.Scan(
		&it.ID, &it.Name, &it.Description, &it.FrequencyDays,
		&due, &buyer, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if due.Valid {
		it.NextRestockDate = &due.Time
	}
	if buyer.Valid {
		it.NextBuyerID = &buyer.String
	}
	return &it, nil
}

func (s *ItemStore) Create(name, description string, frequencyDays int, nextRestock *time.Time, nextBuyerID *string) (*model.Item, error) {
	id := NewID()
	_, err := s.db.Exec(
		`INSERT INTO items (id, name, description, frequency_days, next_restock_date, next_buyer_id) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, description, frequencyDays, nullTime(nextRestock), nullString(nextBuyerID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return s.GetByID(id)
}

func (s *ItemStore) GetByID(id string) (*model.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// List returns all items, soonest restock first with never-due last.
func (s *ItemStore) List() ([]model.Item, error) {
	rows, err := s.db.Query(`SELECT ` + itemCols + ` FROM items ORDER BY next_restock_date IS NULL, next_restock_date ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *ItemStore) Update(id, name, description string, frequencyDays int, nextRestock *time.Time, nextBuyerID *string) (*model.Item, error) {
	_, err := s.db.Exec(
		`UPDATE items SET name = ?, description = ?, frequency_days = ?, next_restock_date = ?, next_buyer_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, description, frequencyDays, nullTime(nextRestock), nullString(nextBuyerID), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.GetByID(id)
}

// PurchaseCount reports how many purchase records reference the item.
func (s *ItemStore) PurchaseCount(id string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM purchase_records WHERE item_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count purchases: %w", err)
	}
	return n, nil
}

// Delete hard-removes an item. Refused while purchase history exists.
func (s *ItemStore) Delete(id string) error {
	n, err := s.PurchaseCount(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("delete item %s: %w", id, ErrItemReferenced)
	}
	if _, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// --- Ledger methods (transaction-scoped) ---

// AppendPurchase inserts an immutable purchase row using the caller's
// transaction.
func (s *ItemStore) AppendPurchase(q Querier, p *model.PurchaseRecord) error {
	_, err := q.Exec(
		`INSERT INTO purchase_records (id, item_id, user_id, purchased_at, quantity, total_price_cents, comment, was_late, backdated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ItemID, p.UserID, p.PurchasedAt, p.Quantity, p.TotalPriceCents, p.Comment, p.WasLate, p.Backdated,
	)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

// AdvanceRotation moves the item's cursor and restock date inside the
// caller's transaction.
func (s *ItemStore) AdvanceRotation(q Querier, id string, nextBuyerID *string, nextRestock time.Time) error {
	_, err := q.Exec(
		`UPDATE items SET next_buyer_id = ?, next_restock_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullString(nextBuyerID), nextRestock, id,
	)
	if err != nil {
		return fmt.Errorf("advance item rotation: %w", err)
	}
	return nil
}

const purchaseCols = `id, item_id, user_id, purchased_at, quantity, total_price_cents, comment, was_late, backdated`

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.PurchaseRecord, error) {
	var p model.PurchaseRecord
	err := scanner.Scan(
		&p.ID, &p.ItemID, &p.UserID, &p.PurchasedAt,
		&p.Quantity, &p.TotalPriceCents, &p.Comment, &p.WasLate, &p.Backdated,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPurchase fetches a single purchase record by id.
func (s *ItemStore) GetPurchase(id string) (*model.PurchaseRecord, error) {
	row := s.db.QueryRow(`SELECT `+purchaseCols+` FROM purchase_records WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}
