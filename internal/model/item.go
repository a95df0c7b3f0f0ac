package model

import "time"

// Item is a recurring household purchase (toilet paper, milk). It mirrors
// Chore: NextBuyerID is the rotation cursor, NextRestockDate the due date.
type Item struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	FrequencyDays   int        `json:"frequency_days"`
	NextRestockDate *time.Time `json:"next_restock_date"`
	NextBuyerID     *string    `json:"next_buyer_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PurchaseRecord is an immutable record of an item being bought.
// TotalPriceCents is in minor currency units; money never touches floats.
type PurchaseRecord struct {
	ID              string    `json:"id"`
	ItemID          string    `json:"item_id"`
	UserID          string    `json:"user_id"`
	PurchasedAt     time.Time `json:"purchased_at"`
	Quantity        int       `json:"quantity"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Comment         string    `json:"comment"`
	WasLate         bool      `json:"was_late"`
	Backdated       bool      `json:"backdated"`
}
