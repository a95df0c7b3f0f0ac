package store

import (
	"database/sql"

	"github.com/google/uuid"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store methods that must run inside the caller's transaction take a
// Querier instead of using the store's own handle.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NewID returns a fresh opaque identifier. UUIDs rather than rowids so
// exported data can be merged without collisions.
func NewID() string {
	return uuid.NewString()
}
