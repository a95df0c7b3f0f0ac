package model

import "time"

// User is a housemate who participates in chore and purchase rotations.
// Active controls rotation eligibility only; deactivating a user never
// touches their history.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AvatarPath string    `json:"avatar_path"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
