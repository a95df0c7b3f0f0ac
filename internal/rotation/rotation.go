package rotation

import (
	"errors"
	"sort"

	"github.com/bmorrisey/rotaledger/internal/model"
)

// ErrNoEligibleAssignee is returned when a rotation has no active candidate.
var ErrNoEligibleAssignee = errors.New("no eligible assignee: no active users")

// Resolver chooses the next responsible user for a task given its last
// assignee and the current active set. The ledger depends on this interface
// so a per-task ordering could be swapped in without touching it.
type Resolver interface {
	Next(last *model.User, active []model.User) (*model.User, error)
}

// GlobalOrder resolves every task against a single household-wide ordering:
// users sorted by name, ties broken by ID. The same inputs always produce
// the same order, so rotation state survives restarts.
type GlobalOrder struct{}

func (GlobalOrder) Next(last *model.User, active []model.User) (*model.User, error) {
	return Next(last, active)
}

// Less reports whether a sorts before b in rotation order.
func Less(a, b model.User) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

// Sorted returns a copy of users in stable rotation order.
func Sorted(users []model.User) []model.User {
	out := make([]model.User, len(users))
	copy(out, users)
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Next returns the user responsible after last, wrapping around the active
// set. A nil last (never-assigned task) yields the first user in order. If
// last has since been deactivated, the pick is the first active user after
// the position last occupied, so nobody gets skipped on membership churn.
// Inactive entries in users are never selected.
func Next(last *model.User, users []model.User) (*model.User, error) {
	var active []model.User
	for _, u := range users {
		if u.Active {
			active = append(active, u)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoEligibleAssignee
	}
	active = Sorted(active)

	if last == nil {
		return &active[0], nil
	}

	// First active user ordered strictly after last. When last is still in
	// the set this is the following entry; when last was removed it is
	// whoever now holds that spot. Falls back to wraparound.
	for i := range active {
		if Less(*last, active[i]) {
			return &active[i], nil
		}
	}
	return &active[0], nil
}
