package store

import (
	"errors"
	"testing"
	"time"

	"github.com/bmorrisey/rotaledger/internal/database"
	"github.com/bmorrisey/rotaledger/internal/model"
)

func setupChoreTestDB(t *testing.T) (*ChoreStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewChoreStore(db), NewUserStore(db)
}

func TestChoreCRUD(t *testing.T) {
	cs, us := setupChoreTestDB(t)

	alice, err := us.Create("Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	due := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	chore, err := cs.Create("Dishes", "Wash and dry", 7, &due, &alice.ID)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if chore.Name != "Dishes" {
		t.Errorf("name = %q, want %q", chore.Name, "Dishes")
	}
	if chore.FrequencyDays != 7 {
		t.Errorf("frequency_days = %d, want 7", chore.FrequencyDays)
	}
	if chore.NextAssigneeID == nil || *chore.NextAssigneeID != alice.ID {
		t.Errorf("next_assignee_id = %v, want %s", chore.NextAssigneeID, alice.ID)
	}
	if chore.NextDueDate == nil || !chore.NextDueDate.Equal(due) {
		t.Errorf("next_due_date = %v, want %v", chore.NextDueDate, due)
	}

	updated, err := cs.Update(chore.ID, "Dishes", "Wash, dry, put away", 3, &due, &alice.ID)
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.FrequencyDays != 3 {
		t.Errorf("updated frequency_days = %d, want 3", updated.FrequencyDays)
	}

	if err := cs.Delete(chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}
	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get deleted chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted chore")
	}
}

func TestChoreGetByIDNotFound(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	got, err := cs.GetByID("missing")
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent chore")
	}
}

func TestChoreListOrdersByDueDate(t *testing.T) {
	cs, _ := setupChoreTestDB(t)

	later := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := cs.Create("Bins", "", 7, &later, nil); err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if _, err := cs.Create("Dishes", "", 7, &sooner, nil); err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if _, err := cs.Create("Attic", "", 7, nil, nil); err != nil {
		t.Fatalf("create chore: %v", err)
	}

	chores, err := cs.List()
	if err != nil {
		t.Fatalf("list chores: %v", err)
	}
	want := []string{"Dishes", "Bins", "Attic"}
	if len(chores) != len(want) {
		t.Fatalf("got %d chores, want %d", len(chores), len(want))
	}
	for i, name := range want {
		if chores[i].Name != name {
			t.Errorf("chores[%d] = %q, want %q (due-first, never-due last)", i, chores[i].Name, name)
		}
	}
}

func TestChoreDeleteReferencedRefused(t *testing.T) {
	cs, us := setupChoreTestDB(t)

	alice, err := us.Create("Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	chore, err := cs.Create("Dishes", "", 7, nil, nil)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	err = cs.AppendCompletion(cs.db, &model.ChoreCompletion{
		ID:          NewID(),
		ChoreID:     chore.ID,
		UserID:      alice.ID,
		CompletedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("append completion: %v", err)
	}

	err = cs.Delete(chore.ID)
	if !errors.Is(err, ErrChoreReferenced) {
		t.Fatalf("err = %v, want ErrChoreReferenced", err)
	}
}

func TestChoreAdvanceRotation(t *testing.T) {
	cs, us := setupChoreTestDB(t)

	alice, err := us.Create("Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	bob, err := us.Create("Bob", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	chore, err := cs.Create("Dishes", "", 7, &due, &alice.ID)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	newDue := due.AddDate(0, 0, 7)
	if err := cs.AdvanceRotation(cs.db, chore.ID, &bob.ID, newDue); err != nil {
		t.Fatalf("advance rotation: %v", err)
	}

	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got.NextAssigneeID == nil || *got.NextAssigneeID != bob.ID {
		t.Errorf("cursor = %v, want %s", got.NextAssigneeID, bob.ID)
	}
	if got.NextDueDate == nil || !got.NextDueDate.Equal(newDue) {
		t.Errorf("due = %v, want %v", got.NextDueDate, newDue)
	}
}

func TestCompletionRoundTrip(t *testing.T) {
	cs, us := setupChoreTestDB(t)

	alice, err := us.Create("Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	chore, err := cs.Create("Dishes", "", 7, nil, nil)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	comp := &model.ChoreCompletion{
		ID:              NewID(),
		ChoreID:         chore.ID,
		UserID:          alice.ID,
		CompletedAt:     time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC),
		DurationMinutes: 25,
		Comment:         "sink was a mess",
		WasLate:         true,
	}
	if err := cs.AppendCompletion(cs.db, comp); err != nil {
		t.Fatalf("append completion: %v", err)
	}

	got, err := cs.GetCompletion(comp.ID)
	if err != nil {
		t.Fatalf("get completion: %v", err)
	}
	if got == nil {
		t.Fatal("completion not found")
	}
	if got.DurationMinutes != 25 {
		t.Errorf("duration = %d, want 25", got.DurationMinutes)
	}
	if !got.WasLate {
		t.Error("was_late not persisted")
	}
	if got.Comment != "sink was a mess" {
		t.Errorf("comment = %q", got.Comment)
	}
}
