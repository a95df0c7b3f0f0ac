package store

import (
	"errors"
	"testing"
	"time"

	"github.com/bmorrisey/rotaledger/internal/database"
	"github.com/bmorrisey/rotaledger/internal/model"
)

func setupItemTestDB(t *testing.T) (*ItemStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewItemStore(db), NewUserStore(db)
}

func TestItemCRUD(t *testing.T) {
	is, us := setupItemTestDB(t)

	alice, err := us.Create("Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	restock := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	item, err := is.Create("Toilet Paper", "the soft kind", 14, &restock, &alice.ID)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Name != "Toilet Paper" {
		t.Errorf("name = %q, want %q", item.Name, "Toilet Paper")
	}
	if item.NextBuyerID == nil || *item.NextBuyerID != alice.ID {
		t.Errorf("next_buyer_id = %v, want %s", item.NextBuyerID, alice.ID)
	}

	updated, err := is.Update(item.ID, "Toilet Paper", "any brand", 10, &restock, nil)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.FrequencyDays != 10 {
		t.Errorf("updated frequency_days = %d, want 10", updated.FrequencyDays)
	}
	if updated.NextBuyerID != nil {
		t.Errorf("next_buyer_id = %v, want nil after clearing", updated.NextBuyerID)
	}

	if err := is.Delete(item.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	got, err := is.GetByID(item.ID)
	if err != nil {
		t.Fatalf("get deleted item: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted item")
	}
}

func TestItemListOrdersByRestockDate(t *testing.T) {
	is, _ := setupItemTestDB(t)

	later := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	if _, err := is.Create("Sponges", "", 30, &later, nil); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := is.Create("Milk", "", 7, &sooner, nil); err != nil {
		t.Fatalf("create item: %v", err)
	}

	items, err := is.List()
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Milk" {
		t.Errorf("first item = %q, want Milk (soonest restock first)", items[0].Name)
	}
}

func TestItemDeleteReferencedRefused(t *testing.T) {
	is, us := setupItemTestDB(t)

	alice, err := us.Create("Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	item, err := is.Create("Milk", "", 7, nil, nil)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	err = is.AppendPurchase(is.db, &model.PurchaseRecord{
		ID:              NewID(),
		ItemID:          item.ID,
		UserID:          alice.ID,
		PurchasedAt:     time.Now(),
		Quantity:        1,
		TotalPriceCents: 120,
	})
	if err != nil {
		t.Fatalf("append purchase: %v", err)
	}

	err = is.Delete(item.ID)
	if !errors.Is(err, ErrItemReferenced) {
		t.Fatalf("err = %v, want ErrItemReferenced", err)
	}
}

func TestPurchaseRoundTrip(t *testing.T) {
	is, us := setupItemTestDB(t)

	alice, err := us.Create("Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	item, err := is.Create("Milk", "", 7, nil, nil)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	rec := &model.PurchaseRecord{
		ID:              NewID(),
		ItemID:          item.ID,
		UserID:          alice.ID,
		PurchasedAt:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Quantity:        2,
		TotalPriceCents: 350,
		Comment:         "on offer",
		Backdated:       true,
	}
	if err := is.AppendPurchase(is.db, rec); err != nil {
		t.Fatalf("append purchase: %v", err)
	}

	got, err := is.GetPurchase(rec.ID)
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	if got == nil {
		t.Fatal("purchase not found")
	}
	if got.TotalPriceCents != 350 {
		t.Errorf("total_price_cents = %d, want 350", got.TotalPriceCents)
	}
	if got.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", got.Quantity)
	}
	if !got.Backdated {
		t.Error("backdated not persisted")
	}
}
