package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bmorrisey/rotaledger/internal/ledger"
	"github.com/bmorrisey/rotaledger/internal/model"
	"github.com/bmorrisey/rotaledger/internal/rotation"
	"github.com/bmorrisey/rotaledger/internal/schedule"
	"github.com/bmorrisey/rotaledger/internal/store"
	"github.com/bmorrisey/rotaledger/internal/websocket"
)

type ItemHandler struct {
	itemStore *store.ItemStore
	userStore *store.UserStore
	recorder  *ledger.Recorder
	resolver  rotation.Resolver
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewItemHandler(is *store.ItemStore, us *store.UserStore, rec *ledger.Recorder, res rotation.Resolver, hub *websocket.Hub, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{itemStore: is, userStore: us, recorder: rec, resolver: res, hub: hub, logger: logger}
}

func (h *ItemHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type itemView struct {
	model.Item
	NextBuyerName string `json:"next_buyer_name,omitempty"`
	DueLabel      string `json:"due_label"`
	Overdue       bool   `json:"overdue"`
}

func (h *ItemHandler) view(it model.Item, names map[string]string, now time.Time) itemView {
	v := itemView{
		Item:     it,
		DueLabel: schedule.Humanize(it.NextRestockDate, now),
		Overdue:  schedule.IsOverdue(it.NextRestockDate, now),
	}
	if it.NextBuyerID != nil {
		v.NextBuyerName = names[*it.NextBuyerID]
	}
	return v
}

func (h *ItemHandler) userNames() (map[string]string, error) {
	users, err := h.userStore.List()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

type itemRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	FrequencyDays int     `json:"frequency_days"`
	NextBuyerID   *string `json:"next_buyer_id"`
	NextRestock   *string `json:"next_restock_date"`
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.FrequencyDays < 1 {
		writeError(w, http.StatusBadRequest, "frequency_days must be at least 1")
		return
	}

	buyerID := req.NextBuyerID
	if buyerID == nil {
		active, err := h.userStore.ListActive()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list users")
			return
		}
		if next, err := h.resolver.Next(nil, active); err == nil {
			buyerID = &next.ID
		}
	}

	restock, err := parseWhen(derefOr(req.NextRestock, ""))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid next_restock_date")
		return
	}
	if restock == nil {
		d := schedule.InitialDue(req.FrequencyDays, time.Now())
		restock = &d
	}

	item, err := h.itemStore.Create(req.Name, req.Description, req.FrequencyDays, restock, buyerID)
	if err != nil {
		h.logger.Error("create item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	h.broadcast(websocket.NewMessage("item", "created", item.ID, nil))
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemStore.List()
	if err != nil {
		h.logger.Error("list items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	names, err := h.userNames()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	now := time.Now()
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, h.view(it, names, now))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.itemStore.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	names, err := h.userNames()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, h.view(*item, names, time.Now()))
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.itemStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.FrequencyDays < 1 {
		writeError(w, http.StatusBadRequest, "frequency_days must be at least 1")
		return
	}

	restock := existing.NextRestockDate
	if req.NextRestock != nil {
		parsed, err := parseWhen(*req.NextRestock)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid next_restock_date")
			return
		}
		restock = parsed
	} else if req.FrequencyDays != existing.FrequencyDays {
		d := schedule.InitialDue(req.FrequencyDays, time.Now())
		restock = &d
	}

	buyer := existing.NextBuyerID
	if req.NextBuyerID != nil {
		user, err := h.userStore.GetByID(*req.NextBuyerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check user")
			return
		}
		if user == nil {
			writeError(w, http.StatusBadRequest, "next_buyer_id: user not found")
			return
		}
		buyer = req.NextBuyerID
	}

	item, err := h.itemStore.Update(id, req.Name, req.Description, req.FrequencyDays, restock, buyer)
	if err != nil {
		h.logger.Error("update item", "item_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	h.broadcast(websocket.NewMessage("item", "updated", item.ID, nil))
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.itemStore.Delete(id)
	if errors.Is(err, store.ErrItemReferenced) {
		writeError(w, http.StatusConflict, "item has purchase history and cannot be deleted")
		return
	}
	if err != nil {
		h.logger.Error("delete item", "item_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	h.broadcast(websocket.NewMessage("item", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type purchaseRequest struct {
	UserID          string `json:"user_id"`
	Quantity        int    `json:"quantity"`
	TotalPriceCents int64  `json:"total_price_cents"`
	Comment         string `json:"comment"`
	When            string `json:"when,omitempty"`
}

// Purchase records a purchase through the ledger.
func (h *ItemHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	when, err := parseWhen(req.When)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid when timestamp")
		return
	}

	rec, err := h.recorder.RecordPurchase(itemID, req.UserID, ledger.PurchaseInput{
		Quantity:        req.Quantity,
		TotalPriceCents: req.TotalPriceCents,
		Comment:         req.Comment,
		When:            when,
	})
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage("item", "purchased", itemID, map[string]any{
		"purchase_id": rec.ID,
		"actor_id":    rec.UserID,
	}))
	writeJSON(w, http.StatusCreated, rec)
}
