package handler

import (
	"log/slog"
	"net/http"

	"github.com/bmorrisey/rotaledger/internal/analytics"
	"github.com/bmorrisey/rotaledger/internal/category"
	"github.com/bmorrisey/rotaledger/internal/history"
	"github.com/bmorrisey/rotaledger/internal/model"
)

type AnalyticsHandler struct {
	service  *history.Service
	currency string
	logger   *slog.Logger
}

func NewAnalyticsHandler(s *history.Service, currency string, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: s, currency: currency, logger: logger}
}

// summary is the structured aggregate the charts consume. Money stays in
// minor units; the client formats for locale.
type summary struct {
	Currency            string            `json:"currency"`
	ChoreMinutesByUser  []analytics.Entry `json:"chore_minutes_by_user"`
	ChoreCountByUser    []analytics.Entry `json:"chore_count_by_user"`
	MinutesByChore      []analytics.Entry `json:"minutes_by_chore"`
	SpendByUser         []analytics.Entry `json:"spend_by_user"`
	SpendByItem         []analytics.Entry `json:"spend_by_item"`
	SpendByCategory     []analytics.Entry `json:"spend_by_category"`
	PurchaseCountByUser []analytics.Entry `json:"purchase_count_by_user"`
}

// Summary folds the event log (optionally bounded by from/to) into
// leaderboard totals.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date filter")
		return
	}
	f.Sort = ""
	f.Asc = false

	completionEntries, err := h.service.Completions(f)
	if err != nil {
		h.logger.Error("load completions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load completion history")
		return
	}
	purchaseEntries, err := h.service.Purchases(f)
	if err != nil {
		h.logger.Error("load purchases", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load purchase history")
		return
	}

	completions := make([]model.ChoreCompletion, len(completionEntries))
	userNames := make(map[string]string)
	choreNames := make(map[string]string)
	for i, e := range completionEntries {
		completions[i] = e.ChoreCompletion
		userNames[e.UserID] = e.UserName
		choreNames[e.ChoreID] = e.ChoreName
	}

	purchases := make([]model.PurchaseRecord, len(purchaseEntries))
	itemNames := make(map[string]string)
	categoryTotals := make(map[string]int64)
	for i, e := range purchaseEntries {
		purchases[i] = e.PurchaseRecord
		userNames[e.UserID] = e.UserName
		itemNames[e.ItemID] = e.ItemName
		categoryTotals[category.Guess(e.ItemName)] += e.TotalPriceCents
	}

	out := summary{
		Currency: h.currency,
		ChoreMinutesByUser: analytics.Leaderboard(
			analytics.CompletionTotals(completions, analytics.ByUser, analytics.TotalDuration), userNames),
		ChoreCountByUser: analytics.Leaderboard(
			analytics.CompletionTotals(completions, analytics.ByUser, analytics.Count), userNames),
		MinutesByChore: analytics.Leaderboard(
			analytics.CompletionTotals(completions, analytics.ByTask, analytics.TotalDuration), choreNames),
		SpendByUser: analytics.Leaderboard(
			analytics.PurchaseTotals(purchases, analytics.ByUser, analytics.TotalSpend), userNames),
		SpendByItem: analytics.Leaderboard(
			analytics.PurchaseTotals(purchases, analytics.ByTask, analytics.TotalSpend), itemNames),
		SpendByCategory: analytics.Leaderboard(categoryTotals, nil),
		PurchaseCountByUser: analytics.Leaderboard(
			analytics.PurchaseTotals(purchases, analytics.ByUser, analytics.Count), userNames),
	}
	writeJSON(w, http.StatusOK, out)
}
