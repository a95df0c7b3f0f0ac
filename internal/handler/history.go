package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bmorrisey/rotaledger/internal/history"
)

type HistoryHandler struct {
	service *history.Service
	logger  *slog.Logger
}

func NewHistoryHandler(s *history.Service, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{service: s, logger: logger}
}

// filterFromQuery maps query parameters onto a history filter. Absent
// parameters impose no constraint.
func filterFromQuery(r *http.Request) (history.Filter, error) {
	q := r.URL.Query()
	f := history.Filter{
		TaskID:  q.Get("task"),
		ActorID: q.Get("actor"),
		Sort:    history.SortField(q.Get("sort")),
		Asc:     q.Get("dir") == "asc",
	}
	switch f.Sort {
	case "", history.SortByDate, history.SortByDuration, history.SortByAmount:
	default:
		return f, fmt.Errorf("unknown sort field %q", f.Sort)
	}
	from, err := parseWhen(q.Get("from"))
	if err != nil {
		return f, err
	}
	to, err := parseWhen(q.Get("to"))
	if err != nil {
		return f, err
	}
	f.From = from
	f.To = to
	return f, nil
}

func (h *HistoryHandler) Completions(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.service.Completions(f)
	if errors.Is(err, history.ErrBadSort) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("query completions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to query completion history")
		return
	}
	if entries == nil {
		entries = []history.CompletionEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *HistoryHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.service.Purchases(f)
	if errors.Is(err, history.ErrBadSort) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("query purchases", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to query purchase history")
		return
	}
	if entries == nil {
		entries = []history.PurchaseEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
