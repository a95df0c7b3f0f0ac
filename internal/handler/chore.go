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

type ChoreHandler struct {
	choreStore *store.ChoreStore
	userStore  *store.UserStore
	recorder   *ledger.Recorder
	resolver   rotation.Resolver
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, us *store.UserStore, rec *ledger.Recorder, res rotation.Resolver, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{choreStore: cs, userStore: us, recorder: rec, resolver: res, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// choreView decorates a chore with what the boards render: the assignee's
// name and the humanized due date.
type choreView struct {
	model.Chore
	NextAssigneeName string `json:"next_assignee_name,omitempty"`
	DueLabel         string `json:"due_label"`
	Overdue          bool   `json:"overdue"`
}

func (h *ChoreHandler) view(c model.Chore, names map[string]string, now time.Time) choreView {
	v := choreView{
		Chore:    c,
		DueLabel: schedule.Humanize(c.NextDueDate, now),
		Overdue:  schedule.IsOverdue(c.NextDueDate, now),
	}
	if c.NextAssigneeID != nil {
		v.NextAssigneeName = names[*c.NextAssigneeID]
	}
	return v
}

// userNames maps user id to display name for cursor resolution, one query
// for the whole board.
func (h *ChoreHandler) userNames() (map[string]string, error) {
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

type choreRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	FrequencyDays  int     `json:"frequency_days"`
	NextAssigneeID *string `json:"next_assignee_id"`
	NextDueDate    *string `json:"next_due_date"`
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
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

	assigneeID := req.NextAssigneeID
	if assigneeID == nil {
		// Unassigned chores start with the first user in rotation order.
		active, err := h.userStore.ListActive()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list users")
			return
		}
		if next, err := h.resolver.Next(nil, active); err == nil {
			assigneeID = &next.ID
		}
	}

	due, err := parseWhen(derefOr(req.NextDueDate, ""))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid next_due_date")
		return
	}
	if due == nil {
		d := schedule.InitialDue(req.FrequencyDays, time.Now())
		due = &d
	}

	chore, err := h.choreStore.Create(req.Name, req.Description, req.FrequencyDays, due, assigneeID)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "created", chore.ID, nil))
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.List()
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	names, err := h.userNames()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	now := time.Now()
	views := make([]choreView, 0, len(chores))
	for _, c := range chores {
		views = append(views, h.view(c, names, now))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	chore, err := h.choreStore.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if chore == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}
	names, err := h.userNames()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, h.view(*chore, names, time.Now()))
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	var req choreRequest
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

	due := existing.NextDueDate
	if req.NextDueDate != nil {
		parsed, err := parseWhen(*req.NextDueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid next_due_date")
			return
		}
		due = parsed
	} else if req.FrequencyDays != existing.FrequencyDays {
		// Editing the interval re-anchors the schedule from today. This is
		// the one place a due date may move backwards.
		d := schedule.InitialDue(req.FrequencyDays, time.Now())
		due = &d
	}

	assignee := existing.NextAssigneeID
	if req.NextAssigneeID != nil {
		user, err := h.userStore.GetByID(*req.NextAssigneeID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check user")
			return
		}
		if user == nil {
			writeError(w, http.StatusBadRequest, "next_assignee_id: user not found")
			return
		}
		assignee = req.NextAssigneeID
	}

	chore, err := h.choreStore.Update(id, req.Name, req.Description, req.FrequencyDays, due, assignee)
	if err != nil {
		h.logger.Error("update chore", "chore_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "updated", chore.ID, nil))
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.choreStore.Delete(id)
	if errors.Is(err, store.ErrChoreReferenced) {
		writeError(w, http.StatusConflict, "chore has completion history and cannot be deleted")
		return
	}
	if err != nil {
		h.logger.Error("delete chore", "chore_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type completeRequest struct {
	UserID          string `json:"user_id"`
	DurationMinutes int    `json:"duration_minutes"`
	Comment         string `json:"comment"`
	When            string `json:"when,omitempty"`
}

// Complete records a completion through the ledger and reports the
// committed event.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	choreID := r.PathValue("id")

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	when, err := parseWhen(req.When)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid when timestamp")
		return
	}

	comp, err := h.recorder.RecordCompletion(choreID, req.UserID, ledger.CompletionInput{
		DurationMinutes: req.DurationMinutes,
		Comment:         req.Comment,
		When:            when,
	})
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage("chore", "completed", choreID, map[string]any{
		"completion_id": comp.ID,
		"actor_id":      comp.UserID,
	}))
	writeJSON(w, http.StatusCreated, comp)
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// writeLedgerError maps the engine's error taxonomy onto HTTP statuses.
// Messages carry the task/user that failed, never a generic failure.
func writeLedgerError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var notFound *ledger.NotFoundError
	var invalidActor *ledger.InvalidActorError
	var validation *ledger.ValidationError
	var txErr *ledger.TransactionError

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &invalidActor):
		writeError(w, http.StatusUnprocessableEntity, invalidActor.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, rotation.ErrNoEligibleAssignee):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &txErr):
		logger.Error("ledger transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, txErr.Error())
	default:
		logger.Error("ledger error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
