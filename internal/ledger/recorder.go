// Package ledger records chore completions and purchases. Each record is a
// single transaction: append the immutable event, advance the task's
// rotation cursor from the actor who acted, and recompute the due date.
// Either all three commit or none do.
package ledger

import (
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/bmorrisey/rotaledger/internal/model"
	"github.com/bmorrisey/rotaledger/internal/rotation"
	"github.com/bmorrisey/rotaledger/internal/schedule"
	"github.com/bmorrisey/rotaledger/internal/store"
)

// UserDirectory is the user lookup the recorder needs.
type UserDirectory interface {
	GetByID(id string) (*model.User, error)
	ListActive() ([]model.User, error)
}

// ChoreLedger is the chore-side store capability set.
type ChoreLedger interface {
	GetByID(id string) (*model.Chore, error)
	AppendCompletion(q store.Querier, c *model.ChoreCompletion) error
	AdvanceRotation(q store.Querier, id string, nextAssigneeID *string, nextDue time.Time) error
}

// ItemLedger is the item-side store capability set.
type ItemLedger interface {
	GetByID(id string) (*model.Item, error)
	AppendPurchase(q store.Querier, p *model.PurchaseRecord) error
	AdvanceRotation(q store.Querier, id string, nextBuyerID *string, nextRestock time.Time) error
}

// Recorder is the ledger engine. Single writer: the process owns the
// database and recording runs to completion inside one transaction.
type Recorder struct {
	db       *sql.DB
	users    UserDirectory
	chores   ChoreLedger
	items    ItemLedger
	resolver rotation.Resolver
	logger   *slog.Logger
	now      func() time.Time
}

func NewRecorder(db *sql.DB, users UserDirectory, chores ChoreLedger, items ItemLedger, resolver rotation.Resolver, logger *slog.Logger) *Recorder {
	return &Recorder{
		db:       db,
		users:    users,
		chores:   chores,
		items:    items,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// CompletionInput is the payload for recording a chore completion. A nil
// When means "now"; a non-nil When marks the event backdated.
type CompletionInput struct {
	DurationMinutes int
	Comment         string
	When            *time.Time
}

// PurchaseInput is the payload for recording a purchase.
type PurchaseInput struct {
	Quantity        int
	TotalPriceCents int64
	Comment         string
	When            *time.Time
}

// RecordCompletion logs that actor completed the chore. Any active user
// may act regardless of who the rotation suggested; the cursor advances
// from whoever actually acted.
func (r *Recorder) RecordCompletion(choreID, actorID string, in CompletionInput) (*model.ChoreCompletion, error) {
	chore, err := r.chores.GetByID(choreID)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, &NotFoundError{Entity: "chore", ID: choreID}
	}

	if in.DurationMinutes < 0 {
		return nil, &ValidationError{Field: "duration_minutes", Reason: "must not be negative"}
	}

	actor, err := r.validActor(actorID, chore.ID, chore.Name)
	if err != nil {
		return nil, err
	}

	when, backdated := r.eventTime(in.When)
	comp := &model.ChoreCompletion{
		ID:              store.NewID(),
		ChoreID:         chore.ID,
		UserID:          actor.ID,
		CompletedAt:     when,
		DurationMinutes: in.DurationMinutes,
		Comment:         strings.TrimSpace(in.Comment),
		WasLate:         schedule.IsOverdue(chore.NextDueDate, when),
		Backdated:       backdated,
	}

	next, err := r.nextAfter(actor)
	if err != nil {
		return nil, err
	}
	nextDue := schedule.NextDue(chore.NextDueDate, chore.FrequencyDays, when)

	err = r.inTx("record completion", chore.ID, func(tx *sql.Tx) error {
		if err := r.chores.AppendCompletion(tx, comp); err != nil {
			return err
		}
		return r.chores.AdvanceRotation(tx, chore.ID, &next.ID, nextDue)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("completion recorded",
		"chore", chore.Name, "actor", actor.Name,
		"next_assignee", next.Name, "next_due", nextDue)
	return comp, nil
}

// RecordPurchase logs that actor bought the item, mirroring
// RecordCompletion for the purchase rotation.
func (r *Recorder) RecordPurchase(itemID, actorID string, in PurchaseInput) (*model.PurchaseRecord, error) {
	item, err := r.items.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &NotFoundError{Entity: "item", ID: itemID}
	}

	if in.Quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if in.TotalPriceCents < 0 {
		return nil, &ValidationError{Field: "total_price_cents", Reason: "must not be negative"}
	}

	actor, err := r.validActor(actorID, item.ID, item.Name)
	if err != nil {
		return nil, err
	}

	when, backdated := r.eventTime(in.When)
	rec := &model.PurchaseRecord{
		ID:              store.NewID(),
		ItemID:          item.ID,
		UserID:          actor.ID,
		PurchasedAt:     when,
		Quantity:        in.Quantity,
		TotalPriceCents: in.TotalPriceCents,
		Comment:         strings.TrimSpace(in.Comment),
		WasLate:         schedule.IsOverdue(item.NextRestockDate, when),
		Backdated:       backdated,
	}

	next, err := r.nextAfter(actor)
	if err != nil {
		return nil, err
	}
	nextRestock := schedule.NextDue(item.NextRestockDate, item.FrequencyDays, when)

	err = r.inTx("record purchase", item.ID, func(tx *sql.Tx) error {
		if err := r.items.AppendPurchase(tx, rec); err != nil {
			return err
		}
		return r.items.AdvanceRotation(tx, item.ID, &next.ID, nextRestock)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("purchase recorded",
		"item", item.Name, "actor", actor.Name,
		"next_buyer", next.Name, "next_restock", nextRestock)
	return rec, nil
}

func (r *Recorder) validActor(actorID, taskID, taskName string) (*model.User, error) {
	actor, err := r.users.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, &InvalidActorError{TaskID: taskID, TaskName: taskName, UserID: actorID, Reason: "user not found"}
	}
	if !actor.Active {
		return nil, &InvalidActorError{TaskID: taskID, TaskName: taskName, UserID: actorID, Reason: "user is not active"}
	}
	return actor, nil
}

func (r *Recorder) nextAfter(actor *model.User) (*model.User, error) {
	active, err := r.users.ListActive()
	if err != nil {
		return nil, err
	}
	return r.resolver.Next(actor, active)
}

func (r *Recorder) eventTime(when *time.Time) (time.Time, bool) {
	if when != nil {
		return *when, true
	}
	return r.now(), false
}

// inTx runs fn inside a transaction, rolling back on any failure so the
// event log, cursor, and due date never diverge.
func (r *Recorder) inTx(op, taskID string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return &TransactionError{Op: op, TaskID: taskID, Err: err}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return &TransactionError{Op: op, TaskID: taskID, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &TransactionError{Op: op, TaskID: taskID, Err: err}
	}
	return nil
}
