package ledger

import "fmt"

// NotFoundError reports a record or purchase against a missing task or a
// missing actor.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidActorError reports an actor who is not a legal assignee for the
// task under current policy (inactive or unknown).
type InvalidActorError struct {
	TaskID   string
	TaskName string
	UserID   string
	Reason   string
}

func (e *InvalidActorError) Error() string {
	return fmt.Sprintf("invalid actor %s for %q (%s): %s", e.UserID, e.TaskName, e.TaskID, e.Reason)
}

// ValidationError reports a malformed payload field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransactionError reports a ledger write that could not commit. The
// store is left untouched; the cause is wrapped.
type TransactionError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s for task %s: transaction failed: %v", e.Op, e.TaskID, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
