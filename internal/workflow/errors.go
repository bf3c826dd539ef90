package workflow

import "errors"

var (
	ErrUnknownForm        = errors.New("workflow: no schema for form")
	ErrNoItem             = errors.New("workflow: form updates a record but no item is selected")
	ErrNotFound           = errors.New("workflow: record not found")
	ErrNoTarget           = errors.New("workflow: modal has no target collection")
	ErrOrderNotSelectable = errors.New("workflow: order is not available for production")
	ErrBatchNotFound      = errors.New("workflow: production batch not found")
	ErrBatchNotPending    = errors.New("workflow: production batch is not waiting for inspection")
	ErrInvalidInspection  = errors.New("workflow: invalid inspection counts")
	ErrNoOpenForm         = errors.New("workflow: no form is open")
)
