package world

import "errors"

// Structural precondition failures. These indicate a lifecycle bug in the
// caller and are returned rather than ignored.
var (
	ErrNotAssociated     = errors.New("entity is not associated with a world")
	ErrAlreadyAssociated = errors.New("entity is already associated with a world")
	ErrDuplicateName     = errors.New("entity name already in use")
	ErrWorldTicking      = errors.New("world is mid-tick")
	ErrNegativeDelta     = errors.New("negative tick delta")
	ErrReentrantUpdate   = errors.New("entity update re-entered")

	ErrNilTask        = errors.New("nil task")
	ErrTaskOwned      = errors.New("task already owned by an entity")
	ErrTaskTerminal   = errors.New("task already finished")
	ErrTaskNotRunning = errors.New("no such running task")
)

// ErrTaskPanicked wraps a panic recovered from a task's Cycle.
var ErrTaskPanicked = errors.New("task panicked")
