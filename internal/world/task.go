package world

import (
	"fmt"
	"time"
)

// TaskState is a task's lifecycle state.
type TaskState uint8

const (
	StatePending   TaskState = iota // queued, never begun
	StateRunning                // begun, receiving Cycle calls
	StateCompleted              // Cycle reported done
	StateCancelled              // cancelled or failed; terminal
)

func (s TaskState) Terminal() bool { return s == StateCompleted || s == StateCancelled }

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Task is a unit of entity behaviour driven by the entity's scheduler.
//
// Begin is called once when the task is admitted. Cycle is called on every
// tick the task is allowed to execute and reports whether the task finished;
// a non-nil error fails the task. End is called exactly once after a begun
// task completes, fails or is cancelled. Tasks must return promptly from all
// three; long behaviour is spread over several Cycle calls.
//
// Implementations embed TaskBase, which carries the scheduling flags and the
// lifecycle state, and must be pointer types.
type Task interface {
	Begin(e *Entity)
	Cycle(e *Entity, dt time.Duration) (done bool, err error)
	End(e *Entity)

	IsParallel() bool
	IgnoresPause() bool
	State() TaskState
	Err() error
	Cancel()

	taskBase() *TaskBase
}

// TaskBase holds the scheduler-owned part of a task. The zero value is an
// exclusive, pause-sensitive, pending task.
type TaskBase struct {
	parallel     bool
	ignoresPause bool
	state        TaskState
	owner        *Entity
	err          error
}

// NewTaskBase returns a pending TaskBase with the given flags.
func NewTaskBase(parallel, ignoresPause bool) TaskBase {
	return TaskBase{parallel: parallel, ignoresPause: ignoresPause}
}

func (b *TaskBase) taskBase() *TaskBase { return b }

// IsParallel reports whether the task may run alongside other tasks.
func (b *TaskBase) IsParallel() bool { return b.parallel }

// IgnoresPause reports whether the task keeps running while its entity is paused.
func (b *TaskBase) IgnoresPause() bool { return b.ignoresPause }

func (b *TaskBase) State() TaskState { return b.state }

// Cancelled reports whether the task was cancelled or failed.
func (b *TaskBase) Cancelled() bool { return b.state == StateCancelled }

// Err returns the error that failed the task, if any.
func (b *TaskBase) Err() error { return b.err }

// Owner returns the entity the task is queued on or running on.
func (b *TaskBase) Owner() *Entity { return b.owner }

// Cancel requests termination. A pending task is dropped at the next
// admission walk without Begin or End; a running task is never cycled again
// and is ended and removed by its entity within one update.
func (b *TaskBase) Cancel() {
	if !b.state.Terminal() {
		b.state = StateCancelled
	}
}

func (b *TaskBase) fail(err error) {
	b.err = err
	b.state = StateCancelled
}

// TaskName returns a short label for logs and the journal: the task's Kind
// when it has one, its Go type otherwise.
func TaskName(t Task) string {
	if k, ok := t.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", t)
}
