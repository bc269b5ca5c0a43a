package event

import (
	"time"

	"github.com/l1jgo/worldsim/internal/core/ecs"
)

// EntityEntered is emitted when an entity is associated with the world.
type EntityEntered struct {
	ID   ecs.EntityID
	Name string
}

// EntityLeft is emitted after an entity has been disassociated.
type EntityLeft struct {
	ID   ecs.EntityID
	Name string
}

// Outcome is the terminal state a task reached.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// TaskFinished is emitted when a running task is reaped.
type TaskFinished struct {
	Entity  string
	Task    string
	Outcome Outcome
	Err     string // empty unless Outcome == OutcomeFailed
	Tick    uint64
	At      time.Time
}
