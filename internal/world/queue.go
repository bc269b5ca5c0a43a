package world

import "slices"

// taskQueue is an entity's scheduling state. pending is in insertion order,
// running in start order; a task is never in both.
type taskQueue struct {
	pending []Task
	running []Task
}

// blocking reports whether an exclusive task is running.
func (q *taskQueue) blocking() bool {
	for _, t := range q.running {
		b := t.taskBase()
		if !b.parallel && b.state == StateRunning {
			return true
		}
	}
	return false
}

func (q *taskQueue) isRunning(t Task) bool {
	return slices.Contains(q.running, t)
}

func (q *taskQueue) isPending(t Task) bool {
	return slices.Contains(q.pending, t)
}

// firstTerminal returns the index of the first running task awaiting
// removal, or -1.
func (q *taskQueue) firstTerminal() int {
	return slices.IndexFunc(q.running, func(t Task) bool {
		return t.taskBase().state.Terminal()
	})
}
