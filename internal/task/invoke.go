package task

import (
	"fmt"
	"time"

	"github.com/l1jgo/worldsim/internal/world"
)

// Callable is something an Invoke task can call, typically a script
// function captured by the scripting bridge.
type Callable interface {
	Call(e *world.Entity, args []Value) error
}

// CallableFunc adapts a function to Callable.
type CallableFunc func(e *world.Entity, args []Value) error

func (f CallableFunc) Call(e *world.Entity, args []Value) error { return f(e, args) }

// Invoke calls fn once with the captured arguments when it is admitted.
// Queued behind other exclusive work, it runs only after that work finished.
type Invoke struct {
	world.TaskBase
	name string
	fn   Callable
	args []Value
}

func NewInvoke(name string, fn Callable, args ...Value) *Invoke {
	return &Invoke{
		TaskBase: world.NewTaskBase(false, false),
		name:     name,
		fn:       fn,
		args:     append([]Value(nil), args...),
	}
}

func (t *Invoke) Kind() string { return "invoke" }

// Name is the label given to the invocation, usually the script function.
func (t *Invoke) Name() string { return t.name }

func (t *Invoke) Args() []Value { return append([]Value(nil), t.args...) }

func (t *Invoke) Begin(*world.Entity) {}

func (t *Invoke) Cycle(e *world.Entity, _ time.Duration) (bool, error) {
	if err := t.fn.Call(e, t.args); err != nil {
		return false, fmt.Errorf("invoke %s: %w", t.name, err)
	}
	return true, nil
}

func (t *Invoke) End(*world.Entity) {}
