package world_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/worldsim/internal/core/event"
	"github.com/l1jgo/worldsim/internal/world"
)

const step = 100 * time.Millisecond

// stubTask is a task that records its lifecycle and finishes after a fixed
// number of cycles (never, when cycles is zero).
type stubTask struct {
	world.TaskBase
	name   string
	cycles int
	fail   error
	panics bool

	beginPanics, endPanics bool

	begun, ended int
	ran          int
	onBegin      func(e *world.Entity)
	onCycle      func(e *world.Entity)
	onEnd        func(e *world.Entity)
	trace        *[]string
}

func newStub(name string, parallel, ignoresPause bool, cycles int, trace *[]string) *stubTask {
	return &stubTask{
		TaskBase: world.NewTaskBase(parallel, ignoresPause),
		name:     name,
		cycles:   cycles,
		trace:    trace,
	}
}

func (p *stubTask) Kind() string { return p.name }

func (p *stubTask) record(what string) {
	if p.trace != nil {
		*p.trace = append(*p.trace, p.name+":"+what)
	}
}

func (p *stubTask) Begin(e *world.Entity) {
	p.begun++
	p.record("begin")
	if p.onBegin != nil {
		p.onBegin(e)
	}
	if p.beginPanics {
		panic("begin " + p.name)
	}
}

func (p *stubTask) Cycle(e *world.Entity, _ time.Duration) (bool, error) {
	p.ran++
	p.record("cycle")
	if p.onCycle != nil {
		p.onCycle(e)
	}
	if p.panics {
		panic("cycle " + p.name)
	}
	if p.fail != nil {
		return false, p.fail
	}
	return p.cycles > 0 && p.ran >= p.cycles, nil
}

func (p *stubTask) End(e *world.Entity) {
	p.ended++
	p.record("end")
	if p.onEnd != nil {
		p.onEnd(e)
	}
	if p.endPanics {
		panic("end " + p.name)
	}
}

func newEntityIn(t *testing.T, s *world.State, name string) *world.Entity {
	t.Helper()
	e := s.NewEntity(world.EntityConfig{Name: name, Speed: 1})
	require.NoError(t, s.Add(e))
	return e
}

func newWorld(t *testing.T) (*world.State, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	return world.NewState(bus, nil), bus
}

func update(t *testing.T, e *world.Entity, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, e.Update(step), "update %d", i)
	}
}

// assertQueueInvariants checks that no task is both pending and running,
// that at most one exclusive task is running and that it is the last one
// started.
func assertQueueInvariants(t *testing.T, e *world.Entity) {
	t.Helper()
	running := e.Running()
	exclusive := 0
	for i, r := range running {
		if !r.IsParallel() && r.State() == world.StateRunning {
			exclusive++
			require.Equal(t, len(running)-1, i, "exclusive %s is not last in start order", world.TaskName(r))
		}
		for _, p := range e.Pending() {
			require.NotSame(t, r, p, fmt.Sprintf("%s both pending and running", world.TaskName(r)))
		}
	}
	require.LessOrEqual(t, exclusive, 1, "exclusive tasks running")
}

type recorder struct {
	world.NopObserver
	entered, left int
	moves         []world.Vec2
	failures      []error
}

func (r *recorder) EnteredWorld(*world.Entity) { r.entered++ }
func (r *recorder) LeftWorld(*world.Entity)    { r.left++ }
func (r *recorder) Replaced(e *world.Entity, _ world.Vec2) {
	r.moves = append(r.moves, e.Location())
}
func (r *recorder) TaskFailed(_ *world.Entity, _ world.Task, err error) {
	r.failures = append(r.failures, err)
}
