package world

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/l1jgo/worldsim/internal/core/ecs"
	"github.com/l1jgo/worldsim/internal/core/event"
	"go.uber.org/zap"
)

// Kind classifies an entity for loaders and tooling. The scheduler treats
// every kind the same.
type Kind uint8

const (
	KindCharacter Kind = iota
	KindScenery
	KindTrigger
)

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindScenery:
		return "scenery"
	case KindTrigger:
		return "trigger"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind parses a kind name; the empty string is a character.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "character":
		return KindCharacter, nil
	case "scenery":
		return KindScenery, nil
	case "trigger":
		return KindTrigger, nil
	}
	return KindCharacter, fmt.Errorf("unknown entity kind %q", s)
}

// Logic is an entity's own per-tick behaviour, run before task admission on
// every unpaused update.
type Logic interface {
	DoLogic(e *Entity, dt time.Duration)
}

// LogicFunc adapts a function to Logic.
type LogicFunc func(e *Entity, dt time.Duration)

func (f LogicFunc) DoLogic(e *Entity, dt time.Duration) { f(e, dt) }

// EntityConfig is what a factory needs to instantiate an entity.
type EntityConfig struct {
	Name      string // empty: allocate one
	Kind      Kind
	Location  Vec2
	Direction Direction
	Speed     float32 // world units per second
	Paused    bool
	Animation string
	Logic     Logic
}

// Entity owns one task queue pair and runs the cooperative scheduler over it
// once per Update. An entity is only touched from the tick goroutine.
type Entity struct {
	id        ecs.EntityID
	name      string
	kind      Kind
	location  Vec2
	direction Direction
	speed     float32
	paused    bool
	anim      Animation
	logic     Logic

	queue     taskQueue
	observers observerSet

	world    *State
	log      *zap.Logger
	updating bool
	reaping  bool
}

// NewEntity builds an unassociated entity. Unnamed configs draw a name from
// names, which must then be non-nil.
func NewEntity(cfg EntityConfig, names *NameAllocator) *Entity {
	name := NormalizeName(cfg.Name)
	if name == "" {
		name = names.Next()
	}
	e := &Entity{
		name:      name,
		kind:      cfg.Kind,
		location:  cfg.Location,
		direction: cfg.Direction,
		speed:     cfg.Speed,
		paused:    cfg.Paused,
		logic:     cfg.Logic,
		log:       zap.NewNop(),
	}
	if cfg.Animation != "" {
		e.anim = Animation{Name: cfg.Animation}
	}
	return e
}

func (e *Entity) Name() string { return e.name }
func (e *Entity) Kind() Kind   { return e.kind }

// ID returns the world handle, zero while unassociated.
func (e *Entity) ID() ecs.EntityID { return e.id }

// World returns the owning world, nil while unassociated.
func (e *Entity) World() *State { return e.world }

func (e *Entity) IsAssociated() bool { return e.world != nil }

// Logger returns a logger carrying the entity name.
func (e *Entity) Logger() *zap.Logger { return e.log }

// SetLogic replaces the per-tick logic hook; nil removes it.
func (e *Entity) SetLogic(l Logic) { e.logic = l }

func (e *Entity) Speed() float32     { return e.speed }
func (e *Entity) SetSpeed(s float32) { e.speed = s }

func (e *Entity) Location() Vec2 { return e.location }

// SetLocation moves the entity and notifies observers when it changed.
func (e *Entity) SetLocation(loc Vec2) {
	from := e.location
	e.location = loc
	if from != loc {
		e.observers.each(func(o Observer) { o.Replaced(e, from) })
	}
}

// Move offsets the entity's location by delta.
func (e *Entity) Move(delta Vec2) {
	e.SetLocation(e.location.Add(delta))
}

func (e *Entity) Direction() Direction { return e.direction }

func (e *Entity) SetDirection(d Direction) {
	from := e.direction
	e.direction = d
	if from != d {
		e.observers.presentation(func(p PresentationObserver) { p.Faced(e, from) })
	}
}

// NotifyMovingTowards tells presentation observers where the entity is
// heading; nil means it stopped.
func (e *Entity) NotifyMovingTowards(target *Vec2) {
	e.observers.presentation(func(p PresentationObserver) { p.MovingTowards(e, target) })
}

// Pause freezes every task that does not ignore pause. Nothing is dropped or
// restarted; Resume continues from the retained state.
func (e *Entity) Pause()         { e.paused = true }
func (e *Entity) Resume()        { e.paused = false }
func (e *Entity) IsPaused() bool { return e.paused }

func (e *Entity) AddObserver(o Observer)    { e.observers.add(o) }
func (e *Entity) RemoveObserver(o Observer) { e.observers.remove(o) }

// AddTask queues t for admission on a later Update.
func (e *Entity) AddTask(t Task) error {
	if t == nil {
		return ErrNilTask
	}
	if e.world == nil {
		return fmt.Errorf("add task %s to %s: %w", TaskName(t), e.name, ErrNotAssociated)
	}
	b := t.taskBase()
	if b.owner != nil {
		return fmt.Errorf("add task %s to %s: %w", TaskName(t), e.name, ErrTaskOwned)
	}
	if b.state != StatePending {
		return fmt.Errorf("add task %s to %s: %w", TaskName(t), e.name, ErrTaskTerminal)
	}
	b.owner = e
	e.queue.pending = append(e.queue.pending, t)
	return nil
}

// CancelTasks cancels every running task and drops every pending one.
// Outside an update the running tasks are ended and removed immediately;
// from inside a task they are removed at the end of the current update.
func (e *Entity) CancelTasks() error {
	if e.world == nil {
		return fmt.Errorf("cancel tasks of %s: %w", e.name, ErrNotAssociated)
	}
	e.cancelAll()
	if !e.updating {
		e.reap()
	}
	return nil
}

// CancelTask cancels one running task. Cancelling a task that is not
// running on this entity is an error.
func (e *Entity) CancelTask(t Task) error {
	if e.world == nil {
		return fmt.Errorf("cancel task of %s: %w", e.name, ErrNotAssociated)
	}
	if t == nil || !e.queue.isRunning(t) {
		name := "<nil>"
		if t != nil {
			name = TaskName(t)
		}
		return fmt.Errorf("cancel task %s on %s: %w", name, e.name, ErrTaskNotRunning)
	}
	t.taskBase().Cancel()
	if !e.updating {
		e.reap()
	}
	return nil
}

// IsTaskActive reports whether t is running, and not yet finished, on e.
func (e *Entity) IsTaskActive(t Task) bool {
	if t == nil {
		return false
	}
	return t.taskBase().state == StateRunning && e.queue.isRunning(t)
}

// Pending returns a copy of the pending queue in admission order.
func (e *Entity) Pending() []Task { return slices.Clone(e.queue.pending) }

// Running returns a copy of the running set in start order, including tasks
// that finished this update and await removal.
func (e *Entity) Running() []Task { return slices.Clone(e.queue.running) }

// Update advances the entity by one tick: the logic hook, task admission,
// one execution pass and removal of finished tasks, in that order.
func (e *Entity) Update(dt time.Duration) error {
	if e.world == nil {
		return fmt.Errorf("update %s: %w", e.name, ErrNotAssociated)
	}
	if dt < 0 {
		return fmt.Errorf("update %s by %s: %w", e.name, dt, ErrNegativeDelta)
	}
	if e.updating {
		return fmt.Errorf("update %s: %w", e.name, ErrReentrantUpdate)
	}
	e.updating = true
	defer func() { e.updating = false }()

	if !e.paused {
		e.advanceAnimation(dt)
		if e.logic != nil {
			e.logic.DoLogic(e, dt)
		}
	}

	e.admit()
	e.execute(dt)
	// Still marked as updating, so an End that calls Update is refused.
	e.reap()
	return nil
}

// admit walks pending in insertion order. Nothing is admitted while an
// exclusive task runs; a paused entity admits only pause-ignoring tasks; the
// walk stops once an exclusive task has been admitted.
func (e *Entity) admit() {
	if len(e.queue.pending) == 0 {
		return
	}
	blocking := e.queue.blocking()

	// Begin may queue follow-up tasks; they land behind the remaining
	// candidates rather than inside the walk.
	candidates := e.queue.pending
	e.queue.pending = nil
	remaining := make([]Task, 0, len(candidates))
	stopped := false

	for _, t := range candidates {
		b := t.taskBase()
		if b.state.Terminal() {
			b.owner = nil
			continue
		}
		if stopped || blocking || (e.paused && !b.ignoresPause) {
			remaining = append(remaining, t)
			continue
		}
		b.state = StateRunning
		e.queue.running = append(e.queue.running, t)
		if err := begin(t, e); err != nil {
			// The task never started; it does not hold the exclusive slot.
			b.fail(err)
			e.taskFailed(t, err)
			continue
		}
		if !b.parallel && b.state == StateRunning {
			stopped = true
		}
	}

	// A Begin may have cancelled tasks already moved to remaining.
	remaining = slices.DeleteFunc(remaining, func(t Task) bool {
		return t.taskBase().state.Terminal()
	})
	e.queue.pending = append(remaining, e.queue.pending...)
}

// execute cycles running tasks in start order. Paused-gated and finished
// tasks are skipped; the pass ends after the first exclusive task cycled.
// An exclusive task cancelled earlier in the same pass is skipped like any
// finished task and does not end the pass.
func (e *Entity) execute(dt time.Duration) {
	for i := 0; i < len(e.queue.running); i++ {
		t := e.queue.running[i]
		b := t.taskBase()
		if b.state != StateRunning {
			continue
		}
		if e.paused && !b.ignoresPause {
			continue
		}

		done, err := cycle(t, e, dt)
		switch {
		case err != nil:
			b.fail(err)
			e.taskFailed(t, err)
		case done && b.state == StateRunning:
			b.state = StateCompleted
		}

		if !b.parallel {
			break
		}
	}
}

func cycle(t Task, e *Entity, dt time.Duration) (done bool, err error) {
	defer recoverTask(&err)
	return t.Cycle(e, dt)
}

func begin(t Task, e *Entity) (err error) {
	defer recoverTask(&err)
	t.Begin(e)
	return nil
}

func end(t Task, e *Entity) (err error) {
	defer recoverTask(&err)
	t.End(e)
	return nil
}

func recoverTask(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
	}
}

// reap ends and removes every finished running task in start order. Callers
// outside Update must not reap while an update is in progress; Update reaps
// once at its end.
func (e *Entity) reap() {
	if e.reaping {
		return
	}
	e.reaping = true
	defer func() { e.reaping = false }()

	for {
		i := e.queue.firstTerminal()
		if i < 0 {
			return
		}
		t := e.queue.running[i]
		err := end(t, e)
		e.queue.running = slices.Delete(e.queue.running, i, i+1)
		b := t.taskBase()
		b.owner = nil
		if err != nil {
			if b.err == nil {
				b.fail(err)
			}
			e.taskFailed(t, err)
		}
		e.finished(t)
	}
}

func (e *Entity) cancelAll() {
	for _, t := range e.queue.running {
		t.taskBase().Cancel()
	}
	for _, t := range e.queue.pending {
		b := t.taskBase()
		b.Cancel()
		b.owner = nil
	}
	e.queue.pending = nil
}

func (e *Entity) taskFailed(t Task, err error) {
	e.log.Warn("task failed", zap.String("task", TaskName(t)), zap.Error(err))
	e.observers.each(func(o Observer) {
		if f, ok := o.(TaskFailureObserver); ok {
			f.TaskFailed(e, t, err)
		}
	})
}

func (e *Entity) finished(t Task) {
	b := t.taskBase()
	outcome := event.OutcomeCancelled
	errText := ""
	switch {
	case b.err != nil:
		outcome = event.OutcomeFailed
		errText = b.err.Error()
	case b.state == StateCompleted:
		outcome = event.OutcomeCompleted
	}
	e.log.Debug("task finished", zap.String("task", TaskName(t)), zap.String("outcome", string(outcome)))
	if e.world != nil {
		e.world.emitFinished(e, t, outcome, errText)
	}
}

func (e *Entity) associate(w *State, id ecs.EntityID, log *zap.Logger) error {
	if e.world != nil {
		return fmt.Errorf("associate %s: %w", e.name, ErrAlreadyAssociated)
	}
	e.world = w
	e.id = id
	e.log = log.With(zap.String("entity", e.name))
	e.observers.each(func(o Observer) { o.EnteredWorld(e) })
	return nil
}

// disassociate cancels all work, tells observers and detaches from the
// world. Tasks queued by LeftWorld observers are dropped as well.
func (e *Entity) disassociate() error {
	if e.world == nil {
		return fmt.Errorf("disassociate %s: %w", e.name, ErrNotAssociated)
	}
	e.cancelAll()
	e.observers.each(func(o Observer) { o.LeftWorld(e) })
	e.cancelAll()
	if !e.updating {
		e.reap()
	}
	e.world = nil
	e.id = 0
	return nil
}
