package world

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/l1jgo/worldsim/internal/core/ecs"
	"github.com/l1jgo/worldsim/internal/core/event"
	"go.uber.org/zap"
)

// State is the set of entities in one world. It is accessed only from the
// tick goroutine, so nothing here is locked.
type State struct {
	ecs      *ecs.World
	entities *ecs.Store[Entity]
	byName   map[string]*Entity
	order    []*Entity // insertion order = tick order

	names *NameAllocator
	bus   *event.Bus
	log   *zap.Logger
	now   func() time.Time

	ticking bool
	tick    uint64
}

func NewState(bus *event.Bus, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	w := ecs.NewWorld()
	entities := ecs.NewStore[Entity]()
	w.Register(entities)
	return &State{
		ecs:      w,
		entities: entities,
		byName:   make(map[string]*Entity, 64),
		order:    make([]*Entity, 0, 64),
		names:    NewNameAllocator(DefaultUnnamedPrefix),
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// SetClock replaces the wall clock stamped on emitted events.
func (s *State) SetClock(now func() time.Time) { s.now = now }

// SetNames replaces the allocator used for unnamed entities.
func (s *State) SetNames(a *NameAllocator) { s.names = a }

func (s *State) Names() *NameAllocator { return s.names }
func (s *State) Bus() *event.Bus        { return s.bus }

// NewEntity builds an entity whose synthesised name, if any, comes from this
// world's allocator. The entity is not added.
func (s *State) NewEntity(cfg EntityConfig) *Entity {
	return NewEntity(cfg, s.names)
}

// Add associates e with the world. It is ticked from the next Tick on, in
// the order it was added.
func (s *State) Add(e *Entity) error {
	if e.world != nil {
		return fmt.Errorf("add %s: %w", e.name, ErrAlreadyAssociated)
	}
	if _, ok := s.byName[e.name]; ok {
		return fmt.Errorf("add %s: %w", e.name, ErrDuplicateName)
	}
	id := s.ecs.CreateEntity()
	s.entities.Set(id, e)
	s.byName[e.name] = e
	s.order = append(s.order, e)
	if err := e.associate(s, id, s.log); err != nil {
		return err
	}
	event.Emit(s.bus, event.EntityEntered{ID: id, Name: e.name})
	s.log.Debug("entity added", zap.String("entity", e.name), zap.Uint64("id", uint64(id)))
	return nil
}

// Remove schedules e for removal at the next FlushRemovals. A scheduled
// entity is no longer ticked.
func (s *State) Remove(e *Entity) error {
	if e.world != s {
		return fmt.Errorf("remove %s: %w", e.name, ErrNotAssociated)
	}
	s.ecs.MarkForDestruction(e.id)
	return nil
}

// RemoveNow disassociates e immediately. It may not be called during a tick.
func (s *State) RemoveNow(e *Entity) error {
	if s.ticking {
		return fmt.Errorf("remove %s: %w", e.name, ErrWorldTicking)
	}
	if e.world != s {
		return fmt.Errorf("remove %s: %w", e.name, ErrNotAssociated)
	}
	id := e.id // detach clears e.id
	s.detach(id)
	s.ecs.Destroy(id)
	return nil
}

// FlushRemovals applies every removal scheduled since the last flush and
// returns how many entities left the world.
func (s *State) FlushRemovals() int {
	return s.ecs.FlushDestroyQueue(s.detach)
}

func (s *State) detach(id ecs.EntityID) {
	e, ok := s.entities.Get(id)
	if !ok {
		return
	}
	name := e.name
	if err := e.disassociate(); err != nil {
		s.log.Error("disassociate", zap.String("entity", name), zap.Error(err))
	}
	delete(s.byName, name)
	if i := slices.Index(s.order, e); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	event.Emit(s.bus, event.EntityLeft{ID: id, Name: name})
	s.log.Debug("entity removed", zap.String("entity", name))
}

// Lookup finds an entity by name. The name is normalised first.
func (s *State) Lookup(name string) (*Entity, bool) {
	e, ok := s.byName[NormalizeName(name)]
	return e, ok
}

// Get resolves a handle. Stale handles of removed entities resolve to nothing.
func (s *State) Get(id ecs.EntityID) (*Entity, bool) {
	if !s.ecs.Alive(id) {
		return nil, false
	}
	return s.entities.Get(id)
}

// Each visits entities in tick order until fn returns false.
func (s *State) Each(fn func(*Entity) bool) {
	for _, e := range slices.Clone(s.order) {
		if !fn(e) {
			return
		}
	}
}

func (s *State) Count() int { return len(s.order) }

// TickCount returns how many ticks have started.
func (s *State) TickCount() uint64 { return s.tick }

// Tick updates every entity once, in the order they were added. Entities
// added during the tick wait for the next one. A failing entity does not stop
// the others; all failures are joined into the returned error.
func (s *State) Tick(dt time.Duration) error {
	if s.ticking {
		return ErrWorldTicking
	}
	s.ticking = true
	defer func() { s.ticking = false }()
	s.tick++

	var errs []error
	for _, e := range slices.Clone(s.order) {
		if e.world != s || s.ecs.Pending(e.id) {
			continue
		}
		if err := e.Update(dt); err != nil {
			s.log.Error("entity update", zap.String("entity", e.name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *State) emitFinished(e *Entity, t Task, outcome event.Outcome, errText string) {
	event.Emit(s.bus, event.TaskFinished{
		Entity:  e.name,
		Task:    TaskName(t),
		Outcome: outcome,
		Err:     errText,
		Tick:    s.tick,
		At:      s.now(),
	})
}
