package ecs

// World owns the handle pool, the registered component stores and a deferred
// destruction queue. Destruction requested during a tick is applied by
// FlushDestroyQueue in the cleanup phase, after every system has run.
type World struct {
	pool         *EntityPool
	stores       []Removable
	destroyQueue []EntityID
	queued       map[EntityID]struct{}
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		destroyQueue: make([]EntityID, 0, 16),
		queued:       make(map[EntityID]struct{}, 16),
	}
}

func (w *World) Pool() *EntityPool { return w.pool }

// Register adds a store so Destroy clears it.
func (w *World) Register(s Removable) {
	w.stores = append(w.stores, s)
}

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues id for the next flush. Queuing the same handle
// twice is a no-op.
func (w *World) MarkForDestruction(id EntityID) {
	if _, ok := w.queued[id]; ok {
		return
	}
	w.queued[id] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, id)
}

// Pending reports whether id is queued for destruction.
func (w *World) Pending(id EntityID) bool {
	_, ok := w.queued[id]
	return ok
}

// FlushDestroyQueue destroys every queued entity in queue order. before runs
// first for each live handle so owners can detach it while its components are
// still readable. Handles queued from inside before are flushed in the same call.
func (w *World) FlushDestroyQueue(before func(EntityID)) int {
	n := 0
	for len(w.destroyQueue) > 0 {
		batch := w.destroyQueue
		w.destroyQueue = make([]EntityID, 0, 16)
		for _, id := range batch {
			delete(w.queued, id)
			if !w.pool.Alive(id) {
				continue
			}
			if before != nil {
				before(id)
			}
			w.Destroy(id)
			n++
		}
	}
	return n
}

// Destroy removes id from every store and invalidates the handle immediately.
func (w *World) Destroy(id EntityID) {
	for _, s := range w.stores {
		s.Remove(id)
	}
	w.pool.Destroy(id)
}
