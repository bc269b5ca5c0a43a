package task_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/worldsim/internal/core/event"
	"github.com/l1jgo/worldsim/internal/task"
	"github.com/l1jgo/worldsim/internal/world"
)

const step = 100 * time.Millisecond

func spawn(t *testing.T, s *world.State, name string, speed float32) *world.Entity {
	t.Helper()
	e := s.NewEntity(world.EntityConfig{Name: name, Speed: speed})
	require.NoError(t, s.Add(e))
	return e
}

func tick(t *testing.T, e *world.Entity) {
	t.Helper()
	require.NoError(t, e.Update(step))
}

type fakePlayer struct {
	length  time.Duration
	err     error
	played  []string
	stopped []string
}

func (p *fakePlayer) Play(entity, clip string) (time.Duration, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.played = append(p.played, entity+"/"+clip)
	return p.length, nil
}

func (p *fakePlayer) Stop(entity, clip string) {
	p.stopped = append(p.stopped, entity+"/"+clip)
}

func TestMoveThenAudioWaitsForMove(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "walker", 10) // one unit per tick

	move := task.MoveTo(world.Vec2{X: 3})
	player := &fakePlayer{length: step}
	audio := task.NewPlayAudio(player, "step")
	require.NoError(t, e.AddTask(move))
	require.NoError(t, e.AddTask(audio))

	tick(t, e)
	assert.True(t, e.IsTaskActive(move))
	assert.Equal(t, []world.Task{audio}, e.Pending())
	assert.Equal(t, world.Vec2{X: 1}, e.Location())

	tick(t, e)
	assert.True(t, e.IsTaskActive(move))
	assert.Equal(t, world.StatePending, audio.State())
	assert.Empty(t, player.played)

	tick(t, e) // arrives
	assert.Equal(t, world.StateCompleted, move.State())
	assert.Equal(t, world.Vec2{X: 3}, e.Location())
	assert.Empty(t, player.played)

	tick(t, e)
	assert.Equal(t, []string{"walker/step"}, player.played)
	assert.True(t, e.IsTaskActive(audio))

	tick(t, e)
	assert.Equal(t, world.StateCompleted, audio.State())
	assert.Empty(t, e.Running())
}

func TestPauseMidRouteResumesInPlace(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "pilgrim", 10)

	move := task.NewMove(task.NewRoute(world.Vec2{X: 2}, world.Vec2{X: 2, Y: 2}))
	require.NoError(t, e.AddTask(move))
	tick(t, e)
	require.Equal(t, world.Vec2{X: 1}, e.Location())

	e.Pause()
	for i := 0; i < 5; i++ {
		tick(t, e)
	}
	assert.Equal(t, world.Vec2{X: 1}, e.Location())
	assert.Equal(t, 2, move.Route().Length())

	e.Resume()
	tick(t, e)
	assert.Equal(t, world.Vec2{X: 2}, e.Location())
	tick(t, e)
	assert.Equal(t, world.Vec2{X: 2, Y: 1}, e.Location())
	assert.Equal(t, world.DirSouth, e.Direction())
	tick(t, e)
	assert.Equal(t, world.StateCompleted, move.State())
}

func TestMoveCarriesLeftoverDistance(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "runner", 30) // three units per tick

	move := task.NewMove(task.NewRoute(world.Vec2{X: 1}, world.Vec2{X: 1, Y: -1}, world.Vec2{X: 1, Y: -5}))
	require.NoError(t, e.AddTask(move))
	tick(t, e)

	assert.Equal(t, world.Vec2{X: 1, Y: -2}, e.Location())
	assert.Equal(t, world.DirNorth, e.Direction())
	assert.Equal(t, 1, move.Route().Length())
}

type heading struct {
	world.NopObserver
	targets []*world.Vec2
}

func (h *heading) MovingTowards(_ *world.Entity, target *world.Vec2) {
	h.targets = append(h.targets, target)
}
func (h *heading) Faced(*world.Entity, world.Direction)            {}
func (h *heading) AnimationChanged(*world.Entity, world.Animation) {}

func TestMoveNotifiesHeading(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "scout", 100)
	h := &heading{}
	e.AddObserver(h)

	require.NoError(t, e.AddTask(task.NewMove(task.NewRoute(world.Vec2{X: 1}, world.Vec2{X: 2}))))
	tick(t, e)

	require.Len(t, h.targets, 3)
	assert.Equal(t, world.Vec2{X: 1}, *h.targets[0])
	assert.Equal(t, world.Vec2{X: 2}, *h.targets[1])
	assert.Nil(t, h.targets[2])
}

func TestCancelledMoveStopsImmediately(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "stopper", 10)

	move := task.MoveTo(world.Vec2{X: 100})
	require.NoError(t, e.AddTask(move))
	tick(t, e)
	require.NoError(t, e.CancelTasks())
	tick(t, e)

	assert.Equal(t, world.Vec2{X: 1}, e.Location())
	assert.Equal(t, world.StateCancelled, move.State())
}

func TestRoute(t *testing.T) {
	r := task.NewRoute(world.Vec2{X: 1}, world.Vec2{X: 2}, world.Vec2{X: 3})
	assert.Equal(t, 3, r.Length())
	assert.True(t, r.HasNext())

	p, ok := r.Peek(2)
	require.True(t, ok)
	assert.Equal(t, world.Vec2{X: 3}, p)
	_, ok = r.Peek(3)
	assert.False(t, ok)

	c := r.Clone()
	r.Truncate(2)
	assert.Equal(t, 2, r.Length())
	assert.Equal(t, 3, c.Length())

	assert.True(t, r.NextTarget())
	assert.False(t, r.HasNext())
	cur, ok := r.CurrentTarget()
	require.True(t, ok)
	assert.Equal(t, world.Vec2{X: 2}, cur)
	assert.False(t, r.NextTarget())
	_, ok = r.CurrentTarget()
	assert.False(t, ok)

	r.AddWaypoint(world.Vec2{Y: 1})
	assert.Equal(t, []world.Vec2{{Y: 1}}, r.Waypoints())
}

func TestIdleCountsOnlyUnpausedTime(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "loafer", 0)

	idle := task.NewIdle(3 * step)
	require.NoError(t, e.AddTask(idle))
	tick(t, e)
	e.Pause()
	tick(t, e)
	tick(t, e)
	assert.Equal(t, 2*step, idle.Remaining())

	e.Resume()
	tick(t, e)
	assert.True(t, e.IsTaskActive(idle))
	tick(t, e)
	assert.Equal(t, world.StateCompleted, idle.State())
}

func TestPlayAudioFailureFailsTask(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "mute", 0)

	missing := errors.New("no such clip")
	audio := task.NewPlayAudio(&fakePlayer{err: missing}, "ghost")
	require.NoError(t, e.AddTask(audio))
	tick(t, e)

	assert.ErrorIs(t, audio.Err(), missing)
	assert.Empty(t, e.Running())
}

func TestCancelledAudioIsStopped(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "singer", 0)

	player := &fakePlayer{length: time.Second}
	require.NoError(t, e.AddTask(task.NewPlayAudio(player, "song")))
	tick(t, e)
	require.NoError(t, e.CancelTasks())

	assert.Equal(t, []string{"singer/song"}, player.stopped)
}

func TestInvokeRunsAfterQueuedWork(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "caller", 10)
	friend := spawn(t, s, "friend", 0)

	var got []task.Value
	var resolved *world.Entity
	fn := task.CallableFunc(func(e *world.Entity, args []task.Value) error {
		got = args
		resolved, _ = args[3].Entity(e.World())
		return nil
	})

	require.NoError(t, e.AddTask(task.MoveTo(world.Vec2{X: 1})))
	require.NoError(t, e.AddTask(task.NewInvoke("greet", fn,
		task.Bool(true), task.Number(2.5), task.String("hi"), task.EntityRef(friend), task.Nil())))

	tick(t, e)
	assert.Nil(t, got)
	tick(t, e)
	require.Len(t, got, 5)

	b, ok := got[0].Bool()
	assert.True(t, ok && b)
	n, ok := got[1].Number()
	assert.True(t, ok)
	assert.Equal(t, 2.5, n)
	str, ok := got[2].Str()
	assert.True(t, ok)
	assert.Equal(t, "hi", str)
	assert.Same(t, friend, resolved)
	assert.True(t, got[4].IsNil())
	assert.Equal(t, `entity(friend)`, got[3].String())
}

func TestEntityRefGoesStaleAfterRemoval(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	gone := spawn(t, s, "gone", 0)
	ref := task.EntityRef(gone)

	require.NoError(t, s.RemoveNow(gone))
	spawn(t, s, "newcomer", 0)

	_, ok := ref.Entity(s)
	assert.False(t, ok)
}

func TestInvokeErrorFailsTask(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "oops", 0)

	bad := errors.New("bad")
	inv := task.NewInvoke("explode", task.CallableFunc(func(*world.Entity, []task.Value) error { return bad }))
	require.NoError(t, e.AddTask(inv))
	tick(t, e)

	assert.ErrorIs(t, inv.Err(), bad)
	assert.Contains(t, inv.Err().Error(), "invoke explode")
}

func TestLeaveRemovesEntityAtFlush(t *testing.T) {
	s := world.NewState(event.NewBus(), nil)
	e := spawn(t, s, "tourist", 10)

	require.NoError(t, e.AddTask(task.MoveTo(world.Vec2{X: 1})))
	require.NoError(t, e.AddTask(task.Leave()))

	require.NoError(t, s.Tick(step))
	assert.Zero(t, s.FlushRemovals(), "leave waits for the move")

	require.NoError(t, s.Tick(step))
	assert.True(t, e.IsAssociated(), "removal is deferred to cleanup")
	assert.Equal(t, 1, s.FlushRemovals())
	assert.False(t, e.IsAssociated())
	assert.Zero(t, s.Count())
}
