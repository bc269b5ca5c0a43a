package scripting

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/worldsim/internal/task"
	"github.com/l1jgo/worldsim/internal/world"
)

const entityTypeName = "entity"

// registerBridge installs the entity userdata type. Scripts only ever see an
// entity through these methods; the task queues are not reachable.
func registerBridge(e *Engine) {
	L := e.vm
	mt := L.NewTypeMetatable(entityTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"name":          e.luaName,
		"location":      e.luaLocation,
		"set_location":  e.luaSetLocation,
		"distance":      e.luaDistance,
		"find":          e.luaFind,
		"move_to":       e.luaMoveTo,
		"move_along":    e.luaMoveAlong,
		"patrol":        e.luaPatrol,
		"idle":          e.luaIdle,
		"play_audio":    e.luaPlayAudio,
		"invoke":        e.luaInvoke,
		"leave":         e.luaLeave,
		"pause":         e.luaPause,
		"resume":        e.luaResume,
		"is_paused":     e.luaIsPaused,
		"cancel_tasks":  e.luaCancelTasks,
		"set_animation": e.luaSetAnimation,
	}))
	L.SetField(mt, "__eq", L.NewFunction(func(L *lua.LState) int {
		a, _ := L.Get(1).(*lua.LUserData)
		b, _ := L.Get(2).(*lua.LUserData)
		L.Push(lua.LBool(a != nil && b != nil && a.Value == b.Value))
		return 1
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString("entity(" + checkEntity(L, 1).Name() + ")"))
		return 1
	}))
}

func (e *Engine) wrap(ent *world.Entity) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = ent
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(entityTypeName))
	return ud
}

func checkEntity(L *lua.LState, n int) *world.Entity {
	ud := L.CheckUserData(n)
	ent, ok := ud.Value.(*world.Entity)
	if !ok {
		L.ArgError(n, "entity expected")
		return nil
	}
	return ent
}

func checkVec(L *lua.LState, n int) world.Vec2 {
	return world.Vec2{X: float32(L.CheckNumber(n)), Y: float32(L.CheckNumber(n + 1))}
}

// addTask queues t on ent or raises a Lua error.
func addTask(L *lua.LState, ent *world.Entity, method string, t world.Task) {
	if err := ent.AddTask(t); err != nil {
		L.RaiseError("%s: %v", method, err)
	}
}

func (e *Engine) luaName(L *lua.LState) int {
	L.Push(lua.LString(checkEntity(L, 1).Name()))
	return 1
}

func (e *Engine) luaLocation(L *lua.LState) int {
	loc := checkEntity(L, 1).Location()
	L.Push(lua.LNumber(loc.X))
	L.Push(lua.LNumber(loc.Y))
	return 2
}

func (e *Engine) luaSetLocation(L *lua.LState) int {
	checkEntity(L, 1).SetLocation(checkVec(L, 2))
	return 0
}

// distance(self, other) or distance(self, x, y)
func (e *Engine) luaDistance(L *lua.LState) int {
	ent := checkEntity(L, 1)
	var to world.Vec2
	if _, ok := L.Get(2).(*lua.LUserData); ok {
		to = checkEntity(L, 2).Location()
	} else {
		to = checkVec(L, 2)
	}
	L.Push(lua.LNumber(ent.Location().Distance(to)))
	return 1
}

// find(self, name) returns another entity in the same world, or nil.
func (e *Engine) luaFind(L *lua.LState) int {
	ent := checkEntity(L, 1)
	name := L.CheckString(2)
	if w := ent.World(); w != nil {
		if other, ok := w.Lookup(name); ok {
			L.Push(e.wrap(other))
			return 1
		}
	}
	L.Push(lua.LNil)
	return 1
}

func (e *Engine) luaMoveTo(L *lua.LState) int {
	ent := checkEntity(L, 1)
	addTask(L, ent, "move_to", task.MoveTo(checkVec(L, 2)))
	return 0
}

// move_along(self, {{x=1, y=2}, {3, 4}, ...}) or move_along(self, "route")
func (e *Engine) luaMoveAlong(L *lua.LState) int {
	ent := checkEntity(L, 1)
	var route *task.Route
	switch arg := L.Get(2).(type) {
	case lua.LString:
		route = e.namedRoute(L, string(arg))
	case *lua.LTable:
		route = tableRoute(L, arg)
	default:
		L.ArgError(2, "route name or waypoint table expected")
		return 0
	}
	addTask(L, ent, "move_along", task.NewMove(route))
	return 0
}

// patrol(self, "route") walks a named route; looping routes repeat until the
// entity's tasks are cancelled.
func (e *Engine) luaPatrol(L *lua.LState) int {
	ent := checkEntity(L, 1)
	name := L.CheckString(2)
	e.namedRoute(L, name) // validate now, not on the next lap
	if err := e.Patrol(ent, name); err != nil {
		L.RaiseError("patrol: %v", err)
	}
	return 0
}

// Patrol queues a walk along the named route, repeating if the route loops.
func (e *Engine) Patrol(ent *world.Entity, name string) error {
	if e.deps.Routes == nil {
		return fmt.Errorf("no route table loaded")
	}
	entry := e.deps.Routes.Get(name)
	if entry == nil {
		return fmt.Errorf("unknown route %q", name)
	}
	if err := ent.AddTask(task.NewMove(task.NewRoute(entry.Waypoints...))); err != nil {
		return err
	}
	if !entry.Loop {
		return nil
	}
	return ent.AddTask(task.NewOneShot("patrol", func(ent *world.Entity) error {
		return e.Patrol(ent, name)
	}))
}

func (e *Engine) namedRoute(L *lua.LState, name string) *task.Route {
	if e.deps.Routes == nil {
		L.RaiseError("no route table loaded")
		return nil
	}
	entry := e.deps.Routes.Get(name)
	if entry == nil {
		L.RaiseError("unknown route %q", name)
		return nil
	}
	return task.NewRoute(entry.Waypoints...)
}

func tableRoute(L *lua.LState, tbl *lua.LTable) *task.Route {
	route := task.NewRoute()
	for i := 1; i <= tbl.Len(); i++ {
		wp, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			L.RaiseError("waypoint %d: table expected", i)
			return nil
		}
		x, y := wp.RawGetString("x"), wp.RawGetString("y")
		if x == lua.LNil {
			x, y = wp.RawGetInt(1), wp.RawGetInt(2)
		}
		xn, xok := x.(lua.LNumber)
		yn, yok := y.(lua.LNumber)
		if !xok || !yok {
			L.RaiseError("waypoint %d: numeric x and y expected", i)
			return nil
		}
		route.AddWaypoint(world.Vec2{X: float32(xn), Y: float32(yn)})
	}
	return route
}

// idle(self, seconds)
func (e *Engine) luaIdle(L *lua.LState) int {
	ent := checkEntity(L, 1)
	secs := float64(L.CheckNumber(2))
	if secs < 0 {
		L.ArgError(2, "non-negative duration expected")
		return 0
	}
	addTask(L, ent, "idle", task.NewIdle(time.Duration(secs*float64(time.Second))))
	return 0
}

func (e *Engine) luaPlayAudio(L *lua.LState) int {
	ent := checkEntity(L, 1)
	clip := L.CheckString(2)
	if e.deps.Audio == nil {
		L.RaiseError("play_audio: no audio output")
		return 0
	}
	addTask(L, ent, "play_audio", task.NewPlayAudio(e.deps.Audio, clip))
	return 0
}

// invoke(self, fn, ...) calls fn(self, ...) once the work queued before it
// has finished. Arguments are captured now.
func (e *Engine) luaInvoke(L *lua.LState) int {
	ent := checkEntity(L, 1)
	fn := L.CheckFunction(2)
	args := make([]task.Value, 0, L.GetTop()-2)
	for i := 3; i <= L.GetTop(); i++ {
		v, err := toValue(L.Get(i))
		if err != nil {
			L.ArgError(i, err.Error())
			return 0
		}
		args = append(args, v)
	}
	c := &luaCallable{engine: e, fn: fn}
	addTask(L, ent, "invoke", task.NewInvoke(c.label(), c, args...))
	return 0
}

func (e *Engine) luaLeave(L *lua.LState) int {
	ent := checkEntity(L, 1)
	addTask(L, ent, "leave", task.Leave())
	return 0
}

func (e *Engine) luaPause(L *lua.LState) int {
	checkEntity(L, 1).Pause()
	return 0
}

func (e *Engine) luaResume(L *lua.LState) int {
	checkEntity(L, 1).Resume()
	return 0
}

func (e *Engine) luaIsPaused(L *lua.LState) int {
	L.Push(lua.LBool(checkEntity(L, 1).IsPaused()))
	return 1
}

func (e *Engine) luaCancelTasks(L *lua.LState) int {
	if err := checkEntity(L, 1).CancelTasks(); err != nil {
		L.RaiseError("cancel_tasks: %v", err)
	}
	return 0
}

// set_animation(self, name, play_once)
func (e *Engine) luaSetAnimation(L *lua.LState) int {
	ent := checkEntity(L, 1)
	ent.SetAnimation(L.CheckString(2), L.OptBool(3, false))
	return 0
}

// luaCallable runs a captured Lua function as the body of an Invoke task.
type luaCallable struct {
	engine *Engine
	fn     *lua.LFunction
}

func (c *luaCallable) label() string {
	if c.fn.Proto == nil {
		return "<go function>"
	}
	return fmt.Sprintf("%s:%d", c.fn.Proto.SourceName, c.fn.Proto.LineDefined)
}

func (c *luaCallable) Call(ent *world.Entity, args []task.Value) error {
	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = c.engine.fromValue(a, ent.World())
	}
	return c.engine.call(c.label(), "invoke", c.fn, ent, lArgs...)
}

// scriptObserver routes entity notifications to a script's hooks.
type scriptObserver struct {
	world.NopObserver
	engine *Engine
	script string
	hooks  *lua.LTable
}

func (o *scriptObserver) EnteredWorld(ent *world.Entity) { o.hook(ent, "on_enter") }
func (o *scriptObserver) LeftWorld(ent *world.Entity)    { o.hook(ent, "on_leave") }

func (o *scriptObserver) TaskFailed(ent *world.Entity, t world.Task, err error) {
	o.hook(ent, "on_task_failed", lua.LString(world.TaskName(t)), lua.LString(err.Error()))
}

func (o *scriptObserver) hook(ent *world.Entity, name string, args ...lua.LValue) {
	fn, ok := o.hooks.RawGetString(name).(*lua.LFunction)
	if !ok {
		return
	}
	if err := o.engine.call(o.script, name, fn, ent, args...); err != nil {
		ent.Logger().Error("lua hook failed", zap.Error(err))
	}
}

// scriptLogic runs a script's on_tick(self, dt_seconds).
type scriptLogic struct {
	engine *Engine
	script string
	fn     *lua.LFunction
}

func (l *scriptLogic) DoLogic(ent *world.Entity, dt time.Duration) {
	if err := l.engine.call(l.script, "on_tick", l.fn, ent, lua.LNumber(dt.Seconds())); err != nil {
		ent.Logger().Error("lua hook failed", zap.Error(err))
	}
}
