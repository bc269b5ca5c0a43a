package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/worldsim/internal/data"
	"github.com/l1jgo/worldsim/internal/task"
	"github.com/l1jgo/worldsim/internal/world"
)

// Deps are the collaborators bridge methods hand to the tasks they create.
type Deps struct {
	Audio  task.AudioPlayer
	Routes *data.RouteTable
}

// Engine wraps a single gopher-lua VM for entity scripts.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm      *lua.LState
	dir     string
	deps    Deps
	log     *zap.Logger
	scripts map[string]*lua.LTable
}

// NewEngine creates a Lua engine and loads the shared libraries under
// <scriptsDir>/lib. Entity scripts are loaded lazily by Attach.
func NewEngine(scriptsDir string, deps Deps, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:      vm,
		dir:     scriptsDir,
		deps:    deps,
		log:     log,
		scripts: make(map[string]*lua.LTable),
	}
	registerBridge(e)

	if err := e.loadDir(filepath.Join(scriptsDir, "lib")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load lib scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return &ScriptError{Script: path, Err: err}
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk in the shared VM, for libraries assembled at runtime
// and for tests.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return &ScriptError{Script: "<string>", Err: err}
	}
	return nil
}

// load runs an entity script once and caches the hook table it returns.
func (e *Engine) load(script string) (*lua.LTable, error) {
	if hooks, ok := e.scripts[script]; ok {
		return hooks, nil
	}
	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dir, script)
	}
	fn, err := e.vm.LoadFile(path)
	if err != nil {
		return nil, &ScriptError{Script: script, Err: err}
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return nil, &ScriptError{Script: script, Err: err}
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	hooks, ok := result.(*lua.LTable)
	if !ok {
		return nil, &ScriptError{Script: script, Err: fmt.Errorf("script returned %s, want table", result.Type())}
	}
	e.scripts[script] = hooks
	return hooks, nil
}

// Attach loads script and binds its hooks to ent. Attach before adding the
// entity to the world so on_enter sees the entry. A script that defines
// on_tick becomes the entity's per-tick logic.
func (e *Engine) Attach(ent *world.Entity, script string) error {
	hooks, err := e.load(script)
	if err != nil {
		return err
	}
	obs := &scriptObserver{engine: e, script: script, hooks: hooks}
	ent.AddObserver(obs)
	if fn, ok := hooks.RawGetString("on_tick").(*lua.LFunction); ok {
		ent.SetLogic(&scriptLogic{engine: e, script: script, fn: fn})
	}
	return nil
}

// call invokes fn with ent as self followed by args. Errors come back as
// *ScriptError; the VM stack is left balanced either way.
func (e *Engine) call(script, function string, fn *lua.LFunction, ent *world.Entity, args ...lua.LValue) error {
	lArgs := make([]lua.LValue, 0, len(args)+1)
	lArgs = append(lArgs, e.wrap(ent))
	lArgs = append(lArgs, args...)
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lArgs...); err != nil {
		return &ScriptError{Script: script, Function: function, Err: err}
	}
	return nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
