package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/l1jgo/worldsim/internal/task"
	"github.com/l1jgo/worldsim/internal/world"
)

// toValue captures a Lua argument for a deferred call. Tables and functions
// are rejected: their contents could change before the call runs.
func toValue(lv lua.LValue) (task.Value, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return task.Nil(), nil
	case lua.LBool:
		return task.Bool(bool(v)), nil
	case lua.LNumber:
		return task.Number(float64(v)), nil
	case lua.LString:
		return task.String(string(v)), nil
	case *lua.LUserData:
		if ent, ok := v.Value.(*world.Entity); ok {
			return task.EntityRef(ent), nil
		}
	}
	return task.Value{}, fmt.Errorf("unsupported argument type %s", lv.Type())
}

// fromValue converts a captured argument back for the call. An entity that
// has left the world arrives as nil.
func (e *Engine) fromValue(v task.Value, w *world.State) lua.LValue {
	switch v.Kind() {
	case task.KindBool:
		b, _ := v.Bool()
		return lua.LBool(b)
	case task.KindNumber:
		n, _ := v.Number()
		return lua.LNumber(n)
	case task.KindString:
		s, _ := v.Str()
		return lua.LString(s)
	case task.KindEntity:
		if ent, ok := v.Entity(w); ok {
			return e.wrap(ent)
		}
	}
	return lua.LNil
}
