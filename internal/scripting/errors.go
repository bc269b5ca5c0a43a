package scripting

import "fmt"

// ScriptError is a failure raised while loading or running a script.
type ScriptError struct {
	Script   string
	Function string // empty when the chunk itself failed
	Err      error
}

func (e *ScriptError) Error() string {
	if e.Function == "" {
		return fmt.Sprintf("script %s: %v", e.Script, e.Err)
	}
	return fmt.Sprintf("script %s: %s: %v", e.Script, e.Function, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }
