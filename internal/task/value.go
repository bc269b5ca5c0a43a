package task

import (
	"fmt"
	"strconv"

	"github.com/l1jgo/worldsim/internal/core/ecs"
	"github.com/l1jgo/worldsim/internal/world"
)

// ValueKind tags the payload of a Value.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindEntity
)

func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindEntity:
		return "entity"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is an argument captured for a deferred invocation. Entity references
// hold a generational handle, so a reference to an entity that has since left
// the world resolves to nothing instead of to whoever reused the slot.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	id   ecs.EntityID
}

func Nil() Value             { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value  { return Value{kind: KindString, s: s} }

// EntityRef references e by handle; the name is kept for logs.
func EntityRef(e *world.Entity) Value {
	return Value{kind: KindEntity, id: e.ID(), s: e.Name()}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNil() bool     { return v.kind == KindNil }

func (v Value) Bool() (bool, bool)      { return v.b, v.kind == KindBool }
func (v Value) Number() (float64, bool) { return v.n, v.kind == KindNumber }

func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Entity resolves an entity reference against w.
func (v Value) Entity(w *world.State) (*world.Entity, bool) {
	if v.kind != KindEntity || w == nil {
		return nil, false
	}
	return w.Get(v.id)
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindEntity:
		return "entity(" + v.s + ")"
	}
	return "nil"
}
