package world

import "time"

// AnimationMode selects whether an animation loops or stops on its last frame.
type AnimationMode uint8

const (
	AnimationLoop AnimationMode = iota
	AnimationPlayOnce
)

// Animation is the presentation state advanced by the entity's per-tick hook.
// Frame selection belongs to the renderer; the simulation only tracks which
// animation is playing and for how long.
type Animation struct {
	Name    string
	Mode    AnimationMode
	Elapsed time.Duration
}

// SetAnimation switches the entity's animation. Setting the animation that is
// already playing in the same mode is a no-op and does not restart it.
func (e *Entity) SetAnimation(name string, playOnce bool) {
	mode := AnimationLoop
	if playOnce {
		mode = AnimationPlayOnce
	}
	if e.anim.Name == name && e.anim.Mode == mode {
		return
	}
	e.anim = Animation{Name: name, Mode: mode}
	anim := e.anim
	e.observers.presentation(func(p PresentationObserver) { p.AnimationChanged(e, anim) })
}

// Animation returns the current animation state.
func (e *Entity) Animation() Animation { return e.anim }

func (e *Entity) advanceAnimation(dt time.Duration) {
	if e.anim.Name != "" {
		e.anim.Elapsed += dt
	}
}
