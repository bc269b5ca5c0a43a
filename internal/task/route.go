package task

import "github.com/l1jgo/worldsim/internal/world"

// Route is an ordered list of waypoints consumed front to back. The first
// waypoint is the current target.
type Route struct {
	path []world.Vec2
}

func NewRoute(points ...world.Vec2) *Route {
	return &Route{path: append([]world.Vec2(nil), points...)}
}

// Clone returns an independent copy, so a shared table route can be handed
// to several tasks.
func (r *Route) Clone() *Route { return NewRoute(r.path...) }

// Truncate keeps at most maxSteps waypoints.
func (r *Route) Truncate(maxSteps int) {
	if maxSteps < 0 {
		maxSteps = 0
	}
	if len(r.path) > maxSteps {
		r.path = r.path[:maxSteps:maxSteps]
	}
}

func (r *Route) Length() int { return len(r.path) }

func (r *Route) CurrentTarget() (world.Vec2, bool) {
	if len(r.path) == 0 {
		return world.Vec2{}, false
	}
	return r.path[0], true
}

// NextTarget drops the current target and reports whether another remains.
func (r *Route) NextTarget() bool {
	if len(r.path) > 0 {
		r.path = r.path[1:]
	}
	return len(r.path) > 0
}

// HasNext reports whether there is a waypoint after the current target.
func (r *Route) HasNext() bool { return len(r.path) > 1 }

// Peek returns the waypoint ahead steps past the current target.
func (r *Route) Peek(ahead int) (world.Vec2, bool) {
	if ahead < 0 || ahead >= len(r.path) {
		return world.Vec2{}, false
	}
	return r.path[ahead], true
}

func (r *Route) AddWaypoint(points ...world.Vec2) {
	r.path = append(r.path, points...)
}

// Waypoints returns a copy of the remaining waypoints.
func (r *Route) Waypoints() []world.Vec2 {
	return append([]world.Vec2(nil), r.path...)
}
