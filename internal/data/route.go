package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/worldsim/internal/world"
)

// RouteEntry is a named waypoint list from routes.yaml.
type RouteEntry struct {
	Name      string       `yaml:"name" json:"name"`
	Loop      bool         `yaml:"loop" json:"loop,omitempty"` // patrol back to the first waypoint
	Waypoints []world.Vec2 `yaml:"waypoints" json:"waypoints" jsonschema:"minItems=1"`
}

// RouteFile is the top-level layout of routes.yaml.
type RouteFile struct {
	Routes []RouteEntry `yaml:"routes" json:"routes"`
}

// RouteTable looks routes up by name.
type RouteTable struct {
	routes map[string]*RouteEntry
}

// LoadRouteTable loads routes.yaml.
func LoadRouteTable(path string) (*RouteTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route list: %w", err)
	}
	var file RouteFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse route list: %w", err)
	}
	t := &RouteTable{
		routes: make(map[string]*RouteEntry, len(file.Routes)),
	}
	for i := range file.Routes {
		r := &file.Routes[i]
		if len(r.Waypoints) == 0 {
			return nil, fmt.Errorf("route %q has no waypoints", r.Name)
		}
		if _, dup := t.routes[r.Name]; dup {
			return nil, fmt.Errorf("route list: duplicate route %q", r.Name)
		}
		t.routes[r.Name] = r
	}
	return t, nil
}

// Get returns the named route, or nil.
func (t *RouteTable) Get(name string) *RouteEntry {
	return t.routes[name]
}

func (t *RouteTable) Count() int {
	return len(t.routes)
}
