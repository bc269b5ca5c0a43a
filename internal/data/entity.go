package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/worldsim/internal/world"
)

// EntityDecl declares one entity to spawn at startup, loaded from entities.yaml.
type EntityDecl struct {
	Name      string     `yaml:"name" json:"name,omitempty"`
	Kind      string     `yaml:"kind" json:"kind,omitempty" jsonschema:"enum=character,enum=scenery,enum=trigger"`
	Location  world.Vec2 `yaml:"location" json:"location"`
	Direction string     `yaml:"direction" json:"direction,omitempty"`
	Speed     float32    `yaml:"speed" json:"speed,omitempty" jsonschema:"minimum=0"`
	Paused    bool       `yaml:"paused" json:"paused,omitempty"`
	Animation string     `yaml:"animation" json:"animation,omitempty"`
	Script    string     `yaml:"script" json:"script,omitempty"` // relative to the script directory
	Patrol    string     `yaml:"patrol" json:"patrol,omitempty"` // route name to walk on spawn
}

// Config converts the declaration into an entity config.
func (d *EntityDecl) Config() (world.EntityConfig, error) {
	kind, err := world.ParseKind(d.Kind)
	if err != nil {
		return world.EntityConfig{}, fmt.Errorf("entity %q: %w", d.Name, err)
	}
	dir, err := world.ParseDirection(d.Direction)
	if err != nil {
		return world.EntityConfig{}, fmt.Errorf("entity %q: %w", d.Name, err)
	}
	if d.Speed < 0 {
		return world.EntityConfig{}, fmt.Errorf("entity %q: negative speed %g", d.Name, d.Speed)
	}
	return world.EntityConfig{
		Name:      d.Name,
		Kind:      kind,
		Location:  d.Location,
		Direction: dir,
		Speed:     d.Speed,
		Paused:    d.Paused,
		Animation: d.Animation,
	}, nil
}

// EntityFile is the top-level layout of entities.yaml.
type EntityFile struct {
	Entities []EntityDecl `yaml:"entities" json:"entities"`
}

// EntityTable keeps declarations in file order, which is also spawn order.
type EntityTable struct {
	decls  []EntityDecl
	byName map[string]*EntityDecl
}

// LoadEntityTable loads entities.yaml. Named declarations must be unique.
func LoadEntityTable(path string) (*EntityTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity list: %w", err)
	}
	var file EntityFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse entity list: %w", err)
	}
	t := &EntityTable{
		decls:  file.Entities,
		byName: make(map[string]*EntityDecl, len(file.Entities)),
	}
	for i := range t.decls {
		d := &t.decls[i]
		if d.Name == "" {
			continue
		}
		name := world.NormalizeName(d.Name)
		if _, dup := t.byName[name]; dup {
			return nil, fmt.Errorf("entity list: duplicate name %q", d.Name)
		}
		t.byName[name] = d
	}
	return t, nil
}

// Get returns the declaration with the given name, or nil.
func (t *EntityTable) Get(name string) *EntityDecl {
	return t.byName[world.NormalizeName(name)]
}

// All returns the declarations in file order.
func (t *EntityTable) All() []EntityDecl { return t.decls }

func (t *EntityTable) Count() int { return len(t.decls) }
