package world

import (
	"fmt"
	"math"
	"strings"
)

// Vec2 is a point or offset in world units.
type Vec2 struct {
	X float32 `yaml:"x" json:"x"`
	Y float32 `yaml:"y" json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2         { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2         { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float32) Vec2    { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) IsZero() bool            { return v.X == 0 && v.Y == 0 }
func (v Vec2) Distance(o Vec2) float32 { return o.Sub(v).Len() }

func (v Vec2) Len() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Normalize returns the unit vector of v, or the zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

func (v Vec2) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }

// Direction is one of eight compass headings, or DirZero for "no facing".
// The world's Y axis grows southwards.
type Direction uint8

const (
	DirZero Direction = iota
	DirNorth
	DirNorthEast
	DirEast
	DirSouthEast
	DirSouth
	DirSouthWest
	DirWest
	DirNorthWest
)

var directionNames = [...]string{"zero", "north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// ParseDirection accepts the names produced by String, case-insensitively.
// The empty string parses as DirZero.
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DirZero, nil
	}
	for i, n := range directionNames {
		if n == s {
			return Direction(i), nil
		}
	}
	return DirZero, fmt.Errorf("unknown direction %q", s)
}

// sectors maps 45-degree sectors counted clockwise from east.
var sectors = [8]Direction{DirEast, DirSouthEast, DirSouth, DirSouthWest, DirWest, DirNorthWest, DirNorth, DirNorthEast}

// DirectionOf returns the heading closest to v.
func DirectionOf(v Vec2) Direction {
	if v.IsZero() {
		return DirZero
	}
	angle := math.Atan2(float64(v.Y), float64(v.X))
	sector := int(math.Round(angle / (math.Pi / 4)))
	return sectors[(sector+8)%8]
}
