package system

import (
	"encoding/binary"
	"hash"
	"io"
	"math"
	"time"

	coresys "github.com/l1jgo/worldsim/internal/core/system"
	"github.com/l1jgo/worldsim/internal/world"
	"golang.org/x/crypto/blake2b"
)

// DigestSystem hashes the observable world state after every update so two
// runs fed the same inputs can be compared tick by tick. Phase 2 (PostUpdate).
type DigestSystem struct {
	world    *world.State
	h        hash.Hash
	last     []byte
	tick     uint64
	entities int
}

func NewDigestSystem(ws *world.State) *DigestSystem {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for oversized keys.
		panic(err)
	}
	return &DigestSystem{world: ws, h: h}
}

func (s *DigestSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DigestSystem) Update(_ time.Duration) {
	s.h.Reset()
	s.entities = writeState(s.h, s.world)
	s.last = s.h.Sum(s.last[:0])
	s.tick = s.world.TickCount()
}

// Last returns the most recent digest, the tick it was taken at and how many
// entities it covers. The slice is reused by the next Update.
func (s *DigestSystem) Last() (sum []byte, tick uint64, entities int) {
	return s.last, s.tick, s.entities
}

// Digest hashes the current state of ws.
func Digest(ws *world.State) []byte {
	h, _ := blake2b.New256(nil)
	writeState(h, ws)
	return h.Sum(nil)
}

// writeState serialises entities in tick order. Fields are length-prefixed so
// adjacent strings cannot alias.
func writeState(w io.Writer, ws *world.State) int {
	n := 0
	var scratch []byte
	ws.Each(func(e *world.Entity) bool {
		scratch = scratch[:0]
		scratch = appendString(scratch, e.Name())
		scratch = append(scratch, byte(e.Kind()), byte(e.Direction()))
		loc := e.Location()
		scratch = binary.LittleEndian.AppendUint32(scratch, math.Float32bits(loc.X))
		scratch = binary.LittleEndian.AppendUint32(scratch, math.Float32bits(loc.Y))
		scratch = binary.LittleEndian.AppendUint32(scratch, math.Float32bits(e.Speed()))
		if e.IsPaused() {
			scratch = append(scratch, 1)
		} else {
			scratch = append(scratch, 0)
		}
		anim := e.Animation()
		scratch = appendString(scratch, anim.Name)
		scratch = append(scratch, byte(anim.Mode))

		pending, running := e.Pending(), e.Running()
		scratch = binary.LittleEndian.AppendUint32(scratch, uint32(len(pending)))
		scratch = binary.LittleEndian.AppendUint32(scratch, uint32(len(running)))
		for _, t := range running {
			scratch = appendString(scratch, world.TaskName(t))
			scratch = append(scratch, byte(t.State()))
		}
		w.Write(scratch)
		n++
		return true
	})
	return n
}

func appendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}
