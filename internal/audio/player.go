// Package audio is the audio output collaborator. The simulation has no sound
// device; Player resolves clips against the clip table, tracks what each
// entity is playing and reports playback to the log and to a Sink.
package audio

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/worldsim/internal/data"
)

var ErrUnknownClip = errors.New("unknown audio clip")

// Sink receives playback starts and stops, e.g. a client mirror.
type Sink interface {
	ClipStarted(entity string, clip *data.ClipEntry)
	ClipStopped(entity, clip string)
}

type playKey struct {
	entity string
	clip   string
}

// Player implements task.AudioPlayer over a clip table.
type Player struct {
	clips  *data.ClipTable
	sink   Sink
	log    *zap.Logger
	active map[playKey]struct{}
}

// NewPlayer builds a player; sink may be nil.
func NewPlayer(clips *data.ClipTable, sink Sink, log *zap.Logger) *Player {
	return &Player{
		clips:  clips,
		sink:   sink,
		log:    log,
		active: make(map[playKey]struct{}),
	}
}

// Play starts clip for entity and returns how long it plays. Starting a clip
// the entity is already playing restarts it.
func (p *Player) Play(entity, clip string) (time.Duration, error) {
	c := p.clips.Get(clip)
	if c == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownClip, clip)
	}
	p.active[playKey{entity, clip}] = struct{}{}
	if p.sink != nil {
		p.sink.ClipStarted(entity, c)
	}
	p.log.Debug("clip started",
		zap.String("entity", entity),
		zap.String("clip", clip),
		zap.Duration("duration", c.Duration),
	)
	return c.Duration, nil
}

// Stop ends a clip. Stopping a clip that is not playing is a no-op.
func (p *Player) Stop(entity, clip string) {
	key := playKey{entity, clip}
	if _, ok := p.active[key]; !ok {
		return
	}
	delete(p.active, key)
	if p.sink != nil {
		p.sink.ClipStopped(entity, clip)
	}
	p.log.Debug("clip stopped", zap.String("entity", entity), zap.String("clip", clip))
}

// Playing reports whether entity is playing clip.
func (p *Player) Playing(entity, clip string) bool {
	_, ok := p.active[playKey{entity, clip}]
	return ok
}
