package task

import (
	"fmt"
	"time"

	"github.com/l1jgo/worldsim/internal/world"
)

// AudioPlayer starts and stops clips. Play returns the clip's length so the
// task can finish when playback would.
type AudioPlayer interface {
	Play(entity, clip string) (time.Duration, error)
	Stop(entity, clip string)
}

// PlayAudio plays one clip alongside whatever else the entity is doing.
// Playback starts on the first cycle and is stopped when the task ends,
// whether the clip ran out or the task was cancelled.
type PlayAudio struct {
	world.TaskBase
	player    AudioPlayer
	clip      string
	started   bool
	remaining time.Duration
}

func NewPlayAudio(player AudioPlayer, clip string) *PlayAudio {
	return &PlayAudio{TaskBase: world.NewTaskBase(true, false), player: player, clip: clip}
}

func (t *PlayAudio) Kind() string { return "play_audio" }

func (t *PlayAudio) Clip() string { return t.clip }

func (t *PlayAudio) Begin(*world.Entity) {}

func (t *PlayAudio) Cycle(e *world.Entity, dt time.Duration) (bool, error) {
	if !t.started {
		d, err := t.player.Play(e.Name(), t.clip)
		if err != nil {
			return false, fmt.Errorf("play %s: %w", t.clip, err)
		}
		t.started = true
		t.remaining = d
		return d <= 0, nil
	}
	t.remaining -= dt
	return t.remaining <= 0, nil
}

func (t *PlayAudio) End(e *world.Entity) {
	if t.started {
		t.player.Stop(e.Name(), t.clip)
	}
}
