package system_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	coresys "github.com/l1jgo/worldsim/internal/core/system"
)

type recorder struct {
	name  string
	phase coresys.Phase
	log   *[]string
}

func (r recorder) Phase() coresys.Phase { return r.phase }
func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerPhaseOrder(t *testing.T) {
	var log []string
	r := coresys.NewRunner()
	r.Register(recorder{"cleanup", coresys.PhaseCleanup, &log})
	r.Register(recorder{"tick", coresys.PhaseUpdate, &log})
	r.Register(recorder{"journal", coresys.PhasePersist, &log})
	r.Register(recorder{"dispatch", coresys.PhasePreUpdate, &log})
	r.Register(recorder{"snapshot", coresys.PhasePersist, &log})

	r.Tick(200 * time.Millisecond)
	assert.Equal(t, []string{"dispatch", "tick", "journal", "snapshot", "cleanup"}, log)
	assert.Equal(t, uint64(1), r.Ticks())

	log = log[:0]
	r.TickPhase(coresys.PhasePersist, 0)
	assert.Equal(t, []string{"journal", "snapshot"}, log)
	assert.Equal(t, uint64(1), r.Ticks())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "update", coresys.PhaseUpdate.String())
	assert.Equal(t, "unknown", coresys.Phase(42).String())
}
