package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/worldsim/internal/config"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worldsim.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := config.Load(write(t, `
[world]
tick_rate = "50ms"
data_dir = "/srv/world"

[database]
driver = "postgres"
dsn = "postgres://sim@localhost/sim"

[persistence]
snapshot_interval = 5

[logging]
format = "json"
`))
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.World.TickRate)
	assert.Equal(t, "/srv/world/entities.yaml", cfg.World.Path(cfg.World.EntityFile))
	assert.Equal(t, "/abs/routes.yaml", cfg.World.Path("/abs/routes.yaml"))
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Persistence.SnapshotInterval)
	assert.Equal(t, 10, cfg.Persistence.DigestInterval, "default kept")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"tick":     "[world]\ntick_rate = \"0s\"\n",
		"driver":   "[database]\ndriver = \"mysql\"\n",
		"syntax":   "[world\n",
		"negative": "[persistence]\nsnapshot_interval = -1\n",
	} {
		_, err := config.Load(write(t, body))
		assert.Error(t, err, name)
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/clips.yaml", cfg.World.Path(cfg.World.ClipFile))
	assert.True(t, cfg.Scripting.Enabled)
}
