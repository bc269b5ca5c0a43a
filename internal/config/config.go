package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server      ServerConfig      `toml:"server"`
	World       WorldConfig       `toml:"world"`
	Scripting   ScriptingConfig   `toml:"scripting"`
	Database    DatabaseConfig    `toml:"database"`
	Persistence PersistenceConfig `toml:"persistence"`
	Logging     LoggingConfig     `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type WorldConfig struct {
	TickRate      time.Duration `toml:"tick_rate"`
	MaxTicks      uint64        `toml:"max_ticks"` // 0 = run until signalled
	DataDir       string        `toml:"data_dir"`
	EntityFile    string        `toml:"entity_file"` // relative to data_dir
	RouteFile     string        `toml:"route_file"`
	ClipFile      string        `toml:"clip_file"`
	UnnamedPrefix string        `toml:"unnamed_prefix"`
}

// Path joins a data file name onto the data directory unless it is absolute.
func (w WorldConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) || w.DataDir == "" {
		return name
	}
	return filepath.Join(w.DataDir, name)
}

type ScriptingConfig struct {
	Dir     string `toml:"dir"`
	Enabled bool   `toml:"enabled"`
}

type DatabaseConfig struct {
	Driver          string        `toml:"driver"` // "postgres" or "sqlite"
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type PersistenceConfig struct {
	Enabled          bool `toml:"enabled"`
	SnapshotInterval int  `toml:"snapshot_interval"` // ticks between snapshots
	DigestInterval   int  `toml:"digest_interval"`   // ticks between journaled digests
	JournalBatch     int  `toml:"journal_batch"`     // outcomes buffered before a flush
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := defaults()
	cfg.Server.StartTime = time.Now().Unix()
	return cfg
}

func (c *Config) validate() error {
	if c.World.TickRate <= 0 {
		return fmt.Errorf("world.tick_rate must be positive, got %s", c.World.TickRate)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver %q: want postgres or sqlite", c.Database.Driver)
	}
	if c.Persistence.SnapshotInterval < 0 || c.Persistence.DigestInterval < 0 || c.Persistence.JournalBatch < 0 {
		return fmt.Errorf("persistence intervals must not be negative")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "worldsim",
		},
		World: WorldConfig{
			TickRate:      100 * time.Millisecond,
			DataDir:       "data",
			EntityFile:    "entities.yaml",
			RouteFile:     "routes.yaml",
			ClipFile:      "clips.yaml",
			UnnamedPrefix: "__UNNAMED_ENTITY",
		},
		Scripting: ScriptingConfig{
			Dir:     "scripts",
			Enabled: true,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "worldsim.db",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Persistence: PersistenceConfig{
			Enabled:          true,
			SnapshotInterval: 50,
			DigestInterval:   10,
			JournalBatch:     64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
