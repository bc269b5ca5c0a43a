package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/worldsim/internal/audio"
	"github.com/l1jgo/worldsim/internal/config"
	"github.com/l1jgo/worldsim/internal/core/event"
	coresys "github.com/l1jgo/worldsim/internal/core/system"
	"github.com/l1jgo/worldsim/internal/data"
	"github.com/l1jgo/worldsim/internal/persist"
	"github.com/l1jgo/worldsim/internal/scripting"
	"github.com/l1jgo/worldsim/internal/system"
	"github.com/l1jgo/worldsim/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName, runID string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             worldsim  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(run %s)\033[0m\n\n", serverName, runID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation loop ──────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg := config.Default()
	if p := os.Getenv("WORLDSIM_CONFIG"); p != "" {
		var err error
		if cfg, err = config.Load(p); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	runID := uuid.NewString()
	log = log.With(zap.String("run", runID))
	printBanner(cfg.Server.Name, runID)

	// 3. Load data tables
	printSection("data")

	entities, err := data.LoadEntityTable(cfg.World.Path(cfg.World.EntityFile))
	if err != nil {
		return fmt.Errorf("load entity table: %w", err)
	}
	printStat("entity declarations", entities.Count())

	routes, err := data.LoadRouteTable(cfg.World.Path(cfg.World.RouteFile))
	if err != nil {
		return fmt.Errorf("load route table: %w", err)
	}
	printStat("routes", routes.Count())

	clips, err := data.LoadClipTable(cfg.World.Path(cfg.World.ClipFile))
	if err != nil {
		return fmt.Errorf("load clip table: %w", err)
	}
	printStat("audio clips", clips.Count())
	fmt.Println()

	// 4. World, audio and scripting
	bus := event.NewBus()
	worldState := world.NewState(bus, log)
	worldState.SetNames(world.NewNameAllocator(cfg.World.UnnamedPrefix))

	player := audio.NewPlayer(clips, nil, log)

	luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, scripting.Deps{Audio: player, Routes: routes}, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()

	printSection("world")
	spawned, err := spawnEntities(worldState, entities, luaEngine, cfg.Scripting.Enabled)
	if err != nil {
		return err
	}
	printStat("entities spawned", spawned)
	fmt.Println()

	// 5. Systems
	runner := coresys.NewRunner()
	dispatch := system.NewEventDispatchSystem(bus)
	digest := system.NewDigestSystem(worldState)
	runner.Register(dispatch)
	runner.Register(system.NewWorldTickSystem(worldState, log))
	runner.Register(digest)
	runner.Register(system.NewCleanupSystem(worldState, log))

	var (
		journal  *system.JournalSystem
		snapshot *system.PersistenceSystem
	)
	if cfg.Persistence.Enabled {
		printSection("database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK(fmt.Sprintf("%s connected", db.Dialect()))

		if err := persist.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		journalRepo := persist.NewJournalRepo(db)
		if err := journalRepo.StartRun(ctx, persist.RunInfo{
			ID:        runID,
			Server:    cfg.Server.Name,
			TickRate:  cfg.World.TickRate,
			StartedAt: time.Unix(cfg.Server.StartTime, 0),
		}); err != nil {
			return err
		}
		fmt.Println()

		journal = system.NewJournalSystem(bus, journalRepo, digest, runID, log,
			cfg.Persistence.JournalBatch, cfg.Persistence.DigestInterval)
		snapshot = system.NewPersistenceSystem(worldState, persist.NewSnapshotRepo(db), runID, log,
			cfg.Persistence.SnapshotInterval)
		runner.Register(journal)
		runner.Register(snapshot)
	}

	// 6. Start tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.World.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.World.TickRate))
	fmt.Println()

	shutdown := func(reason string) {
		log.Info("shutting down", zap.String("reason", reason), zap.Uint64("ticks", runner.Ticks()))
		dispatch.Drain()
		if journal != nil {
			journal.Flush()
		}
		if snapshot != nil {
			snapshot.SaveNow()
		}
		log.Info("stopped")
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.World.TickRate)
			if cfg.World.MaxTicks > 0 && runner.Ticks() >= cfg.World.MaxTicks {
				shutdown("max ticks reached")
				return nil
			}
		case sig := <-shutdownCh:
			shutdown(sig.String())
			return nil
		}
	}
}

// spawnEntities adds every declared entity in file order, attaching its
// script before the add so on_enter runs, then queues its patrol.
func spawnEntities(ws *world.State, table *data.EntityTable, engine *scripting.Engine, scripts bool) (int, error) {
	count := 0
	for _, decl := range table.All() {
		cfg, err := decl.Config()
		if err != nil {
			return count, err
		}
		ent := ws.NewEntity(cfg)
		if scripts && decl.Script != "" {
			if err := engine.Attach(ent, decl.Script); err != nil {
				return count, fmt.Errorf("entity %s: %w", ent.Name(), err)
			}
		}
		if err := ws.Add(ent); err != nil {
			return count, err
		}
		if decl.Patrol != "" {
			if err := engine.Patrol(ent, decl.Patrol); err != nil {
				return count, fmt.Errorf("entity %s: patrol: %w", ent.Name(), err)
			}
		}
		count++
	}
	return count, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
