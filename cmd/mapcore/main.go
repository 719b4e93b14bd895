package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/mapcore/internal/config"
	"github.com/l1jgo/mapcore/internal/core/event"
	coresys "github.com/l1jgo/mapcore/internal/core/system"
	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/mapmgr"
	"github.com/l1jgo/mapcore/internal/maps"
	"github.com/l1jgo/mapcore/internal/net/packet"
	"github.com/l1jgo/mapcore/internal/persist"
	"github.com/l1jgo/mapcore/internal/scripting"
	"github.com/l1jgo/mapcore/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              mapcore  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       grid world and map update engine    \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	if err := packet.SetCharset(cfg.Text.ClientCharset); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3. Connect to PostgreSQL and run migrations
	var (
		db        *persist.DB
		respawns  system.RespawnRepo
		instances *persist.InstanceRepo
		cleaner   system.RespawnCleaner
	)
	printSection("database")
	if cfg.Database.Enabled {
		db, err = persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		respawnRepo := persist.NewRespawnRepo(db)
		respawns, cleaner = respawnRepo, respawnRepo
		instances = persist.NewInstanceRepo(db)
	} else {
		mem := system.NewMemoryRespawnRepo()
		respawns, cleaner = mem, mem
		printOK("disabled, respawn times kept in memory")
	}
	fmt.Println()

	// 4. Load data tables
	printSection("data")
	mapTable, err := data.LoadMapTable(cfg.Data.MapList)
	if err != nil {
		return fmt.Errorf("load map list: %w", err)
	}
	printStat("maps", mapTable.Count())

	templates, err := data.LoadTemplates(cfg.Data.CreatureList, cfg.Data.GameObjectList)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	printStat("creature templates", templates.CreatureCount())
	printStat("gameobject templates", templates.GameObjectCount())

	var (
		gridSpawns maps.SpawnSource
		spawnQuery mapmgr.SpawnQuerier
	)
	switch cfg.Data.SpawnSource {
	case "db":
		repo := persist.NewSpawnRepo(db)
		gridSpawns, spawnQuery = repo, repo
		printOK("spawns read from world_spawn")
	default:
		table, err := data.LoadSpawnTable(cfg.Data.SpawnList)
		if err != nil {
			return fmt.Errorf("load spawn list: %w", err)
		}
		gridSpawns, spawnQuery = table, table
		printStat("spawns", table.Count())
	}

	scripts, err := scripting.LoadLibrary(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	printStat("script chunks", scripts.Len())
	fmt.Println()

	// 5. Create the map manager and load continents
	printSection("maps")
	bus := event.NewBus()
	mgr := mapmgr.NewManager(managerConfig(cfg), mapmgr.Deps{
		Maps: mapTable,
		Map: maps.Deps{
			Spawns:    gridSpawns,
			Templates: templates,
			Scripts:   scripts,
		},
		Spawns:   spawnQuery,
		Respawns: system.NewRespawnStore(respawns),
		Bus:      bus,
	}, log)
	if instances != nil {
		if err := mgr.InitMaxInstanceID(ctx, instances); err != nil {
			return err
		}
	}
	if err := mgr.Start(); err != nil {
		return err
	}
	mgr.LoadContinents()
	printStat("continents", mgr.Count())
	printStat("update threads", cfg.Scheduler.Threads)
	fmt.Println()

	// 6. Create systems and register with runner
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewMapUpdateSystem(mgr))
	persistSys := system.NewRespawnPersistSystem(mgr, respawns, log, cfg.Scheduler.PersistTicks)
	runner.Register(persistSys)
	system.SubscribeScriptHooks(bus, mgr)
	if instances != nil {
		system.SubscribeInstanceRecorder(bus, mgr, instances, cleaner, log)
	}

	// 7. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Scheduler.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("game loop running (tick: %s, map update: %dms)",
		cfg.Scheduler.TickRate, cfg.World.MapUpdateInterval))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			if took := runner.Tick(cfg.Scheduler.TickRate); took > cfg.Scheduler.TickRate {
				log.Warn("slow tick", zap.Duration("took", took),
					zap.Duration("map_update", runner.Spent(coresys.PhaseUpdate)),
					zap.Duration("persist", runner.Spent(coresys.PhasePersist)))
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			mgr.UnloadAll()
			persistSys.Flush()
			log.Info("server stopped", zap.Int("unsaved_respawns", persistSys.Pending()))
			return nil
		}
	}
}

func managerConfig(cfg *config.Config) mapmgr.Config {
	return mapmgr.Config{
		UpdateInterval: cfg.World.MapUpdateInterval,
		Threads:        cfg.Scheduler.Threads,
		QueueSize:      cfg.Scheduler.QueueSize,
		Continents:     cfg.World.Continents,
		ForceLoadMaps:  cfg.World.ForceLoadMaps,
		Map: maps.Config{
			GridExpiry:                 cfg.World.GridCleanUpDelay,
			GridUnload:                 cfg.World.GridUnload,
			SaveRespawnTimeImmediately: cfg.World.SaveRespawnTimeImmediately,
			InstanceUnloadDelay:        cfg.World.InstanceUnloadDelay,
		},
		VisibilityContinents:    cfg.World.VisibilityContinents,
		VisibilityInstances:     cfg.World.VisibilityInstances,
		VisibilityBattleGrounds: cfg.World.VisibilityBattleGrounds,
	}
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
