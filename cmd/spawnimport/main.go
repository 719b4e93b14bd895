// spawnimport loads a YAML spawn list into the world_spawn table, with the
// grid of every row precomputed.
//
// Usage:
//
//	go run ./cmd/spawnimport [-config path] [-spawns path]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/mapcore/internal/config"
	"github.com/l1jgo/mapcore/internal/data"
	"github.com/l1jgo/mapcore/internal/persist"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "spawnimport: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", config.Path(), "config file")
	spawnPath := flag.String("spawns", "", "spawn list (default: data.spawn_list from the config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *spawnPath == "" {
		*spawnPath = cfg.Data.SpawnList
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	table, err := data.LoadSpawnTable(*spawnPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	imported, skipped, err := persist.NewSpawnRepo(db).Import(ctx, table.All())
	if err != nil {
		return err
	}
	log.Info("spawns imported", zap.String("file", *spawnPath),
		zap.Int64("rows", imported), zap.Int("skipped", skipped))
	return nil
}
