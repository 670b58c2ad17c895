package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/workplace-hygiene/noiseexposure/internal/log"
	"github.com/workplace-hygiene/noiseexposure/internal/store/sqlite"
	"github.com/workplace-hygiene/noiseexposure/pkg/migrate"
)

func main() {
	var (
		dbPath        = flag.String("db", "", "Path to the SQLite investigation database")
		targetVersion = flag.Int("target", -1, "Migrate up or down to this version; -1 applies all pending migrations")
		status        = flag.Bool("status", false, "Show the current version and pending migrations")
		debug         = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -db flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Concurrent migrators on one file would race on the version table.
	lock := flock.New(*dbPath + ".migrate.lock")
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("Failed to acquire migration lock: %v", err)
	}
	if !locked {
		log.Fatalf("Another migration is already running against %s", *dbPath)
	}
	defer lock.Unlock()

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	migrator := sqlite.NewMigrator(db, log.Named("migrate"))

	if *status {
		if err := showStatus(ctx, migrator); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if err := migrator.MigrateTo(ctx, *targetVersion); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	version, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		log.Fatalf("Failed to get current version: %v", err)
	}
	fmt.Printf("Database is at version %d\n", version)
}

func showStatus(ctx context.Context, migrator *migrate.Migrator) error {
	currentVersion, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	pending, err := migrator.GetPendingMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}

	fmt.Printf("Current version: %d\n", currentVersion)
	fmt.Printf("Pending migrations: %d\n", len(pending))
	for _, migration := range pending {
		fmt.Printf("  %d: %s\n", migration.Version, migration.Name)
	}
	return nil
}
