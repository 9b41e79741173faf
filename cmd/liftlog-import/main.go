package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/ingest/alpha"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/meltforce/liftlog/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	file := flag.String("file", "", "path to an Alpha Progression CSV export (required)")
	userID := flag.Int("user-id", 1, "user the sessions belong to")
	dryRun := flag.Bool("dry-run", false, "import into a throwaway SQLite file and report counts")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *file == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -config config.yaml -file export.csv [-user-id N] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Error("failed to open export", "path", *file, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := context.Background()
	start := time.Now()

	var result *ingest.Result
	switch {
	case *dryRun:
		log.Info("DRY RUN mode: sessions go to a temporary SQLite file")
		dir, err := os.MkdirTemp("", "liftlog-dry-run-")
		if err != nil {
			log.Error("failed to create temp dir", "error", err)
			os.Exit(1)
		}
		defer os.RemoveAll(dir)
		result, err = importSQLite(ctx, filepath.Join(dir, "liftlog.db"), f, *userID, log)
		exitOnError(log, result, err)

	default:
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		if cfg.Database.Driver == config.DriverSQLite {
			result, err = importSQLite(ctx, cfg.Database.Path, f, *userID, log)
			exitOnError(log, result, err)
			break
		}
		result, err = importPostgres(ctx, cfg, f, *userID, log)
		exitOnError(log, result, err)
	}

	printResult(log, result)
	log.Info("import complete", "elapsed", time.Since(start).Round(time.Millisecond))
}

func importSQLite(ctx context.Context, path string, f *os.File, userID int, log *slog.Logger) (*ingest.Result, error) {
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	log.Info("sqlite store opened", "path", path)
	return alpha.NewProvider(store, log).Ingest(ctx, f, userID)
}

func importPostgres(ctx context.Context, cfg *config.Config, f *os.File, userID int, log *slog.Logger) (*ingest.Result, error) {
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	db, err := storage.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	log.Info("database connected")

	start := time.Now()
	result, importErr := alpha.NewProvider(db, log).Ingest(ctx, f, userID)

	entry := storage.ImportLog{UserID: userID, Source: "alpha_cli", Status: "success"}
	if result != nil {
		entry.SessionsReceived = result.SessionsReceived
		entry.SessionsInserted = result.SessionsInserted
		entry.SetsInserted = result.SetsInserted
		entry.RecordsInserted = result.RecordsInserted
	}
	if importErr != nil {
		msg := importErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	ms := int(time.Since(start).Milliseconds())
	entry.DurationMs = &ms
	if _, err := db.InsertImportLog(ctx, entry); err != nil {
		log.Warn("failed to log import", "error", err)
	}
	return result, importErr
}

func exitOnError(log *slog.Logger, result *ingest.Result, err error) {
	if err == nil {
		return
	}
	log.Error("import failed", "error", err)
	if result != nil {
		printResult(log, result)
	}
	os.Exit(1)
}

func printResult(log *slog.Logger, r *ingest.Result) {
	log.Info("import stats",
		"sessions_received", r.SessionsReceived,
		"sessions_inserted", r.SessionsInserted,
		"sessions_skipped", r.SessionsSkipped,
		"sets_inserted", r.SetsInserted,
		"records_inserted", r.RecordsInserted,
	)
}
