package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/oktoeat/api/internal/config"
	"github.com/oktoeat/api/internal/database"
	"github.com/oktoeat/api/internal/importer"
	"github.com/oktoeat/api/internal/logger"
	"github.com/oktoeat/api/internal/repository"
)

// bulkimport downloads the full feed and loads it through psql batches. It is
// the operator path for first-time loads and backfills, where the run is not
// execution-time constrained and batch failures should not abort the pass.
func main() {
	skipDownload := flag.Bool("skip-download", false, "reuse the existing local csv instead of downloading")
	file := flag.String("file", "", "path to the local csv copy (default: <tmp>/fhrs_all.csv)")
	keep := flag.Bool("keep", false, "keep the downloaded csv after the run")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)

	path := *file
	if path == "" {
		path = filepath.Join(os.TempDir(), "fhrs_all.csv")
	}

	ctx := context.Background()
	store := repository.NewShellStore(cfg.Database.DSN())

	// Bootstrap the schema through the same psql channel the batches use.
	for _, stmt := range database.Schema() {
		if err := store.Exec(ctx, stmt); err != nil {
			log.Fatal("Failed to bootstrap schema", err, nil)
		}
	}

	imp := importer.New(store, log, importer.Options{
		SourceURL:       cfg.Import.SourceURL,
		BatchSize:       cfg.Import.BulkBatchSize,
		ContinueOnError: true,
	})

	if *skipDownload {
		log.Info("Skipping download, using existing file", map[string]interface{}{"file": path})
	} else {
		if err := imp.Download(ctx, path); err != nil {
			log.Fatal("Failed to download csv", err, map[string]interface{}{"file": path})
		}
	}

	result := imp.ImportFile(ctx, path)

	if !*keep && !*skipDownload {
		if err := os.Remove(path); err != nil {
			log.Warn("Failed to remove downloaded csv", map[string]interface{}{
				"file":  path,
				"error": err.Error(),
			})
		}
	}

	if !result.Success {
		log.Error("Bulk import failed", fmt.Errorf("%s", result.Error), map[string]interface{}{
			"processed": result.RecordsProcessed,
			"skipped":   result.RecordsSkipped,
		})
		os.Exit(1)
	}

	log.Info("Bulk import complete", map[string]interface{}{
		"processed": result.RecordsProcessed,
		"skipped":   result.RecordsSkipped,
	})
}
