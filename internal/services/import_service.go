package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oktoeat/api/internal/importer"
	"github.com/oktoeat/api/internal/logger"
	"github.com/oktoeat/api/internal/models"
	"github.com/oktoeat/api/internal/repository"
)

// Service-level errors
var (
	// ErrImportInProgress is returned when a run is requested while another
	// pass is already executing in this process. The pipeline is not safe to
	// run concurrently against one store, so overlapping triggers are refused
	// rather than queued.
	ErrImportInProgress = errors.New("an import is already in progress")

	// ErrNoImportYet is returned by Status before the first successful pass.
	ErrNoImportYet = errors.New("no import has completed yet")
)

// ImportRunner is the orchestrator entry point the service drives. An empty
// sourceURL means the configured default feed.
type ImportRunner interface {
	Run(ctx context.Context, sourceURL string) *importer.Result
}

// ImportService defines the business logic around import runs: serializing
// triggers, logging outcomes, and reporting the last import's metadata.
type ImportService interface {
	// RunImport executes one import pass and returns its structured outcome.
	// Returns ErrImportInProgress when a pass is already running.
	RunImport(ctx context.Context, sourceURL string) (*importer.Result, error)

	// Status returns the metadata of the last completed import.
	// Returns ErrNoImportYet when the store has no metadata row.
	Status(ctx context.Context) (*models.ImportMetadata, error)
}

// importService is the concrete implementation of ImportService.
type importService struct {
	runner  ImportRunner
	meta    repository.MetadataRepository
	log     *logger.Logger
	running atomic.Bool
}

// NewImportService creates a new instance of ImportService.
func NewImportService(runner ImportRunner, meta repository.MetadataRepository, log *logger.Logger) ImportService {
	return &importService{
		runner: runner,
		meta:   meta,
		log:    log,
	}
}

// RunImport executes one pass through the shared pipeline. The outcome is
// logged either way; a failed pass is not an error at this level, it is a
// result the caller relays (the scheduler logs it, the trigger endpoint
// returns it).
func (s *importService) RunImport(ctx context.Context, sourceURL string) (*importer.Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("Import trigger refused, another pass is running", nil)
		return nil, ErrImportInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	result := s.runner.Run(ctx, sourceURL)
	elapsed := time.Since(start)

	fields := map[string]interface{}{
		"processed":   result.RecordsProcessed,
		"skipped":     result.RecordsSkipped,
		"duration_ms": elapsed.Milliseconds(),
	}

	if result.Success {
		s.log.Info("Import pass completed", fields)
	} else {
		s.log.Error("Import pass failed", errors.New(result.Error), fields)
	}

	return result, nil
}

// Status reports the last completed import's metadata.
func (s *importService) Status(ctx context.Context) (*models.ImportMetadata, error) {
	meta, err := s.meta.Get(ctx)
	if err != nil {
		s.log.Error("Failed to read import metadata", err, nil)
		return nil, fmt.Errorf("failed to read import metadata: %w", err)
	}
	if meta == nil {
		return nil, ErrNoImportYet
	}
	return meta, nil
}
