package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/oktoeat/api/internal/database"
	"github.com/oktoeat/api/internal/models"
)

// MetadataRepository reads the import_metadata singleton. The wider read
// surface (businesses, locations, search) belongs to the public site, not to
// this service; only the import's own provenance record is exposed here.
type MetadataRepository interface {
	// Get returns the singleton metadata row.
	// Returns nil, nil when no import has completed yet (not an error).
	Get(ctx context.Context) (*models.ImportMetadata, error)
}

type metadataRepository struct {
	db *database.Database
}

// NewMetadataRepository creates a new instance of MetadataRepository.
func NewMetadataRepository(db *database.Database) MetadataRepository {
	return &metadataRepository{db: db}
}

func (r *metadataRepository) Get(ctx context.Context) (*models.ImportMetadata, error) {
	query := `
		SELECT last_import_at, records_imported, source_url
		FROM import_metadata
		WHERE id = $1
	`

	var meta models.ImportMetadata
	err := r.db.Pool.QueryRow(ctx, query, models.MetadataRowID).Scan(
		&meta.LastImportAt,
		&meta.RecordsImported,
		&meta.SourceURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query import metadata: %w", err)
	}

	return &meta, nil
}
