package importer

import (
	"time"

	"github.com/oktoeat/api/internal/models"
)

// Upsert statements are keyed on each entity's natural slug, not a surrogate
// id: re-running an import with unchanged source data rewrites every row to
// the same values, making the whole pass idempotent.

const upsertBusinessSQL = `
	INSERT INTO businesses (
		fhrs_id, name, slug, address_line1, address_line2, address_line3, address_line4,
		postcode, latitude, longitude, rating, rating_key, rating_date,
		business_type, business_type_slug, local_authority, town, town_slug, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	ON CONFLICT (slug) DO UPDATE SET
		fhrs_id = EXCLUDED.fhrs_id,
		name = EXCLUDED.name,
		address_line1 = EXCLUDED.address_line1,
		address_line2 = EXCLUDED.address_line2,
		address_line3 = EXCLUDED.address_line3,
		address_line4 = EXCLUDED.address_line4,
		postcode = EXCLUDED.postcode,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		rating = EXCLUDED.rating,
		rating_key = EXCLUDED.rating_key,
		rating_date = EXCLUDED.rating_date,
		business_type = EXCLUDED.business_type,
		business_type_slug = EXCLUDED.business_type_slug,
		local_authority = EXCLUDED.local_authority,
		town = EXCLUDED.town,
		town_slug = EXCLUDED.town_slug,
		updated_at = EXCLUDED.updated_at`

const upsertLocationSQL = `
	INSERT INTO locations (name, slug, business_count, avg_rating, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (slug) DO UPDATE SET
		name = EXCLUDED.name,
		business_count = EXCLUDED.business_count,
		avg_rating = EXCLUDED.avg_rating,
		updated_at = EXCLUDED.updated_at`

const upsertBusinessTypeSQL = `
	INSERT INTO business_types (name, slug, business_count)
	VALUES ($1, $2, $3)
	ON CONFLICT (slug) DO UPDATE SET
		name = EXCLUDED.name,
		business_count = EXCLUDED.business_count`

const upsertMetadataSQL = `
	INSERT INTO import_metadata (id, last_import_at, records_imported, source_url)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		last_import_at = EXCLUDED.last_import_at,
		records_imported = EXCLUDED.records_imported,
		source_url = EXCLUDED.source_url`

func upsertBusinessStatement(b *models.Business, now time.Time) Statement {
	return Statement{
		SQL: upsertBusinessSQL,
		Args: []any{
			b.FHRSID, b.Name, b.Slug,
			b.AddressLine1, b.AddressLine2, b.AddressLine3, b.AddressLine4,
			b.Postcode, b.Latitude, b.Longitude,
			b.Rating, b.RatingKey, b.RatingDate,
			b.BusinessType, b.BusinessTypeSlug, b.LocalAuthority,
			b.Town, b.TownSlug, now,
		},
	}
}

func upsertLocationStatement(loc models.Location, now time.Time) Statement {
	return Statement{
		SQL:  upsertLocationSQL,
		Args: []any{loc.Name, loc.Slug, loc.BusinessCount, loc.AvgRating, now},
	}
}

func upsertBusinessTypeStatement(bt models.BusinessType) Statement {
	return Statement{
		SQL:  upsertBusinessTypeSQL,
		Args: []any{bt.Name, bt.Slug, bt.BusinessCount},
	}
}

func upsertMetadataStatement(recordsProcessed int, sourceURL string, now time.Time) Statement {
	return Statement{
		SQL:  upsertMetadataSQL,
		Args: []any{models.MetadataRowID, now, recordsProcessed, sourceURL},
	}
}
