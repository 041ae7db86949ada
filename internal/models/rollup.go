package models

import (
	"time"
)

// Location is a per-town rollup over the business set. It is recomputed from
// scratch on every import pass and overwritten by slug, never merged with
// prior state. AvgRating is nil when the town has no rated businesses.
type Location struct {
	UpdatedAt     time.Time `json:"updatedAt"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	AvgRating     *float64  `json:"avgRating,omitempty"`
	BusinessCount int       `json:"businessCount"`
	ID            uint      `json:"id"`
}

// BusinessType is a per-category rollup with the same recompute-and-overwrite
// lifecycle as Location.
type BusinessType struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	BusinessCount int    `json:"businessCount"`
	ID            uint   `json:"id"`
}

// ImportMetadata is the singleton record describing the last successful
// import pass. Exactly one row exists, identified by MetadataRowID.
type ImportMetadata struct {
	LastImportAt    time.Time `json:"lastImportAt"`
	SourceURL       string    `json:"sourceUrl"`
	RecordsImported int       `json:"recordsImported"`
}

// MetadataRowID is the fixed primary key of the import_metadata singleton.
const MetadataRowID = 1
