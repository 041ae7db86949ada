package importer

import (
	"sort"

	"github.com/oktoeat/api/internal/models"
)

// Aggregator accumulates per-town and per-type running statistics during a
// single import pass. Both maps are keyed by slug and live only for the
// duration of one pass; they are flushed to the store and discarded.
type Aggregator struct {
	locations map[string]*locationStats
	types     map[string]*typeStats
}

type locationStats struct {
	name       string
	count      int
	ratingSum  int
	ratedCount int
}

type typeStats struct {
	name  string
	count int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		locations: make(map[string]*locationStats),
		types:     make(map[string]*typeStats),
	}
}

// Observe folds one mapped business into the running statistics. Businesses
// without a resolved town or type simply do not contribute to the respective
// rollup.
func (a *Aggregator) Observe(b *models.Business) {
	if b.TownSlug != nil && b.Town != nil {
		stats := a.locations[*b.TownSlug]
		if stats == nil {
			stats = &locationStats{name: *b.Town}
			a.locations[*b.TownSlug] = stats
		}
		stats.count++
		if b.Rating != nil {
			stats.ratingSum += *b.Rating
			stats.ratedCount++
		}
	}

	if b.BusinessTypeSlug != nil && b.BusinessType != nil {
		stats := a.types[*b.BusinessTypeSlug]
		if stats == nil {
			stats = &typeStats{name: *b.BusinessType}
			a.types[*b.BusinessTypeSlug] = stats
		}
		stats.count++
	}
}

// Locations returns the per-town rollups, sorted by slug so that batch
// submission order is deterministic.
func (a *Aggregator) Locations() []models.Location {
	rollups := make([]models.Location, 0, len(a.locations))
	for slug, stats := range a.locations {
		loc := models.Location{
			Name:          stats.name,
			Slug:          slug,
			BusinessCount: stats.count,
		}
		if stats.ratedCount > 0 {
			avg := float64(stats.ratingSum) / float64(stats.ratedCount)
			loc.AvgRating = &avg
		}
		rollups = append(rollups, loc)
	}
	sort.Slice(rollups, func(i, j int) bool { return rollups[i].Slug < rollups[j].Slug })
	return rollups
}

// Types returns the per-category rollups, sorted by slug.
func (a *Aggregator) Types() []models.BusinessType {
	rollups := make([]models.BusinessType, 0, len(a.types))
	for slug, stats := range a.types {
		rollups = append(rollups, models.BusinessType{
			Name:          stats.name,
			Slug:          slug,
			BusinessCount: stats.count,
		})
	}
	sort.Slice(rollups, func(i, j int) bool { return rollups[i].Slug < rollups[j].Slug })
	return rollups
}
