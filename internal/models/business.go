package models

import (
	"time"
)

// Business represents a single food establishment from the FHRS open-data feed.
// All nullable fields use pointers to distinguish between zero values and NULL.
// The slug is the natural key: it is derived deterministically from the name,
// town and outward postcode, and upserts are keyed on it.
type Business struct {
	UpdatedAt        time.Time `json:"updatedAt"`
	FHRSID           string    `json:"fhrsId"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	AddressLine1     *string   `json:"addressLine1,omitempty"`
	AddressLine2     *string   `json:"addressLine2,omitempty"`
	AddressLine3     *string   `json:"addressLine3,omitempty"`
	AddressLine4     *string   `json:"addressLine4,omitempty"`
	Postcode         *string   `json:"postcode,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	Rating           *int      `json:"rating,omitempty"`
	RatingKey        *string   `json:"ratingKey,omitempty"`
	RatingDate       *string   `json:"ratingDate,omitempty"`
	BusinessType     *string   `json:"businessType,omitempty"`
	BusinessTypeSlug *string   `json:"businessTypeSlug,omitempty"`
	LocalAuthority   *string   `json:"localAuthority,omitempty"`
	Town             *string   `json:"town,omitempty"`
	TownSlug         *string   `json:"townSlug,omitempty"`
	ID               uint      `json:"id"`
}
