package importer

import (
	"strconv"

	"github.com/oktoeat/api/internal/models"
)

// Column names of the FHRS bulk CSV. Columns are addressed by header name,
// never by position, because the feed occasionally reorders them.
const (
	colFHRSID         = "FHRSID"
	colBusinessName   = "BusinessName"
	colBusinessType   = "BusinessType"
	colAddressLine1   = "AddressLine1"
	colAddressLine2   = "AddressLine2"
	colAddressLine3   = "AddressLine3"
	colAddressLine4   = "AddressLine4"
	colPostcode       = "PostCode"
	colRatingValue    = "RatingValue"
	colRatingKey      = "RatingKey"
	colRatingDate     = "RatingDate"
	colLocalAuthority = "LocalAuthorityName"
	colLongitude      = "Longitude"
	colLatitude       = "Latitude"
)

// RecordMapper turns a tokenized data row into a derived Business record,
// applying the Normalizer for towns, slugs and ratings.
type RecordMapper struct {
	norm *Normalizer
}

// NewRecordMapper creates a RecordMapper using the given Normalizer.
func NewRecordMapper(norm *Normalizer) *RecordMapper {
	return &RecordMapper{norm: norm}
}

// Map builds a Business from the header row and one data row's fields.
// Missing trailing fields default to the empty string. Rows lacking an
// external identifier or a business name return nil: they are skipped
// silently by policy, not reported as errors.
func (m *RecordMapper) Map(headers, values []string) *models.Business {
	record := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(values) {
			record[header] = values[i]
		} else {
			record[header] = ""
		}
	}

	fhrsID := record[colFHRSID]
	name := record[colBusinessName]
	if fhrsID == "" || name == "" {
		return nil
	}

	line1 := record[colAddressLine1]
	line2 := record[colAddressLine2]
	line3 := record[colAddressLine3]
	line4 := record[colAddressLine4]
	postcode := record[colPostcode]
	businessType := record[colBusinessType]

	business := &models.Business{
		FHRSID:         fhrsID,
		Name:           name,
		AddressLine1:   optionalString(line1),
		AddressLine2:   optionalString(line2),
		AddressLine3:   optionalString(line3),
		AddressLine4:   optionalString(line4),
		Postcode:       optionalString(postcode),
		Latitude:       optionalFloat(record[colLatitude]),
		Longitude:      optionalFloat(record[colLongitude]),
		Rating:         ParseRating(record[colRatingValue]),
		RatingKey:      optionalString(record[colRatingKey]),
		RatingDate:     optionalString(record[colRatingDate]),
		BusinessType:   optionalString(businessType),
		LocalAuthority: optionalString(record[colLocalAuthority]),
	}

	town := m.norm.ExtractTown(line1, line2, line3, line4)
	if town != "" {
		townSlug := m.norm.Slugify(town)
		business.Town = &town
		business.TownSlug = optionalString(townSlug)
	}

	business.Slug = m.norm.BusinessSlug(name, town, postcode)

	if businessType != "" {
		business.BusinessTypeSlug = optionalString(m.norm.Slugify(businessType))
	}

	return business
}

// optionalString maps the feed's empty strings to NULL.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optionalFloat maps empty or unparseable numeric fields to NULL.
func optionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
