package importer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultCounties lists the English/Welsh county names (plus the
// compass-qualified Yorkshire and Sussex variants) that must never be
// mistaken for a town when walking the address lines. Callers can inject a
// different list through NewNormalizer; tests use a tiny synthetic one.
var DefaultCounties = []string{
	"bedfordshire", "berkshire", "buckinghamshire", "cambridgeshire",
	"cheshire", "cornwall", "cumbria", "derbyshire", "devon", "dorset",
	"durham", "essex", "gloucestershire", "hampshire", "herefordshire",
	"hertfordshire", "kent", "lancashire", "leicestershire", "lincolnshire",
	"norfolk", "northamptonshire", "northumberland", "nottinghamshire",
	"oxfordshire", "shropshire", "somerset", "staffordshire", "suffolk",
	"surrey", "sussex", "warwickshire", "wiltshire", "worcestershire",
	"yorkshire", "east sussex", "west sussex", "north yorkshire",
	"south yorkshire", "west yorkshire", "east yorkshire",
}

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	hyphenRunPattern  = regexp.MustCompile(`-+`)
	// UK postcode shape: 1-2 letters, 1-2 digits, optional space, digit, 2 letters.
	postcodePattern = regexp.MustCompile(`(?i)^[A-Z]{1,2}[0-9]{1,2}\s*[0-9][A-Z]{2}$`)
)

// Normalizer derives slugs, towns and ratings from raw feed values. It is
// stateless apart from the injected county list and safe for reuse across
// import passes.
type Normalizer struct {
	counties map[string]struct{}
}

// NewNormalizer builds a Normalizer that rejects the given county names
// during town extraction. Matching is case-insensitive on trimmed input.
func NewNormalizer(counties []string) *Normalizer {
	set := make(map[string]struct{}, len(counties))
	for _, county := range counties {
		set[strings.ToLower(strings.TrimSpace(county))] = struct{}{}
	}
	return &Normalizer{counties: set}
}

// Slugify converts arbitrary text to a URL-friendly slug: lowercase, trimmed,
// non-word characters removed, whitespace runs collapsed to single hyphens.
// An all-punctuation input yields the empty string; callers must treat that
// as "no derivable value". Note that \w is ASCII here, so accented letters
// are stripped rather than transliterated ("Café" becomes "caf").
func (n *Normalizer) Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = nonWordPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, "-")
	s = hyphenRunPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// BusinessSlug builds the unique slug for a business from its name, resolved
// town and postcode. The outward code (the first space-delimited postcode
// token, e.g. "SW1A" from "SW1A 1AA") disambiguates same-named chains within
// one town without requiring geocoding.
func (n *Normalizer) BusinessSlug(name, town, postcode string) string {
	parts := []string{name}
	if town != "" {
		parts = append(parts, town)
	}
	if postcode != "" {
		if outward, _, _ := strings.Cut(strings.TrimSpace(postcode), " "); outward != "" {
			parts = append(parts, outward)
		}
	}
	return n.Slugify(strings.Join(parts, " "))
}

// LooksLikePostcode reports whether the trimmed text matches the UK postcode
// shape, case-insensitively and as a full-string match.
func (n *Normalizer) LooksLikePostcode(text string) bool {
	return postcodePattern.MatchString(strings.TrimSpace(text))
}

// LooksLikeCounty reports whether the trimmed text is one of the injected
// county names.
func (n *Normalizer) LooksLikeCounty(text string) bool {
	_, ok := n.counties[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// ExtractTown picks the town out of the four free-text address lines. The
// feed is inconsistent about which line holds the town, but line 1 is almost
// always the street address, so candidates are tried in the order line 4,
// line 3, line 2. A candidate is accepted when its trimmed length exceeds one
// character and it looks like neither a postcode nor a county. Returns the
// empty string when no line qualifies.
//
// The probe order and the two reject filters are load-bearing: reordering
// them changes the resolved town for a large share of real rows.
func (n *Normalizer) ExtractTown(line1, line2, line3, line4 string) string {
	_ = line1

	for _, line := range []string{line4, line3, line2} {
		town := strings.TrimSpace(line)
		if utf8.RuneCountInString(town) <= 1 {
			continue
		}
		if n.LooksLikePostcode(town) || n.LooksLikeCounty(town) {
			continue
		}
		return town
	}
	return ""
}

// ParseRating parses a raw RatingValue into an integer rating. Non-numeric
// scheme codes ("AwaitingInspection", "Exempt", "Pass", ...) and integers
// outside [0,5] yield nil, meaning "not currently rated".
func ParseRating(value string) *int {
	rating, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || rating < 0 || rating > 5 {
		return nil
	}
	return &rating
}
