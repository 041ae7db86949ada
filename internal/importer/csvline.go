package importer

import (
	"strings"
)

// ParseCSVLine tokenizes exactly one physical CSV line into its ordered
// fields. Double-quoted fields may contain commas, and a doubled quote inside
// a quoted field decodes to a literal quote. A field is always appended after
// the final comma, so a trailing comma yields a trailing empty field.
//
// Fields containing literal newlines are not supported: the importer streams
// the feed line by line, and the FHRS export does not use embedded newlines.
func ParseCSVLine(line string) []string {
	fields := make([]string, 0, 16)
	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(ch)
		}
	}

	fields = append(fields, field.String())
	return fields
}
