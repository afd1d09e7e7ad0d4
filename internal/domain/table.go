package domain

import "strings"

// Record is one parsed row of a tabular feed, keyed by header name.
// All values stay raw strings; numeric interpretation is the caller's job.
type Record map[string]string

// ParseTable converts comma-separated text with a header row into records.
// Fields are trimmed of surrounding whitespace. Input with fewer than two
// non-empty lines yields an empty slice, not an error. Rows shorter than
// the header produce partial records with the trailing keys absent.
//
// Quoted fields are not supported: the published dataset never embeds
// commas, so a field containing one would silently misalign columns.
func ParseTable(text string) []Record {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return nil
	}

	headers := splitFields(lines[0])
	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitFields(line)
		rec := make(Record, len(headers))
		for i, h := range headers {
			if i >= len(values) {
				break
			}
			rec[h] = values[i]
		}
		records = append(records, rec)
	}
	return records
}

func splitFields(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r"), ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
