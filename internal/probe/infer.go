package probe

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// readCSVSample parses CSV bytes into a header row and the data rows whose
// field count matches the header. Other rows are skipped.
func readCSVSample(data []byte, delimiter rune) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, nil, err
	}

	rows := make([][]string, 0, 64)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return headers, rows, err
		}
		if len(rec) != len(headers) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
	return headers, rows, nil
}

// inferTypes labels each column "integer", "float" or "text", the only
// distinctions a falcon config acts on. Empty cells are ignored; a column
// with no values is text.
func inferTypes(headers []string, rows [][]string) []string {
	out := make([]string, len(headers))
	for col := range headers {
		var seen bool
		allInt, allFloat := true, true

		for _, r := range rows {
			v := strings.TrimSpace(r[col])
			if v == "" {
				continue
			}
			seen = true

			if allInt {
				if _, err := strconv.ParseInt(v, 10, 64); err != nil {
					allInt = false
				}
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
				break
			}
		}

		switch {
		case !seen || !allFloat:
			out[col] = "text"
		case allInt:
			out[col] = "integer"
		default:
			out[col] = "float"
		}
	}
	return out
}

// normalizeFieldName converts a header into a lowercase snake_case
// identifier. Characters outside [a-z0-9_] are dropped.
func normalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '/' || r == '\\' || r == ':' || r == ';':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		}
	}
	return strings.Trim(b.String(), "_")
}

// truncateFieldName caps identifiers at 63 bytes, the Postgres limit,
// cutting on a UTF-8 boundary.
func truncateFieldName(s string) string {
	const maxLen = 63
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.ValidString(s[:cut]) {
		cut--
	}
	return s[:cut]
}
