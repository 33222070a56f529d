package params

import (
	"regexp"
	"strconv"
	"strings"
)

// MediaTypesKey is never persisted from edited cell text.
const MediaTypesKey = "mediatypes"

var (
	integerPattern = regexp.MustCompile(`^-?[0-9]+$`)
	lineBreak      = regexp.MustCompile(`\r\n|\r|\n`)
)

// Decode parses the editable "key: value" text of a cell.
//
// Blank text yields Absent, which callers treat as a request to delete the
// mapping. Lines without a colon or with an empty key are skipped, as is any
// mediatypes line. Values made only of an optional minus sign and digits are
// stored as integers; everything else is kept as a string.
func Decode(text string) Params {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Absent()
	}

	var m Mapping
	for _, raw := range lineBreak.Split(trimmed, -1) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		keyRaw, valueRaw, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key := strings.TrimSpace(keyRaw)
		if key == "" || strings.EqualFold(key, MediaTypesKey) {
			continue
		}
		m.Set(key, coerce(strings.TrimSpace(valueRaw)))
	}
	return FromMapping(m)
}

func coerce(value string) Value {
	if integerPattern.MatchString(value) {
		// values beyond int64 stay strings rather than losing precision
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return Int(n)
		}
	}
	return String(value)
}

// Encode renders params as one "key: value" line per entry in entry order,
// joined by newlines. Absent and empty params render as "". A mediatypes key
// present in stored params is shown even though Decode drops it.
func Encode(p Params) string {
	if p.State() != StatePresent {
		return ""
	}
	entries := p.Mapping().Entries()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Key+": "+e.Value.String())
	}
	return strings.Join(lines, "\n")
}
