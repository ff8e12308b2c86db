package mirror

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/PaesslerAG/jsonpath"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidField reports whether field is a plain, optionally dotted, name that
// is safe to use as an order field.
func ValidField(field string) bool {
	return fieldPattern.MatchString(field)
}

// SortValue extracts field from the record data. Nested fields use dots
// ("checklist.fuelLevel"). A missing field yields nil.
func SortValue(r Record, field string) (any, error) {
	if field == "" {
		return r.Key, nil
	}

	if !ValidField(field) {
		return nil, fmt.Errorf("invalid order field %q", field)
	}

	var doc any
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", r.Key, err)
	}

	// The field is syntactically valid, so a lookup error means it is absent.
	v, err := jsonpath.Get("$."+field, doc)
	if err != nil {
		return nil, nil
	}

	return v, nil
}

// SortKey renders a sort value as a string whose byte order matches the
// value order for non-negative numbers and strings.
func SortKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%021.6f", x)
	case string:
		return x
	case bool:
		if x {
			return "1"
		}

		return "0"
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

// RecordSortKey is SortKey(SortValue(r, field)); unreadable values sort
// first.
func RecordSortKey(r Record, field string) string {
	v, err := SortValue(r, field)
	if err != nil {
		return ""
	}

	return SortKey(v)
}
