package mirror

import (
	"encoding/json"
	"fmt"
)

// Collection names one of the independently syncable top-level collections.
type Collection string

const (
	Ledger          Collection = "ledger"
	WorkOrders      Collection = "workOrders"
	Clients         Collection = "clients"
	CatalogParts    Collection = "catalogParts"
	CatalogServices Collection = "catalogServices"
)

// Collections lists every syncable collection in sync order.
var Collections = []Collection{Ledger, WorkOrders, Clients, CatalogParts, CatalogServices}

func ParseCollection(s string) (Collection, error) {
	for _, c := range Collections {
		if string(c) == s {
			return c, nil
		}
	}

	return "", fmt.Errorf("unknown collection %q", s)
}

// Record is one document of a remote collection. Key is unique within the
// collection; Data is the JSON of the local value.
type Record struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// NewRecord marshals v into a record.
func NewRecord(key string, v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encoding record %s: %w", key, err)
	}

	return Record{Key: key, Data: data}, nil
}

// Decode unmarshals every record into a slice of T, preserving order.
func Decode[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))

	for _, r := range records {
		var v T
		if err := json.Unmarshal(r.Data, &v); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", r.Key, err)
		}

		out = append(out, v)
	}

	return out, nil
}
