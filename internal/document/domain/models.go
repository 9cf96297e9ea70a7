package domain

import (
	"errors"
	"fmt"
)

// Record is one element of an array-typed document. Documents impose
// no schema, so records stay generic key/value maps.
type Record = map[string]any

// Audit fields stamped onto records by the gateway.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldCreatedBy = "createdBy"
	FieldUpdatedAt = "updatedAt"
	FieldUpdatedBy = "updatedBy"
)

// IDFields is the ordered list of legacy identifier field names a
// record may carry. Lookup consults them in priority order.
var IDFields = []string{"id", "_id", "profileId"}

var (
	ErrNotFound = errors.New("not_found")
	// ErrNotArray reports a record-level operation against a document
	// that is not an array.
	ErrNotArray = errors.New("not_array")
)

// MatchesID reports whether any of the record's identifier fields
// equals id.
func MatchesID(rec Record, id string) bool {
	for _, field := range IDFields {
		value, ok := rec[field]
		if !ok || value == nil {
			continue
		}
		if stringify(value) == id {
			return true
		}
	}
	return false
}

// FindRecord returns the index of the first record matching id.
// When several records share an id the first index wins.
func FindRecord(records []Record, id string) (int, bool) {
	for i, rec := range records {
		if MatchesID(rec, id) {
			return i, true
		}
	}
	return 0, false
}

// RemoveRecords filters out every record matching id, not just the
// first. The asymmetry with FindRecord is intentional and load-bearing
// for duplicate cleanup.
func RemoveRecords(records []Record, id string) ([]Record, bool) {
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if MatchesID(rec, id) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept, len(kept) != len(records)
}

// RecordID returns the record's identifier from the first populated
// identifier field, or "" when none is set.
func RecordID(rec Record) string {
	for _, field := range IDFields {
		value, ok := rec[field]
		if !ok || value == nil {
			continue
		}
		if s := stringify(value); s != "" {
			return s
		}
	}
	return ""
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
