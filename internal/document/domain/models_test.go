package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRecordConsultsLegacyIDFields(t *testing.T) {
	records := []Record{
		{"_id": "legacy-1", "name": "a"},
		{"profileId": "prof-1", "name": "b"},
		{"id": "rec-1", "name": "c"},
	}

	idx, found := FindRecord(records, "legacy-1")
	require.True(t, found)
	assert.Equal(t, 0, idx)

	idx, found = FindRecord(records, "prof-1")
	require.True(t, found)
	assert.Equal(t, 1, idx)

	idx, found = FindRecord(records, "rec-1")
	require.True(t, found)
	assert.Equal(t, 2, idx)

	_, found = FindRecord(records, "missing")
	assert.False(t, found)
}

func TestFindRecordFirstMatchWins(t *testing.T) {
	records := []Record{
		{"id": "dup", "name": "first"},
		{"id": "dup", "name": "second"},
	}
	idx, found := FindRecord(records, "dup")
	require.True(t, found)
	assert.Equal(t, 0, idx)
}

func TestFindRecordNumericID(t *testing.T) {
	// JSON decoding turns numeric ids into float64; lookup still
	// matches on their string form.
	records := []Record{{"id": float64(42), "name": "n"}}
	_, found := FindRecord(records, "42")
	assert.True(t, found)
}

func TestRemoveRecordsRemovesAllMatches(t *testing.T) {
	records := []Record{
		{"id": "dup", "name": "first"},
		{"id": "keep"},
		{"_id": "dup", "name": "second"},
	}

	kept, removed := RemoveRecords(records, "dup")
	require.True(t, removed)
	require.Len(t, kept, 1)
	assert.Equal(t, "keep", kept[0]["id"])

	same, removed := RemoveRecords(kept, "dup")
	assert.False(t, removed)
	assert.Len(t, same, 1)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "a", RecordID(Record{"id": "a", "_id": "b"}))
	assert.Equal(t, "b", RecordID(Record{"_id": "b"}))
	assert.Equal(t, "c", RecordID(Record{"profileId": "c"}))
	assert.Equal(t, "", RecordID(Record{"name": "n"}))
	assert.Equal(t, "", RecordID(Record{"id": nil}))
}
