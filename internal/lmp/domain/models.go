package domain

import "errors"

// MonthlyRecord is one aggregated day-ahead LMP data point for a
// (iso, zone, year, month) key. Year and month stay strings because
// the portal documents store them zero-padded ("2025", "01") and sort
// them lexicographically.
type MonthlyRecord struct {
	Iso         string  `json:"iso"`
	Zone        string  `json:"zone"`
	Year        string  `json:"year"`
	Month       string  `json:"month"`
	AvgDaLmp    float64 `json:"avg_da_lmp"`
	MinDaLmp    float64 `json:"min_da_lmp"`
	MaxDaLmp    float64 `json:"max_da_lmp"`
	RecordCount int     `json:"record_count"`
}

// Key identifies the record within the monthly document.
func (r MonthlyRecord) Key() MonthlyKey {
	return MonthlyKey{Iso: r.Iso, Zone: r.Zone, Year: r.Year, Month: r.Month}
}

type MonthlyKey struct {
	Iso   string
	Zone  string
	Year  string
	Month string
}

// HourlyPrice is one hourly day-ahead price point inside a month
// block.
type HourlyPrice struct {
	Timestamp string  `json:"timestamp"`
	Price     float64 `json:"price"`
	Zone      string  `json:"zone"`
}

// HourlyDatabase maps iso -> "YYYY-MM" -> price block. Blocks are the
// unit of replacement; individual prices are never merged.
type HourlyDatabase map[string]map[string][]HourlyPrice

// MergeStats counts what a merge run did.
type MergeStats struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// Total returns the number of incoming units examined.
func (s MergeStats) Total() int {
	return s.Added + s.Updated + s.Unchanged + s.Skipped
}

var (
	ErrFetchFailed = errors.New("fetch_failed")
	ErrSyncFailed  = errors.New("sync_failed")
)
