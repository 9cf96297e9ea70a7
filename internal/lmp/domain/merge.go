package domain

import (
	"math"
	"sort"
)

// Epsilon is the tolerance below which two average prices count as
// equal. Upstream feeds round differently from run to run.
const Epsilon = 0.0001

// MergeMonthly folds incoming monthly records into existing ones.
// Records are added or overwritten, never removed. A zero-valued
// incoming average never overwrites a non-zero existing one; partial
// upstream fetches report zeros for months they failed to cover, and
// regressing good data is worse than running stale.
func MergeMonthly(existing, incoming []MonthlyRecord) ([]MonthlyRecord, MergeStats) {
	merged := make([]MonthlyRecord, len(existing))
	copy(merged, existing)

	index := make(map[MonthlyKey]int, len(merged))
	for i, rec := range merged {
		index[rec.Key()] = i
	}

	var stats MergeStats
	for _, inc := range incoming {
		i, ok := index[inc.Key()]
		if !ok {
			index[inc.Key()] = len(merged)
			merged = append(merged, inc)
			stats.Added++
			continue
		}
		cur := merged[i]
		if inc.AvgDaLmp == 0 && cur.AvgDaLmp != 0 {
			stats.Unchanged++
			continue
		}
		if math.Abs(cur.AvgDaLmp-inc.AvgDaLmp) > Epsilon {
			merged[i] = inc
			stats.Updated++
			continue
		}
		stats.Unchanged++
	}

	sort.Slice(merged, func(a, b int) bool {
		ra, rb := merged[a], merged[b]
		if ra.Zone != rb.Zone {
			return ra.Zone < rb.Zone
		}
		if ra.Year != rb.Year {
			return ra.Year < rb.Year
		}
		return ra.Month < rb.Month
	})

	return merged, stats
}

// MergeHourly folds incoming month blocks into the existing database.
// Replacement is all-or-nothing per (iso, year-month) key: a block
// with at least one non-zero price wholly replaces the stored block,
// an all-zero block is skipped as a suspected bad fetch, and keys not
// present in the incoming payload are never touched.
func MergeHourly(existing, incoming HourlyDatabase) (HourlyDatabase, MergeStats) {
	merged := make(HourlyDatabase, len(existing))
	for iso, months := range existing {
		cloned := make(map[string][]HourlyPrice, len(months))
		for ym, block := range months {
			cloned[ym] = block
		}
		merged[iso] = cloned
	}

	var stats MergeStats
	for iso, months := range incoming {
		for ym, block := range months {
			if allZero(block) {
				stats.Skipped++
				continue
			}
			if merged[iso] == nil {
				merged[iso] = make(map[string][]HourlyPrice)
			}
			if _, ok := merged[iso][ym]; ok {
				stats.Updated++
			} else {
				stats.Added++
			}
			merged[iso][ym] = block
		}
	}

	return merged, stats
}

func allZero(block []HourlyPrice) bool {
	for _, p := range block {
		if p.Price != 0 {
			return false
		}
	}
	return true
}
