// Package rank selects which tokens make the root post and which make
// the reply. Pure: no I/O, no randomness.
package rank

import (
	"sort"

	"github.com/radar-fun/most-called-bot/internal/model"
)

// Select filters records by minimum win rate, keeps the top topN by
// call count, and splits them into the root-post batch (first firstN)
// and the reply batch (next secondN).
//
// The upstream claims to return records sorted by call volume, but
// nothing enforces that, so Select re-sorts descending by call count
// first. The sort is stable: ties keep source order.
func Select(records []model.TokenRecord, minWinRate float64, topN, firstN, secondN int) (first, second []model.TokenRecord) {
	sorted := make([]model.TokenRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CallCount > sorted[j].CallCount
	})

	pool := make([]model.TokenRecord, 0, len(sorted))
	for _, r := range sorted {
		if topN >= 0 && len(pool) >= topN {
			break
		}
		if r.WinRate < minWinRate {
			continue
		}
		pool = append(pool, r)
	}

	if firstN < 0 {
		firstN = 0
	}
	if secondN < 0 {
		secondN = 0
	}
	if firstN > len(pool) {
		firstN = len(pool)
	}
	first = pool[:firstN]

	end := firstN + secondN
	if end > len(pool) {
		end = len(pool)
	}
	second = pool[firstN:end]
	return first, second
}
