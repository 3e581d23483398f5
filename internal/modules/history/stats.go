package history

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the distribution of period-over-period share-price
// returns across a snapshot series.
type Stats struct {
	Count        int     `json:"count"`
	LatestPrice  float64 `json:"latest_price"`
	MeanReturn   float64 `json:"mean_return"`
	StdDevReturn float64 `json:"stddev_return"`
	MinReturn    float64 `json:"min_return"`
	MaxReturn    float64 `json:"max_return"`
}

// ComputeStats derives return statistics from snapshots ordered oldest to
// newest. Periods starting at a zero price are skipped (an empty fund has no
// meaningful return).
func ComputeStats(snapshots []Snapshot) Stats {
	stats := Stats{Count: len(snapshots)}
	if len(snapshots) == 0 {
		return stats
	}
	stats.LatestPrice = snapshots[len(snapshots)-1].SharePrice

	var returns []float64
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].SharePrice
		if prev == 0 {
			continue
		}
		returns = append(returns, snapshots[i].SharePrice/prev-1)
	}
	if len(returns) == 0 {
		return stats
	}

	stats.MeanReturn = stat.Mean(returns, nil)
	if len(returns) > 1 {
		stats.StdDevReturn = stat.StdDev(returns, nil)
	}

	stats.MinReturn = math.Inf(1)
	stats.MaxReturn = math.Inf(-1)
	for _, r := range returns {
		stats.MinReturn = math.Min(stats.MinReturn, r)
		stats.MaxReturn = math.Max(stats.MaxReturn, r)
	}
	return stats
}
