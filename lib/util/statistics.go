// Package util
//
// This file implements summary statistics over a list of samples. The expiring map
// uses them to describe how keys are spread over its expiration buckets: many keys
// sharing few buckets means the reclaimer evicts in large batches, a min/max ratio
// close to 1 means the deadlines are evenly spread.
package util

import (
	"math"
)

// Stats summarizes a list of samples
type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes mean, standard deviation, minimum and maximum of values.
// An empty input yields the zero Stats.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	lo, hi := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	// population variance
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	ratio := 1.0
	if hi > 0 {
		ratio = lo / hi
	}

	return Stats{
		StdDeviation: math.Sqrt(sq / float64(len(values))),
		Min:          lo,
		Max:          hi,
		Mean:         mean,
		MinMaxRatio:  ratio,
	}
}

// DistributionStats extends Stats with a single quality score in [0, 1]
type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats computes how evenly values are distributed.
// The quality combines the coefficient of variation and the min/max ratio,
// 1 means every sample has the same value.
func NewDistributionStats(values []float64) DistributionStats {
	stats := NewStats(values)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}
