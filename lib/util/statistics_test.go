package util

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewStats(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if s := NewStats(nil); s != (Stats{}) {
			t.Errorf("NewStats(nil) = %+v, want zero value", s)
		}
	})

	t.Run("Values", func(t *testing.T) {
		s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		if !almostEqual(s.Mean, 5) {
			t.Errorf("Mean = %f, want 5", s.Mean)
		}
		if !almostEqual(s.StdDeviation, 2) {
			t.Errorf("StdDeviation = %f, want 2", s.StdDeviation)
		}
		if s.Min != 2 || s.Max != 9 {
			t.Errorf("Min/Max = %f/%f, want 2/9", s.Min, s.Max)
		}
		if !almostEqual(s.MinMaxRatio, 2.0/9.0) {
			t.Errorf("MinMaxRatio = %f, want %f", s.MinMaxRatio, 2.0/9.0)
		}
	})
}

func TestNewDistributionStats(t *testing.T) {
	even := NewDistributionStats([]float64{3, 3, 3, 3})
	if !almostEqual(even.DistributionQuality, 1) {
		t.Errorf("uniform distribution quality = %f, want 1", even.DistributionQuality)
	}

	skewed := NewDistributionStats([]float64{1, 1, 1, 100})
	if skewed.DistributionQuality >= even.DistributionQuality {
		t.Errorf("skewed quality %f should be below uniform quality %f",
			skewed.DistributionQuality, even.DistributionQuality)
	}
}
