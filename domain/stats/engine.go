package stats

import (
	"math"
	"sort"

	"hisoutlier/domain/core"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

const (
	// MADScale is the consistency constant relating the median absolute
	// deviation to the standard deviation of a normal distribution.
	MADScale = 1.4826

	// MADZScoreFactor is 1/MADScale as used in the modified z-score.
	MADZScoreFactor = 0.6745
)

// Summary holds the dispersion statistics of one baseline group.
type Summary struct {
	Count              int
	Mean               float64
	StdDev             float64
	Median             float64
	MedianAbsDeviation float64
	Min                float64
	Max                float64
}

// Mean returns the arithmetic mean of the sample.
func Mean(sample []float64) (float64, error) {
	return mstats.Mean(sample)
}

// PopulationStdDev returns the standard deviation dividing by N, matching
// SQL stddev_pop.
func PopulationStdDev(sample []float64) (float64, error) {
	return mstats.StandardDeviationPopulation(sample)
}

// MedianDisc returns the discrete median: the first element of the sorted
// sample whose cumulative share reaches one half. For even-sized samples
// that is the lower middle element, never an interpolation.
func MedianDisc(sample []float64) (float64, error) {
	if len(sample) == 0 {
		return math.NaN(), mstats.ErrEmptyInput
	}
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil), nil
}

// MedianAbsDeviation returns the discrete median of |x - median|.
func MedianAbsDeviation(sample []float64) (float64, error) {
	median, err := MedianDisc(sample)
	if err != nil {
		return math.NaN(), err
	}
	return medianAbsDeviationAround(sample, median)
}

func medianAbsDeviationAround(sample []float64, median float64) (float64, error) {
	deviations := make([]float64, len(sample))
	for i, x := range sample {
		deviations[i] = math.Abs(x - median)
	}
	return MedianDisc(deviations)
}

// ZScore returns |value - mean| / stdDev.
func ZScore(value, mean, stdDev float64) (float64, error) {
	if stdDev == 0 {
		return 0, core.ErrZeroDispersion
	}
	return math.Abs(value-mean) / stdDev, nil
}

// ModifiedZScore returns |value - median| / stdDev. The denominator is the
// population standard deviation of the baseline group.
func ModifiedZScore(value, median, stdDev float64) (float64, error) {
	if stdDev == 0 {
		return 0, core.ErrZeroDispersion
	}
	return math.Abs(value-median) / stdDev, nil
}

// MADModifiedZScore returns 0.6745 * |value - median| / mad.
func MADModifiedZScore(value, median, mad float64) (float64, error) {
	if mad == 0 {
		return 0, core.ErrZeroDispersion
	}
	return MADZScoreFactor * math.Abs(value-median) / mad, nil
}

// Bounds returns middle -/+ threshold*dispersion.
func Bounds(middle, dispersion, threshold float64) (lower, upper float64) {
	return middle - threshold*dispersion, middle + threshold*dispersion
}

// DistanceFromRange returns how far value lies outside [min, max] measured
// from the nearest bound; values inside the range have distance 0.
func DistanceFromRange(value, min, max float64) float64 {
	if value >= min && value <= max {
		return 0
	}
	return math.Min(math.Abs(value-min), math.Abs(value-max))
}

// Summarize computes every statistic of the sample in one call.
func Summarize(sample []float64) (Summary, error) {
	var s Summary
	if len(sample) == 0 {
		return s, mstats.ErrEmptyInput
	}

	var err error
	s.Count = len(sample)
	if s.Mean, err = Mean(sample); err != nil {
		return s, err
	}
	if s.StdDev, err = PopulationStdDev(sample); err != nil {
		return s, err
	}
	if s.Median, err = MedianDisc(sample); err != nil {
		return s, err
	}
	if s.MedianAbsDeviation, err = medianAbsDeviationAround(sample, s.Median); err != nil {
		return s, err
	}
	if s.Min, err = mstats.Min(sample); err != nil {
		return s, err
	}
	if s.Max, err = mstats.Max(sample); err != nil {
		return s, err
	}
	// A constant sample has no spread even when the float mean drifts off
	// the value by an ulp.
	if s.Min == s.Max {
		s.StdDev, s.MedianAbsDeviation = 0, 0
	}
	return s, nil
}
