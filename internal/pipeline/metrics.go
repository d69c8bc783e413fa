package pipeline

import (
	"fmt"
	"math"

	"stereo-depth/internal/algorithms/stereo"
	"stereo-depth/internal/models"
)

// DisparityStats summarises a normalized disparity map.
type DisparityStats struct {
	Min      float64
	Max      float64
	Mean     float64
	Coverage float64 // fraction of pixels with a non-zero disparity
}

func Summarize(disparity *models.Image) (DisparityStats, error) {
	if disparity == nil || disparity.NumPixels() == 0 {
		return DisparityStats{}, fmt.Errorf("disparity map is empty")
	}

	ch := disparity.Channel(0)
	stats := DisparityStats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	var nonZero int

	for _, v := range ch {
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
		sum += v
		if v != 0 {
			nonZero++
		}
	}

	stats.Mean = sum / float64(len(ch))
	stats.Coverage = float64(nonZero) / float64(len(ch))
	return stats, nil
}

// AccuracyMetrics compares a computed map against a ground-truth map,
// both in disparity pixels after scaling by maxDisparity.
type AccuracyMetrics struct {
	RMSE float64
	// BadPixels is the fraction of pixels off by more than the threshold.
	BadPixels float64
	Threshold float64
}

// CompareDisparity scores result against truth. Both maps are normalized to
// [0,1]; maxDisparity converts them back to pixels.
func CompareDisparity(result, truth *models.Image, maxDisparity int, threshold float64) (AccuracyMetrics, error) {
	if result == nil || truth == nil {
		return AccuracyMetrics{}, fmt.Errorf("result and ground truth are required")
	}
	if !result.SameSize(truth) {
		return AccuracyMetrics{}, fmt.Errorf("%w: result %dx%d, ground truth %dx%d", stereo.ErrDimensionMismatch,
			result.Width(), result.Height(), truth.Width(), truth.Height())
	}
	if result.NumPixels() == 0 {
		return AccuracyMetrics{}, fmt.Errorf("disparity map is empty")
	}

	scale := float64(maxDisparity)
	got := result.Channel(0)
	want := truth.Channel(0)

	var squared float64
	var bad int
	for i := range got {
		diff := (got[i] - want[i]) * scale
		squared += diff * diff
		if math.Abs(diff) > threshold {
			bad++
		}
	}

	n := float64(len(got))
	return AccuracyMetrics{
		RMSE:      math.Sqrt(squared / n),
		BadPixels: float64(bad) / n,
		Threshold: threshold,
	}, nil
}
