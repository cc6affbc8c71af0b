package numerics

import "math"

// percentileBuckets is the histogram resolution used for calibration's
// percentile estimate. Calibration runs once per loaded file on a
// downsampled buffer, so the cost of a 4096-bucket histogram is
// negligible; this is never called per-frame.
const percentileBuckets = 4096

// Percentile estimates the p-th percentile (0..100) of log10(buffer) using
// a fixed-resolution histogram over the observed min/max range. buffer
// values are radiance samples, not already-logged densities.
func Percentile(buffer []float32, p float64) float64 {
	if len(buffer) == 0 {
		return 0
	}

	lo := Log10Safe(float64(buffer[0]))
	hi := lo
	logs := make([]float64, len(buffer))
	for i, v := range buffer {
		d := Log10Safe(float64(v))
		logs[i] = d
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if hi <= lo {
		return lo
	}

	var hist [percentileBuckets]uint32
	scale := float64(percentileBuckets-1) / (hi - lo)
	for _, d := range logs {
		bucket := int((d - lo) * scale)
		if bucket < 0 {
			bucket = 0
		} else if bucket >= percentileBuckets {
			bucket = percentileBuckets - 1
		}
		hist[bucket]++
	}

	// Nearest-rank: the ceil(p/100*n)-th smallest sample (at least the 1st).
	target := uint64(math.Ceil(p / 100 * float64(len(buffer))))
	if target < 1 {
		target = 1
	}
	var cumulative uint64
	for bucket, count := range hist {
		cumulative += uint64(count)
		if cumulative >= target {
			return lo + float64(bucket)/scale
		}
	}
	return hi
}
