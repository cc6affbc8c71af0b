// Package metrics implements the autocrop/histogram reduction kernels
// (spec 4.9) and the one-shot calibration analysis (spec 4.10), the CPU
// analysis passes that run outside the GPU stage pipeline.
package metrics

import "runtime"

// forEachRowBand parallelizes a row-range reduction across all available
// CPUs, splitting height into 8*NumCPU() work packages bounded by a
// semaphore, mirroring the ApplyPixelFunction row-batching pattern used
// for CPU-bound per-pixel work in image-processing pipelines (grounded on
// the mlnoga-nightlight reference's internal.ApplyPixelFunction).
func forEachRowBand(height int, fn func(yStart, yEnd int)) {
	if height == 0 {
		return
	}
	numBatches := 8 * runtime.NumCPU()
	batchSize := (height + numBatches - 1) / numBatches
	if batchSize < 1 {
		batchSize = 1
	}
	sem := make(chan struct{}, runtime.NumCPU())
	var pending int
	for lower := 0; lower < height; lower += batchSize {
		upper := lower + batchSize
		if upper > height {
			upper = height
		}
		pending++
		sem <- struct{}{}
		go func(lower, upper int) {
			defer func() { <-sem }()
			fn(lower, upper)
		}(lower, upper)
	}
	for i := 0; i < cap(sem); i++ {
		sem <- struct{}{}
	}
}
