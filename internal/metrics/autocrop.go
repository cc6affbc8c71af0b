package metrics

import (
	"math"
	"runtime"

	"github.com/negpy/negpy/internal/numerics"
)

// CropBounds is a bounding rectangle in full-image pixel coordinates
// (spec 4.9).
type CropBounds struct {
	X0, Y0, X1, Y1 int
}

// Autocrop reduces each row and column to a Rec.709 luminance mean, then
// walks a threshold search from each edge inward to locate the film-border
// transition (spec 4.9). Ties are broken by the larger density jump.
func Autocrop(buf *numerics.Buffer, threshold float64) CropBounds {
	rowMeans := make([]float64, buf.Height)
	forEachRowBand(buf.Height, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			var sum float64
			for x := 0; x < buf.Width; x++ {
				r, g, b := buf.At(x, y)
				sum += float64(numerics.Rec709Luma(r, g, b))
			}
			rowMeans[y] = sum / float64(buf.Width)
		}
	})

	colMeans := make([]float64, buf.Width)
	forEachColBand(buf.Width, func(xStart, xEnd int) {
		for x := xStart; x < xEnd; x++ {
			var sum float64
			for y := 0; y < buf.Height; y++ {
				r, g, b := buf.At(x, y)
				sum += float64(numerics.Rec709Luma(r, g, b))
			}
			colMeans[x] = sum / float64(buf.Height)
		}
	})

	x0 := walkThreshold(colMeans, threshold)
	x1 := buf.Width - walkThreshold(reverse(colMeans), threshold)
	y0 := walkThreshold(rowMeans, threshold)
	y1 := buf.Height - walkThreshold(reverse(rowMeans), threshold)

	return CropBounds{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// forEachColBand parallelizes a column-range reduction the same way
// forEachRowBand parallelizes rows.
func forEachColBand(width int, fn func(xStart, xEnd int)) {
	if width == 0 {
		return
	}
	numBatches := 8 * runtime.NumCPU()
	batchSize := (width + numBatches - 1) / numBatches
	if batchSize < 1 {
		batchSize = 1
	}
	sem := make(chan struct{}, runtime.NumCPU())
	for lower := 0; lower < width; lower += batchSize {
		upper := lower + batchSize
		if upper > width {
			upper = width
		}
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

// walkThreshold scans from index 0 inward looking for the luminance jump
// with the largest magnitude exceeding threshold, the film-border
// transition (spec 4.9); ties are broken by preferring the larger jump,
// which the strict-greater comparison already selects.
func walkThreshold(means []float64, threshold float64) int {
	bestIdx := 0
	bestJump := 0.0
	for i := 1; i < len(means); i++ {
		jump := math.Abs(means[i] - means[i-1])
		if jump > threshold && jump > bestJump {
			bestJump = jump
			bestIdx = i
		}
	}
	return bestIdx
}

func reverse(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
