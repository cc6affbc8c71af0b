package metrics

import (
	"sync/atomic"

	"github.com/negpy/negpy/internal/numerics"
)

const histogramBins = 256

// HistogramResult holds four 256-bin histograms (R, G, B and luma). The
// engine computes it synchronously over the post-toning buffer and returns
// it in its RenderResult (spec 4.9, 4.11).
type HistogramResult struct {
	Red, Green, Blue, Luma [histogramBins]uint32
}

// ComputeHistogram builds the four channel histograms over buf in parallel
// row bands, using atomic adds into shared bins the way the GPU kernel
// accumulates via atomic<u32> storage (spec 4.9). Values are assumed to lie
// in [0,1]; out-of-range samples clamp to the nearest edge bin.
func ComputeHistogram(buf *numerics.Buffer) HistogramResult {
	var result HistogramResult

	forEachRowBand(buf.Height, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			for x := 0; x < buf.Width; x++ {
				r, g, b := buf.At(x, y)
				l := numerics.Rec709Luma(r, g, b)
				atomic.AddUint32(&result.Red[bucketOf(r)], 1)
				atomic.AddUint32(&result.Green[bucketOf(g)], 1)
				atomic.AddUint32(&result.Blue[bucketOf(b)], 1)
				atomic.AddUint32(&result.Luma[bucketOf(l)], 1)
			}
		}
	})
	return result
}

func bucketOf(v float32) int {
	bucket := int(v * float32(histogramBins))
	if bucket < 0 {
		return 0
	}
	if bucket >= histogramBins {
		return histogramBins - 1
	}
	return bucket
}
