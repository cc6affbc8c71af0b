package metrics

import (
	"testing"

	"github.com/negpy/negpy/internal/numerics"
)

func TestHistogramBinCountConservation(t *testing.T) {
	w, h := 17, 23
	buf := numerics.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, float32(x)/float32(w), float32(y)/float32(h), 0.5)
		}
	}

	result := ComputeHistogram(buf)

	var redTotal, greenTotal, blueTotal, lumaTotal uint32
	for _, c := range result.Red {
		redTotal += c
	}
	for _, c := range result.Green {
		greenTotal += c
	}
	for _, c := range result.Blue {
		blueTotal += c
	}
	for _, c := range result.Luma {
		lumaTotal += c
	}

	want := uint32(w * h)
	if redTotal != want || greenTotal != want || blueTotal != want || lumaTotal != want {
		t.Fatalf("expected every channel to sum to %d samples, got red=%d green=%d blue=%d luma=%d",
			want, redTotal, greenTotal, blueTotal, lumaTotal)
	}
}

func TestHistogramAllBlackFallsInBinZero(t *testing.T) {
	buf := numerics.NewBuffer(4, 4)
	result := ComputeHistogram(buf)
	if result.Red[0] != 16 || result.Luma[0] != 16 {
		t.Fatalf("expected all 16 samples in bin 0, got red[0]=%d luma[0]=%d", result.Red[0], result.Luma[0])
	}
}

func TestHistogramAllWhiteFallsInLastBin(t *testing.T) {
	buf := numerics.NewBuffer(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			buf.Set(x, y, 1, 1, 1)
		}
	}
	result := ComputeHistogram(buf)
	if result.Red[histogramBins-1] != 16 || result.Luma[histogramBins-1] != 16 {
		t.Fatalf("expected all 16 samples in the last bin, got red[last]=%d luma[last]=%d",
			result.Red[histogramBins-1], result.Luma[histogramBins-1])
	}
}
