package metrics

import (
	"testing"

	"github.com/negpy/negpy/internal/numerics"
)

// buildBorderedBuffer produces a bright border (simulating film-base fog)
// around a darker interior rectangle, the shape Autocrop is meant to find.
func buildBorderedBuffer(w, h, borderPx int) *numerics.Buffer {
	buf := numerics.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < borderPx || y < borderPx || x >= w-borderPx || y >= h-borderPx {
				buf.Set(x, y, 0.9, 0.9, 0.9)
			} else {
				buf.Set(x, y, 0.1, 0.1, 0.1)
			}
		}
	}
	return buf
}

func TestAutocropFindsInteriorRectangle(t *testing.T) {
	buf := buildBorderedBuffer(100, 80, 10)
	bounds := Autocrop(buf, 0.2)

	if bounds.X0 != 10 || bounds.Y0 != 10 {
		t.Fatalf("expected top-left (10,10), got (%d,%d)", bounds.X0, bounds.Y0)
	}
	if bounds.X1 != 90 || bounds.Y1 != 70 {
		t.Fatalf("expected bottom-right (90,70), got (%d,%d)", bounds.X1, bounds.Y1)
	}
}

func TestAutocropUniformImageDegeneratesToFullFrame(t *testing.T) {
	buf := numerics.NewBuffer(20, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			buf.Set(x, y, 0.5, 0.5, 0.5)
		}
	}
	bounds := Autocrop(buf, 0.2)
	if bounds.X0 != 0 || bounds.Y0 != 0 {
		t.Fatalf("expected no crop on a uniform image, got (%d,%d)", bounds.X0, bounds.Y0)
	}
}

func TestWalkThresholdFindsLargestJump(t *testing.T) {
	means := []float64{0.9, 0.9, 0.9, 0.2, 0.2, 0.2, 0.15, 0.2}
	idx := walkThreshold(means, 0.1)
	if idx != 3 {
		t.Fatalf("expected index 3 (largest jump), got %d", idx)
	}
}
