package metrics

import (
	"math"
	"testing"

	"github.com/negpy/negpy/internal/numerics"
)

func TestCalibrateBoundsBracketMidtones(t *testing.T) {
	buf := numerics.NewBuffer(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := float32(0.01) + float32(x)/64*0.5
			buf.Set(x, y, v, v, v)
		}
	}

	bounds := Calibrate(buf, 2048)
	for ch := 0; ch < 3; ch++ {
		if !(bounds.Floor[ch] < bounds.Ceil[ch]) {
			t.Fatalf("channel %d: expected floor < ceil, got floor=%v ceil=%v", ch, bounds.Floor[ch], bounds.Ceil[ch])
		}
		if math.IsInf(bounds.Floor[ch], 0) || math.IsInf(bounds.Ceil[ch], 0) {
			t.Fatalf("channel %d: expected finite bounds, got floor=%v ceil=%v", ch, bounds.Floor[ch], bounds.Ceil[ch])
		}
	}
}

// TestCalibrateStableUnderDownsampling checks the spec 8 "Calibration
// stability" property: analyzing a large uniform-gradient image through
// the downsample path should agree closely with analyzing it at native
// resolution, since the gradient is smooth and nearest-sample
// downsampling preserves its percentiles.
func TestCalibrateStableUnderDownsampling(t *testing.T) {
	const full = 4096
	buf := numerics.NewBuffer(full, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < full; x++ {
			v := float32(0.01) + float32(x)/float32(full)*0.9
			buf.Set(x, y, v, v, v)
		}
	}

	native := Calibrate(buf, full)
	downsampled := Calibrate(buf, 512)

	for ch := 0; ch < 3; ch++ {
		if math.Abs(native.Floor[ch]-downsampled.Floor[ch]) > 0.05 {
			t.Fatalf("channel %d: floor diverged beyond tolerance: native=%v downsampled=%v",
				ch, native.Floor[ch], downsampled.Floor[ch])
		}
		if math.Abs(native.Ceil[ch]-downsampled.Ceil[ch]) > 0.05 {
			t.Fatalf("channel %d: ceil diverged beyond tolerance: native=%v downsampled=%v",
				ch, native.Ceil[ch], downsampled.Ceil[ch])
		}
	}
}

func TestDownsampleNoOpWhenAlreadySmall(t *testing.T) {
	buf := numerics.NewBuffer(100, 50)
	out := downsample(buf, 2048)
	if out != buf {
		t.Fatalf("expected downsample to return the same buffer when already within bounds")
	}
}
