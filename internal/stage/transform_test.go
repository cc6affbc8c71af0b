package stage

import (
	"testing"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
)

func TestTransformOutputDimsSwapsOnQuarterTurn(t *testing.T) {
	if w, h := OutputDims(100, 50, 90); w != 50 || h != 100 {
		t.Fatalf("90deg: want (50,100), got (%d,%d)", w, h)
	}
	if w, h := OutputDims(100, 50, 270); w != 50 || h != 100 {
		t.Fatalf("270deg: want (50,100), got (%d,%d)", w, h)
	}
	if w, h := OutputDims(100, 50, 0); w != 100 || h != 50 {
		t.Fatalf("0deg: want (100,50), got (%d,%d)", w, h)
	}
	if w, h := OutputDims(100, 50, 180); w != 100 || h != 50 {
		t.Fatalf("180deg: want (100,50), got (%d,%d)", w, h)
	}
}

// A round trip of rotate-180-then-rotate-180 (with no flips or fine
// rotation) must reproduce the original image (spec 8, "Transform round
// trip").
func TestTransformRoundTrip180(t *testing.T) {
	src := numerics.NewBuffer(6, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			src.Set(x, y, float32(x)/6, float32(y)/4, 0.5)
		}
	}

	tr := Transform{}
	rp := RenderParams{Config: config.Default()}
	rp.Config.Geometry.RotationDeg = 180

	mid := numerics.NewBuffer(6, 4)
	uniformSlice := make([]byte, tr.UniformSize())
	WriteTransformUniform(uniformSlice, rp)
	if err := tr.DispatchCPU([]*numerics.Buffer{src}, uniformSlice, mid, rp); err != nil {
		t.Fatalf("DispatchCPU first pass: %v", err)
	}

	final := numerics.NewBuffer(6, 4)
	if err := tr.DispatchCPU([]*numerics.Buffer{mid}, uniformSlice, final, rp); err != nil {
		t.Fatalf("DispatchCPU second pass: %v", err)
	}

	const tol = 1e-5
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			wr, wg, wb := src.At(x, y)
			gr, gg, gb := final.At(x, y)
			if abs32(wr-gr) > tol || abs32(wg-gg) > tol || abs32(wb-gb) > tol {
				t.Fatalf("round trip mismatch at (%d,%d): want (%v,%v,%v) got (%v,%v,%v)", x, y, wr, wg, wb, gr, gg, gb)
			}
		}
	}
}

func TestTransformIdentityNoOp(t *testing.T) {
	src := numerics.NewBuffer(5, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			src.Set(x, y, float32(x)/5, float32(y)/3, 0.1)
		}
	}
	tr := Transform{}
	rp := RenderParams{Config: config.Default()}
	out := numerics.NewBuffer(5, 3)
	uniformSlice := make([]byte, tr.UniformSize())
	WriteTransformUniform(uniformSlice, rp)
	if err := tr.DispatchCPU([]*numerics.Buffer{src}, uniformSlice, out, rp); err != nil {
		t.Fatalf("DispatchCPU: %v", err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			wr, wg, wb := src.At(x, y)
			gr, gg, gb := out.At(x, y)
			if abs32(wr-gr) > 1e-6 || abs32(wg-gg) > 1e-6 || abs32(wb-gb) > 1e-6 {
				t.Fatalf("identity transform changed pixel (%d,%d)", x, y)
			}
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
