package stage

import (
	"math"
	"testing"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
)

// At beta=0 the crosstalk matrix contributes nothing, so with the unsharp
// mask also disabled, the Lab round trip through RGBToLab/LabToRGB should
// reproduce the input within floating-point tolerance.
func TestLabZeroStrengthRoundTrip(t *testing.T) {
	src := numerics.NewBuffer(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, float32(x)/4, float32(y)/4, 0.3)
		}
	}
	out := numerics.NewBuffer(4, 4)
	lb := Lab{}
	cfg := config.Default()
	cfg.Lab.SeparationStrength = 0
	cfg.Lab.SharpenAmount = 0
	rp := RenderParams{Config: cfg}
	uniformSlice := make([]byte, lb.UniformSize())
	WriteLabUniform(uniformSlice, rp)
	if err := lb.DispatchCPU([]*numerics.Buffer{src}, uniformSlice, out, rp); err != nil {
		t.Fatalf("DispatchCPU: %v", err)
	}
	const tol = 1e-4
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			wr, wg, wb := src.At(x, y)
			gr, gg, gb := out.At(x, y)
			if math.Abs(float64(wr-gr)) > tol || math.Abs(float64(wg-gg)) > tol || math.Abs(float64(wb-gb)) > tol {
				t.Fatalf("pixel (%d,%d) drifted: want (%v,%v,%v) got (%v,%v,%v)", x, y, wr, wg, wb, gr, gg, gb)
			}
		}
	}
}

// The crosstalk matrix is row-normalized so a neutral (gray) input stays
// neutral at any beta.
func TestLabCrosstalkPreservesNeutral(t *testing.T) {
	for _, beta := range []float64{0, 0.3, 0.7, 1.0} {
		r, g, b := applyCrosstalk(0.5, 0.5, 0.5, beta)
		if math.Abs(r-g) > 1e-6 || math.Abs(g-b) > 1e-6 {
			t.Fatalf("beta=%v: expected neutral input to stay neutral, got (%v,%v,%v)", beta, r, g, b)
		}
	}
}
