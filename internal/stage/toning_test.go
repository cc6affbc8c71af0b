package stage

import (
	"math"
	"testing"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
)

func defaultToningConfig() config.WorkspaceConfig {
	cfg := config.Default()
	cfg.Toning.PaperTint = [3]float64{1, 1, 1}
	cfg.Toning.DMaxGamma = 1
	cfg.Toning.FinalGamma = 1
	cfg.Toning.Saturation = 1
	cfg.Toning.SeleniumStrength = 0
	cfg.Toning.SepiaStrength = 0
	cfg.Toning.BlackAndWhite = false
	return cfg
}

// With all parameters at their neutral values (unit tint, gamma=1,
// saturation=1, no toning, not B&W), Toning is an identity pass.
func TestToningNeutralParamsIdentity(t *testing.T) {
	cfg := defaultToningConfig()
	src := solidBuffer(4, 4, 0.3, 0.6, 0.9)
	out := numerics.NewBuffer(4, 4)
	tn := Toning{}
	rp := RenderParams{Config: cfg}
	uniformSlice := make([]byte, tn.UniformSize())
	WriteToningUniform(uniformSlice, rp)
	if err := tn.DispatchCPU([]*numerics.Buffer{src}, uniformSlice, out, rp); err != nil {
		t.Fatalf("DispatchCPU: %v", err)
	}
	r, g, b := out.At(0, 0)
	const tol = 1e-4
	if math.Abs(float64(r)-0.3) > tol || math.Abs(float64(g)-0.6) > tol || math.Abs(float64(b)-0.9) > tol {
		t.Fatalf("want (0.3,0.6,0.9), got (%v,%v,%v)", r, g, b)
	}
}

// B&W mode must broadcast luma across all channels before chemical toning.
func TestToningBlackAndWhiteBroadcastsLuma(t *testing.T) {
	cfg := defaultToningConfig()
	cfg.Toning.BlackAndWhite = true
	src := solidBuffer(1, 1, 0.2, 0.5, 0.8)
	out := numerics.NewBuffer(1, 1)
	tn := Toning{}
	rp := RenderParams{Config: cfg}
	uniformSlice := make([]byte, tn.UniformSize())
	WriteToningUniform(uniformSlice, rp)
	if err := tn.DispatchCPU([]*numerics.Buffer{src}, uniformSlice, out, rp); err != nil {
		t.Fatalf("DispatchCPU: %v", err)
	}
	r, g, b := out.At(0, 0)
	if r != g || g != b {
		t.Fatalf("expected B&W output to be achromatic, got (%v,%v,%v)", r, g, b)
	}
}

// Chemical toning must not fire at all in color mode (BlackAndWhite=false)
// even with nonzero toner strengths, since toning is a B&W darkroom
// process (spec 4.8).
func TestToningChemicalDisabledInColorMode(t *testing.T) {
	cfg := defaultToningConfig()
	cfg.Toning.SeleniumStrength = 1.0
	cfg.Toning.SepiaStrength = 1.0
	cfg.Toning.BlackAndWhite = false

	src := solidBuffer(1, 1, 0.3, 0.6, 0.9)
	out := numerics.NewBuffer(1, 1)
	tn := Toning{}
	rp := RenderParams{Config: cfg}
	uniformSlice := make([]byte, tn.UniformSize())
	WriteToningUniform(uniformSlice, rp)
	if err := tn.DispatchCPU([]*numerics.Buffer{src}, uniformSlice, out, rp); err != nil {
		t.Fatalf("DispatchCPU: %v", err)
	}
	r, g, b := out.At(0, 0)
	const tol = 1e-4
	if math.Abs(float64(r)-0.3) > tol || math.Abs(float64(g)-0.6) > tol || math.Abs(float64(b)-0.9) > tol {
		t.Fatalf("color mode should bypass chemical toning: got (%v,%v,%v)", r, g, b)
	}
}
