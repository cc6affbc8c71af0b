package stage

import (
	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/uniform"
)

// Exposure computes the positive print from a normalized negative buffer
// (spec 4.5): an additive CMY density shift per channel, followed by the
// H&D sigmoid (numerics.SigmoidHD) with pivot = density, k = grade. In
// ProcessE6Positive the sigmoid is bypassed entirely (linear pass-through),
// since a positive scan is already print-ready after normalization.
type Exposure struct{}

func (Exposure) Name() string     { return "exposure" }
func (Exposure) UniformSize() int { return 4 * 8 }

// WriteExposureUniform packs density, grade, toe, shoulder, the three CMY
// shifts, and the process-mode bypass flag.
func WriteExposureUniform(slice []byte, rp RenderParams) {
	w := uniform.NewWriter(slice)
	e := rp.Config.Exposure
	w.PutFloat64As32(e.Density)
	w.PutFloat64As32(e.Grade)
	w.PutFloat64As32(e.Toe)
	w.PutFloat64As32(e.Shoulder)
	w.PutFloat64As32(e.CyanShift)
	w.PutFloat64As32(e.MagentaShift)
	w.PutFloat64As32(e.YellowShift)
	bypass := int32(0)
	if e.ProcessMode == config.ProcessE6Positive {
		bypass = 1
	}
	w.PutInt32(bypass)
}

// DispatchCPU applies the per-channel density shift and H&D sigmoid. With
// zero CMY shifts, equal input channels produce equal output channels
// (spec 8, "achromatic neutrality"), since the same pivot/grade/toe/
// shoulder curve is then applied identically to all three.
func (ex Exposure) DispatchCPU(in []*numerics.Buffer, uniformSlice []byte, out *numerics.Buffer, rp RenderParams) error {
	src := in[0]
	r := uniform.NewReader(uniformSlice)
	density := float64(r.Float32())
	grade := float64(r.Float32())
	toe := float64(r.Float32())
	shoulder := float64(r.Float32())
	shift := [3]float64{float64(r.Float32()), float64(r.Float32()), float64(r.Float32())}
	bypass := r.Int32() != 0

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			rr, gg, bb := src.At(x, y)
			px := [3]float64{float64(rr), float64(gg), float64(bb)}
			var res [3]float32
			for c := 0; c < 3; c++ {
				d := px[c] - shift[c]
				if bypass {
					res[c] = float32(numerics.Clamp01(d))
					continue
				}
				res[c] = float32(numerics.SigmoidHD(d, grade, density, toe, shoulder, 1.0))
			}
			out.Set(x, y, res[0], res[1], res[2])
		}
	}
	return nil
}
