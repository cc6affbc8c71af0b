package stage

import (
	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/uniform"
)

// Normalization converts a linear-RGB negative scan into a log-density
// buffer clamped to [0,1] using per-channel floor/ceiling bounds (spec
// 4.2). For ProcessE6Positive it performs a linear inversion (v <- 1-v)
// before the log, since a positive transparency scan is already
// density-correct up to that sign flip.
type Normalization struct{}

func (Normalization) Name() string     { return "normalization" }
func (Normalization) UniformSize() int { return 4 * 7 } // 3x(floor,ceil) + mode flag

// WriteNormalizationUniform packs this stage's uniform fields: floor/ceil per channel in
// log10 density, plus the process-mode flag that selects the pre-log
// inversion.
func WriteNormalizationUniform(slice []byte, rp RenderParams) {
	w := uniform.NewWriter(slice)
	for _, b := range rp.Calibration {
		w.PutFloat64As32(b.Floor)
		w.PutFloat64As32(b.Ceil)
	}
	mode := int32(0)
	if rp.Config.Exposure.ProcessMode == config.ProcessE6Positive {
		mode = 1
	}
	w.PutInt32(mode)
}

// DispatchCPU applies the per-pixel log-density normalization (spec 4.2).
// Each pixel is read before it is written, so in and out may be the same
// buffer. A second application is not a no-op: it takes log10 of the
// already-normalized values again (with bounds [-2, 0], 0.5 becomes about
// 0.85).
func (n Normalization) DispatchCPU(in []*numerics.Buffer, uniformSlice []byte, out *numerics.Buffer, rp RenderParams) error {
	src := in[0]
	r := uniform.NewReader(uniformSlice)
	var floor, ceil [3]float64
	for c := 0; c < 3; c++ {
		floor[c] = float64(r.Float32())
		ceil[c] = float64(r.Float32())
	}
	invert := r.Int32() != 0

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			rr, gg, bb := src.At(x, y)
			px := [3]float32{rr, gg, bb}
			var out3 [3]float32
			for c := 0; c < 3; c++ {
				v := float64(px[c])
				if invert {
					v = 1 - v
				}
				if ceil[c]-floor[c] <= numerics.DensityEpsilon {
					out3[c] = 0
					continue
				}
				d := numerics.Log10Safe(v)
				out3[c] = float32(numerics.Clamp01((d - floor[c]) / (ceil[c] - floor[c])))
			}
			out.Set(x, y, out3[0], out3[1], out3[2])
		}
	}
	return nil
}
