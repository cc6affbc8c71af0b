package stage

import (
	"math"

	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/uniform"
)

// Lab performs two operations in one pass (spec 4.6): a linear-RGB spectral
// crosstalk correction, and a CIELAB luma unsharp mask. Grounded on the
// teacher's ColorMatrixFilter (internal/filter/colormatrix.go) for the
// matrix-blend shape, generalized from a fixed per-preset matrix to a
// strength-blended one since the spec ties strength to a live control.
type Lab struct{}

func (Lab) Name() string     { return "lab" }
func (Lab) UniformSize() int { return 4 * 3 }

// crosstalkMatrix is the fixed spectral crosstalk-correction matrix C (spec
// 4.6), modeling the residual inter-layer dye crosstalk in a typical C-41
// negative's cyan/magenta/yellow couplers. Row-normalized so a neutral
// input is preserved by C alone; blending with identity preserves
// neutrality at any strength.
var crosstalkMatrix = [3][3]float64{
	{1.18, -0.12, -0.06},
	{-0.09, 1.14, -0.05},
	{-0.04, -0.10, 1.14},
}

// WriteLabUniform packs the crosstalk blend strength (beta), the unsharp
// amount (lambda), and the unsharp radius (sigma).
func WriteLabUniform(slice []byte, rp RenderParams) {
	w := uniform.NewWriter(slice)
	w.PutFloat64As32(rp.Config.Lab.SeparationStrength)
	w.PutFloat64As32(rp.Config.Lab.SharpenAmount)
	w.PutFloat64As32(rp.Config.Lab.SharpenRadius)
}

// DispatchCPU applies the crosstalk-corrected color separation first, then
// converts to CIELAB to run the luma unsharp mask, leaving a/b untouched.
func (lb Lab) DispatchCPU(in []*numerics.Buffer, uniformSlice []byte, out *numerics.Buffer, rp RenderParams) error {
	src := in[0]
	r := uniform.NewReader(uniformSlice)
	beta := float64(r.Float32())
	lambda := float64(r.Float32())
	sigma := float64(r.Float32())

	w, h := src.Width, src.Height
	l := make([]float32, w*h)
	a := make([]float32, w*h)
	bb := make([]float32, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rr, gg, bbv := src.At(x, y)
			cr, cg, cb := applyCrosstalk(float64(rr), float64(gg), float64(bbv), beta)
			lv, av, bv := numerics.RGBToLab(cr, cg, cb)
			idx := y*w + x
			l[idx] = float32(lv)
			a[idx] = float32(av)
			bb[idx] = float32(bv)
		}
	}

	var lOut []float32
	if lambda != 0 && sigma > 0 {
		blurred := numerics.BlurChannelSeparable(l, w, h, sigma)
		lOut = make([]float32, w*h)
		for i := range l {
			diff := l[i] - blurred[i]
			if math.Abs(float64(diff)) > 2.0 {
				lOut[i] = l[i] + float32(lambda)*diff
			} else {
				lOut[i] = l[i]
			}
		}
	} else {
		lOut = l
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			rr, gg, bbv := numerics.LabToRGB(float64(lOut[idx]), float64(a[idx]), float64(bb[idx]))
			out.Set(x, y, float32(rr), float32(gg), float32(bbv))
		}
	}
	return nil
}

// applyCrosstalk blends the identity matrix with crosstalkMatrix by beta
// and applies it to (r,g,b). At beta=0 this is the identity; at beta=1,
// full crosstalk correction.
func applyCrosstalk(r, g, b, beta float64) (float64, float64, float64) {
	var m [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			identity := 0.0
			if i == j {
				identity = 1.0
			}
			m[i][j] = (1-beta)*identity + beta*crosstalkMatrix[i][j]
		}
	}
	v := [3]float64{r, g, b}
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out[0], out[1], out[2]
}
