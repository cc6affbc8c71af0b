package stage

import (
	"math"

	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/uniform"
)

// Toning applies paper and chemical toning to the positive print (spec
// 4.8), in order: paper tint multiplication, paper D-max gamma, optional
// B&W luma broadcast, chemical toning (selenium/sepia, luminance-keyed),
// saturation, and a final display gamma.
type Toning struct{}

func (Toning) Name() string     { return "toning" }
func (Toning) UniformSize() int { return 4 * 9 }

// seleniumTarget and sepiaTarget are the fixed chemical-toner target
// colors (spec 4.8).
var (
	seleniumTarget = [3]float64{0.85, 0.75, 0.85}
	sepiaTarget    = [3]float64{1.10, 0.99, 0.83}
)

// WriteToningUniform packs the paper tint, D-max gamma, selenium/sepia
// strengths, saturation, B&W flag, and final gamma.
func WriteToningUniform(slice []byte, rp RenderParams) {
	w := uniform.NewWriter(slice)
	tn := rp.Config.Toning
	w.PutFloat64As32(tn.PaperTint[0])
	w.PutFloat64As32(tn.PaperTint[1])
	w.PutFloat64As32(tn.PaperTint[2])
	w.PutFloat64As32(tn.DMaxGamma)
	w.PutFloat64As32(tn.SeleniumStrength)
	w.PutFloat64As32(tn.SepiaStrength)
	w.PutFloat64As32(tn.Saturation)
	bw := int32(0)
	if tn.BlackAndWhite {
		bw = 1
	}
	w.PutInt32(bw)
	w.PutFloat64As32(tn.FinalGamma)
}

// DispatchCPU applies the toning chain per pixel.
func (tn Toning) DispatchCPU(in []*numerics.Buffer, uniformSlice []byte, out *numerics.Buffer, rp RenderParams) error {
	src := in[0]
	r := uniform.NewReader(uniformSlice)
	var tint [3]float64
	tint[0] = float64(r.Float32())
	tint[1] = float64(r.Float32())
	tint[2] = float64(r.Float32())
	dmaxGamma := float64(r.Float32())
	seleniumStrength := float64(r.Float32())
	sepiaStrength := float64(r.Float32())
	saturation := float64(r.Float32())
	bw := r.Int32() != 0
	finalGamma := float64(r.Float32())

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			rr, gg, bb := src.At(x, y)
			p := [3]float64{float64(rr) * tint[0], float64(gg) * tint[1], float64(bb) * tint[2]}

			for c := 0; c < 3; c++ {
				p[c] = math.Pow(numerics.Clamp01(p[c]), dmaxGamma)
			}

			if bw {
				luma := numerics.Rec709Luma(float32(p[0]), float32(p[1]), float32(p[2]))
				p[0], p[1], p[2] = float64(luma), float64(luma), float64(luma)

				// Chemical toning is a black-and-white darkroom process;
				// in color mode the toners are disabled (spec 4.8).
				p = applyChemicalToning(p, float64(luma), seleniumStrength, sepiaStrength)
			}

			p = applySaturation(p, saturation)

			for c := 0; c < 3; c++ {
				p[c] = math.Pow(numerics.Clamp01(p[c]), 1/finalGamma)
			}
			out.Set(x, y, float32(p[0]), float32(p[1]), float32(p[2]))
		}
	}
	return nil
}

// applyChemicalToning sequentially blends selenium and sepia toners, each
// keyed by a mask derived from luma (spec 4.8):
// P' = (1-M)*P + M*(P*C_tone).
func applyChemicalToning(p [3]float64, luma, seleniumStrength, sepiaStrength float64) [3]float64 {
	mSel := seleniumStrength * (1 - luma) * (1 - luma)
	p = blendToner(p, mSel, seleniumTarget)

	mSep := sepiaStrength * math.Exp(-(luma-0.6)*(luma-0.6)/0.08)
	p = blendToner(p, mSep, sepiaTarget)

	return p
}

func blendToner(p [3]float64, m float64, target [3]float64) [3]float64 {
	m = numerics.Clamp01(m)
	var out [3]float64
	for c := 0; c < 3; c++ {
		toned := p[c] * target[c]
		out[c] = (1-m)*p[c] + m*toned
	}
	return out
}

// applySaturation scales chroma around the pixel's own Rec.709 luminance.
func applySaturation(p [3]float64, saturation float64) [3]float64 {
	luma := 0.2126*p[0] + 0.7152*p[1] + 0.0722*p[2]
	var out [3]float64
	for c := 0; c < 3; c++ {
		out[c] = luma + (p[c]-luma)*saturation
	}
	return out
}
