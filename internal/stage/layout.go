package stage

import (
	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/uniform"
)

// Layout is the final stage kernel (spec 4.11, "Layout (border/letterbox)
// -> output"): it crops to the Geometry crop rectangle (unless
// KeepFullFrame is set) and composites the result onto a canvas padded by
// an optional solid-color border.
type Layout struct{}

func (Layout) Name() string     { return "layout" }
func (Layout) UniformSize() int { return 4 * 9 }

// WriteLayoutUniform packs the crop rectangle (in source pixel units,
// already resolved from normalized coordinates by the caller), the
// keep-full-frame flag, the border width in pixels, and the border color.
func WriteLayoutUniform(slice []byte, rp RenderParams, cropPx [4]float64, borderPx float64) {
	w := uniform.NewWriter(slice)
	w.PutFloat64As32(cropPx[0])
	w.PutFloat64As32(cropPx[1])
	w.PutFloat64As32(cropPx[2])
	w.PutFloat64As32(cropPx[3])
	keepFull := int32(0)
	if rp.Config.Geometry.KeepFullFrame {
		keepFull = 1
	}
	w.PutInt32(keepFull)
	w.PutFloat64As32(borderPx)
	border := rp.Config.Export.Border.Color
	w.PutFloat64As32(border[0])
	w.PutFloat64As32(border[1])
	w.PutFloat64As32(border[2])
}

// CropPixels resolves a normalized CropRect against source dimensions,
// returning (x0, y0, x1, y1) in pixel units.
func CropPixels(crop config.CropRect, srcW, srcH int) [4]float64 {
	return [4]float64{
		crop.X0 * float64(srcW),
		crop.Y0 * float64(srcH),
		crop.X1 * float64(srcW),
		crop.Y1 * float64(srcH),
	}
}

// OutputDims returns the Layout stage's output size: the crop rectangle's
// pixel size (or the full source size if KeepFullFrame) plus border
// padding on all sides.
func (Layout) OutputDims(srcW, srcH int, g config.Geometry, border config.BorderSpec) (w, h int) {
	cropW, cropH := srcW, srcH
	if !g.KeepFullFrame {
		cropPx := CropPixels(g.Crop, srcW, srcH)
		cropW = int(cropPx[2] - cropPx[0])
		cropH = int(cropPx[3] - cropPx[1])
	}
	borderPx := int(border.WidthNormalized * float64(maxInt(cropW, cropH)))
	return cropW + 2*borderPx, cropH + 2*borderPx
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// DispatchCPU crops and letterboxes the source into out. Pixels outside
// the crop rectangle (the border region) are filled with the solid border
// color; pixels inside are bilinearly resampled from the source so a
// fractional-pixel crop boundary doesn't introduce a one-pixel seam.
func (l Layout) DispatchCPU(in []*numerics.Buffer, uniformSlice []byte, out *numerics.Buffer, rp RenderParams) error {
	src := in[0]
	r := uniform.NewReader(uniformSlice)
	x0 := float64(r.Float32())
	y0 := float64(r.Float32())
	x1 := float64(r.Float32())
	y1 := float64(r.Float32())
	keepFull := r.Int32() != 0
	borderPx := float64(r.Float32())
	borderColor := [3]float32{r.Float32(), r.Float32(), r.Float32()}

	if keepFull {
		x0, y0 = 0, 0
		x1, y1 = float64(src.Width), float64(src.Height)
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			fx := float64(x) - borderPx
			fy := float64(y) - borderPx
			if fx < 0 || fy < 0 || fx >= x1-x0 || fy >= y1-y0 {
				out.Set(x, y, borderColor[0], borderColor[1], borderColor[2])
				continue
			}
			rr, gg, bb := numerics.BilinearSample(src, x0+fx, y0+fy)
			out.Set(x, y, rr, gg, bb)
		}
	}
	return nil
}
