package stage

import (
	"math"

	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/uniform"
)

// claheGridSize is the fixed 8x8 tile grid CLAHE operates over (spec 4.7),
// always computed over the full image regardless of export tiling (spec
// 4.11): a tiled export must source CDFs from a shared per-session
// histogram context rather than recomputing per export tile.
const claheGridSize = 8
const claheTileCount = claheGridSize * claheGridSize
const claheBins = 256

// ClaheHistogramData holds the per-grid-tile 256-bin histogram produced by
// the histogram pass.
type ClaheHistogramData struct {
	Bins [claheTileCount][claheBins]uint32
}

// ClaheCDFData holds the per-grid-tile normalized cumulative distribution
// produced by the CDF pass, the interpolation source for Apply.
type ClaheCDFData struct {
	CDF [claheTileCount][claheBins]float32
}

// perceptualLuma maps linear luminance to perceptual (gamma 2.2 encoded)
// space, the domain CLAHE's histogram equalization operates in (spec 4.7).
func perceptualLuma(linear float32) float32 {
	if linear <= 0 {
		return 0
	}
	return float32(math.Pow(float64(linear), 1.0/2.2))
}

func linearFromPerceptual(p float32) float32 {
	if p <= 0 {
		return 0
	}
	return float32(math.Pow(float64(p), 2.2))
}

func claheTileIndex(tx, ty int) int { return ty*claheGridSize + tx }

// ClaheHistogram is the first of CLAHE's three passes (spec 4.7): building
// a 256-bin perceptual-luma histogram per grid tile.
type ClaheHistogram struct{}

func (ClaheHistogram) Name() string     { return "clahe_histogram" }
func (ClaheHistogram) UniformSize() int { return 0 }

// BuildCPU computes the 8x8-tile histogram of perceptual luma over src.
func (ClaheHistogram) BuildCPU(src *numerics.Buffer) *ClaheHistogramData {
	hist := &ClaheHistogramData{}
	tileW := (src.Width + claheGridSize - 1) / claheGridSize
	tileH := (src.Height + claheGridSize - 1) / claheGridSize
	for y := 0; y < src.Height; y++ {
		ty := y / tileH
		if ty >= claheGridSize {
			ty = claheGridSize - 1
		}
		for x := 0; x < src.Width; x++ {
			tx := x / tileW
			if tx >= claheGridSize {
				tx = claheGridSize - 1
			}
			r, g, b := src.At(x, y)
			luma := perceptualLuma(numerics.Rec709Luma(r, g, b))
			bin := int(numerics.Clamp01(float64(luma)) * float64(claheBins-1))
			hist.Bins[claheTileIndex(tx, ty)][bin]++
		}
	}
	return hist
}

// ClaheCDF is CLAHE's second pass (spec 4.7): per tile, clip the histogram
// at clip_limit * total / bins, redistribute the clipped excess uniformly,
// and form the normalized cumulative sum.
type ClaheCDF struct{}

func (ClaheCDF) Name() string     { return "clahe_cdf" }
func (ClaheCDF) UniformSize() int { return 4 }

// WriteClaheCDFUniform packs the clip limit.
func WriteClaheCDFUniform(slice []byte, rp RenderParams) {
	w := uniform.NewWriter(slice)
	w.PutFloat64As32(rp.Config.Lab.ClaheClipLimit)
}

// BuildCPU clips and redistributes each tile's histogram, then integrates
// it into a normalized CDF.
func (ClaheCDF) BuildCPU(hist *ClaheHistogramData, clipLimit float64) *ClaheCDFData {
	out := &ClaheCDFData{}
	for t := 0; t < claheTileCount; t++ {
		bins := hist.Bins[t]
		var total uint64
		for _, c := range bins {
			total += uint64(c)
		}
		if total == 0 {
			continue
		}
		limit := clipLimit * float64(total) / float64(claheBins)
		clipCount := uint32(limit)

		var clipped [claheBins]uint32
		var excess uint64
		for i, c := range bins {
			if c > clipCount {
				excess += uint64(c - clipCount)
				clipped[i] = clipCount
			} else {
				clipped[i] = c
			}
		}

		quotient := uint32(excess / claheBins)
		rem := int(excess % claheBins)
		for i := range clipped {
			clipped[i] += quotient
			if i < rem {
				clipped[i]++
			}
		}

		var cum uint64
		for i, c := range clipped {
			cum += uint64(c)
			out.CDF[t][i] = float32(float64(cum) / float64(total))
		}
	}
	return out
}

// ClaheApply is CLAHE's third pass (spec 4.7): bilinearly interpolate the
// four surrounding tile CDFs, blend with the original luma by alpha, and
// rescale chrominance to match.
type ClaheApply struct{}

func (ClaheApply) Name() string     { return "clahe_apply" }
func (ClaheApply) UniformSize() int { return 20 }

// WriteClaheApplyUniform packs the apply-pass blend strength (alpha)
// followed by the full (untiled) image dimensions and this dispatch's
// global tile offset, so the GPU's tile-center interpolation lands on the
// same full-image 8x8 grid cells the CDF was built over even when src is
// only one export tile of that image (spec 4.11, spec 8 "Tile invariance").
func WriteClaheApplyUniform(slice []byte, rp RenderParams) {
	w := uniform.NewWriter(slice)
	w.PutFloat64As32(rp.Config.Lab.ClaheStrength)
	w.PutInt32(int32(rp.FullWidth))
	w.PutInt32(int32(rp.FullHeight))
	w.PutInt32(int32(rp.GlobalX))
	w.PutInt32(int32(rp.GlobalY))
}

// ApplyCPU runs the apply pass over src using the precomputed CDFs. The
// CDF grid was built over a fullW x fullH image (the untiled Lab-stage
// output, spec 4.11); src may be only a globalX,globalY-offset tile of
// that image, so the tile-center interpolation below must be computed in
// full-image coordinates, not src-local ones, or every tile but the one
// at the origin spanning the full width gets the wrong grid cell.
func (ClaheApply) ApplyCPU(src *numerics.Buffer, cdf *ClaheCDFData, alpha float64, out *numerics.Buffer, fullW, fullH, globalX, globalY int) {
	tileW := float64(fullW) / claheGridSize
	tileH := float64(fullH) / claheGridSize

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b := src.At(x, y)
			luma := perceptualLuma(numerics.Rec709Luma(r, g, b))
			bin := int(numerics.Clamp01(float64(luma)) * float64(claheBins-1))

			px := float64(globalX + x)
			py := float64(globalY + y)
			cdfLuma := interpolateClaheCDF(cdf, px, py, tileW, tileH, bin)
			finalPerceptual := float32(numerics.Clamp01(float64(luma) + alpha*(float64(cdfLuma)-float64(luma))))
			finalLinear := linearFromPerceptual(finalPerceptual)

			linearLuma := numerics.Rec709Luma(r, g, b)
			scale := float64(finalLinear) / math.Max(float64(linearLuma), numerics.DensityEpsilon)
			out.Set(x, y, float32(float64(r)*scale), float32(float64(g)*scale), float32(float64(b)*scale))
		}
	}
}

// interpolateClaheCDF bilinearly interpolates the luma CDF value for bin
// across the four grid-tile centers nearest (px, py), clamping tile
// indices beyond the grid edges (spec 4.7).
func interpolateClaheCDF(cdf *ClaheCDFData, px, py, tileW, tileH float64, bin int) float32 {
	// Tile-center coordinates in pixel space.
	fx := px/tileW - 0.5
	fy := py/tileH - 0.5

	tx0 := int(math.Floor(fx))
	ty0 := int(math.Floor(fy))
	wx := fx - float64(tx0)
	wy := fy - float64(ty0)

	clampTile := func(t int) int {
		if t < 0 {
			return 0
		}
		if t >= claheGridSize {
			return claheGridSize - 1
		}
		return t
	}
	tx0c, ty0c := clampTile(tx0), clampTile(ty0)
	tx1c, ty1c := clampTile(tx0+1), clampTile(ty0+1)

	v00 := cdf.CDF[claheTileIndex(tx0c, ty0c)][bin]
	v10 := cdf.CDF[claheTileIndex(tx1c, ty0c)][bin]
	v01 := cdf.CDF[claheTileIndex(tx0c, ty1c)][bin]
	v11 := cdf.CDF[claheTileIndex(tx1c, ty1c)][bin]

	top := v00 + float32(wx)*(v10-v00)
	bot := v01 + float32(wx)*(v11-v01)
	return top + float32(wy)*(bot-top)
}
