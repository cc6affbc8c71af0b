package stage

import (
	"math"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/uniform"
)

// Transform applies the geometry record: 90-degree-step rotation,
// horizontal/vertical flip, and an optional fine affine rotation (spec
// 4.3). Its output establishes full_dims and global_offset = (0,0) for the
// untiled case; during tiled export each tile instead reports its own
// global_offset (spec 4.11) so downstream coordinate-sensitive stages
// (Retouch) can reconstruct full-image coordinates.
type Transform struct{}

func (Transform) Name() string     { return "transform" }
func (Transform) UniformSize() int { return 4 * 4 }

// WriteTransformUniform packs rotation (quarter turns), flip flags, and the
// fine-rotation angle in radians.
func WriteTransformUniform(slice []byte, rp RenderParams) {
	w := uniform.NewWriter(slice)
	w.PutInt32(int32(rp.Config.Geometry.RotationDeg / 90))
	flip := int32(0)
	if rp.Config.Geometry.FlipHorizontal {
		flip |= 1
	}
	if rp.Config.Geometry.FlipVertical {
		flip |= 2
	}
	w.PutInt32(flip)
	w.PutFloat64As32(rp.Config.Geometry.FineRotation * math.Pi / 180)
	w.PutFloat32(0) // padding to keep the field count even for alignment clarity
}

// OutputDims returns the (W', H') of the Transform output for a given
// input size and rotation, reflecting the 90-degree-step swap the spec
// requires so downstream stages see axis-aligned content.
func OutputDims(inW, inH int, rotationDeg int) (w, h int) {
	if rotationDeg == 90 || rotationDeg == 270 {
		return inH, inW
	}
	return inW, inH
}

// DispatchCPU resamples the input into canonical orientation. Sampling
// uses manual bilinear interpolation; out-of-bounds samples read the
// clamped edge (spec 4.3).
func (t Transform) DispatchCPU(in []*numerics.Buffer, uniformSlice []byte, out *numerics.Buffer, rp RenderParams) error {
	src := in[0]
	r := uniform.NewReader(uniformSlice)
	quarterTurns := int(r.Int32())
	flip := r.Int32()
	fineRad := float64(r.Float32())
	flipH := flip&1 != 0
	flipV := flip&2 != 0

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			sx, sy := inverseTransformCoord(x, y, out.Width, out.Height, quarterTurns, flipH, flipV, fineRad, src.Width, src.Height)
			rr, gg, bb := numerics.BilinearSample(src, sx, sy)
			out.Set(x, y, rr, gg, bb)
		}
	}
	return nil
}

// inverseTransformCoord maps an output pixel to the source buffer's
// continuous coordinate space: undo the 90-degree rotation, then the
// flips, then the fine affine rotation, landing back in source pixel units.
func inverseTransformCoord(x, y, outW, outH, quarterTurns int, flipH, flipV bool, fineRad float64, srcW, srcH int) (float64, float64) {
	// Undo 90-degree-step rotation: map (x,y) in output space back to the
	// pre-rotation canvas, whose size is (srcW, srcH) by construction.
	var rx, ry float64
	switch ((quarterTurns % 4) + 4) % 4 {
	case 0:
		rx, ry = float64(x), float64(y)
	case 1: // output was rotated 90 CW from pre-rotation canvas
		rx, ry = float64(y), float64(outW-1-x)
	case 2:
		rx, ry = float64(outW-1-x), float64(outH-1-y)
	case 3:
		rx, ry = float64(outH-1-y), float64(x)
	}

	if flipH {
		rx = float64(srcW-1) - rx
	}
	if flipV {
		ry = float64(srcH-1) - ry
	}

	if fineRad != 0 {
		cx, cy := float64(srcW)/2, float64(srcH)/2
		dx, dy := rx-cx, ry-cy
		cosA, sinA := math.Cos(-fineRad), math.Sin(-fineRad)
		rx = cx + dx*cosA - dy*sinA
		ry = cy + dx*sinA + dy*cosA
	}

	return rx, ry
}

// RotationQuarterTurns returns the number of 90-degree steps for a Geometry
// record's RotationDeg (spec 3: one of {0,90,180,270}) by integer division;
// it does not validate the value.
func RotationQuarterTurns(g config.Geometry) int { return g.RotationDeg / 90 }
