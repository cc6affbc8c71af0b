package stage

import (
	"math"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/uniform"
)

// Retouch performs two coupled operations with identical CPU/GPU
// implementations (spec 4.4): automatic dust detection/removal, and manual
// spot healing. An empty spot list with auto-dust disabled is an identity
// pass (spec 8's "Retouch identity" property); the engine may elide the
// dispatch entirely in that case.
type Retouch struct{}

func (Retouch) Name() string     { return "retouch" }
func (Retouch) UniformSize() int { return 8*4 + maxUniformSpots*4*4 }

// maxUniformSpots bounds how many manual spots are packed into the
// fixed-size uniform slice. The spot list reaches the kernels only through
// that slice: spots past the first maxUniformSpots are not packed and are
// ignored by both the CPU and GPU dispatch paths; there is no separate
// storage buffer for them.
const maxUniformSpots = 64

// WriteRetouchUniform packs dust threshold/size/enabled plus up to
// maxUniformSpots manual spots (x, y, r, _pad) in full-image normalized
// coordinates.
func WriteRetouchUniform(slice []byte, rp RenderParams) {
	w := uniform.NewWriter(slice)
	w.PutFloat64As32(rp.Config.Retouch.AutoDustThreshold)
	w.PutFloat64As32(rp.Config.Retouch.AutoDustSize)
	enabled := int32(0)
	if rp.Config.Retouch.AutoDustEnabled {
		enabled = 1
	}
	w.PutInt32(enabled)
	n := len(rp.Config.Retouch.Spots)
	if n > maxUniformSpots {
		n = maxUniformSpots
	}
	w.PutInt32(int32(n))
	w.PutInt32(int32(rp.GlobalX))
	w.PutInt32(int32(rp.GlobalY))
	w.PutInt32(int32(rp.FullWidth))
	w.PutInt32(int32(rp.FullHeight))
	for i := 0; i < n; i++ {
		s := rp.Config.Retouch.Spots[i]
		w.PutFloat64As32(s.X)
		w.PutFloat64As32(s.Y)
		w.PutFloat64As32(s.R)
		w.PutFloat32(0)
	}
}

func dustKernelSize(dustSize float64) int {
	switch {
	case dustSize < 1.5:
		return 3
	case dustSize < 2.5:
		return 5
	default:
		return 7
	}
}

// DispatchCPU applies auto-dust removal followed by manual healing, in
// full-image coordinates so tiled export reproduces the untiled result
// (spec 8, "Tile invariance").
func (rt Retouch) DispatchCPU(in []*numerics.Buffer, uniformSlice []byte, out *numerics.Buffer, rp RenderParams) error {
	src := in[0]
	r := uniform.NewReader(uniformSlice)
	dustThreshold := float64(r.Float32())
	dustSize := float64(r.Float32())
	dustEnabled := r.Int32() != 0
	n := int(r.Int32())
	r.Int32() // global_x, unused on CPU: rp.GlobalX is authoritative
	r.Int32() // global_y, unused on CPU: rp.GlobalY is authoritative
	r.Int32() // full_width, unused on CPU: rp.FullWidth is authoritative
	r.Int32() // full_height, unused on CPU: rp.FullHeight is authoritative
	spots := make([]config.ManualSpot, n)
	for i := 0; i < n; i++ {
		spots[i] = config.ManualSpot{X: float64(r.Float32()), Y: float64(r.Float32()), R: float64(r.Float32())}
		r.Float32() // padding
	}

	kernelSize := dustKernelSize(dustSize)
	scale := math.Sqrt(float64(rp.FullWidth*rp.FullHeight)) / 1000.0 // image-scale factor
	if scale < 0.25 {
		scale = 0.25
	}
	neighborhoodRadius := int(math.Max(1, dustSize*scale*2))

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			rr, gg, bb := src.At(x, y)

			if dustEnabled {
				rr, gg, bb = applyAutoDust(src, x, y, rp.GlobalX, rp.GlobalY, rr, gg, bb, dustThreshold, kernelSize, neighborhoodRadius)
			}
			rr, gg, bb = applyManualHeal(src, x, y, rp.GlobalX, rp.GlobalY, rp.FullWidth, rp.FullHeight, rr, gg, bb, spots)

			out.Set(x, y, rr, gg, bb)
		}
	}
	return nil
}

func applyAutoDust(src *numerics.Buffer, x, y, globalX, globalY int, r, g, b float32, dustThreshold float64, kernelSize, neighborhoodRadius int) (float32, float32, float32) {
	mean, std := lumaMeanStd(src, x, y, neighborhoodRadius)
	flatness := numerics.Clamp01(1 - float64(std)/0.08)
	highlightSens := numerics.Clamp01((float64(mean) - 0.4) * 1.5)
	finalThreshold := dustThreshold*(1-0.98*math.Sqrt(flatness))*(1-0.5*highlightSens) + (1-flatness)*0.05

	luma := numerics.Rec709Luma(r, g, b)
	if float64(std) > 0.2 || float64(luma) <= 0.4 {
		return r, g, b
	}

	refR, refG, refB := numerics.MedianRGB(src, x, y, kernelSize)
	maxDiff := math.Max(math.Max(float64(r-refR), float64(g-refG)), float64(b-refB))
	if maxDiff <= finalThreshold {
		return r, g, b
	}

	fullX := globalX + x
	fullY := globalY + y
	grainScale := 3 * float64(mean) * (1 - float64(mean)) * 1e-3
	grain := (hash2(int32(fullX), int32(fullY), 0)*2 - 1) * float32(grainScale)

	strength := numerics.Smoothstep(finalThreshold, 1.2*finalThreshold, maxDiff)
	newR := refR + grain
	newG := refG + grain
	newB := refB + grain

	return lerp32(r, newR, float32(strength)), lerp32(g, newG, float32(strength)), lerp32(b, newB, float32(strength))
}

func lumaMeanStd(buf *numerics.Buffer, x, y, radius int) (mean, std float32) {
	var sum, sumSq float32
	count := 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r, g, b := buf.At(x+dx, y+dy)
			l := numerics.Rec709Luma(r, g, b)
			sum += l
			sumSq += l * l
			count++
		}
	}
	mean = sum / float32(count)
	variance := sumSq/float32(count) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, float32(math.Sqrt(float64(variance)))
}

func lerp32(a, b, t float32) float32 { return a + (b-a)*t }

// applyManualHeal heals a pixel against any overlapping spot, sampling
// three jittered points along the spot-center-to-pixel ray at the spot
// radius and taking the minimum-luma rejection of residual dust (spec
// 4.4).
func applyManualHeal(src *numerics.Buffer, x, y, globalX, globalY, fullWidth, fullHeight int, r, g, b float32, spots []config.ManualSpot) (float32, float32, float32) {
	if len(spots) == 0 {
		return r, g, b
	}
	fullX := float64(globalX + x)
	fullY := float64(globalY + y)
	w, h := float64(fullWidth), float64(fullHeight)

	outR, outG, outB := r, g, b
	for i, spot := range spots {
		cx, cy := spot.X*w, spot.Y*h
		radiusPx := spot.R * math.Max(w, h)
		dx, dy := fullX-cx, fullY-cy
		dist := math.Hypot(dx, dy)
		if dist > radiusPx {
			continue
		}
		angle := math.Atan2(dy, dx)

		var sr, sg, sb float32
		for j := 0; j < 3; j++ {
			jitter := (hash2(int32(fullX), int32(fullY), int32(i*3+j)) - 0.5) * 0.3
			sampleAngle := angle + float64(jitter)
			sx := cx + radiusPx*math.Cos(sampleAngle)
			sy := cy + radiusPx*math.Sin(sampleAngle)
			// sx/sy are full-image coordinates; src is tile-local, so
			// translate back by the tile's offset. Export tiles carry a
			// fixed-width halo that does not depend on spot radius; a
			// sample that lands outside src is clamped to its edge by
			// Buffer.At.
			localX := int(sx) - globalX
			localY := int(sy) - globalY
			// reject residual dust at the sample with a 3x3 local minimum
			minLuma := numerics.MinLuma3x3(src, localX, localY)
			sRR, sGG, sBB := src.At(localX, localY)
			sLuma := numerics.Rec709Luma(sRR, sGG, sBB)
			if sLuma > minLuma {
				scale := minLuma / maxf32(sLuma, 1e-6)
				sRR, sGG, sBB = sRR*scale, sGG*scale, sBB*scale
			}
			sr += sRR
			sg += sGG
			sb += sBB
		}
		sr /= 3
		sg /= 3
		sb /= 3

		healLuma := numerics.Rec709Luma(sr, sg, sb)
		pixelLuma := numerics.Rec709Luma(outR, outG, outB)
		key := numerics.Smoothstep(0.04, 0.12, float64(pixelLuma-healLuma))
		feather := numerics.Smoothstep(radiusPx, 0.8*radiusPx, dist)
		blend := float32(key * feather)

		outR = lerp32(outR, sr, blend)
		outG = lerp32(outG, sg, blend)
		outB = lerp32(outB, sb, blend)
	}
	return outR, outG, outB
}

func maxf32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
