package metrics

import "github.com/negpy/negpy/internal/numerics"

// CalibrationBounds holds the per-channel log-density floor/ceiling used by
// the Normalization stage (spec 3, spec 4.10). Floor and Ceil are log10 of
// linear radiance, matching numerics.Percentile's return convention.
type CalibrationBounds struct {
	Floor [3]float64
	Ceil  [3]float64
}

// calibrationFloorPercentile and calibrationCeilPercentile are the
// percentile pair the one-shot analysis uses to locate the usable
// log-density range, chosen to discard the extreme tails of film-base
// fog and rare specular highlights (spec 4.10).
const (
	calibrationFloorPercentile = 0.5
	calibrationCeilPercentile  = 99.5
)

// Calibrate performs the one-shot CPU analysis described in spec 4.10:
// downsample the demosaiced linear buffer to at most maxLongEdge pixels on
// its long edge, then compute the 0.5th and 99.5th percentiles of log10
// per channel. Called once per loaded file, before the first render.
func Calibrate(buf *numerics.Buffer, maxLongEdge int) CalibrationBounds {
	sampled := downsample(buf, maxLongEdge)

	var bounds CalibrationBounds
	for ch := 0; ch < 3; ch++ {
		channel := extractChannel(sampled, ch)
		bounds.Floor[ch] = numerics.Percentile(channel, calibrationFloorPercentile)
		bounds.Ceil[ch] = numerics.Percentile(channel, calibrationCeilPercentile)
	}
	return bounds
}

// downsample shrinks buf to fit within maxLongEdge on its longer side,
// returning buf unchanged if it already fits. Calibration only needs a
// statistically representative sample, not full resolution, so each
// output pixel takes the single source pixel nearest its cell center (no
// averaging).
func downsample(buf *numerics.Buffer, maxLongEdge int) *numerics.Buffer {
	longEdge := buf.Width
	if buf.Height > longEdge {
		longEdge = buf.Height
	}
	if longEdge <= maxLongEdge {
		return buf
	}

	scale := float64(maxLongEdge) / float64(longEdge)
	dstW := maxInt(1, int(float64(buf.Width)*scale))
	dstH := maxInt(1, int(float64(buf.Height)*scale))
	dst := numerics.NewBuffer(dstW, dstH)

	sx := float64(buf.Width) / float64(dstW)
	sy := float64(buf.Height) / float64(dstH)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			srcX := int((float64(x) + 0.5) * sx)
			srcY := int((float64(y) + 0.5) * sy)
			r, g, b := buf.At(srcX, srcY)
			dst.Set(x, y, r, g, b)
		}
	}
	return dst
}

func extractChannel(buf *numerics.Buffer, ch int) []float32 {
	out := make([]float32, buf.Width*buf.Height)
	i := 0
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			r, g, b := buf.At(x, y)
			switch ch {
			case 0:
				out[i] = r
			case 1:
				out[i] = g
			default:
				out[i] = b
			}
			i++
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
