package export

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/negpy/negpy/internal/numerics"
)

// DownscalePreview resamples buf to fit within maxLongEdge on its longest
// side, used by the CLI's JPEG-alt preview path (spec 4.12 [EXPANSION]).
// buf is returned unchanged if it already fits. Catmull-Rom matches the
// teacher's preference for a sharper resample over simple box filtering
// when producing a human-facing preview rather than a calibration input.
func DownscalePreview(buf *numerics.Buffer, maxLongEdge int) *numerics.Buffer {
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

	src := image.NewRGBA64(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			r, g, b := buf.At(x, y)
			src.SetRGBA64(x, y, toRGBA64(r, g, b))
		}
	}

	dst := image.NewRGBA64(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := numerics.NewBuffer(dstW, dstH)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			c := dst.RGBA64At(x, y)
			out.Set(x, y, fromChannel16(c.R), fromChannel16(c.G), fromChannel16(c.B))
		}
	}
	return out
}

func fromChannel16(v uint16) float32 { return float32(v) / 65535 }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
