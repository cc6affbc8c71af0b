// Package export implements NegPy's two file-facing output paths: the
// 16-bit TIFF final encoder and the downscaled preview used by the CLI's
// JPEG-alt path. Grounded on the teacher's image/file boundary style
// (pixmap.go's SavePNG), generalized from 8-bit PNG to 16-bit TIFF since
// a darkroom print output should not quantize to 8 bits per channel before
// the user's own editor gets a chance at it.
package export

import (
	"image"
	"image/color"
	"io"

	"golang.org/x/image/tiff"

	"github.com/negpy/negpy/internal/numerics"
)

// EncodeTIFF16 writes buf as an uncompressed 16-bit-per-channel TIFF,
// bypassing any color-management library and writing RGB planes directly
// (spec 4.12): the embedded ICC tag, if any, is attached separately by the
// caller via loader.IccProvider, not by this encoder.
func EncodeTIFF16(w io.Writer, buf *numerics.Buffer) error {
	img := image.NewRGBA64(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			r, g, b := buf.At(x, y)
			img.SetRGBA64(x, y, toRGBA64(r, g, b))
		}
	}
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Uncompressed, Predictor: false})
}

func toRGBA64(r, g, b float32) color.RGBA64 {
	return color.RGBA64{R: clampTo16(r), G: clampTo16(g), B: clampTo16(b), A: 0xffff}
}

func clampTo16(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xffff
	}
	return uint16(v*65535 + 0.5)
}
