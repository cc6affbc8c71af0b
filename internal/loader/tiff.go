package loader

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/negpy/negpy/internal/errs"
	"github.com/negpy/negpy/internal/numerics"
)

// TIFFLoader decodes 16-bit (or 8-bit) TIFF scans into a linear float-RGB
// buffer. It is the one concrete, in-scope ImageLoader: RAW demosaicing
// and any vendor-specific scanner format are out of scope (spec
// Non-goals), but a scanned negative already exported to TIFF by the
// scanning software is a plain image decode, not a RAW pipeline.
type TIFFLoader struct{}

func (TIFFLoader) Supports(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".tif") || strings.HasSuffix(lower, ".tiff")
}

func (l TIFFLoader) Load(ctx context.Context, path string) (*numerics.Buffer, error) {
	if !l.Supports(path) {
		return nil, fmt.Errorf("loader: %w: %s", errs.ErrLoaderUnsupported, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %s: %v", errs.ErrPathNotFound, path, err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %s: %v", errs.ErrLoaderCorrupt, path, err)
	}

	bounds := img.Bounds()
	buf := numerics.NewBuffer(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := sampleRGB(img, x, y)
			buf.Set(x-bounds.Min.X, y-bounds.Min.Y, r, g, b)
		}
	}
	return buf, nil
}

// sampleRGB reads a pixel through image.Image's 16-bit-per-channel color
// model regardless of the TIFF's native bit depth, then normalizes to
// [0,1] linear-light float32.
func sampleRGB(img image.Image, x, y int) (r, g, b float32) {
	cr, cg, cb, _ := img.At(x, y).RGBA()
	return float32(cr) / 65535, float32(cg) / 65535, float32(cb) / 65535
}
