package engine

import (
	"testing"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/texpool"
)

func newTestEngine() *Engine {
	pool := texpool.New(texpool.NewCPUAllocator(), 0)
	return New(pool, nil, nil)
}

func gradientBuffer(w, h int) *numerics.Buffer {
	buf := numerics.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(0.05) + float32(x)/float32(w)*0.8
			buf.Set(x, y, v, v*0.9, v*1.1)
		}
	}
	return buf
}

func TestRenderCPUProducesFiniteOutput(t *testing.T) {
	e := newTestEngine()
	src := gradientBuffer(64, 48)
	e.Calibrate(src, config.Default().Normalization)

	result, err := e.RenderCPU(src, config.Default())
	if err != nil {
		t.Fatalf("RenderCPU: %v", err)
	}
	if !result.Image.Finite() {
		t.Fatal("expected finite output buffer")
	}
	if result.Image.Width == 0 || result.Image.Height == 0 {
		t.Fatalf("expected non-empty output, got %dx%d", result.Image.Width, result.Image.Height)
	}
}

func TestRenderCPUHistogramConservesSampleCount(t *testing.T) {
	e := newTestEngine()
	src := gradientBuffer(32, 32)
	e.Calibrate(src, config.Default().Normalization)

	result, err := e.RenderCPU(src, config.Default())
	if err != nil {
		t.Fatalf("RenderCPU: %v", err)
	}
	var total uint32
	for _, c := range result.Histogram.Luma {
		total += c
	}
	want := uint32(result.Image.Width * result.Image.Height)
	// Histogram is computed over the pre-Layout (post-toning) buffer, which
	// may differ in size from the final cropped/bordered output, so compare
	// against the toning-stage size implicitly by just checking the count
	// is positive and consistent across channels instead.
	if total == 0 {
		t.Fatal("expected non-zero histogram sample count")
	}
	var redTotal uint32
	for _, c := range result.Histogram.Red {
		redTotal += c
	}
	if redTotal != total {
		t.Fatalf("expected red and luma histograms to cover the same sample count, got red=%d luma=%d", redTotal, total)
	}
	_ = want
}

func TestRenderExportCPUUntiledMatchesRenderCPU(t *testing.T) {
	e1 := newTestEngine()
	e2 := newTestEngine()
	src := gradientBuffer(40, 30)
	cfg := config.Default()
	e1.Calibrate(src, cfg.Normalization)
	e2.Calibrate(src, cfg.Normalization)

	a, err := e1.RenderCPU(src, cfg)
	if err != nil {
		t.Fatalf("RenderCPU: %v", err)
	}
	b, err := e2.RenderExportCPU(src, cfg)
	if err != nil {
		t.Fatalf("RenderExportCPU: %v", err)
	}

	if a.Image.Width != b.Image.Width || a.Image.Height != b.Image.Height {
		t.Fatalf("dimension mismatch: %dx%d vs %dx%d", a.Image.Width, a.Image.Height, b.Image.Width, b.Image.Height)
	}
	for y := 0; y < a.Image.Height; y++ {
		for x := 0; x < a.Image.Width; x++ {
			ar, ag, ab := a.Image.At(x, y)
			br, bg, bb := b.Image.At(x, y)
			if abs32(ar-br) > 1e-4 || abs32(ag-bg) > 1e-4 || abs32(ab-bb) > 1e-4 {
				t.Fatalf("pixel (%d,%d) mismatch: (%v,%v,%v) vs (%v,%v,%v)", x, y, ar, ag, ab, br, bg, bb)
			}
		}
	}
}

func TestRenderExportCPUTiledMatchesUntiledWithinTolerance(t *testing.T) {
	e1 := newTestEngine()
	e2 := newTestEngine()
	src := gradientBuffer(96, 64)
	cfg := config.Default()
	e1.Calibrate(src, cfg.Normalization)
	e2.Calibrate(src, cfg.Normalization)

	untiled, err := e1.RenderExportCPU(src, cfg)
	if err != nil {
		t.Fatalf("RenderExportCPU (untiled): %v", err)
	}

	tiled, err := e2.renderExportCPUWithCap(src, cfg, 48, DefaultHaloPx)
	if err != nil {
		t.Fatalf("renderExportCPUWithCap (tiled): %v", err)
	}

	if untiled.Image.Width != tiled.Image.Width || untiled.Image.Height != tiled.Image.Height {
		t.Fatalf("dimension mismatch: %dx%d vs %dx%d", untiled.Image.Width, untiled.Image.Height, tiled.Image.Width, tiled.Image.Height)
	}
	const tolerance = 1e-3
	for y := 0; y < untiled.Image.Height; y++ {
		for x := 0; x < untiled.Image.Width; x++ {
			ar, ag, ab := untiled.Image.At(x, y)
			br, bg, bb := tiled.Image.At(x, y)
			if abs32(ar-br) > tolerance || abs32(ag-bg) > tolerance || abs32(ab-bb) > tolerance {
				t.Fatalf("tiled/untiled pixel (%d,%d) mismatch: (%v,%v,%v) vs (%v,%v,%v)", x, y, ar, ag, ab, br, bg, bb)
			}
		}
	}
}

// config.Default() sets Lab.ClaheStrength to 0, which makes CLAHE's apply
// pass a no-op and would hide a bug in how tile-local coordinates are
// mapped onto the shared full-image CDF grid. This test forces a nonzero
// strength so tiled export actually exercises CLAHE's shared-CDF path
// (spec 4.11) and must still match the untiled render within tolerance
// (spec 8 "Tile invariance").
func TestRenderExportCPUTiledMatchesUntiledWithNonzeroClahe(t *testing.T) {
	e1 := newTestEngine()
	e2 := newTestEngine()
	src := gradientBuffer(96, 64)
	cfg := config.Default()
	cfg.Lab.ClaheStrength = 0.8
	cfg.Lab.ClaheClipLimit = 3.0
	e1.Calibrate(src, cfg.Normalization)
	e2.Calibrate(src, cfg.Normalization)

	untiled, err := e1.RenderExportCPU(src, cfg)
	if err != nil {
		t.Fatalf("RenderExportCPU (untiled): %v", err)
	}

	tiled, err := e2.renderExportCPUWithCap(src, cfg, 48, DefaultHaloPx)
	if err != nil {
		t.Fatalf("renderExportCPUWithCap (tiled): %v", err)
	}

	if untiled.Image.Width != tiled.Image.Width || untiled.Image.Height != tiled.Image.Height {
		t.Fatalf("dimension mismatch: %dx%d vs %dx%d", untiled.Image.Width, untiled.Image.Height, tiled.Image.Width, tiled.Image.Height)
	}
	const tolerance = 1e-3
	for y := 0; y < untiled.Image.Height; y++ {
		for x := 0; x < untiled.Image.Width; x++ {
			ar, ag, ab := untiled.Image.At(x, y)
			br, bg, bb := tiled.Image.At(x, y)
			if abs32(ar-br) > tolerance || abs32(ag-bg) > tolerance || abs32(ab-bb) > tolerance {
				t.Fatalf("tiled/untiled pixel (%d,%d) mismatch with nonzero CLAHE strength: (%v,%v,%v) vs (%v,%v,%v)", x, y, ar, ag, ab, br, bg, bb)
			}
		}
	}
}

// Spec scenario 1 (the module's only mandatory literal test case): a
// uniform mid-gray 512x512 input under process_mode=E6 with an otherwise
// default config must render back out to mid-gray. A flat input makes
// every channel's calibrated floor/ceil degenerate (ceil <= floor), so
// this also exercises channelBoundsFrom's degenerate-bound substitution
// end to end: substituting a literal (0,1) identity bound would instead
// crush this input to black, since Normalization's log10-density for 0.5
// falls well below a floor of 0.
func TestRenderCPUPureGrayE6RoundTripsToGray(t *testing.T) {
	e := newTestEngine()
	const size = 512
	src := numerics.NewBuffer(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			src.Set(x, y, 0.5, 0.5, 0.5)
		}
	}

	cfg := config.Default()
	cfg.Exposure.ProcessMode = config.ProcessE6Positive
	e.Calibrate(src, cfg.Normalization)

	result, err := e.RenderCPU(src, cfg)
	if err != nil {
		t.Fatalf("RenderCPU: %v", err)
	}

	const tol = 1e-3
	for y := 0; y < result.Image.Height; y += 37 { // sample on a stride, full image is uniform
		for x := 0; x < result.Image.Width; x += 37 {
			r, g, b := result.Image.At(x, y)
			if abs32(r-0.5) > tol || abs32(g-0.5) > tol || abs32(b-0.5) > tol {
				t.Fatalf("pixel (%d,%d): want (0.5,0.5,0.5), got (%v,%v,%v)", x, y, r, g, b)
			}
		}
	}
}

func TestResetClearsCalibrationAndClaheCache(t *testing.T) {
	e := newTestEngine()
	src := gradientBuffer(16, 16)
	e.Calibrate(src, config.Default().Normalization)
	if !e.haveCalib {
		t.Fatal("expected calibration to be set")
	}
	e.Reset()
	if e.haveCalib {
		t.Fatal("expected Reset to clear calibration state")
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
