package engine

import (
	"fmt"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/errs"
	"github.com/negpy/negpy/internal/metrics"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/stage"
	"github.com/negpy/negpy/internal/uniform"
)

// tileRect is one export tile's placement within the full Transform
// output, plus its halo-expanded source rectangle (spec 4.11).
type tileRect struct {
	// OutX0, OutY0, OutX1, OutY1 bound the tile's contribution to the final
	// (halo-free) output, in full-image coordinates.
	OutX0, OutY0, OutX1, OutY1 int
	// SrcX0, SrcY0, SrcX1, SrcY1 bound the halo-expanded region read from
	// the source, clamped to the image edges.
	SrcX0, SrcY0, SrcX1, SrcY1 int
}

// planTiles slices a fullW x fullH image into tileCap-sized tiles with
// haloPx of overlap on every side (spec 4.11). A single tile spanning the
// whole image is returned when both dimensions already fit.
func planTiles(fullW, fullH, tileCap, haloPx int) []tileRect {
	if fullW <= tileCap && fullH <= tileCap {
		return []tileRect{{OutX0: 0, OutY0: 0, OutX1: fullW, OutY1: fullH, SrcX0: 0, SrcY0: 0, SrcX1: fullW, SrcY1: fullH}}
	}

	var tiles []tileRect
	for y0 := 0; y0 < fullH; y0 += tileCap {
		y1 := minInt(y0+tileCap, fullH)
		for x0 := 0; x0 < fullW; x0 += tileCap {
			x1 := minInt(x0+tileCap, fullW)
			tiles = append(tiles, tileRect{
				OutX0: x0, OutY0: y0, OutX1: x1, OutY1: y1,
				SrcX0: maxInt(x0-haloPx, 0),
				SrcY0: maxInt(y0-haloPx, 0),
				SrcX1: minInt(x1+haloPx, fullW),
				SrcY1: minInt(y1+haloPx, fullH),
			})
		}
	}
	return tiles
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// extractTile copies the halo-expanded source rectangle of t out of full
// into a freshly allocated tile-local buffer.
func extractTile(full *numerics.Buffer, t tileRect) *numerics.Buffer {
	w, h := t.SrcX1-t.SrcX0, t.SrcY1-t.SrcY0
	out := numerics.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := full.At(t.SrcX0+x, t.SrcY0+y)
			out.Set(x, y, r, g, b)
		}
	}
	return out
}

// compositeTile copies the halo-free portion of a processed tile buffer
// into dst at the tile's output placement, discarding the halo (spec
// 4.11: "After all stages, halos are discarded and tiles are copied into
// a contiguous output").
func compositeTile(dst *numerics.Buffer, tileBuf *numerics.Buffer, t tileRect) {
	innerX0 := t.OutX0 - t.SrcX0
	innerY0 := t.OutY0 - t.SrcY0
	w, h := t.OutX1-t.OutX0, t.OutY1-t.OutY0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := tileBuf.At(innerX0+x, innerY0+y)
			dst.Set(t.OutX0+x, t.OutY0+y, r, g, b)
		}
	}
}

// RenderExportCPU runs the full pipeline over src, tiling the work when
// the Transform output's longest edge exceeds DefaultTileCap (spec
// 4.11). Every tile carries its own global_offset/full_dims so Retouch's
// coordinate-sensitive kernels (manual spots, dust hashes) behave
// identically to the untiled render (spec 3 invariant iii, spec 8 "Tile
// invariance"); CLAHE instead reuses one shared histogram/CDF built from
// the untiled Lab-stage output (spec 4.11).
func (e *Engine) RenderExportCPU(src *numerics.Buffer, cfg config.WorkspaceConfig) (*RenderResult, error) {
	tileCap, haloPx := e.tileBudget()
	return e.renderExportCPUWithCap(src, cfg, tileCap, haloPx)
}

// renderExportCPUWithCap is RenderExportCPU parameterized over the tile cap
// and halo width, split out so tests can exercise the tiled path against
// small synthetic images instead of allocating multi-thousand-pixel buffers.
func (e *Engine) renderExportCPUWithCap(src *numerics.Buffer, cfg config.WorkspaceConfig, tileCap, haloPx int) (*RenderResult, error) {
	renderID := e.nextRenderID()

	fullW, fullH := src.Width, src.Height
	block := newUniformBlock()
	baseRP := e.newRenderParams(cfg, fullW, fullH, renderID)

	normOut := numerics.NewBuffer(fullW, fullH)
	if err := dispatchCPU(block, stage.Normalization{}, stage.WriteNormalizationUniform, src, normOut, baseRP); err != nil {
		return nil, err
	}

	tw, th := stage.OutputDims(fullW, fullH, cfg.Geometry.RotationDeg)
	transformOut := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Transform{}, stage.WriteTransformUniform, normOut, transformOut, baseRP); err != nil {
		return nil, err
	}

	if tw <= tileCap && th <= tileCap {
		return e.renderFromTransformCPU(transformOut, cfg, block, renderID)
	}

	// CLAHE's 8x8 grid must see the whole image (spec 4.11), so build the
	// shared histogram/CDF once from the Lab-stage output at full
	// resolution before tiling Retouch/Exposure/Lab per tile. Running Lab
	// untiled here is cheap relative to the export and keeps the CLAHE
	// context correct without a second full-resolution Lab dispatch per
	// export tile.
	fullRP := baseRP
	fullRP.FullWidth, fullRP.FullHeight = tw, th
	fullRetouch := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Retouch{}, stage.WriteRetouchUniform, transformOut, fullRetouch, fullRP); err != nil {
		return nil, err
	}
	fullExposure := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Exposure{}, stage.WriteExposureUniform, fullRetouch, fullExposure, fullRP); err != nil {
		return nil, err
	}
	fullLab := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Lab{}, stage.WriteLabUniform, fullExposure, fullLab, fullRP); err != nil {
		return nil, err
	}
	if _, err := e.runClaheCPU(fullLab, fullRP); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	tiles := planTiles(tw, th, tileCap, haloPx)
	toningFull := numerics.NewBuffer(tw, th)
	for _, t := range tiles {
		tileSrc := extractTile(transformOut, t)
		rp := baseRP
		rp.FullWidth, rp.FullHeight = tw, th
		rp.GlobalX, rp.GlobalY = t.SrcX0, t.SrcY0

		retouchOut := numerics.NewBuffer(tileSrc.Width, tileSrc.Height)
		if err := dispatchCPU(block, stage.Retouch{}, stage.WriteRetouchUniform, tileSrc, retouchOut, rp); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrTileDispatchFailed, err)
		}
		exposureOut := numerics.NewBuffer(tileSrc.Width, tileSrc.Height)
		if err := dispatchCPU(block, stage.Exposure{}, stage.WriteExposureUniform, retouchOut, exposureOut, rp); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrTileDispatchFailed, err)
		}
		labOut := numerics.NewBuffer(tileSrc.Width, tileSrc.Height)
		if err := dispatchCPU(block, stage.Lab{}, stage.WriteLabUniform, exposureOut, labOut, rp); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrTileDispatchFailed, err)
		}
		claheOut, err := e.runClaheCPUSharedCDF(labOut, rp)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrTileDispatchFailed, err)
		}
		toningOut := numerics.NewBuffer(tileSrc.Width, tileSrc.Height)
		if err := dispatchCPU(block, stage.Toning{}, stage.WriteToningUniform, claheOut, toningOut, rp); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrTileDispatchFailed, err)
		}
		compositeTile(toningFull, toningOut, t)
	}

	return e.finishLayoutCPU(toningFull, cfg, block, baseRP, renderID)
}

// renderFromTransformCPU runs the remaining stages (Retouch through
// Layout) untiled, used when the Transform output already fits within
// one tile.
func (e *Engine) renderFromTransformCPU(transformOut *numerics.Buffer, cfg config.WorkspaceConfig, block *uniform.Block, renderID uint64) (*RenderResult, error) {
	rp := e.newRenderParams(cfg, transformOut.Width, transformOut.Height, renderID)

	retouchOut := numerics.NewBuffer(transformOut.Width, transformOut.Height)
	if err := dispatchCPU(block, stage.Retouch{}, stage.WriteRetouchUniform, transformOut, retouchOut, rp); err != nil {
		return nil, err
	}
	exposureOut := numerics.NewBuffer(transformOut.Width, transformOut.Height)
	if err := dispatchCPU(block, stage.Exposure{}, stage.WriteExposureUniform, retouchOut, exposureOut, rp); err != nil {
		return nil, err
	}
	labOut := numerics.NewBuffer(transformOut.Width, transformOut.Height)
	if err := dispatchCPU(block, stage.Lab{}, stage.WriteLabUniform, exposureOut, labOut, rp); err != nil {
		return nil, err
	}
	claheOut, err := e.runClaheCPU(labOut, rp)
	if err != nil {
		return nil, err
	}
	toningOut := numerics.NewBuffer(transformOut.Width, transformOut.Height)
	if err := dispatchCPU(block, stage.Toning{}, stage.WriteToningUniform, claheOut, toningOut, rp); err != nil {
		return nil, err
	}
	return e.finishLayoutCPU(toningOut, cfg, block, rp, renderID)
}

// finishLayoutCPU runs the Layout stage and computes the final histogram,
// the tail shared by both the tiled and untiled export paths.
func (e *Engine) finishLayoutCPU(toningOut *numerics.Buffer, cfg config.WorkspaceConfig, block *uniform.Block, rp stage.RenderParams, renderID uint64) (*RenderResult, error) {
	lw, lh := stage.Layout{}.OutputDims(toningOut.Width, toningOut.Height, cfg.Geometry, cfg.Export.Border)
	layoutOut := numerics.NewBuffer(lw, lh)
	cropPx := stage.CropPixels(cfg.Geometry.Crop, toningOut.Width, toningOut.Height)
	// Same border width Layout.OutputDims padded the canvas by.
	cropW, cropH := toningOut.Width, toningOut.Height
	if !cfg.Geometry.KeepFullFrame {
		cropW, cropH = int(cropPx[2]-cropPx[0]), int(cropPx[3]-cropPx[1])
	}
	borderPx := float64(int(cfg.Export.Border.WidthNormalized * float64(maxInt(cropW, cropH))))
	layoutSlice, err := block.Slice("layout")
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	stage.WriteLayoutUniform(layoutSlice, rp, cropPx, borderPx)
	if err := (stage.Layout{}).DispatchCPU([]*numerics.Buffer{toningOut}, layoutSlice, layoutOut, rp); err != nil {
		return nil, fmt.Errorf("engine: layout dispatch: %w", err)
	}

	return &RenderResult{Image: layoutOut, Histogram: metrics.ComputeHistogram(toningOut), RenderID: renderID}, nil
}
