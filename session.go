// Package negpy implements a deterministic film-negative development
// pipeline: a ten-stage compute sequence that turns a linear float-RGB
// scan buffer into a positive print, running identically on a GPU compute
// backend and a pure-CPU fallback (spec 1-2).
//
// Session is the stateful facade, grounded on the teacher's gg.Context /
// accelerator.go pairing: one GPU device (optional) plus a texture pool
// and uniform buffer live for the Session's lifetime, and the three
// operations below are its only blocking entry points (spec 4.12).
package negpy

import (
	"context"
	"fmt"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/engine"
	"github.com/negpy/negpy/internal/errs"
	"github.com/negpy/negpy/internal/loader"
	"github.com/negpy/negpy/internal/metrics"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/texpool"
)

// WorkspaceConfig is re-exported so callers never need to import
// internal/config directly (spec 4.12 [EXPANSION]).
type WorkspaceConfig = config.WorkspaceConfig

// RenderResult is re-exported from internal/engine.
type RenderResult = engine.RenderResult

// Default returns the neutral, pass-through-leaning WorkspaceConfig new
// edits start from (spec 3).
func Default() WorkspaceConfig { return config.Default() }

// ProcessMode and SizePolicy are re-exported so callers (including the CLI)
// never need to import internal/config directly.
type (
	ProcessMode = config.ProcessMode
	SizePolicy  = config.SizePolicy
)

const (
	ProcessC41Negative = config.ProcessC41Negative
	ProcessBWNegative  = config.ProcessBWNegative
	ProcessE6Positive  = config.ProcessE6Positive

	SizeOriginalResolution = config.SizeOriginalResolution
	SizePrintSizeCM        = config.SizePrintSizeCM
	SizeExplicitPixels     = config.SizeExplicitPixels
)

// DefaultTileBudgetBytes is the texture pool budget a Session uses when
// none is given explicitly, sized generously for a handful of full-frame
// 35mm/medium-format scans resident at once.
const DefaultTileBudgetBytes = 512 * 1024 * 1024

// Session is NegPy's stateful handle: one (optional) GPU device, one
// texture pool, and the calibration/CLAHE caches an open file accumulates
// across renders (spec 5, "no process-wide mutable state except the
// logger"). Create one Session per open file; call Close when done.
//
// Session is not safe for concurrent use; spec 5 mandates a single render
// worker goroutine per open file.
type Session struct {
	eng *engine.Engine

	editStore   loader.EditStore
	iccProvider loader.IccProvider
}

// NewSession creates a Session. With no options, it renders on the CPU
// fallback path and persists edits only in memory for the process
// lifetime.
func NewSession(opts ...SessionOption) (*Session, error) {
	o := defaultSessionOptions()
	for _, opt := range opts {
		opt(&o)
	}

	gpuCtx, alloc, err := buildGPUContext(o.gpuProvider)
	if err != nil {
		return nil, fmt.Errorf("negpy: %w", err)
	}

	pool := texpool.New(alloc, DefaultTileBudgetBytes)
	eng := engine.New(pool, gpuCtx, o.logger)
	if o.tileCap > 0 || o.haloPx > 0 {
		eng.SetTileBudget(o.tileCap, o.haloPx)
	}

	return &Session{eng: eng, editStore: o.editStore, iccProvider: o.iccProvider}, nil
}

// UsesGPU reports whether this Session acquired a GPU device. Rendering
// runs on the CPU path either way.
func (s *Session) UsesGPU() bool { return s.eng.UsesGPU() }

// LoadEdits returns the previously saved WorkspaceConfig for fingerprint,
// or config.Default() if none was ever saved.
func (s *Session) LoadEdits(ctx context.Context, fingerprint loader.Fingerprint) (WorkspaceConfig, error) {
	cfg, ok, err := s.editStore.Load(ctx, fingerprint)
	if err != nil {
		return WorkspaceConfig{}, fmt.Errorf("negpy: %w: %v", errs.ErrPersistenceFailed, err)
	}
	if !ok {
		return config.Default(), nil
	}
	return cfg, nil
}

// SaveEdits persists cfg under fingerprint.
func (s *Session) SaveEdits(ctx context.Context, fingerprint loader.Fingerprint, cfg WorkspaceConfig) error {
	if err := s.editStore.Save(ctx, fingerprint, cfg); err != nil {
		return fmt.Errorf("negpy: %w: %v", errs.ErrPersistenceFailed, err)
	}
	return nil
}

// Calibrate runs the one-shot calibration analysis (spec 4.10) over src
// and caches the result for subsequent RenderPreview/RenderExport calls on
// this Session. Call it once per loaded file before rendering, or again
// whenever the source buffer changes.
func (s *Session) Calibrate(ctx context.Context, src *numerics.Buffer, cfg WorkspaceConfig) metrics.CalibrationBounds {
	return s.eng.Calibrate(src, cfg.Normalization)
}

// RenderPreview runs the full pipeline over src at full resolution,
// suitable for interactive preview (spec 4.12). ctx is checked once,
// before the render starts; cancelling it does not interrupt a render that
// is already running.
func (s *Session) RenderPreview(ctx context.Context, src *numerics.Buffer, cfg WorkspaceConfig) (*RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.eng.RenderCPU(src, cfg)
}

// RenderExport runs the full pipeline over src, tiling internally when the
// output exceeds the engine's tile cap (spec 4.11, 4.12).
func (s *Session) RenderExport(ctx context.Context, src *numerics.Buffer, cfg WorkspaceConfig) (*RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.eng.RenderExportCPU(src, cfg)
}

// ComputeMetrics returns the autocrop suggestion and histogram for src
// without running the full pipeline, used by the UI's crop-assist and
// histogram panels (spec 4.9, 4.12).
func (s *Session) ComputeMetrics(ctx context.Context, src *numerics.Buffer, autocropThreshold float64) (metrics.CropBounds, metrics.HistogramResult, error) {
	if err := ctx.Err(); err != nil {
		return metrics.CropBounds{}, metrics.HistogramResult{}, err
	}
	crop := metrics.Autocrop(src, autocropThreshold)
	hist := metrics.ComputeHistogram(src)
	return crop, hist, nil
}

// IccProfile resolves cfg's color-space tag to an embeddable ICC profile,
// or nil if none is configured (spec 4.12, 6).
func (s *Session) IccProfile(ctx context.Context, cfg WorkspaceConfig) ([]byte, error) {
	return s.iccProvider.Profile(ctx, cfg.Export.ColorSpaceTag)
}

// Reset releases every pooled GPU/CPU resource and clears the
// calibration/CLAHE caches, called before loading a different file into
// the same Session (spec 5).
func (s *Session) Reset() { s.eng.Reset() }

// Close releases the Session's resources. After Close, the Session must
// not be used again.
func (s *Session) Close() { s.eng.Reset() }
