// Package engine assembles the stage kernels in internal/stage into the
// render pipeline described in spec 4.11: ordered dispatch, tiled export
// with halo reconstruction, calibration, and metrics readback. It is the
// single render worker the rest of the system talks to (spec 5); the UI
// and CLI never touch internal/stage or internal/texpool directly.
//
// Grounded on the teacher's Context/Renderer split (renderer.go,
// software.go): the teacher picks a Renderer implementation per Context
// and always has a software fallback ready. Engine generalizes that to a
// ten-stage pipeline instead of a single draw call, with the same
// GPU-first/CPU-fallback contract (spec 4.11, item viii).
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/errs"
	"github.com/negpy/negpy/internal/metrics"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/stage"
	"github.com/negpy/negpy/internal/texpool"
	"github.com/negpy/negpy/internal/uniform"
)

// DefaultTileCap is the hardware-derived tile size cap for tiled export
// (spec 4.11): outputs whose longest edge exceeds this are sliced into
// tiles with DefaultHaloPx of overlap on every side.
const DefaultTileCap = 2048

// DefaultHaloPx is the halo width tiled export carries on every side of a
// tile, sized to cover Retouch's largest plausible manual-spot radius
// (spec 4.11).
const DefaultHaloPx = 32

// Engine owns the stage pipeline's shared resources: the texture/buffer
// pool and the per-session calibration cache. One Engine serves one
// loaded file at a time; loading a new file calls Reset.
//
// Engine is not safe for concurrent Render calls; spec 5 mandates a
// single render worker goroutine driving it. Engine itself does no
// locking, so callers must serialize their calls.
type Engine struct {
	pool *texpool.Pool

	gpu *stage.GPUContext // nil selects the CPU fallback path (spec 4.11, item viii)

	calibration metrics.CalibrationBounds
	haveCalib   bool

	renderID atomic.Uint64

	claheHistCache *stage.ClaheHistogramData // shared per-session CLAHE context (spec 4.11)
	claheCDFCache  *stage.ClaheCDFData

	tileCap int // 0 means DefaultTileCap
	haloPx  int // 0 means DefaultHaloPx

	logger *slog.Logger
}

// SetTileBudget overrides the tile cap and halo width tiled export uses.
// Passing 0 for either restores that value's engine default.
func (e *Engine) SetTileBudget(tileCap, haloPx int) {
	e.tileCap = tileCap
	e.haloPx = haloPx
}

func (e *Engine) tileBudget() (tileCap, haloPx int) {
	tileCap, haloPx = e.tileCap, e.haloPx
	if tileCap <= 0 {
		tileCap = DefaultTileCap
	}
	if haloPx <= 0 {
		haloPx = DefaultHaloPx
	}
	return tileCap, haloPx
}

// New creates an Engine backed by pool. gpu may be nil, in which case
// every render runs the CPU fallback path.
func New(pool *texpool.Pool, gpu *stage.GPUContext, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(nopHandler{})
	}
	return &Engine{pool: pool, gpu: gpu, logger: logger}
}

// nopHandler discards all log records, the default when the caller
// supplies no logger (mirrors gg's package-level nopHandler).
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// UsesGPU reports whether this Engine was given a GPU context. The render
// methods (RenderCPU, RenderExportCPU) run the CPU path either way.
func (e *Engine) UsesGPU() bool { return e.gpu != nil }

// Reset releases every pooled resource and clears calibration/CLAHE
// caches, called when a new file is loaded (spec 5: "an explicit
// cleanup() releases all pool entries before the worker returns").
func (e *Engine) Reset() {
	e.pool.Cleanup()
	e.haveCalib = false
	e.claheHistCache = nil
	e.claheCDFCache = nil
}

// Calibrate runs the one-shot CPU analysis (spec 4.10) over the
// demosaiced linear buffer and caches the result for subsequent renders.
// If cfg carries an explicit per-channel override (Auto == false), that
// override wins over the computed bound for that channel.
func (e *Engine) Calibrate(buf *numerics.Buffer, cfg config.Normalization) metrics.CalibrationBounds {
	bounds := metrics.Calibrate(buf, DefaultTileCap)
	e.calibration = resolveCalibrationOverrides(bounds, cfg)
	e.haveCalib = true
	return e.calibration
}

// resolveCalibrationOverrides applies any manual per-channel bound the
// user set in cfg over the auto-computed bounds (spec 4.10: "If the user
// overrides, the config values win").
func resolveCalibrationOverrides(bounds metrics.CalibrationBounds, cfg config.Normalization) metrics.CalibrationBounds {
	channels := [3]config.ChannelBound{cfg.Red, cfg.Green, cfg.Blue}
	for i, ch := range channels {
		if !ch.Auto {
			bounds.Floor[i] = ch.Floor
			bounds.Ceil[i] = ch.Ceil
		}
	}
	return bounds
}

// degenerateBoundHalfSpan is half the log10-density span substituted for a
// degenerate (flat) channel, centered on the single observed density so
// that value normalizes to the middle of the output range instead of
// being clamped to black. A literal (0,1) identity bound would instead
// normalize any degenerate value below 1.0 toward 0, silently crushing a
// uniform gray input to black (spec 8, "pure gray input must round-trip
// to itself"). 0.5 log10-decades is on the order of a stop of exposure
// latitude either side of the observed value, wide enough that the one
// repeated density in a flat channel never lands exactly on an edge.
const degenerateBoundHalfSpan = 0.5

// channelBoundsFrom converts metrics.CalibrationBounds into the
// [3]stage.ChannelBound RenderParams expects, substituting a bound
// centered on the observed density when floor >= ceil for a channel and
// logging errs.ErrCalibrationDegenerate as a warning rather than failing
// the render.
func (e *Engine) channelBoundsFrom(bounds metrics.CalibrationBounds) [3]stage.ChannelBound {
	var out [3]stage.ChannelBound
	for i := 0; i < 3; i++ {
		floor, ceil := bounds.Floor[i], bounds.Ceil[i]
		if ceil-floor <= numerics.DensityEpsilon {
			observed := floor
			e.logger.Warn("calibration degenerate, substituting bound centered on observed density",
				"channel", i, "observed", observed, "err", errs.ErrCalibrationDegenerate)
			floor, ceil = observed-degenerateBoundHalfSpan, observed+degenerateBoundHalfSpan
		}
		out[i] = stage.ChannelBound{Floor: floor, Ceil: ceil}
	}
	return out
}

// nextRenderID allocates a monotonically increasing render id for
// coalescing and metrics tagging (spec 5: "Metrics delivered
// asynchronously are tagged with the render id they belong to").
func (e *Engine) nextRenderID() uint64 { return e.renderID.Add(1) }

// newRenderParams builds the base RenderParams for an untiled render at
// full image dimensions.
func (e *Engine) newRenderParams(cfg config.WorkspaceConfig, fullW, fullH int, renderID uint64) stage.RenderParams {
	bounds := e.calibration
	if !e.haveCalib {
		bounds = metrics.CalibrationBounds{Floor: [3]float64{0, 0, 0}, Ceil: [3]float64{1, 1, 1}}
	}
	return stage.RenderParams{
		Config:      cfg,
		Calibration: e.channelBoundsFrom(bounds),
		FullWidth:   fullW,
		FullHeight:  fullH,
		GlobalX:     0,
		GlobalY:     0,
		RenderID:    renderID,
	}
}

// newUniformBlock registers every stage's uniform slice in pipeline order,
// the layout the engine's GPU-side uniform buffer mirrors 1:1 (spec 2).
// Block grows its backing storage on demand, so no capacity estimate is
// needed up front.
func newUniformBlock() *uniform.Block {
	sizes := map[string]int{
		"normalization": stage.Normalization{}.UniformSize(),
		"transform":     stage.Transform{}.UniformSize(),
		"retouch":       stage.Retouch{}.UniformSize(),
		"exposure":      stage.Exposure{}.UniformSize(),
		"lab":           stage.Lab{}.UniformSize(),
		"clahe_cdf":     stage.ClaheCDF{}.UniformSize(),
		"clahe_apply":   stage.ClaheApply{}.UniformSize(),
		"toning":        stage.Toning{}.UniformSize(),
		"layout":        stage.Layout{}.UniformSize(),
	}
	block := uniform.NewBlock(0)
	for _, name := range stage.Order {
		if name == "clahe_histogram" {
			continue // no uniform fields (spec 4.7 pass 1 is parameter-free)
		}
		_ = block.Register(name, sizes[name])
	}
	return block
}
