// Package stage implements the ten pipeline stage kernels (spec 4.2-4.8):
// Normalization, Transform, Retouch, Exposure, Lab, the three CLAHE passes,
// Toning, and Layout. Every kernel is a pure function of (input handles,
// uniform slice) -> output handle, sharing one dispatch signature, the move
// spec 9 calls out as replacing the source's "inheritance hierarchy over
// stage objects" -- the same collapse the teacher performs across its Tier
// 1/2a/2b render paths sharing one render-pass encoder shape
// (internal/gpu/render_pass.go).
package stage

import (
	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/texpool"
)

// RenderParams carries the per-render, non-uniform-block context a stage
// needs beyond its packed uniform slice: the active WorkspaceConfig (which
// the uniform writers read from; the manual spot list is packed into the
// Retouch uniform slice, capped at maxUniformSpots), the full-image
// dimensions, and the current tile's global offset for tiled export (spec
// 4.3, 4.11).
type RenderParams struct {
	Config      config.WorkspaceConfig
	Calibration [3]ChannelBound // resolved per-channel floor/ceil, auto or override
	FullWidth   int
	FullHeight  int
	GlobalX     int // tile's offset into the full image, 0 for untiled renders
	GlobalY     int
	RenderID    uint64
}

// ChannelBound is the resolved (non-auto) per-channel log10-density bound
// fed to the Normalization stage, after calibration has run (spec 4.10).
type ChannelBound struct {
	Floor, Ceil float64
}

// Stage is the shared dispatch signature every kernel implements (spec 2,
// item 4). CPU and GPU implementations are separate methods, so the stage
// itself never branches on backend.
type Stage interface {
	// Name identifies the stage for uniform-slice registration and texture
	// pool keys.
	Name() string

	// UniformSize returns the number of bytes this stage's packed uniform
	// fields occupy, before 256-byte alignment.
	UniformSize() int
}

// CPUStage is implemented by every stage except the three CLAHE passes,
// whose CPU paths (BuildCPU, ApplyCPU) take histogram/CDF arguments instead;
// it is also the reference implementation the GPU path is checked against
// (spec 8, "CPU/GPU agreement").
type CPUStage interface {
	Stage
	DispatchCPU(in []*numerics.Buffer, uniform []byte, out *numerics.Buffer, rp RenderParams) error
}

// GPUStage is implemented by stages with a GPU compute dispatch path. The
// three CLAHE passes do not implement it: their DispatchGPU methods take
// histogram/CDF buffers and so have different signatures.
type GPUStage interface {
	Stage
	DispatchGPU(ctx *GPUContext, in []texpool.Handle, uniform []byte, out texpool.Handle, rp RenderParams) error
}

// Order is the fixed stage ordering (spec 4.11): Normalization ->
// Transform -> Retouch -> Exposure -> Lab -> CLAHE (3 passes) -> Toning ->
// Layout.
var Order = []string{
	"normalization",
	"transform",
	"retouch",
	"exposure",
	"lab",
	"clahe_histogram",
	"clahe_cdf",
	"clahe_apply",
	"toning",
	"layout",
}
