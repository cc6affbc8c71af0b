//go:build !nogpu

package stage

import (
	_ "embed"

	"github.com/gogpu/wgpu/hal"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/metrics_histogram.wgsl
var metricsHistogramWGSL string

// MetricsHistogramBins is the per-channel bin count for the four histogram
// storage buffers (spec 4.9).
const MetricsHistogramBins = 256

// MetricsHistogramBufferSize is the byte size of one of the four
// per-channel histogram storage buffers.
const MetricsHistogramBufferSize = MetricsHistogramBins * 4

// DispatchMetricsHistogramGPU runs the four-channel (R, G, B, luma) atomic
// histogram kernel over src for the engine's metrics pass (spec 4.9), used
// on the post-toning texture. The four buffers must be zeroed by the
// caller before dispatch since atomicAdd only accumulates.
func DispatchMetricsHistogramGPU(ctx *GPUContext, src texpool.Handle, redBuf, greenBuf, blueBuf, lumaBuf hal.Buffer) error {
	tex, err := toTexture(src)
	if err != nil {
		return err
	}
	key := src.Key()
	module, err := ctx.ShaderModule("metrics_histogram", metricsHistogramWGSL)
	if err != nil {
		return err
	}
	return dispatchComputeBuffers(ctx, module, "main", []hal.Texture{tex}, nil, []hal.Buffer{redBuf, greenBuf, blueBuf, lumaBuf}, key.Width, key.Height)
}
