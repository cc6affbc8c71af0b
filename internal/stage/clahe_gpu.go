//go:build !nogpu

package stage

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/types"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/clahe_histogram.wgsl
var claheHistogramWGSL string

//go:embed shaders/clahe_cdf.wgsl
var claheCDFWGSL string

//go:embed shaders/clahe_apply.wgsl
var claheApplyWGSL string

// HistogramBufferSize is the byte size of the shared per-session histogram
// and CDF storage buffers (spec 4.11: CLAHE's 8x8 grid is always computed
// over the full image, so tiled export reuses this one buffer pair rather
// than allocating per export tile).
const HistogramBufferSize = claheTileCount * claheBins * 4

func newStorageBuffer(device hal.Device, label string, size int) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: types.BufferUsageStorage | types.BufferUsageCopySrc | types.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("stage: create %s buffer: %w", label, err)
	}
	return buf, nil
}

// DispatchGPU runs the histogram-building compute kernel (spec 4.7),
// zeroing histBuf first since atomicAdd accumulates into it.
func (ClaheHistogram) DispatchGPU(ctx *GPUContext, src texpool.Handle, histBuf hal.Buffer) error {
	tex, err := toTexture(src)
	if err != nil {
		return err
	}
	key := src.Key()
	module, err := ctx.ShaderModule("clahe_histogram", claheHistogramWGSL)
	if err != nil {
		return err
	}
	return dispatchComputeBuffers(ctx, module, "main", []hal.Texture{tex}, nil, []hal.Buffer{histBuf}, key.Width, key.Height)
}

// DispatchGPU runs the CDF pass (spec 4.7): one workgroup per grid tile.
func (ClaheCDF) DispatchGPU(ctx *GPUContext, histBuf, cdfBuf hal.Buffer, uniformSlice []byte) error {
	module, err := ctx.ShaderModule("clahe_cdf", claheCDFWGSL)
	if err != nil {
		return err
	}
	return dispatchComputeBuffersDirect(ctx, module, "main", nil, ctx.UniformBuffer, 0, []hal.Buffer{histBuf, cdfBuf}, claheTileCount, 1, 1)
}

// DispatchGPU runs the apply pass (spec 4.7).
func (ClaheApply) DispatchGPU(ctx *GPUContext, in []texpool.Handle, cdfBuf hal.Buffer, uniformSlice []byte, out texpool.Handle) error {
	inTex, err := toTextures(in)
	if err != nil {
		return err
	}
	outTex, err := toTexture(out)
	if err != nil {
		return err
	}
	key := out.Key()
	module, err := ctx.ShaderModule("clahe_apply", claheApplyWGSL)
	if err != nil {
		return err
	}
	return dispatchApplyWithStorage(ctx, module, "main", inTex, outTex, cdfBuf, key.Width, key.Height)
}
