//go:build !nogpu

package stage

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/negpy/negpy/internal/texpool"
)

// toTexture type-asserts a pool handle's opaque GPU payload to a
// hal.Texture, returning an error for a handle that was never given one
// (e.g. a CPU-mode handle reaching a GPU dispatch path by mistake).
func toTexture(h texpool.Handle) (hal.Texture, error) {
	tex, ok := h.GPU().(hal.Texture)
	if !ok || tex == nil {
		return nil, fmt.Errorf("stage: handle for key %+v has no GPU texture", h.Key())
	}
	return tex, nil
}

func toTextures(hs []texpool.Handle) ([]hal.Texture, error) {
	out := make([]hal.Texture, len(hs))
	for i, h := range hs {
		tex, err := toTexture(h)
		if err != nil {
			return nil, err
		}
		out[i] = tex
	}
	return out, nil
}

// GPUContext bundles the device/queue pair and a shader-module cache shared
// by every stage's GPU dispatch path, grounded on
// backend/native.PipelineCacheCore: pipeline (here, shader module)
// compilation is expensive, so it is cached by name instead of recompiled
// per dispatch.
type GPUContext struct {
	Device hal.Device
	Queue  hal.Queue

	// UniformBuffer is the GPU buffer every DispatchGPU binds as its
	// uniform. NewGPUContext leaves it nil, and the engine's render paths
	// (all CPU) never assign or upload it.
	UniformBuffer hal.Buffer

	mu      sync.Mutex
	modules map[string]hal.ShaderModule
}

// NewGPUContext wraps an already-initialized device/queue pair. The engine
// owns the device for the Session's lifetime (spec 5).
func NewGPUContext(device hal.Device, queue hal.Queue) *GPUContext {
	return &GPUContext{Device: device, Queue: queue, modules: make(map[string]hal.ShaderModule)}
}

// ShaderModule returns the cached compute shader module for name, compiling
// it from source on first use. A compile failure surfaces as
// errs.ErrKernelCompileError via the caller.
func (c *GPUContext) ShaderModule(name, wgsl string) (hal.ShaderModule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.modules[name]; ok {
		return m, nil
	}

	m, err := c.Device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: name,
		Code:  wgsl,
	})
	if err != nil {
		return nil, fmt.Errorf("stage: compile shader %q: %w", name, err)
	}
	c.modules[name] = m
	return m, nil
}

// workgroupsFor computes the 2D dispatch size for an 8x8 workgroup over a
// width x height image, the conventional tile size for image compute
// kernels (matches the teacher's 64x64 CPU tile granularity scaled down for
// a GPU workgroup's much smaller per-invocation cost).
func workgroupsFor(width, height int) (x, y, z uint32) {
	const wg = 8
	return uint32((width + wg - 1) / wg), uint32((height + wg - 1) / wg), 1
}

// dispatchSimple encodes the common single-pass compute shape shared by
// every stage kernel: bind the uniform slice and input/output textures,
// dispatch one workgroup per 8x8 pixel block, and submit. This mirrors the
// teacher's ComputePassEncoder.SetPipeline/SetBindGroup/DispatchWorkgroups
// sequence (internal/gpu/compute_pass.go) collapsed into one helper since
// every stage here binds the same shape of resources (N input textures,
// one uniform range, one output texture).
func dispatchSimple(ctx *GPUContext, name, wgsl, entry string, in []hal.Texture, uniformBuf hal.Buffer, uniformOffset int, out hal.Texture, width, height int) error {
	module, err := ctx.ShaderModule(name, wgsl)
	if err != nil {
		return err
	}

	pipeline, err := ctx.Device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  name,
		Module: module,
		Entry:  entry,
	})
	if err != nil {
		return fmt.Errorf("stage: create pipeline %q: %w", name, err)
	}

	encoder, err := ctx.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: name})
	if err != nil {
		return fmt.Errorf("stage: create command encoder for %q: %w", name, err)
	}

	pass, err := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: name})
	if err != nil {
		return fmt.Errorf("stage: begin compute pass for %q: %w", name, err)
	}
	bindGroup, err := ctx.Device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:    name,
		Layout:   pipeline.BindGroupLayout(0),
		Textures: append(append([]hal.Texture{}, in...), out),
		Buffers:  []hal.BufferBinding{{Buffer: uniformBuf, Offset: uint64(uniformOffset)}},
	})
	if err != nil {
		return fmt.Errorf("stage: create bind group for %q: %w", name, err)
	}

	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	gx, gy, gz := workgroupsFor(width, height)
	pass.DispatchWorkgroups(gx, gy, gz)
	pass.End()

	cmd, err := encoder.Finish(&hal.CommandBufferDescriptor{Label: name})
	if err != nil {
		return fmt.Errorf("stage: finish command buffer for %q: %w", name, err)
	}
	ctx.Queue.Submit([]hal.CommandBuffer{cmd})
	return nil
}

// dispatchComputeBuffersDirect is dispatchSimple's generalization for
// CLAHE's histogram/CDF passes, which bind a variable set of storage
// buffers (histogram, CDF) alongside the usual texture/uniform bindings
// instead of a single fixed output texture.
func dispatchComputeBuffersDirect(ctx *GPUContext, module hal.ShaderModule, entry string, textures []hal.Texture, uniformBuf hal.Buffer, uniformOffset int, storage []hal.Buffer, gx, gy, gz uint32) error {
	pipeline, err := ctx.Device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  entry,
		Module: module,
		Entry:  entry,
	})
	if err != nil {
		return fmt.Errorf("stage: create pipeline %q: %w", entry, err)
	}

	encoder, err := ctx.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: entry})
	if err != nil {
		return fmt.Errorf("stage: create command encoder for %q: %w", entry, err)
	}
	pass, err := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: entry})
	if err != nil {
		return fmt.Errorf("stage: begin compute pass for %q: %w", entry, err)
	}

	buffers := make([]hal.BufferBinding, 0, len(storage)+1)
	if uniformBuf != nil {
		buffers = append(buffers, hal.BufferBinding{Buffer: uniformBuf, Offset: uint64(uniformOffset)})
	}
	for _, b := range storage {
		buffers = append(buffers, hal.BufferBinding{Buffer: b})
	}

	bindGroup, err := ctx.Device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:    entry,
		Layout:   pipeline.BindGroupLayout(0),
		Textures: textures,
		Buffers:  buffers,
	})
	if err != nil {
		return fmt.Errorf("stage: create bind group for %q: %w", entry, err)
	}

	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(gx, gy, gz)
	pass.End()

	cmd, err := encoder.Finish(&hal.CommandBufferDescriptor{Label: entry})
	if err != nil {
		return fmt.Errorf("stage: finish command buffer for %q: %w", entry, err)
	}
	ctx.Queue.Submit([]hal.CommandBuffer{cmd})
	return nil
}

// dispatchComputeBuffers runs a kernel whose only storage-buffer output is
// a single atomic histogram, using the texture's own dimensions for the
// workgroup count (CLAHE's histogram pass).
func dispatchComputeBuffers(ctx *GPUContext, module hal.ShaderModule, entry string, textures []hal.Texture, uniformBuf hal.Buffer, storage []hal.Buffer, width, height int) error {
	gx, gy, gz := workgroupsFor(width, height)
	return dispatchComputeBuffersDirect(ctx, module, entry, textures, uniformBuf, 0, storage, gx, gy, gz)
}

// dispatchApplyWithStorage runs CLAHE's apply pass: input/output textures
// plus a read-only CDF storage buffer and the apply uniform.
func dispatchApplyWithStorage(ctx *GPUContext, module hal.ShaderModule, entry string, in []hal.Texture, out hal.Texture, cdfBuf hal.Buffer, width, height int) error {
	textures := append(append([]hal.Texture{}, in...), out)
	return dispatchComputeBuffersDirect(ctx, module, entry, textures, ctx.UniformBuffer, 0, []hal.Buffer{cdfBuf}, uint32((width+7)/8), uint32((height+7)/8), 1)
}
