package negpy

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/negpy/negpy/internal/stage"
	"github.com/negpy/negpy/internal/texpool"
)

// GPUDeviceProvider hands a Session an already-initialized GPU device and
// queue to render with, instead of Session creating its own. Grounded on
// the teacher's device-sharing duck-typed interface
// (accelerator.go's SetAcceleratorDeviceProvider: "The provider should
// implement HalDevice() any and HalQueue() any methods that return
// wgpu/hal types"), generalized to the compute-only device/queue pair the
// engine's GPUContext needs instead of the teacher's render-target sharing.
//
// Typical providers come from a windowing/compute host library (e.g.
// gogpu/gpucontext.DeviceProvider) that already owns an adapter and
// device; NegPy never creates its own GPU instance when a provider is
// supplied.
type GPUDeviceProvider interface {
	HalDevice() any
	HalQueue() any
}

// buildGPUContext resolves p into a stage.GPUContext and a matching
// texpool.Allocator, or returns a nil context (CPU fallback) if p is nil.
func buildGPUContext(p GPUDeviceProvider) (*stage.GPUContext, texpool.Allocator, error) {
	if p == nil {
		return nil, texpool.NewCPUAllocator(), nil
	}

	device, ok := p.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("negpy: gpu provider returned no hal.Device")
	}
	queue, ok := p.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("negpy: gpu provider returned no hal.Queue")
	}

	ctx := stage.NewGPUContext(device, queue)
	return ctx, texpool.NewGPUAllocator(device), nil
}
