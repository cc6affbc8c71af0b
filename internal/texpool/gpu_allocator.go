//go:build !nogpu

package texpool

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/types"
)

// GPUAllocator backs the pool with hal.Texture resources on the active
// wgpu device, grounded on backend/native/adapter.go's CreateTexture: a
// storage-capable 2D texture sized to the requested Key, using
// TextureFormatRGBA32Float for RGB planes (the alpha channel is unused but
// keeps the layout 16-byte-aligned for compute shader access) and
// TextureFormatR32Float for single-channel planes.
type GPUAllocator struct {
	device hal.Device
}

// NewGPUAllocator wraps an already-created hal.Device. The device is
// owned by the engine (spec 5: "the texture pool... are owned by the
// engine and accessed only from the worker").
func NewGPUAllocator(device hal.Device) *GPUAllocator {
	return &GPUAllocator{device: device}
}

func (a *GPUAllocator) Alloc(key Key) ([]float32, any, error) {
	format := types.TextureFormatRGBA32Float
	if key.Format == FormatRF32 {
		format = types.TextureFormatR32Float
	}

	desc := &hal.TextureDescriptor{
		Label: key.Stage,
		Size: hal.Extent3D{
			Width:              uint32(key.Width),
			Height:             uint32(key.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        format,
		Usage: types.TextureUsageStorageBinding | types.TextureUsageCopySrc |
			types.TextureUsageCopyDst | types.TextureUsageTextureBinding,
	}

	tex, err := a.device.CreateTexture(desc)
	if err != nil {
		return nil, nil, fmt.Errorf("texpool: create texture %s (%dx%d): %w", key.Stage, key.Width, key.Height, err)
	}
	return nil, tex, nil
}

func (a *GPUAllocator) Free(_ Key, _ []float32, gpu any) {
	if tex, ok := gpu.(hal.Texture); ok && tex != nil {
		tex.Destroy()
	}
}
