//go:build !nogpu

package stage

import (
	_ "embed"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/normalization.wgsl
var normalizationWGSL string

// DispatchGPU runs the Normalization compute kernel (spec 4.2) against the
// wgpu backend, sharing the uniform layout DispatchCPU reads so both paths
// agree within the tolerance in spec 8.
func (n Normalization) DispatchGPU(ctx *GPUContext, in []texpool.Handle, uniformSlice []byte, out texpool.Handle, rp RenderParams) error {
	inTex, err := toTextures(in)
	if err != nil {
		return err
	}
	outTex, err := toTexture(out)
	if err != nil {
		return err
	}
	return dispatchSimple(ctx, n.Name(), normalizationWGSL, "main", inTex, ctx.UniformBuffer, 0, outTex, rp.FullWidth, rp.FullHeight)
}
