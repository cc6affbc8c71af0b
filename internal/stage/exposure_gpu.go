//go:build !nogpu

package stage

import (
	_ "embed"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/exposure.wgsl
var exposureWGSL string

// DispatchGPU runs the Exposure compute kernel (spec 4.5).
func (ex Exposure) DispatchGPU(ctx *GPUContext, in []texpool.Handle, uniformSlice []byte, out texpool.Handle, rp RenderParams) error {
	inTex, err := toTextures(in)
	if err != nil {
		return err
	}
	outTex, err := toTexture(out)
	if err != nil {
		return err
	}
	key := out.Key()
	return dispatchSimple(ctx, ex.Name(), exposureWGSL, "main", inTex, ctx.UniformBuffer, 0, outTex, key.Width, key.Height)
}
