//go:build !nogpu

package stage

import (
	_ "embed"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/toning.wgsl
var toningWGSL string

// DispatchGPU runs the Toning compute kernel (spec 4.8).
func (tn Toning) DispatchGPU(ctx *GPUContext, in []texpool.Handle, uniformSlice []byte, out texpool.Handle, rp RenderParams) error {
	inTex, err := toTextures(in)
	if err != nil {
		return err
	}
	outTex, err := toTexture(out)
	if err != nil {
		return err
	}
	key := out.Key()
	return dispatchSimple(ctx, tn.Name(), toningWGSL, "main", inTex, ctx.UniformBuffer, 0, outTex, key.Width, key.Height)
}
