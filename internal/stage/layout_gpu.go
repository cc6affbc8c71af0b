//go:build !nogpu

package stage

import (
	_ "embed"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/layout.wgsl
var layoutWGSL string

// DispatchGPU runs the Layout compute kernel (spec 4.11).
func (l Layout) DispatchGPU(ctx *GPUContext, in []texpool.Handle, uniformSlice []byte, out texpool.Handle, rp RenderParams) error {
	inTex, err := toTextures(in)
	if err != nil {
		return err
	}
	outTex, err := toTexture(out)
	if err != nil {
		return err
	}
	key := out.Key()
	return dispatchSimple(ctx, l.Name(), layoutWGSL, "main", inTex, ctx.UniformBuffer, 0, outTex, key.Width, key.Height)
}
