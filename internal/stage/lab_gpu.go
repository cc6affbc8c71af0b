//go:build !nogpu

package stage

import (
	_ "embed"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/lab.wgsl
var labWGSL string

// DispatchGPU runs the Lab-tools compute kernel (spec 4.6).
func (lb Lab) DispatchGPU(ctx *GPUContext, in []texpool.Handle, uniformSlice []byte, out texpool.Handle, rp RenderParams) error {
	inTex, err := toTextures(in)
	if err != nil {
		return err
	}
	outTex, err := toTexture(out)
	if err != nil {
		return err
	}
	key := out.Key()
	return dispatchSimple(ctx, lb.Name(), labWGSL, "main", inTex, ctx.UniformBuffer, 0, outTex, key.Width, key.Height)
}
