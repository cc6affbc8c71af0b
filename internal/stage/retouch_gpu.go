//go:build !nogpu

package stage

import (
	_ "embed"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/retouch.wgsl
var retouchWGSL string

// DispatchGPU runs the Retouch compute kernel (spec 4.4). The spot list and
// global tile offset travel in the uniform slice rather than a separate
// storage buffer, so only the first maxUniformSpots spots are applied, the
// same cap the CPU path has.
func (rt Retouch) DispatchGPU(ctx *GPUContext, in []texpool.Handle, uniformSlice []byte, out texpool.Handle, rp RenderParams) error {
	inTex, err := toTextures(in)
	if err != nil {
		return err
	}
	outTex, err := toTexture(out)
	if err != nil {
		return err
	}
	key := out.Key()
	return dispatchSimple(ctx, rt.Name(), retouchWGSL, "main", inTex, ctx.UniformBuffer, 0, outTex, key.Width, key.Height)
}
