//go:build !nogpu

package stage

import (
	_ "embed"

	"github.com/negpy/negpy/internal/texpool"
)

//go:embed shaders/transform.wgsl
var transformWGSL string

// DispatchGPU runs the Transform compute kernel (spec 4.3).
func (t Transform) DispatchGPU(ctx *GPUContext, in []texpool.Handle, uniformSlice []byte, out texpool.Handle, rp RenderParams) error {
	inTex, err := toTextures(in)
	if err != nil {
		return err
	}
	outTex, err := toTexture(out)
	if err != nil {
		return err
	}
	outW, outH := OutputDims(rp.FullWidth, rp.FullHeight, rp.Config.Geometry.RotationDeg)
	return dispatchSimple(ctx, t.Name(), transformWGSL, "main", inTex, ctx.UniformBuffer, 0, outTex, outW, outH)
}
