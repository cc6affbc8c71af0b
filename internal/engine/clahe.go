package engine

import (
	"errors"
	"fmt"

	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/stage"
)

// runClaheCPU drives CLAHE's three CPU passes (spec 4.7) over src,
// sharing the per-session histogram/CDF cache across renders of the same
// loaded file the way tiled export must share it across export tiles
// (spec 4.11): a preview render recomputes the cache every call since the
// user is actively adjusting Lab parameters, but exported tiles reuse a
// single cache built once from the full (untiled) Lab-stage output.
//
// rp.FullWidth/FullHeight/GlobalX/GlobalY must describe src's placement
// within the full image the 8x8 grid is built over; runClaheCPU itself is
// only ever called with the full (untiled) buffer, so GlobalX/GlobalY are
// 0 and FullWidth/FullHeight match src's own dimensions, but the apply
// pass still needs those values explicitly rather than assuming src is
// the whole image (see runClaheCPUSharedCDF).
func (e *Engine) runClaheCPU(src *numerics.Buffer, rp stage.RenderParams) (*numerics.Buffer, error) {
	hist := stage.ClaheHistogram{}.BuildCPU(src)
	cdf := stage.ClaheCDF{}.BuildCPU(hist, rp.Config.Lab.ClaheClipLimit)
	e.claheHistCache = hist
	e.claheCDFCache = cdf

	out := numerics.NewBuffer(src.Width, src.Height)
	stage.ClaheApply{}.ApplyCPU(src, cdf, rp.Config.Lab.ClaheStrength, out, rp.FullWidth, rp.FullHeight, rp.GlobalX, rp.GlobalY)
	return out, nil
}

// runClaheCPUSharedCDF applies CLAHE to a tile using the engine's cached
// full-image CDF rather than recomputing it from the tile alone, the
// spec-4.11-mandated behavior for tiled export ("per-export-tile CDFs
// must therefore be sourced from a shared per-session histogram context
// rather than recomputed per export tile"). rp carries this tile's
// GlobalX/GlobalY offset and the full (untiled) FullWidth/FullHeight the
// cached CDF grid was built over, so the bilinear tile-center
// interpolation lands on the same full-image grid cells the untiled path
// would use (spec 8, "Tile invariance").
func (e *Engine) runClaheCPUSharedCDF(tile *numerics.Buffer, rp stage.RenderParams) (*numerics.Buffer, error) {
	if e.claheCDFCache == nil {
		return nil, fmt.Errorf("engine: %w", errClaheCacheMissing)
	}
	out := numerics.NewBuffer(tile.Width, tile.Height)
	stage.ClaheApply{}.ApplyCPU(tile, e.claheCDFCache, rp.Config.Lab.ClaheStrength, out, rp.FullWidth, rp.FullHeight, rp.GlobalX, rp.GlobalY)
	return out, nil
}

var errClaheCacheMissing = errors.New("clahe shared CDF cache not built for this session")
