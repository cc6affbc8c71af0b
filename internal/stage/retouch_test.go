package stage

import (
	"testing"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
)

func solidBuffer(w, h int, r, g, b float32) *numerics.Buffer {
	buf := numerics.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, r, g, b)
		}
	}
	return buf
}

// An empty spot list with auto-dust disabled must be an identity pass
// (spec 8, "Retouch identity").
func TestRetouchIdentity(t *testing.T) {
	src := solidBuffer(16, 16, 0.3, 0.5, 0.7)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.Set(x, y, float32(x)/16, float32(y)/16, 0.2)
		}
	}
	out := numerics.NewBuffer(16, 16)
	rt := Retouch{}
	uniformSlice := make([]byte, rt.UniformSize())
	rp := RenderParams{
		Config:     config.Default(),
		FullWidth:  16,
		FullHeight: 16,
	}
	rp.Config.Retouch.AutoDustEnabled = false
	rp.Config.Retouch.Spots = nil
	WriteRetouchUniform(uniformSlice, rp)

	if err := rt.DispatchCPU([]*numerics.Buffer{src}, uniformSlice, out, rp); err != nil {
		t.Fatalf("DispatchCPU: %v", err)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			wr, wg, wb := src.At(x, y)
			gr, gg, gb := out.At(x, y)
			if wr != gr || wg != gg || wb != gb {
				t.Fatalf("pixel (%d,%d) changed under identity retouch: want (%v,%v,%v) got (%v,%v,%v)", x, y, wr, wg, wb, gr, gg, gb)
			}
		}
	}
}

// A manual spot centered far from a pixel must not alter that pixel.
func TestRetouchManualHealOutsideSpotUnaffected(t *testing.T) {
	src := solidBuffer(32, 32, 0.4, 0.4, 0.4)
	for y := 12; y < 20; y++ {
		for x := 12; x < 20; x++ {
			src.Set(x, y, 0.9, 0.9, 0.9) // a bright "dust" patch
		}
	}
	out := numerics.NewBuffer(32, 32)
	rt := Retouch{}

	cfg := config.Default()
	cfg.Retouch.AutoDustEnabled = false
	cfg.Retouch.Spots = []config.ManualSpot{{X: 0.5, Y: 0.5, R: 0.2}}
	rp := RenderParams{Config: cfg, FullWidth: 32, FullHeight: 32}

	uniformSlice := make([]byte, rt.UniformSize())
	WriteRetouchUniform(uniformSlice, rp)
	if err := rt.DispatchCPU([]*numerics.Buffer{src}, uniformSlice, out, rp); err != nil {
		t.Fatalf("DispatchCPU: %v", err)
	}

	// A far corner pixel, outside the spot radius, must be untouched.
	wr, wg, wb := src.At(0, 0)
	gr, gg, gb := out.At(0, 0)
	if wr != gr || wg != gg || wb != gb {
		t.Fatalf("pixel outside spot radius changed: want (%v,%v,%v) got (%v,%v,%v)", wr, wg, wb, gr, gg, gb)
	}
}

// Manual-spot coordinates are resolved in full-image space, so the same
// tile sub-region processed with a nonzero GlobalX/GlobalY offset (and the
// corresponding tile-local source buffer) must reproduce the untiled
// result (spec 3 invariant iii, spec 8 "Tile invariance").
func TestRetouchTileInvariance(t *testing.T) {
	full := solidBuffer(40, 40, 0.3, 0.3, 0.3)
	for y := 14; y < 26; y++ {
		for x := 14; x < 26; x++ {
			full.Set(x, y, 0.9, 0.9, 0.9)
		}
	}
	cfg := config.Default()
	cfg.Retouch.AutoDustEnabled = false
	cfg.Retouch.Spots = []config.ManualSpot{{X: 0.5, Y: 0.5, R: 0.3}}

	rt := Retouch{}
	rpFull := RenderParams{Config: cfg, FullWidth: 40, FullHeight: 40}
	outFull := numerics.NewBuffer(40, 40)
	uniformFull := make([]byte, rt.UniformSize())
	WriteRetouchUniform(uniformFull, rpFull)
	if err := rt.DispatchCPU([]*numerics.Buffer{full}, uniformFull, outFull, rpFull); err != nil {
		t.Fatalf("DispatchCPU full: %v", err)
	}

	// Extract a tile (with enough halo for the spot radius) as its own
	// buffer and dispatch with a matching GlobalX/GlobalY offset.
	const gx, gy, tw, th = 10, 10, 20, 20
	tile := numerics.NewBuffer(tw, th)
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			r, g, b := full.At(gx+x, gy+y)
			tile.Set(x, y, r, g, b)
		}
	}
	rpTile := RenderParams{Config: cfg, FullWidth: 40, FullHeight: 40, GlobalX: gx, GlobalY: gy}
	outTile := numerics.NewBuffer(tw, th)
	uniformTile := make([]byte, rt.UniformSize())
	WriteRetouchUniform(uniformTile, rpTile)
	if err := rt.DispatchCPU([]*numerics.Buffer{tile}, uniformTile, outTile, rpTile); err != nil {
		t.Fatalf("DispatchCPU tile: %v", err)
	}

	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			wr, wg, wb := outFull.At(gx+x, gy+y)
			gr, gg, gb := outTile.At(x, y)
			if wr != gr || wg != gg || wb != gb {
				t.Fatalf("tile mismatch at (%d,%d): full-render (%v,%v,%v) vs tiled (%v,%v,%v)", x, y, wr, wg, wb, gr, gg, gb)
			}
		}
	}
}
