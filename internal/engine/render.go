package engine

import (
	"fmt"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/metrics"
	"github.com/negpy/negpy/internal/numerics"
	"github.com/negpy/negpy/internal/stage"
)

// RenderResult is the output of one CPU-path render: the final image
// buffer plus the histogram computed over the post-toning buffer (spec
// 4.9, 4.11).
type RenderResult struct {
	Image     *numerics.Buffer
	Histogram metrics.HistogramResult
	RenderID  uint64
}

// RenderCPU runs the full ten-stage pipeline (spec 4.11 stage ordering)
// over src at full resolution, the untiled path used for previews and for
// exports within DefaultTileCap. It is the CPU fallback and also the
// reference implementation tiled export's halo reconstruction is checked
// against (spec 8, "CPU/GPU agreement").
func (e *Engine) RenderCPU(src *numerics.Buffer, cfg config.WorkspaceConfig) (*RenderResult, error) {
	renderID := e.nextRenderID()
	block := newUniformBlock()

	fullW, fullH := src.Width, src.Height
	rp := e.newRenderParams(cfg, fullW, fullH, renderID)

	normOut := numerics.NewBuffer(fullW, fullH)
	if err := dispatchCPU(block, stage.Normalization{}, stage.WriteNormalizationUniform, src, normOut, rp); err != nil {
		return nil, err
	}

	tw, th := stage.OutputDims(fullW, fullH, cfg.Geometry.RotationDeg)
	transformOut := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Transform{}, stage.WriteTransformUniform, normOut, transformOut, rp); err != nil {
		return nil, err
	}
	// From Transform onward, full dimensions track the rotated frame.
	rp.FullWidth, rp.FullHeight = tw, th

	retouchOut := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Retouch{}, stage.WriteRetouchUniform, transformOut, retouchOut, rp); err != nil {
		return nil, err
	}

	exposureOut := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Exposure{}, stage.WriteExposureUniform, retouchOut, exposureOut, rp); err != nil {
		return nil, err
	}

	labOut := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Lab{}, stage.WriteLabUniform, exposureOut, labOut, rp); err != nil {
		return nil, err
	}

	claheOut, err := e.runClaheCPU(labOut, rp)
	if err != nil {
		return nil, err
	}

	toningOut := numerics.NewBuffer(tw, th)
	if err := dispatchCPU(block, stage.Toning{}, stage.WriteToningUniform, claheOut, toningOut, rp); err != nil {
		return nil, err
	}

	return e.finishLayoutCPU(toningOut, cfg, block, rp, renderID)
}

// dispatchCPU writes a stage's uniform slice and runs its CPU dispatch,
// the shared shape for every linear pipeline stage (everything except
// CLAHE and Layout, which need extra non-uniform arguments).
func dispatchCPU(block interface {
	Slice(string) ([]byte, error)
}, s stage.CPUStage, write func(slice []byte, rp stage.RenderParams), in, out *numerics.Buffer, rp stage.RenderParams) error {
	slice, err := block.Slice(s.Name())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	write(slice, rp)
	if err := s.DispatchCPU([]*numerics.Buffer{in}, slice, out, rp); err != nil {
		return fmt.Errorf("engine: %s dispatch: %w", s.Name(), err)
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
