package config

import (
	"fmt"

	"github.com/negpy/negpy/internal/errs"
)

// Validate checks WorkspaceConfig parameters for range violations. The
// engine never panics on malformed user input (spec 7); out-of-range values
// surface as ErrConfigInvalid.
func (cfg WorkspaceConfig) Validate() error {
	if cfg.Exposure.Grade <= 0 {
		return fmt.Errorf("%w: exposure grade must be > 0, got %v", errs.ErrConfigInvalid, cfg.Exposure.Grade)
	}
	if cfg.Exposure.Toe < 0 || cfg.Exposure.Shoulder < 0 {
		return fmt.Errorf("%w: toe/shoulder must be >= 0", errs.ErrConfigInvalid)
	}
	switch cfg.Geometry.RotationDeg {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("%w: rotation must be one of {0,90,180,270}, got %d", errs.ErrConfigInvalid, cfg.Geometry.RotationDeg)
	}
	c := cfg.Geometry.Crop
	if c.X0 < 0 || c.Y0 < 0 || c.X1 > 1 || c.Y1 > 1 || c.X0 >= c.X1 || c.Y0 >= c.Y1 {
		return fmt.Errorf("%w: crop rectangle out of [0,1] or degenerate", errs.ErrConfigInvalid)
	}
	if cfg.Lab.ClaheClipLimit < 0 {
		return fmt.Errorf("%w: clahe clip limit must be >= 0", errs.ErrConfigInvalid)
	}
	if cfg.Lab.SeparationStrength < 0 || cfg.Lab.SeparationStrength > 1 {
		return fmt.Errorf("%w: lab separation strength must be in [0,1]", errs.ErrConfigInvalid)
	}
	for i, spot := range cfg.Retouch.Spots {
		if spot.R <= 0 {
			return fmt.Errorf("%w: manual spot %d has non-positive radius", errs.ErrConfigInvalid, i)
		}
	}
	if !cfg.Normalization.Red.Auto && cfg.Normalization.Red.Ceil-cfg.Normalization.Red.Floor <= 0 {
		return fmt.Errorf("%w: red channel floor/ceil degenerate", errs.ErrConfigInvalid)
	}
	if !cfg.Normalization.Green.Auto && cfg.Normalization.Green.Ceil-cfg.Normalization.Green.Floor <= 0 {
		return fmt.Errorf("%w: green channel floor/ceil degenerate", errs.ErrConfigInvalid)
	}
	if !cfg.Normalization.Blue.Auto && cfg.Normalization.Blue.Ceil-cfg.Normalization.Blue.Floor <= 0 {
		return fmt.Errorf("%w: blue channel floor/ceil degenerate", errs.ErrConfigInvalid)
	}
	return nil
}
