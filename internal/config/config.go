// Package config defines the WorkspaceConfig parameter record: the
// non-destructive edit state the UI mutates and the engine consumes.
// Sub-records follow the teacher's functional-options style for
// construction (options.go) but the record itself is a plain immutable
// value updated via structural replacement (spec 9, "per-file
// object-oriented mutation becomes immutable record updates").
package config

// ProcessMode selects the sign of the Normalization inversion and whether
// Exposure bypasses the sigmoid (spec 3); Toning does not read it.
type ProcessMode uint8

const (
	ProcessC41Negative ProcessMode = iota
	ProcessBWNegative
	ProcessE6Positive
)

func (m ProcessMode) String() string {
	switch m {
	case ProcessC41Negative:
		return "C41-negative"
	case ProcessBWNegative:
		return "BW-negative"
	case ProcessE6Positive:
		return "E6-positive"
	default:
		return "unknown"
	}
}

// Exposure holds the paper-exposure sub-record: density, grade, toe,
// shoulder, CMY filtration shifts, white-balance multipliers, and the
// process mode that gates sigmoid bypass (spec 4.5).
type Exposure struct {
	Density     float64
	Grade       float64
	Toe         float64
	Shoulder    float64
	CyanShift   float64
	MagentaShift float64
	YellowShift float64
	WBMultiplier [3]float64
	ProcessMode ProcessMode
}

// ChannelBound is a per-channel log10-density floor/ceiling, or "auto" when
// Auto is true (spec 3, Normalization sub-record).
type ChannelBound struct {
	Floor float64
	Ceil  float64
	Auto  bool
}

// Normalization holds per-channel floors/ceilings in log10 density.
type Normalization struct {
	Red   ChannelBound
	Green ChannelBound
	Blue  ChannelBound
}

// Lab holds the color-separation and local-contrast sub-record (spec 4.6,
// 4.7).
type Lab struct {
	SeparationStrength float64 // beta in [0,1]
	ClaheStrength      float64 // alpha blend in apply pass
	ClaheClipLimit     float64
	SharpenAmount      float64 // lambda
	SharpenRadius      float64 // sigma
}

// Toning holds the paper/chemical toning sub-record (spec 4.8).
type Toning struct {
	PaperTint      [3]float64
	DMaxGamma      float64
	SeleniumStrength float64
	SepiaStrength  float64
	Saturation     float64
	BlackAndWhite  bool
	FinalGamma     float64
}

// ManualSpot is a normalized (x, y, r) retouch circle in full
// rotated-and-flipped image space (spec 3), independent of crop and tile
// offset.
type ManualSpot struct {
	X, Y, R float64
}

// Retouch holds the dust-removal sub-record (spec 4.4).
type Retouch struct {
	AutoDustThreshold float64
	AutoDustSize      float64 // kernel-size selector: <1.5 -> 3x3, <2.5 -> 5x5, else 7x7
	AutoDustEnabled   bool
	Spots             []ManualSpot
}

// CropRect is a crop rectangle in normalized [0,1] coordinates, relative to
// the rotated-and-flipped full frame.
type CropRect struct {
	X0, Y0, X1, Y1 float64
}

// Geometry holds the Transform-stage sub-record (spec 4.3).
type Geometry struct {
	RotationDeg    int // one of 0, 90, 180, 270
	FlipHorizontal bool
	FlipVertical   bool
	FineRotation   float64 // degrees, small affine correction
	Crop           CropRect
	AspectTag      string
	KeepFullFrame  bool
}

// SizePolicy selects how Export resolves output pixel dimensions.
type SizePolicy uint8

const (
	SizeOriginalResolution SizePolicy = iota
	SizePrintSizeCM
	SizeExplicitPixels
)

// BorderSpec describes an optional letterbox/border applied in the Layout
// stage.
type BorderSpec struct {
	WidthNormalized float64
	Color           [3]float64
}

// Export holds the output-encoding sub-record (spec 3, 6).
type Export struct {
	SizePolicy    SizePolicy
	PrintWidthCM  float64
	PrintHeightCM float64
	PixelWidth    int
	PixelHeight   int
	DPI           float64
	ColorSpaceTag string // sRGB, Adobe RGB, ProPhoto, Display P3, Rec2020, WideGamut, Greyscale
	Border        BorderSpec
}

// WorkspaceConfig is the flat, content-hash-keyed parameter record edited
// by the UI and consumed by the engine (spec 3). It is always replaced as a
// whole value; the edit store never sees partial updates.
type WorkspaceConfig struct {
	Exposure      Exposure
	Normalization Normalization
	Lab           Lab
	Toning        Toning
	Retouch       Retouch
	Geometry      Geometry
	Export        Export
}

// Default returns a WorkspaceConfig with neutral, pass-through-leaning
// parameters: zero shifts, unity multipliers, auto normalization, no
// retouching, no rotation, full-frame crop, sRGB export.
func Default() WorkspaceConfig {
	return WorkspaceConfig{
		Exposure: Exposure{
			Density:      0.5,
			Grade:        2.0,
			Toe:          0,
			Shoulder:     0,
			WBMultiplier: [3]float64{1, 1, 1},
			ProcessMode:  ProcessC41Negative,
		},
		Normalization: Normalization{
			Red:   ChannelBound{Auto: true},
			Green: ChannelBound{Auto: true},
			Blue:  ChannelBound{Auto: true},
		},
		Lab: Lab{
			SeparationStrength: 0,
			ClaheStrength:      0,
			ClaheClipLimit:     4.0,
			SharpenAmount:      0,
			SharpenRadius:      1.5,
		},
		Toning: Toning{
			PaperTint:  [3]float64{1, 1, 1},
			DMaxGamma:  1.0,
			Saturation: 1.0,
			FinalGamma: 1.0,
		},
		Retouch: Retouch{
			AutoDustThreshold: 0.08,
			AutoDustSize:      1.0,
		},
		Geometry: Geometry{
			Crop: CropRect{X0: 0, Y0: 0, X1: 1, Y1: 1},
		},
		Export: Export{
			SizePolicy:    SizeOriginalResolution,
			DPI:           300,
			ColorSpaceTag: "sRGB",
		},
	}
}

// WithExposure returns a copy of cfg with Exposure replaced, following the
// structural-replacement update style (spec 9) instead of in-place
// mutation.
func (cfg WorkspaceConfig) WithExposure(e Exposure) WorkspaceConfig {
	cfg.Exposure = e
	return cfg
}

// WithGeometry returns a copy of cfg with Geometry replaced.
func (cfg WorkspaceConfig) WithGeometry(g Geometry) WorkspaceConfig {
	cfg.Geometry = g
	return cfg
}

// WithRetouch returns a copy of cfg with Retouch replaced.
func (cfg WorkspaceConfig) WithRetouch(r Retouch) WorkspaceConfig {
	cfg.Retouch = r
	return cfg
}
