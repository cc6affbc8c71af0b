package numerics

import "math"

// D65 reference white, 2-degree observer (CIE 1931), taken as the image of
// linear RGB (1,1,1) under rgbToXYZ (the row sums below, Y ~= 1) so that
// every neutral RGB input maps to a = b = 0.
const (
	whiteX = 0.4124564 + 0.3575761 + 0.1804375
	whiteY = 0.2126729 + 0.7151522 + 0.0721750
	whiteZ = 0.0193339 + 0.1191920 + 0.9503041
)

// linear sRGB primaries -> CIE XYZ (D65), row-major.
var rgbToXYZ = [9]float64{
	0.4124564, 0.3575761, 0.1804375,
	0.2126729, 0.7151522, 0.0721750,
	0.0193339, 0.1191920, 0.9503041,
}

var xyzToRGB = [9]float64{
	3.2404542, -1.5371385, -0.4985314,
	-0.9692660, 1.8760108, 0.0415560,
	0.0556434, -0.2040259, 1.0572252,
}

// RGBToLab converts linear (not sRGB-encoded) RGB in [0,1] to CIELAB with a
// D65 reference white. The round trip RGBToLab(LabToRGB(lab)) must agree
// with the input within 1e-5 per channel after clipping.
func RGBToLab(r, g, b float64) (l, a, bb float64) {
	x := rgbToXYZ[0]*r + rgbToXYZ[1]*g + rgbToXYZ[2]*b
	y := rgbToXYZ[3]*r + rgbToXYZ[4]*g + rgbToXYZ[5]*b
	z := rgbToXYZ[6]*r + rgbToXYZ[7]*g + rgbToXYZ[8]*b

	fx := labF(x / whiteX)
	fy := labF(y / whiteY)
	fz := labF(z / whiteZ)

	l = 116*fy - 16
	a = 500 * (fx - fy)
	bb = 200 * (fy - fz)
	return l, a, bb
}

// LabToRGB converts CIELAB (D65) back to linear RGB in [0,1].
func LabToRGB(l, a, b float64) (r, g, bl float64) {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200

	x := whiteX * labFInv(fx)
	y := whiteY * labFInv(fy)
	z := whiteZ * labFInv(fz)

	r = xyzToRGB[0]*x + xyzToRGB[1]*y + xyzToRGB[2]*z
	g = xyzToRGB[3]*x + xyzToRGB[4]*y + xyzToRGB[5]*z
	bl = xyzToRGB[6]*x + xyzToRGB[7]*y + xyzToRGB[8]*z
	return r, g, bl
}

const (
	labDelta  = 6.0 / 29.0
	labDelta2 = labDelta * labDelta
	labDelta3 = labDelta2 * labDelta
)

func labF(t float64) float64 {
	if t > labDelta3 {
		return math.Cbrt(t)
	}
	return t/(3*labDelta2) + 4.0/29.0
}

func labFInv(t float64) float64 {
	if t > labDelta {
		return t * t * t
	}
	return 3 * labDelta2 * (t - 4.0/29.0)
}
