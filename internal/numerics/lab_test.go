package numerics

import (
	"math"
	"testing"
)

func TestLabRoundTrip(t *testing.T) {
	tests := [][3]float64{
		{0, 0, 0},
		{1, 1, 1},
		{0.5, 0.5, 0.5},
		{0.2, 0.8, 0.4},
		{0.9, 0.1, 0.3},
	}
	for _, rgb := range tests {
		l, a, b := RGBToLab(rgb[0], rgb[1], rgb[2])
		r2, g2, b2 := LabToRGB(l, a, b)
		if math.Abs(r2-rgb[0]) > 1e-5 || math.Abs(g2-rgb[1]) > 1e-5 || math.Abs(b2-rgb[2]) > 1e-5 {
			t.Errorf("round trip for %v = (%v,%v,%v), want within 1e-5", rgb, r2, g2, b2)
		}
	}
}

func TestLabNeutralAxis(t *testing.T) {
	l, a, b := RGBToLab(0.5, 0.5, 0.5)
	if math.Abs(a) > 1e-6 || math.Abs(b) > 1e-6 {
		t.Errorf("neutral gray should have a=b=0, got a=%v b=%v", a, b)
	}
	if l <= 0 || l >= 100 {
		t.Errorf("L for mid gray out of range: %v", l)
	}
}
