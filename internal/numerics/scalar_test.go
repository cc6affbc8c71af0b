package numerics

import (
	"math"
	"testing"
)

func TestLog10Safe(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"one", 1.0, 0.0},
		{"ten", 10.0, 1.0},
		{"zero floors to epsilon", 0.0, math.Log10(DensityEpsilon)},
		{"negative floors to epsilon", -5.0, math.Log10(DensityEpsilon)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Log10Safe(tt.v); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Log10Safe(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestSigmoidHDPivotNeutrality(t *testing.T) {
	// Scenario test 3: pivot input maps to half of dmax regardless of grade.
	for _, grade := range []float64{2.0, 4.0} {
		got := SigmoidHD(0.5, grade, 0.5, 0, 0, 1.0)
		if math.Abs(got-0.5) > 1e-9 {
			t.Errorf("SigmoidHD at pivot with grade=%v = %v, want 0.5", grade, got)
		}
	}
}

func TestSigmoidHDScenario(t *testing.T) {
	// Scenario test 3: input 0.75, grade=2.0, pivot=0.5 (no toe/shoulder).
	got := SigmoidHD(0.75, 2.0, 0.5, 0, 0, 1.0)
	want := 1.0 / (1.0 + math.Exp(-2*0.25))
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("SigmoidHD(0.75) = %v, want %v", got, want)
	}
}

func TestSigmoidHDMonotone(t *testing.T) {
	prev := math.Inf(-1)
	for x := -2.0; x <= 2.0; x += 0.05 {
		got := SigmoidHD(x, 3.0, 0.3, 0.5, 0.4, 1.0)
		if got < prev-1e-12 {
			t.Fatalf("SigmoidHD not monotone at x=%v: %v < %v", x, got, prev)
		}
		prev = got
	}
}

func TestRec709Luma(t *testing.T) {
	l := Rec709Luma(1, 0, 0)
	if math.Abs(float64(l)-0.2126) > 1e-6 {
		t.Errorf("Rec709Luma(1,0,0) = %v, want 0.2126", l)
	}
	gray := Rec709Luma(0.5, 0.5, 0.5)
	if math.Abs(float64(gray)-0.5) > 1e-6 {
		t.Errorf("Rec709Luma(0.5,0.5,0.5) = %v, want 0.5", gray)
	}
}

func TestSmoothstep(t *testing.T) {
	if got := Smoothstep(0, 1, -1); got != 0 {
		t.Errorf("Smoothstep below edge0 = %v, want 0", got)
	}
	if got := Smoothstep(0, 1, 2); got != 1 {
		t.Errorf("Smoothstep above edge1 = %v, want 1", got)
	}
	if got := Smoothstep(0, 1, 0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Smoothstep midpoint = %v, want 0.5", got)
	}
}
