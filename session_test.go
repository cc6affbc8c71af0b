package negpy

import (
	"context"
	"testing"

	"github.com/negpy/negpy/internal/loader"
	"github.com/negpy/negpy/internal/numerics"
)

func gradientBuffer(w, h int) *numerics.Buffer {
	buf := numerics.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(0.05) + float32(x)/float32(w)*0.8
			buf.Set(x, y, v, v*0.9, v*1.1)
		}
	}
	return buf
}

func TestNewSessionDefaultsToCPU(t *testing.T) {
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()
	if s.UsesGPU() {
		t.Fatal("expected a Session created without WithGPUProvider to use the CPU path")
	}
}

func TestSessionRenderPreviewEndToEnd(t *testing.T) {
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	cfg := Default()
	src := gradientBuffer(48, 32)
	s.Calibrate(context.Background(), src, cfg)

	result, err := s.RenderPreview(context.Background(), src, cfg)
	if err != nil {
		t.Fatalf("RenderPreview: %v", err)
	}
	if !result.Image.Finite() {
		t.Fatal("expected finite preview output")
	}
}

func TestSessionRenderPreviewHonorsCancellation(t *testing.T) {
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.RenderPreview(ctx, gradientBuffer(8, 8), Default())
	if err == nil {
		t.Fatal("expected RenderPreview to fail on an already-cancelled context")
	}
}

func TestSessionEditPersistenceRoundTrip(t *testing.T) {
	store := loader.NewMemoryEditStore()
	s, err := NewSession(WithEditStore(store))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	fp := loader.Fingerprint{9, 9, 9}

	cfg, err := s.LoadEdits(ctx, fp)
	if err != nil {
		t.Fatalf("LoadEdits (default): %v", err)
	}
	cfg.Exposure.Grade = 3.5
	if err := s.SaveEdits(ctx, fp, cfg); err != nil {
		t.Fatalf("SaveEdits: %v", err)
	}

	got, err := s.LoadEdits(ctx, fp)
	if err != nil {
		t.Fatalf("LoadEdits (saved): %v", err)
	}
	if got.Exposure.Grade != 3.5 {
		t.Fatalf("expected grade 3.5, got %v", got.Exposure.Grade)
	}
}

func TestSessionComputeMetrics(t *testing.T) {
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	src := gradientBuffer(24, 24)
	crop, hist, err := s.ComputeMetrics(context.Background(), src, 0.05)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	if crop.X1 <= crop.X0 || crop.Y1 <= crop.Y0 {
		t.Fatalf("expected a non-degenerate crop rectangle, got %+v", crop)
	}
	var total uint32
	for _, c := range hist.Luma {
		total += c
	}
	if total != uint32(src.Width*src.Height) {
		t.Fatalf("expected histogram to cover every pixel, got %d want %d", total, src.Width*src.Height)
	}
}
