package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/errs"
	"github.com/negpy/negpy/internal/numerics"
)

func TestFixtureLoaderRoundTrip(t *testing.T) {
	l := NewFixtureLoader(".fixture")
	buf := numerics.NewBuffer(4, 4)
	l.Register("scan.fixture", buf)

	if !l.Supports("scan.fixture") {
		t.Fatal("expected Supports to match registered extension")
	}
	got, err := l.Load(context.Background(), "scan.fixture")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != buf {
		t.Fatal("expected Load to return the registered buffer")
	}
}

func TestFixtureLoaderUnsupportedExtension(t *testing.T) {
	l := NewFixtureLoader(".fixture")
	_, err := l.Load(context.Background(), "scan.raw")
	if !errors.Is(err, errs.ErrLoaderUnsupported) {
		t.Fatalf("expected ErrLoaderUnsupported, got %v", err)
	}
}

func TestFixtureLoaderUnregisteredPath(t *testing.T) {
	l := NewFixtureLoader(".fixture")
	_, err := l.Load(context.Background(), "missing.fixture")
	if !errors.Is(err, errs.ErrLoaderCorrupt) {
		t.Fatalf("expected ErrLoaderCorrupt, got %v", err)
	}
}

func TestMemoryEditStoreSaveAndLoad(t *testing.T) {
	store := NewMemoryEditStore()
	ctx := context.Background()

	fp := Fingerprint{1, 2, 3}

	_, ok, err := store.Load(ctx, fp)
	if err != nil || ok {
		t.Fatalf("expected no entry for unknown fingerprint, got ok=%v err=%v", ok, err)
	}

	cfg := config.Default()
	cfg.Exposure.Density = 0.75
	if err := store.Save(ctx, fp, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load(ctx, fp)
	if err != nil || !ok {
		t.Fatalf("expected saved entry to be found, got ok=%v err=%v", ok, err)
	}
	if got.Exposure.Density != 0.75 {
		t.Fatalf("expected density 0.75, got %v", got.Exposure.Density)
	}
}

func TestNullIccProviderAlwaysResolvesNil(t *testing.T) {
	var p NullIccProvider
	profile, err := p.Profile(context.Background(), "ProPhoto")
	if err != nil || profile != nil {
		t.Fatalf("expected nil profile and nil error, got %v %v", profile, err)
	}
}
