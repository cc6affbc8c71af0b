package uniform

import "testing"

func TestRegisterNonOverlapping(t *testing.T) {
	b := NewBlock(0)
	if err := b.Register("normalization", 32); err != nil {
		t.Fatal(err)
	}
	if err := b.Register("transform", 16); err != nil {
		t.Fatal(err)
	}

	offA, _ := b.Offset("normalization")
	offB, _ := b.Offset("transform")
	if offA != 0 {
		t.Errorf("first stage offset = %d, want 0", offA)
	}
	if offB != Alignment {
		t.Errorf("second stage offset = %d, want %d", offB, Alignment)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	b := NewBlock(0)
	b.Register("exposure", 16)
	if err := b.Register("exposure", 16); err == nil {
		t.Error("expected error re-registering the same stage")
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	b := NewBlock(0)
	b.Register("exposure", 24)
	slice, _ := b.Slice("exposure")

	w := NewWriter(slice)
	w.PutFloat32(0.5)
	w.PutFloat32(2.0)
	w.PutInt32(-3)

	r := NewReader(slice)
	if got := r.Float32(); got != 0.5 {
		t.Errorf("field 0 = %v, want 0.5", got)
	}
	if got := r.Float32(); got != 2.0 {
		t.Errorf("field 1 = %v, want 2.0", got)
	}
	if got := r.Int32(); got != -3 {
		t.Errorf("field 2 = %v, want -3", got)
	}
}

func TestUnregisteredStageErrors(t *testing.T) {
	b := NewBlock(0)
	if _, err := b.Slice("ghost"); err == nil {
		t.Error("expected error for unregistered stage slice")
	}
	if _, err := b.Offset("ghost"); err == nil {
		t.Error("expected error for unregistered stage offset")
	}
}
