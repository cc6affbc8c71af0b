// Package uniform manages the engine's single persistent uniform buffer:
// one CPU-side mirror, sliced into 256-byte-aligned per-stage regions that
// the engine writes before each dispatch (spec 2, "Uniform block").
// Grounded on gpucore.PipelineConfig's single-pipeline-config-per-session
// style, generalized from one stage's parameters to ten independently
// addressable slices.
package uniform

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Alignment is the required byte alignment for each stage's uniform slice,
// matching common GPU uniform-buffer-offset alignment requirements.
const Alignment = 256

// Block is the engine's single uniform buffer, partitioned into
// non-overlapping per-stage slices (spec 3 invariant iv). The engine builds
// a fresh Block for each render; within a render, each stage's slice is
// rewritten before its dispatch.
type Block struct {
	data    []byte
	offsets map[string]int
	sizes   map[string]int
	cursor  int
}

// NewBlock creates an empty uniform block with room for the given total
// byte capacity. Register grows the backing storage when a slice does not
// fit, so the engine passes 0.
func NewBlock(capacity int) *Block {
	return &Block{
		data:    make([]byte, capacity),
		offsets: make(map[string]int),
		sizes:   make(map[string]int),
	}
}

// Register reserves a 256-byte-aligned slice of at least size bytes for the
// named stage. Registration order determines layout order; calling
// Register twice for the same stage is an error, since stage slices must
// never overlap (invariant iv).
func (b *Block) Register(stage string, size int) error {
	if _, exists := b.offsets[stage]; exists {
		return fmt.Errorf("uniform: stage %q already registered", stage)
	}
	aligned := alignUp(size, Alignment)
	if b.cursor+aligned > len(b.data) {
		grown := make([]byte, b.cursor+aligned)
		copy(grown, b.data)
		b.data = grown
	}
	b.offsets[stage] = b.cursor
	b.sizes[stage] = aligned
	b.cursor += aligned
	return nil
}

func alignUp(size, align int) int {
	if size <= 0 {
		return align
	}
	return ((size + align - 1) / align) * align
}

// Slice returns the writable byte slice reserved for stage. The engine
// writes uniform values into this slice before submitting the stage's
// dispatch.
func (b *Block) Slice(stage string) ([]byte, error) {
	off, ok := b.offsets[stage]
	if !ok {
		return nil, fmt.Errorf("uniform: stage %q not registered", stage)
	}
	return b.data[off : off+b.sizes[stage]], nil
}

// Offset returns the byte offset of stage's slice within the block, for
// binding a GPU dynamic-offset uniform buffer view.
func (b *Block) Offset(stage string) (int, error) {
	off, ok := b.offsets[stage]
	if !ok {
		return 0, fmt.Errorf("uniform: stage %q not registered", stage)
	}
	return off, nil
}

// Bytes returns the full backing buffer, for upload to a GPU buffer
// resource.
func (b *Block) Bytes() []byte { return b.data }

// Writer is a small cursor-based encoder for packing scalars into a
// stage's uniform slice in a fixed field order, avoiding per-field
// allocation.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter wraps a stage's uniform slice for sequential field writes.
func NewWriter(slice []byte) *Writer { return &Writer{buf: slice} }

func (w *Writer) PutFloat32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.pos:], math.Float32bits(v))
	w.pos += 4
}

func (w *Writer) PutFloat64As32(v float64) { w.PutFloat32(float32(v)) }

func (w *Writer) PutUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }

// Reader is the matching sequential decoder, used by the CPU stage
// implementations to read back what the engine wrote.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(slice []byte) *Reader { return &Reader{buf: slice} }

func (r *Reader) Float32() float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.buf[r.pos:]))
	r.pos += 4
	return v
}

func (r *Reader) Uint32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) Int32() int32 { return int32(r.Uint32()) }
