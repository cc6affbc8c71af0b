// Package texpool implements the engine's keyed texture/buffer pool: a
// GC-driven allocator of intermediate GPU textures (or CPU buffers in
// software mode) with reference counts, grounded directly on the teacher's
// internal/gpu.MemoryManager (LRU eviction over a byte budget) generalized
// with a stage-discriminated key instead of size-only keying, since ten
// different stage kernels each want their own shaped intermediate rather
// than the teacher's single kind of pooled render tile.
package texpool

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/negpy/negpy/internal/errs"
)

// Format names the pixel layout of a pooled resource.
type Format uint8

const (
	// FormatRGBF32 is a tightly packed linear RGB float32 buffer (3
	// components per pixel), used for every stage's primary image plane.
	FormatRGBF32 Format = iota

	// FormatRF32 is a single-channel float32 plane, used for CLAHE's
	// perceptual-luma intermediate and the Lab L-channel blur buffer.
	FormatRF32

	// FormatHistogram256 is a 256-bin uint32 histogram, used by CLAHE's
	// per-tile histogram/CDF passes and the metrics histogram kernel.
	FormatHistogram256
)

// BytesPerPixel returns the storage size of one pixel/element in Format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBF32:
		return 3 * 4
	case FormatRF32:
		return 4
	case FormatHistogram256:
		return 4 // per-bin; caller multiplies by bin count separately
	default:
		return 4
	}
}

// Key identifies a pooled resource by the stage that produced it and its
// shape, mirroring spec 3's TextureKey = (stage-id, width, height, format).
type Key struct {
	Stage  string
	Width  int
	Height int
	Format Format
}

func (k Key) sizeBytes() uint64 {
	switch k.Format {
	case FormatHistogram256:
		return uint64(k.Width) * 256 * 4
	default:
		return uint64(k.Width) * uint64(k.Height) * uint64(k.Format.BytesPerPixel())
	}
}

// Handle is a borrowed reference to a pooled Texture returned by Acquire.
// The engine holds strong handles for the duration of one dispatch chain
// (spec 3, StageOutput); stages never see anything but a Handle.
type Handle struct {
	tex *Texture
}

// CPU returns the backing CPU float32 slice. Valid only when the pool is
// operating in software mode.
func (h Handle) CPU() []float32 { return h.tex.cpuData }

// GPU returns the backing GPU texture handle. Valid only when the pool is
// operating in GPU mode. The concrete type is left as `any` here so this
// package has no hard dependency on a specific HAL; the engine type-asserts
// to the backend's texture type (e.g. *native.Texture).
func (h Handle) GPU() any { return h.tex.gpuData }

// Key returns the pool key this handle was acquired under.
func (h Handle) Key() Key { return h.tex.key }

// Texture is a pooled resource: either a CPU float32 buffer or an opaque
// GPU texture handle, plus the refcount/LRU bookkeeping from spec 3's
// PooledTexture. A Texture is never freed while refcount > 0, and never
// freed while inFlight is true even at refcount 0 (invariant v: no texture
// is freed before its owning command buffer signals completion).
type Texture struct {
	key      Key
	cpuData  []float32
	gpuData  any
	refcount int
	lastUsed time.Time
	inFlight bool
	renderID uint64 // the render that last touched this resource
	element  *list.Element
}

// Allocator creates the backing storage for a Key. Exactly two
// implementations exist: a CPU allocator (plain slices) and a GPU allocator
// (wraps the active hal.Device), selected by the engine's backend switch
// (spec 4.11, grounded on backend/registry.go's factory registry).
type Allocator interface {
	Alloc(key Key) (cpu []float32, gpu any, err error)
	Free(key Key, cpu []float32, gpu any)
}

// Pool is the engine's sole strong owner of pooled resources (spec 9:
// "reference cycles... avoided by making the pool the sole strong owner of
// textures; stages see only handles").
//
// Pool is safe for concurrent use; the engine's single render worker is
// the only expected caller, but Sweep may run from a timer goroutine.
type Pool struct {
	mu sync.Mutex

	alloc Allocator

	budgetBytes uint64
	usedBytes   uint64

	free   map[Key][]*Texture // resources with refcount == 0, available for reuse
	lru    *list.List         // LRU order of free entries, front = most recently freed
	active map[*Texture]struct{}
}

// New creates a Pool backed by alloc with the given byte budget. A zero or
// negative budget disables eviction pressure (used by tests and by the
// CPU-only fallback path, where "VRAM churn" does not apply).
func New(alloc Allocator, budgetBytes uint64) *Pool {
	return &Pool{
		alloc:       alloc,
		budgetBytes: budgetBytes,
		free:        make(map[Key][]*Texture),
		lru:         list.New(),
		active:      make(map[*Texture]struct{}),
	}
}

// Acquire returns a Handle for Key, reusing a free resource of matching
// shape if one exists, otherwise allocating a new one. The returned
// resource's refcount starts at 1.
func (p *Pool) Acquire(key Key, renderID uint64) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bucket := p.free[key]; len(bucket) > 0 {
		tex := bucket[len(bucket)-1]
		p.free[key] = bucket[:len(bucket)-1]
		p.lru.Remove(tex.element)
		tex.element = nil
		tex.refcount = 1
		tex.lastUsed = time.Now()
		tex.renderID = renderID
		p.active[tex] = struct{}{}
		return Handle{tex: tex}, nil
	}

	if err := p.evictToFitLocked(key.sizeBytes()); err != nil {
		return Handle{}, err
	}

	cpu, gpu, err := p.alloc.Alloc(key)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %s", errs.ErrGpuOutOfMemory, err)
	}

	tex := &Texture{key: key, cpuData: cpu, gpuData: gpu, refcount: 1, lastUsed: time.Now(), renderID: renderID}
	p.usedBytes += key.sizeBytes()
	p.active[tex] = struct{}{}
	return Handle{tex: tex}, nil
}

// Retain increments a handle's refcount, used when a stage output feeds two
// downstream consumers (e.g. the Transform output feeding both Retouch and
// the tiled-export halo reconstruction).
func (p *Pool) Retain(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h.tex.refcount++
}

// Release decrements a handle's refcount. At zero, if the resource is not
// marked in-flight, it moves to the free list for reuse; the engine marks a
// resource in-flight before submitting a command buffer that references it
// and clears the flag only after the buffer's completion fence signals
// (invariant v).
func (p *Pool) Release(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked(h.tex)
}

func (p *Pool) releaseLocked(tex *Texture) {
	tex.refcount--
	if tex.refcount > 0 {
		return
	}
	delete(p.active, tex)
	if tex.inFlight {
		return // SignalComplete will move it to free once the fence fires
	}
	p.moveToFreeLocked(tex)
}

// MarkInFlight flags a resource as referenced by a not-yet-completed
// command buffer, deferring its return to the free list even if its
// refcount reaches zero in the meantime.
func (p *Pool) MarkInFlight(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h.tex.inFlight = true
}

// SignalComplete clears the in-flight flag once the owning command buffer's
// fence has signaled, releasing the resource to the free list if its
// refcount already reached zero.
func (p *Pool) SignalComplete(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tex := h.tex
	tex.inFlight = false
	if tex.refcount == 0 {
		p.moveToFreeLocked(tex)
	}
}

func (p *Pool) moveToFreeLocked(tex *Texture) {
	tex.lastUsed = time.Now()
	tex.element = p.lru.PushFront(tex)
	p.free[tex.key] = append(p.free[tex.key], tex)
}

// evictToFitLocked frees least-recently-used free resources until
// requiredBytes of budget headroom is available, or returns an error if the
// budget can never accommodate the request even when empty.
func (p *Pool) evictToFitLocked(requiredBytes uint64) error {
	if p.budgetBytes == 0 {
		return nil // eviction disabled (CPU mode, tests)
	}
	if requiredBytes > p.budgetBytes {
		return fmt.Errorf("%w: resource of %d bytes exceeds pool budget of %d bytes",
			errs.ErrGpuOutOfMemory, requiredBytes, p.budgetBytes)
	}
	for p.usedBytes+requiredBytes > p.budgetBytes {
		back := p.lru.Back()
		if back == nil {
			return fmt.Errorf("%w: cannot evict enough free resources to fit %d bytes", errs.ErrGpuOutOfMemory, requiredBytes)
		}
		tex := back.Value.(*Texture)
		p.evictLocked(tex)
	}
	return nil
}

func (p *Pool) evictLocked(tex *Texture) {
	p.lru.Remove(tex.element)
	bucket := p.free[tex.key]
	for i, t := range bucket {
		if t == tex {
			bucket[i] = bucket[len(bucket)-1]
			p.free[tex.key] = bucket[:len(bucket)-1]
			break
		}
	}
	p.usedBytes -= tex.key.sizeBytes()
	p.alloc.Free(tex.key, tex.cpuData, tex.gpuData)
}

// maxRenderAge is how many renders a free resource may sit unused before
// Sweep frees it; the caller passes the current render id to Sweep, and
// each resource remembers the id of the render that last acquired it.
const maxRenderAge = 2

// Sweep frees free-list resources whose last use is more than maxRenderAge
// renders old (spec 5: "a background sweep frees textures whose last use
// exceeds two renders"). currentRenderID is the id of the render about to
// start or in flight.
func (p *Pool) Sweep(currentRenderID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var next *list.Element
	for e := p.lru.Back(); e != nil; e = next {
		next = e.Prev()
		tex := e.Value.(*Texture)
		if currentRenderID > tex.renderID && currentRenderID-tex.renderID > maxRenderAge {
			p.evictLocked(tex)
		}
	}
}

// Cleanup releases every entry on the free list. Resources still held
// (refcount > 0) or awaiting SignalComplete are not freed. Called
// explicitly when a new file is loaded (spec 5).
func (p *Pool) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, bucket := range p.free {
		for _, tex := range bucket {
			p.alloc.Free(key, tex.cpuData, tex.gpuData)
		}
	}
	p.free = make(map[Key][]*Texture)
	p.lru = list.New()
	p.usedBytes = 0
}

// Stats reports current pool occupancy, for diagnostics and tests.
type Stats struct {
	UsedBytes   uint64
	BudgetBytes uint64
	ActiveCount int
	FreeCount   int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	free := 0
	for _, bucket := range p.free {
		free += len(bucket)
	}
	return Stats{UsedBytes: p.usedBytes, BudgetBytes: p.budgetBytes, ActiveCount: len(p.active), FreeCount: free}
}
