package texpool

// CPUAllocator backs the pool with plain Go slices, used when the GPU
// backend is disabled or unavailable (spec 4.11, item viii: the CPU path
// must produce pixel-for-pixel identical output to the GPU path).
type CPUAllocator struct{}

// NewCPUAllocator returns an Allocator that allocates zeroed float32
// slices sized per Key.
func NewCPUAllocator() *CPUAllocator { return &CPUAllocator{} }

func (CPUAllocator) Alloc(key Key) ([]float32, any, error) {
	switch key.Format {
	case FormatRGBF32:
		return make([]float32, key.Width*key.Height*3), nil, nil
	case FormatRF32:
		return make([]float32, key.Width*key.Height), nil, nil
	case FormatHistogram256:
		return make([]float32, key.Width*256), nil, nil
	default:
		return make([]float32, key.Width*key.Height*3), nil, nil
	}
}

func (CPUAllocator) Free(Key, []float32, any) {
	// Nothing to release explicitly; the Go GC reclaims the slice once
	// unreferenced. Present for symmetry with the GPU allocator and so
	// Pool.evictLocked has one uniform call shape.
}
