package negpy

import (
	"log/slog"

	"github.com/negpy/negpy/internal/loader"
)

// SessionOption configures a Session during creation.
//
// Example:
//
//	// Default CPU-only session
//	s, err := negpy.NewSession()
//
//	// GPU-accelerated session with a custom edit store
//	s, err := negpy.NewSession(negpy.WithGPUProvider(provider), negpy.WithEditStore(store))
type SessionOption func(*sessionOptions)

// sessionOptions holds optional configuration for Session creation.
type sessionOptions struct {
	gpuProvider GPUDeviceProvider
	editStore   loader.EditStore
	iccProvider loader.IccProvider
	logger      *slog.Logger
	tileCap     int
	haloPx      int
}

// defaultSessionOptions returns the default session options: no GPU
// provider (CPU fallback only), an in-memory edit store, no ICC profiles,
// the package-default logger, and the engine's default tile/halo sizes.
func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		editStore:   loader.NewMemoryEditStore(),
		iccProvider: loader.NullIccProvider{},
		logger:      Logger(),
	}
}

// WithGPUProvider sets the GPU device provider a Session uses to acquire
// its compute device. Omit this option (or pass nil) to force the CPU
// fallback path.
func WithGPUProvider(p GPUDeviceProvider) SessionOption {
	return func(o *sessionOptions) { o.gpuProvider = p }
}

// WithEditStore overrides the Session's EditStore. The default is an
// in-memory store that does not survive process restarts.
func WithEditStore(s loader.EditStore) SessionOption {
	return func(o *sessionOptions) { o.editStore = s }
}

// WithIccProvider overrides the Session's IccProvider. The default never
// embeds a profile.
func WithIccProvider(p loader.IccProvider) SessionOption {
	return func(o *sessionOptions) { o.iccProvider = p }
}

// WithLogger sets the Session's logger, overriding the package default
// from [Logger] at construction time.
func WithLogger(l *slog.Logger) SessionOption {
	return func(o *sessionOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTileBudget overrides the tiled-export tile cap and halo width
// (pixels). Zero values keep the engine's defaults.
func WithTileBudget(tileCap, haloPx int) SessionOption {
	return func(o *sessionOptions) {
		o.tileCap = tileCap
		o.haloPx = haloPx
	}
}
