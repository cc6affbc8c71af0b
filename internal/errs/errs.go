// Package errs defines the sentinel error kinds shared across the engine,
// grounded on the teacher's sentinel-error style (backend/gogpu/errors.go,
// internal/gpu/memory.go's ErrMemoryBudgetExceeded family): one exported
// sentinel per kind, wrapped with fmt.Errorf("%w: detail") at the call site
// so callers can errors.Is-match the kind while still getting a
// human-readable message (spec 7).
package errs

import "errors"

var (
	// ErrLoaderUnsupported indicates the input file format is not
	// recognized by any registered ImageLoader.
	ErrLoaderUnsupported = errors.New("negpy: loader unsupported format")

	// ErrLoaderCorrupt indicates the input file was recognized but could
	// not be decoded.
	ErrLoaderCorrupt = errors.New("negpy: loader corrupt file")

	// ErrCalibrationDegenerate indicates floor >= ceil for some channel
	// during auto-calibration. The engine substitutes a bound centered on
	// the observed density for that channel and logs this as a warning,
	// not a fatal error.
	ErrCalibrationDegenerate = errors.New("negpy: calibration degenerate (floor >= ceil)")

	// ErrGpuDeviceLost indicates the GPU device was lost mid-render.
	ErrGpuDeviceLost = errors.New("negpy: gpu device lost")

	// ErrGpuOutOfMemory indicates a GPU allocation failed due to budget or
	// hardware limits.
	ErrGpuOutOfMemory = errors.New("negpy: gpu out of memory")

	// ErrKernelCompileError indicates a compute shader failed to compile or
	// link on the active backend.
	ErrKernelCompileError = errors.New("negpy: kernel compile error")

	// ErrTileDispatchFailed indicates a tiled-export dispatch failed for one
	// tile.
	ErrTileDispatchFailed = errors.New("negpy: tile dispatch failed")

	// ErrReadbackFailed indicates the asynchronous GPU->CPU readback did not
	// complete successfully.
	ErrReadbackFailed = errors.New("negpy: readback failed")

	// ErrPersistenceFailed indicates the edit store or preset I/O failed.
	// Never fatal to a render; logged and surfaced as a non-fatal event.
	ErrPersistenceFailed = errors.New("negpy: persistence failed")

	// ErrConfigInvalid indicates an out-of-range WorkspaceConfig parameter.
	ErrConfigInvalid = errors.New("negpy: config invalid")

	// ErrPathNotFound indicates the requested input path does not exist.
	ErrPathNotFound = errors.New("negpy: path not found")
)
