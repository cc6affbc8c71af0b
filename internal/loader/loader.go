// Package loader defines the collaborator interfaces NegPy depends on for
// reading source images, persisting per-file edit state, and tagging
// exports with an ICC profile. Concrete RAW demosaicing, a SQLite-backed
// edit store, and real ICC profile embedding are out of scope (spec
// Non-goals); what lives here are the interfaces plus a fixture
// implementation of each, grounded on the teacher's narrow-interface
// collaborator style (surface/registry.go's Provider interface, pool.go's
// Allocator interface).
package loader

import (
	"context"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/numerics"
)

// ImageLoader decodes a source file into a linear float-RGB buffer. One
// implementation is registered per supported input format.
type ImageLoader interface {
	// Supports reports whether this loader recognizes path's format,
	// typically by extension or magic bytes.
	Supports(path string) bool

	// Load decodes path into a linear-light buffer. Returns
	// errs.ErrLoaderUnsupported if Supports would have returned false, or
	// errs.ErrLoaderCorrupt if the file matches the format but fails to
	// decode.
	Load(ctx context.Context, path string) (*numerics.Buffer, error)
}

// EditStore persists and retrieves a WorkspaceConfig keyed by a file
// fingerprint (spec 3, FileFingerprint), so edits survive across sessions.
type EditStore interface {
	// Load returns the stored config for fingerprint, or ok=false if none
	// exists yet (the caller falls back to config.Default()).
	Load(ctx context.Context, fingerprint Fingerprint) (cfg config.WorkspaceConfig, ok bool, err error)

	// Save persists cfg under fingerprint, replacing any prior value.
	Save(ctx context.Context, fingerprint Fingerprint, cfg config.WorkspaceConfig) error
}

// IccProvider resolves a color-space tag (spec 3 Export.ColorSpaceTag,
// e.g. "sRGB", "Adobe RGB", "ProPhoto") to an embeddable ICC profile blob.
// A nil/empty return with a nil error means "tag an output colorimetric
// type without an embedded profile," which exporters must treat as valid.
type IccProvider interface {
	Profile(ctx context.Context, colorSpaceTag string) ([]byte, error)
}
