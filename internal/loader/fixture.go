package loader

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/negpy/negpy/internal/config"
	"github.com/negpy/negpy/internal/errs"
	"github.com/negpy/negpy/internal/numerics"
)

// FixtureLoader is an in-memory ImageLoader used by tests and by callers
// that already have decoded buffers in hand (e.g. a UI that demosaiced a
// RAW file itself and only needs NegPy from that point forward).
type FixtureLoader struct {
	ext     string
	buffers map[string]*numerics.Buffer
}

// NewFixtureLoader returns a loader that recognizes paths ending in ext
// (e.g. ".fixture") and serves buffers registered via Register.
func NewFixtureLoader(ext string) *FixtureLoader {
	return &FixtureLoader{ext: ext, buffers: make(map[string]*numerics.Buffer)}
}

// Register associates path with a decoded buffer for later Load calls.
func (f *FixtureLoader) Register(path string, buf *numerics.Buffer) {
	f.buffers[path] = buf
}

func (f *FixtureLoader) Supports(path string) bool {
	return strings.HasSuffix(path, f.ext)
}

func (f *FixtureLoader) Load(ctx context.Context, path string) (*numerics.Buffer, error) {
	if !f.Supports(path) {
		return nil, fmt.Errorf("loader: %w: %s", errs.ErrLoaderUnsupported, path)
	}
	buf, ok := f.buffers[path]
	if !ok {
		return nil, fmt.Errorf("loader: %w: %s", errs.ErrLoaderCorrupt, path)
	}
	return buf, nil
}

// MemoryEditStore is an in-memory EditStore, standing in for the
// out-of-scope SQLite-backed store in tests and simple CLI runs that don't
// need edits to survive a process restart.
type MemoryEditStore struct {
	mu    sync.RWMutex
	edits map[Fingerprint]config.WorkspaceConfig
}

// NewMemoryEditStore returns an empty in-memory edit store.
func NewMemoryEditStore() *MemoryEditStore {
	return &MemoryEditStore{edits: make(map[Fingerprint]config.WorkspaceConfig)}
}

func (s *MemoryEditStore) Load(ctx context.Context, fingerprint Fingerprint) (config.WorkspaceConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.edits[fingerprint]
	return cfg, ok, nil
}

func (s *MemoryEditStore) Save(ctx context.Context, fingerprint Fingerprint, cfg config.WorkspaceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits[fingerprint] = cfg
	return nil
}

// NullIccProvider always resolves to "no embedded profile," valid for any
// tag per IccProvider's contract; used when no real profile catalog is
// configured.
type NullIccProvider struct{}

func (NullIccProvider) Profile(ctx context.Context, colorSpaceTag string) ([]byte, error) {
	return nil, nil
}
