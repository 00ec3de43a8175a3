package bundle

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/nutriscan-ai/platform/pkg/common/models"
)

// Set holds the loaded bundles for all conditions. Reads are lock-free; a
// reload builds a complete replacement map and swaps it atomically, so an
// in-flight request never observes a partially-updated set.
type Set struct {
	reloadMu sync.Mutex
	current  atomic.Value // map[models.Condition]*Bundle
}

// ArtifactPath names the on-disk artifact for a condition inside a model
// directory.
func ArtifactPath(dir string, condition models.Condition) string {
	return filepath.Join(dir, fmt.Sprintf("%s_latest.json", condition))
}

// LoadSet loads one bundle per condition from dir, failing fast on the first
// bundle that cannot be loaded.
func LoadSet(dir string) (*Set, error) {
	bundles, err := loadAll(dir)
	if err != nil {
		return nil, err
	}
	s := &Set{}
	s.current.Store(bundles)
	return s, nil
}

// NewSet wraps pre-built bundles, primarily for tests and embedded use.
func NewSet(bundles map[models.Condition]*Bundle) *Set {
	copied := make(map[models.Condition]*Bundle, len(bundles))
	for cond, b := range bundles {
		copied[cond] = b
	}
	s := &Set{}
	s.current.Store(copied)
	return s
}

func loadAll(dir string) (map[models.Condition]*Bundle, error) {
	bundles := make(map[models.Condition]*Bundle, len(models.Conditions()))
	for _, cond := range models.Conditions() {
		b, err := Load(ArtifactPath(dir, cond), cond)
		if err != nil {
			return nil, err
		}
		bundles[cond] = b
	}
	return bundles, nil
}

// Reload replaces the whole set from dir. Serialized against concurrent
// reloads; on any load failure the previous set stays in place untouched.
func (s *Set) Reload(dir string) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	bundles, err := loadAll(dir)
	if err != nil {
		return err
	}
	s.current.Store(bundles)
	return nil
}

func (s *Set) snapshot() map[models.Condition]*Bundle {
	m, _ := s.current.Load().(map[models.Condition]*Bundle)
	return m
}

// Get returns the bundle for a condition from the current snapshot.
func (s *Set) Get(condition models.Condition) (*Bundle, bool) {
	b, ok := s.snapshot()[condition]
	return b, ok
}

// Loaded reports whether every condition has a bundle. Health reporting
// gates on this.
func (s *Set) Loaded() bool {
	m := s.snapshot()
	for _, cond := range models.Conditions() {
		if _, ok := m[cond]; !ok {
			return false
		}
	}
	return len(m) > 0
}

// Metadata lists per-bundle training metadata in canonical condition order.
func (s *Set) Metadata() []models.BundleMetadata {
	m := s.snapshot()
	out := make([]models.BundleMetadata, 0, len(m))
	for _, cond := range models.Conditions() {
		if b, ok := m[cond]; ok {
			out = append(out, b.Metadata())
		}
	}
	return out
}
