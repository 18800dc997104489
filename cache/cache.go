// Package cache memoizes opened cache artifacts.
//
// Opening an artifact reads and validates the whole file and may map
// its context into process address space, so a process that resolves
// the same script repeatedly should open it once. Manager keys
// artifacts by (path, dependency set) and uses singleflight so that
// concurrent opens of the same artifact perform the work once.
package cache

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	bcc "github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc"
)

// Manager deduplicates and memoizes artifact opens.
//
// Artifacts returned by Open are owned by the Manager and shared
// between callers; do not Close them individually. Release a single
// entry with Forget, or everything with Close.
type Manager struct {
	opts  []bcc.Option
	group singleflight.Group

	mu   sync.Mutex
	open map[string]*bcc.Artifact
}

// NewManager creates a Manager. The options are applied to every open.
func NewManager(opts ...bcc.Option) *Manager {
	return &Manager{
		opts: opts,
		open: make(map[string]*bcc.Artifact),
	}
}

// Open returns the artifact for path and the expected dependency set,
// opening and validating it on first use. Concurrent calls with the
// same key share a single open; a failed open is not cached, so a
// later call retries (e.g. after the cache file is rewritten).
func (m *Manager) Open(path string, expected []bcc.Dependency) (*bcc.Artifact, error) {
	key := cacheKey(path, expected)

	m.mu.Lock()
	if art, ok := m.open[key]; ok {
		m.mu.Unlock()
		return art, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		art, err := bcc.OpenCacheFile(path, expected, m.opts...)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.open[key] = art
		m.mu.Unlock()
		return art, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bcc.Artifact), nil
}

// Forget releases the memoized artifact for path and the given
// dependency set, if present.
func (m *Manager) Forget(path string, expected []bcc.Dependency) error {
	key := cacheKey(path, expected)

	m.mu.Lock()
	art, ok := m.open[key]
	delete(m.open, key)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return art.Close()
}

// Close releases every memoized artifact. The Manager remains usable.
func (m *Manager) Close() error {
	m.mu.Lock()
	artifacts := make([]*bcc.Artifact, 0, len(m.open))
	for _, art := range m.open {
		artifacts = append(artifacts, art)
	}
	clear(m.open)
	m.mu.Unlock()

	var errs []error
	for _, art := range artifacts {
		if err := art.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// cacheKey combines the path with a canonical digest of the expected
// dependency set, so the same file opened against different
// expectations memoizes separately.
func cacheKey(path string, deps []bcc.Dependency) string {
	buf := make([]byte, 0, len(deps)*(bcc.FingerprintSize+16))
	for _, dep := range deps {
		buf = append(buf, dep.Name...)
		buf = append(buf, 0)
		buf = binary.BigEndian.AppendUint32(buf, dep.Type)
		buf = append(buf, dep.SHA1[:]...)
	}
	return path + "@" + digest.FromBytes(buf).String()
}
