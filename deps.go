package bcc

import (
	"crypto/sha1"
	"fmt"
	"io"
	"slices"
	"strings"
)

// SortDependencies orders deps by name ascending, the iteration order
// the dependency verifier requires. The cache writer records
// dependencies in this order, so a reader presenting the same set in
// the same order compares lock-step without re-sorting.
func SortDependencies(deps []Dependency) {
	slices.SortFunc(deps, func(a, b Dependency) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// NewSourceDependency fingerprints a resource's current content for
// comparison against a cache. The entire reader is consumed.
func NewSourceDependency(name string, typ uint32, content io.Reader) (Dependency, error) {
	h := sha1.New()
	if _, err := io.Copy(h, content); err != nil {
		return Dependency{}, fmt.Errorf("bcc: fingerprinting %s: %w", name, err)
	}

	dep := Dependency{Name: name, Type: typ}
	h.Sum(dep.SHA1[:0])
	return dep, nil
}
