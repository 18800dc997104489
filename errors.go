package bcc

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Sentinel errors. Every rejection of a cache file wraps one of these
// (short reads and seek failures wrap the underlying I/O error
// instead). All are terminal for the open attempt: nothing is retried.
var (
	// ErrFormat is returned for structural violations: bad magic or
	// version, misaligned or out-of-bounds sections, record counts
	// that do not fit their section, or string indices outside the
	// pool.
	ErrFormat = errors.New("bcc: malformed cache file")

	// ErrCompatibility is returned when the cache was built for a
	// different machine: endianness tag or integer widths disagree
	// with the running process.
	ErrCompatibility = errors.New("bcc: cache built for a different machine")

	// ErrIntegrity is returned when the cache is structurally sound
	// but its contents fail verification: an unterminated pool
	// string, a dependency mismatch, or a context checksum failure.
	ErrIntegrity = errors.New("bcc: cache failed integrity verification")

	// ErrLoad is returned when the context block cannot be placed at
	// its recorded address. The reader does not relocate; the cache
	// is unusable on this run.
	ErrLoad = errors.New("bcc: unable to load cached context")
)

// Fields of a dependency record that can disagree with the caller's
// expectation.
const (
	MismatchCount = "count"
	MismatchName  = "name"
	MismatchSHA1  = "sha1"
	MismatchType  = "type"
)

// DependencyMismatchError reports which dependency invalidated the
// cache and how. It retains the expected and cached values so callers
// can surface a useful diagnostic, and unwraps to [ErrIntegrity].
type DependencyMismatchError struct {
	// Name is the dependency's resource name. Empty for a count
	// mismatch, which concerns the table as a whole.
	Name string

	// Field is one of the Mismatch* constants.
	Field string

	// Expected and Cached are the disagreeing values, formatted for
	// display (hex for fingerprints, decimal for counts and types).
	Expected string
	Cached   string
}

// Error implements the error interface.
func (e *DependencyMismatchError) Error() string {
	if e.Field == MismatchCount {
		return fmt.Sprintf("bcc: dependency count mismatch: expected %s, cached %s",
			e.Expected, e.Cached)
	}
	return fmt.Sprintf("bcc: dependency %q %s mismatch: expected %s, cached %s",
		e.Name, e.Field, e.Expected, e.Cached)
}

// Unwrap makes the error match ErrIntegrity via errors.Is.
func (e *DependencyMismatchError) Unwrap() error {
	return ErrIntegrity
}

// hexFingerprint formats a fingerprint for diagnostics.
func hexFingerprint(sum []byte) string {
	return hex.EncodeToString(sum)
}
