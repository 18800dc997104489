package bcc

import (
	"crypto/sha1"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortDependencies(t *testing.T) {
	t.Parallel()

	deps := []Dependency{
		{Name: "c.rs"},
		{Name: "a.rs"},
		{Name: "b.rs"},
	}
	SortDependencies(deps)

	assert.Equal(t, "a.rs", deps[0].Name)
	assert.Equal(t, "b.rs", deps[1].Name)
	assert.Equal(t, "c.rs", deps[2].Name)
}

func TestNewSourceDependency(t *testing.T) {
	t.Parallel()

	content := "fn main() { /* nothing */ }"
	dep, err := NewSourceDependency("main.rs", 1, strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "main.rs", dep.Name)
	assert.Equal(t, uint32(1), dep.Type)
	assert.Equal(t, [FingerprintSize]byte(sha1.Sum([]byte(content))), dep.SHA1)
}

func TestDependencyMismatchErrorMessage(t *testing.T) {
	t.Parallel()

	err := &DependencyMismatchError{
		Name:     "foo.rs",
		Field:    MismatchSHA1,
		Expected: "aa",
		Cached:   "bb",
	}
	msg := err.Error()
	assert.Contains(t, msg, "foo.rs")
	assert.Contains(t, msg, "aa")
	assert.Contains(t, msg, "bb")
	assert.ErrorIs(t, err, ErrIntegrity)
}
