package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	bcc "github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testPageSize    = 4096
	testContextSize = 16
)

func testOptions() []bcc.Option {
	return []bcc.Option{
		bcc.WithPageSize(testPageSize),
		bcc.WithContextSize(testContextSize),
	}
}

// writeTestCache writes a minimal valid cache file and returns its
// path together with the dependency set it was built from.
func writeTestCache(tb testing.TB) (string, []bcc.Dependency) {
	tb.Helper()

	dep, err := bcc.NewSourceDependency("foo.rs", 1, bytes.NewReader([]byte("fn main() {}")))
	require.NoError(tb, err)
	deps := []bcc.Dependency{dep}

	payload := &bcc.Payload{
		ContextAddr:  0x7e000000,
		Context:      make([]byte, testContextSize),
		Dependencies: deps,
		Funcs:        []bcc.FuncRecord{{Name: "main", Addr: 0x1000, Size: 64}},
	}

	var buf bytes.Buffer
	require.NoError(tb, bcc.NewWriter(testOptions()...).WriteCache(&buf, payload))

	path := filepath.Join(tb.TempDir(), "script.oBCC")
	require.NoError(tb, os.WriteFile(path, buf.Bytes(), 0o644))
	return path, deps
}

func TestManagerMemoizes(t *testing.T) {
	t.Parallel()

	path, deps := writeTestCache(t)
	m := NewManager(testOptions()...)
	defer m.Close()

	art1, err := m.Open(path, deps)
	require.NoError(t, err)

	art2, err := m.Open(path, deps)
	require.NoError(t, err)

	assert.Same(t, art1, art2, "expected the memoized artifact")
}

func TestManagerConcurrentOpens(t *testing.T) {
	t.Parallel()

	path, deps := writeTestCache(t)
	m := NewManager(testOptions()...)
	defer m.Close()

	const workers = 16
	artifacts := make([]*bcc.Artifact, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			art, err := m.Open(path, deps)
			assert.NoError(t, err)
			artifacts[i] = art
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, artifacts[0], artifacts[i])
	}
}

func TestManagerFailedOpenNotCached(t *testing.T) {
	t.Parallel()

	path, deps := writeTestCache(t)
	m := NewManager(testOptions()...)
	defer m.Close()

	stale := append([]bcc.Dependency{}, deps...)
	stale[0].SHA1[0] ^= 0xff

	_, err := m.Open(path, stale)
	require.ErrorIs(t, err, bcc.ErrIntegrity)

	// The matching dependency set still opens: the failure was not
	// memoized under a shared key.
	art, err := m.Open(path, deps)
	require.NoError(t, err)
	assert.NotNil(t, art)
}

func TestManagerDistinctDependencySets(t *testing.T) {
	t.Parallel()

	path, deps := writeTestCache(t)
	m := NewManager(testOptions()...)
	defer m.Close()

	art, err := m.Open(path, deps)
	require.NoError(t, err)

	// A different expectation set is a different key; it must reach
	// the verifier rather than hit the memoized artifact.
	retyped := append([]bcc.Dependency{}, deps...)
	retyped[0].Type = 9
	_, err = m.Open(path, retyped)
	require.ErrorIs(t, err, bcc.ErrIntegrity)

	again, err := m.Open(path, deps)
	require.NoError(t, err)
	assert.Same(t, art, again)
}

func TestManagerForget(t *testing.T) {
	t.Parallel()

	path, deps := writeTestCache(t)
	m := NewManager(testOptions()...)
	defer m.Close()

	art1, err := m.Open(path, deps)
	require.NoError(t, err)

	require.NoError(t, m.Forget(path, deps))
	require.NoError(t, m.Forget(path, deps)) // absent: no-op

	art2, err := m.Open(path, deps)
	require.NoError(t, err)
	assert.NotSame(t, art1, art2, "expected a fresh open after Forget")
}

func TestManagerClose(t *testing.T) {
	t.Parallel()

	path, deps := writeTestCache(t)
	m := NewManager(testOptions()...)

	art, err := m.Open(path, deps)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.Nil(t, art.Context(), "Close should release memoized artifacts")

	// The manager stays usable after Close.
	art2, err := m.Open(path, deps)
	require.NoError(t, err)
	assert.NotNil(t, art2.Context())
	require.NoError(t, m.Close())
}
