package bcc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc/internal/layout"
)

func TestWriterLayoutInvariants(t *testing.T) {
	t.Parallel()

	p := testPayload()
	p.Pragmas = []Pragma{{Key: "version", Value: "1"}}
	p.ExportFuncs = []string{"root"}
	image := buildCache(t, p)

	hdr := mustHeader(t, image)

	for id := layout.SectionID(0); id < layout.NumSections; id++ {
		sec := hdr.Sections[id]
		assert.Zero(t, sec.Offset%layout.WordSize, "%s offset not word aligned", id)
		assert.GreaterOrEqual(t, sec.Size, uint64(layout.WordSize), "%s section too small", id)
		assert.LessOrEqual(t, sec.Offset+sec.Size, uint64(len(image)), "%s section overflows image", id)
	}

	assert.Zero(t, hdr.ContextOffset%testPageSize, "context offset not page aligned")
	assert.Equal(t, uint64(len(image)), hdr.ContextOffset+testContextSize)

	// The parity word must fold the context block to zero.
	residue := layout.ChecksumFold(hdr.ContextChecksum, image[hdr.ContextOffset:])
	assert.Zero(t, residue)

	// Machine fingerprint matches the writing host.
	assert.Equal(t, layout.HostEndianness(), hdr.Endianness)
	assert.Equal(t, layout.HostSizeofOffT, hdr.SizeofOffT)
	assert.Equal(t, layout.HostSizeofSizeT, hdr.SizeofSizeT)
	assert.Equal(t, layout.HostSizeofPtrT, hdr.SizeofPtrT)
}

func TestWriterSortsDependencies(t *testing.T) {
	t.Parallel()

	p := testPayload()
	p.Dependencies = []Dependency{
		{Name: "zeta.rs", Type: 1, SHA1: fingerprint("z")},
		{Name: "alpha.rs", Type: 1, SHA1: fingerprint("a")},
		{Name: "mid.rs", Type: 2, SHA1: fingerprint("m")},
	}
	image := buildCache(t, p)

	res, err := InspectCache(&memSource{data: image}, testOptions()...)
	require.NoError(t, err)

	deps := res.Dependencies()
	require.Len(t, deps, 3)
	assert.Equal(t, "alpha.rs", deps[0].Name)
	assert.Equal(t, "mid.rs", deps[1].Name)
	assert.Equal(t, "zeta.rs", deps[2].Name)

	// The recorded order is exactly what a sorted caller presents.
	expected := append([]Dependency{}, p.Dependencies...)
	SortDependencies(expected)
	art, err := openImage(image, expected)
	require.NoError(t, err)
	defer art.Close()
}

func TestWriterRejectsBadPayload(t *testing.T) {
	t.Parallel()

	t.Run("context size mismatch", func(t *testing.T) {
		t.Parallel()
		p := testPayload()
		p.Context = make([]byte, testContextSize+4)

		var buf bytes.Buffer
		err := NewWriter(testOptions()...).WriteCache(&buf, p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "context")
	})

	t.Run("unaligned context address", func(t *testing.T) {
		t.Parallel()
		p := testPayload()
		p.ContextAddr = testContextAddr + 12

		var buf bytes.Buffer
		err := NewWriter(testOptions()...).WriteCache(&buf, p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "aligned")
	})
}

func TestWriterDeduplicatesStrings(t *testing.T) {
	t.Parallel()

	p := testPayload()
	// "root" appears as an export and a function name; it must be
	// interned once.
	p.ExportFuncs = []string{"root"}
	p.Funcs = []FuncRecord{{Name: "root", Addr: 0x1000, Size: 8}}
	image := buildCache(t, p)

	res, err := InspectCache(&memSource{data: image}, testOptions()...)
	require.NoError(t, err)

	// foo.rs + root.
	assert.Equal(t, 2, res.StringCount())
}

func TestWriterEmptyPayloadSections(t *testing.T) {
	t.Parallel()

	p := &Payload{
		ContextAddr: testContextAddr,
		Context:     make([]byte, testContextSize),
	}
	image := buildCache(t, p)

	art, err := openImage(image, nil)
	require.NoError(t, err)
	defer art.Close()

	assert.Empty(t, art.Functions())
	assert.Empty(t, art.Pragmas())
	assert.Zero(t, art.StringCount())
}
