package bcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc/internal/layout"
)

func TestInspectCache(t *testing.T) {
	t.Parallel()

	p := testPayload()
	p.Pragmas = []Pragma{{Key: "version", Value: "1"}}
	p.ExportVars = []string{"gState"}
	image := buildCache(t, p)

	res, err := InspectCache(&memSource{data: image}, testOptions()...)
	require.NoError(t, err)

	assert.Equal(t, int64(len(image)), res.FileSize())
	assert.Equal(t, layout.Version, res.Version())
	assert.Equal(t, layout.HostEndianness(), res.Endianness())
	assert.Equal(t, uint64(testContextAddr), res.ContextAddr())

	sections := res.Sections()
	require.Len(t, sections, int(layout.NumSections))
	assert.Equal(t, "str_pool", sections[0].Name)
	assert.Equal(t, "func_table", sections[6].Name)

	deps := res.Dependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, "foo.rs", deps[0].Name)
	assert.Equal(t, p.Dependencies[0].SHA1, deps[0].SHA1)

	assert.Equal(t, []string{"gState"}, res.ExportVars())
	assert.Equal(t, p.Pragmas, res.Pragmas())

	funcs := res.Functions()
	require.Len(t, funcs, 1)
	assert.Equal(t, FuncRecord{Name: "main", Addr: 0x1000, Size: 64}, funcs[0])
}

// Inspection skips dependency verification and the context checksum
// but still rejects structural damage.
func TestInspectCacheValidation(t *testing.T) {
	t.Parallel()

	t.Run("ignores dependencies and checksum", func(t *testing.T) {
		t.Parallel()
		p := testPayload()
		image := buildCache(t, p)

		hdr := mustHeader(t, image)
		image[hdr.ContextOffset] ^= 0xff // would fail OpenCache

		_, err := InspectCache(&memSource{data: image}, testOptions()...)
		assert.NoError(t, err)
	})

	t.Run("rejects bad magic", func(t *testing.T) {
		t.Parallel()
		p := testPayload()
		image := buildCache(t, p)
		image[0] = 'Z'

		_, err := InspectCache(&memSource{data: image}, testOptions()...)
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("rejects unterminated pool string", func(t *testing.T) {
		t.Parallel()
		p := testPayload()
		image := buildCache(t, p)

		hdr := mustHeader(t, image)
		sec := hdr.Sections[layout.SecStrPool]
		entry := layout.StrEntryAt(image[sec.Offset:sec.Offset+sec.Size], 0)
		image[sec.Offset+uint64(entry.Offset)+uint64(entry.Length)] = '!'

		_, err := InspectCache(&memSource{data: image}, testOptions()...)
		assert.ErrorIs(t, err, ErrIntegrity)
	})
}
