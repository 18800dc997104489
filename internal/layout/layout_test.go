package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	h := &Header{
		Endianness:      HostEndianness(),
		SizeofOffT:      HostSizeofOffT,
		SizeofSizeT:     HostSizeofSizeT,
		SizeofPtrT:      HostSizeofPtrT,
		ContextAddr:     0x7e000000,
		ContextOffset:   0x2000,
		ContextChecksum: 0xdeadbeef,
	}
	copy(h.Magic[:], Magic)
	copy(h.Version[:], Version)
	for i := range h.Sections {
		h.Sections[i] = Section{Offset: uint64(0x100 * (i + 1)), Size: uint64(16 + i)}
	}

	decoded, err := DecodeHeader(h.Encode())
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestDecodeHeaderShort(t *testing.T) {
	t.Parallel()

	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrShortHeader)
}

func TestHostFingerprint(t *testing.T) {
	t.Parallel()

	tag := HostEndianness()
	assert.Contains(t, []byte{EndianLittle, EndianBig}, tag)

	// Pointers and size_t are the platform word; off_t is always
	// modeled as 64-bit.
	assert.Equal(t, uint32(8), HostSizeofOffT)
	assert.Equal(t, HostSizeofSizeT, HostSizeofPtrT)
}

func TestChecksumFold(t *testing.T) {
	t.Parallel()

	block := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	// XOR is self-inverse: seeding with the fold yields zero.
	parity := ChecksumFold(0, block)
	assert.Zero(t, ChecksumFold(parity, block))

	// Any single-bit flip leaves a nonzero residue.
	block[3] ^= 0x10
	assert.NotZero(t, ChecksumFold(parity, block))
}

func TestSectionNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "str_pool", SecStrPool.String())
	assert.Equal(t, "func_table", SecFuncTable.String())
	assert.Equal(t, "section(99)", SectionID(99).String())
}
