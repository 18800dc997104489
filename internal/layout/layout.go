// Package layout defines the on-disk layout of oBCC cache files.
//
// Every multi-byte integer in a cache file is stored in the producing
// machine's native byte order; the header records that order (plus the
// producer's integer widths) so a reader can reject files built for a
// different machine before interpreting anything else. All decoding is
// field-by-field through encoding/binary — a cache file is never
// overlaid onto a Go struct, so the wire layout does not depend on Go's
// struct alignment rules.
package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

// Format identification.
const (
	// Magic is the 4-byte cache file signature.
	Magic = "oBCC"

	// Version is the 4-byte format version. There is no cross-version
	// compatibility: a reader accepts exactly the version it was built
	// for.
	Version = "001\x00"
)

// Endianness tags stored in the header.
const (
	EndianLittle byte = 'e'
	EndianBig    byte = 'E'
)

// WordSize is the alignment unit for section offsets and the unit of
// the context parity checksum.
const WordSize = 4

// HeaderSize is the fixed byte length of the cache header.
//
// Header layout (byte offsets):
//
//	0   magic[4]
//	4   version[4]
//	8   endianness, 3 reserved bytes
//	12  sizeof_off_t, sizeof_size_t, sizeof_ptr_t (uint32 each)
//	24  context_cached_addr (uint64)
//	32  context_offset (uint64)
//	40  context_parity_checksum (uint32), 4 reserved bytes
//	48  7 sections x (offset uint64, size uint64)
const HeaderSize = 48 + int(NumSections)*16

// SectionID identifies one of the fixed cache sections, in header
// order.
type SectionID int

const (
	SecStrPool SectionID = iota
	SecDependTab
	SecRelocTab
	SecExportVarList
	SecExportFuncList
	SecPragmaList
	SecFuncTable

	NumSections
)

var sectionNames = [NumSections]string{
	"str_pool",
	"depend_tab",
	"reloc_tab",
	"export_var_list",
	"export_func_list",
	"pragma_list",
	"func_table",
}

// String returns the section's name as it appears in diagnostics.
func (id SectionID) String() string {
	if id < 0 || id >= NumSections {
		return fmt.Sprintf("section(%d)", int(id))
	}
	return sectionNames[id]
}

// Section locates one section within the cache file. Offset is
// relative to the start of the file.
type Section struct {
	Offset uint64
	Size   uint64
}

// Header is the decoded cache header.
type Header struct {
	Magic      [4]byte
	Version    [4]byte
	Endianness byte

	SizeofOffT  uint32
	SizeofSizeT uint32
	SizeofPtrT  uint32

	ContextAddr     uint64
	ContextOffset   uint64
	ContextChecksum uint32

	Sections [NumSections]Section
}

// ErrShortHeader is returned by DecodeHeader when the input cannot
// contain a complete header.
var ErrShortHeader = errors.New("layout: buffer shorter than cache header")

// DecodeHeader parses the fixed-size header from the front of b. It
// copies the raw fields only; validity checks (magic, version, machine
// compatibility, section bounds) belong to the reader.
func DecodeHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, ErrShortHeader
	}

	h := &Header{}
	copy(h.Magic[:], b[0:4])
	copy(h.Version[:], b[4:8])
	h.Endianness = b[8]
	h.SizeofOffT = binary.NativeEndian.Uint32(b[12:16])
	h.SizeofSizeT = binary.NativeEndian.Uint32(b[16:20])
	h.SizeofPtrT = binary.NativeEndian.Uint32(b[20:24])
	h.ContextAddr = binary.NativeEndian.Uint64(b[24:32])
	h.ContextOffset = binary.NativeEndian.Uint64(b[32:40])
	h.ContextChecksum = binary.NativeEndian.Uint32(b[40:44])

	for i := range h.Sections {
		base := 48 + i*16
		h.Sections[i].Offset = binary.NativeEndian.Uint64(b[base : base+8])
		h.Sections[i].Size = binary.NativeEndian.Uint64(b[base+8 : base+16])
	}

	return h, nil
}

// Encode serializes the header into a fresh HeaderSize-byte slice.
func (h *Header) Encode() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], h.Magic[:])
	copy(b[4:8], h.Version[:])
	b[8] = h.Endianness
	binary.NativeEndian.PutUint32(b[12:16], h.SizeofOffT)
	binary.NativeEndian.PutUint32(b[16:20], h.SizeofSizeT)
	binary.NativeEndian.PutUint32(b[20:24], h.SizeofPtrT)
	binary.NativeEndian.PutUint64(b[24:32], h.ContextAddr)
	binary.NativeEndian.PutUint64(b[32:40], h.ContextOffset)
	binary.NativeEndian.PutUint32(b[40:44], h.ContextChecksum)

	for i, sec := range h.Sections {
		base := 48 + i*16
		binary.NativeEndian.PutUint64(b[base:base+8], sec.Offset)
		binary.NativeEndian.PutUint64(b[base+8:base+16], sec.Size)
	}

	return b
}

// Host machine fingerprint, as recorded by a writer on this machine
// and demanded by a reader on this machine.
//
// off_t is modeled as int64 regardless of platform (file offsets are
// int64 throughout the Go file APIs); size_t and pointers take the
// platform word width.
const (
	HostSizeofOffT  uint32 = 8
	HostSizeofSizeT uint32 = bits.UintSize / 8
	HostSizeofPtrT  uint32 = bits.UintSize / 8
)

// HostEndianness returns the tag byte matching this machine's native
// byte order.
func HostEndianness() byte {
	var probe [2]byte
	binary.NativeEndian.PutUint16(probe[:], 1)
	if probe[0] == 1 {
		return EndianLittle
	}
	return EndianBig
}

// Record sizes within sections. Every section begins with a uint32
// record count followed by count fixed-size records.
const (
	CountSize = 4

	StrEntrySize    = 8
	DependEntrySize = 28
	ExportEntrySize = 4
	PragmaEntrySize = 8
	FuncEntrySize   = 16
)

// FingerprintSize is the byte length of a dependency content
// fingerprint (SHA-1).
const FingerprintSize = 20

// Count reads the record count from the front of a section buffer.
// The caller must have verified the section is at least CountSize
// bytes.
func Count(sec []byte) uint32 {
	return binary.NativeEndian.Uint32(sec[:CountSize])
}

// StrEntry is one string pool entry. Offset is relative to the start
// of the string pool section; Length excludes the terminating NUL.
type StrEntry struct {
	Offset uint32
	Length uint32
}

// StrEntryAt decodes the i-th string pool entry from a section buffer.
func StrEntryAt(sec []byte, i int) StrEntry {
	base := CountSize + i*StrEntrySize
	return StrEntry{
		Offset: binary.NativeEndian.Uint32(sec[base : base+4]),
		Length: binary.NativeEndian.Uint32(sec[base+4 : base+8]),
	}
}

// DependEntry is one dependency record: the pool index of the resource
// name, a resource type tag, and a SHA-1 content fingerprint.
type DependEntry struct {
	NameIndex uint32
	Type      uint32
	SHA1      [FingerprintSize]byte
}

// DependEntryAt decodes the i-th dependency record.
func DependEntryAt(sec []byte, i int) DependEntry {
	base := CountSize + i*DependEntrySize
	e := DependEntry{
		NameIndex: binary.NativeEndian.Uint32(sec[base : base+4]),
		Type:      binary.NativeEndian.Uint32(sec[base+4 : base+8]),
	}
	copy(e.SHA1[:], sec[base+8:base+8+FingerprintSize])
	return e
}

// ExportEntryAt decodes the i-th export record (a bare name index).
func ExportEntryAt(sec []byte, i int) uint32 {
	base := CountSize + i*ExportEntrySize
	return binary.NativeEndian.Uint32(sec[base : base+4])
}

// PragmaEntry is one pragma record: pool indices for key and value.
type PragmaEntry struct {
	KeyIndex   uint32
	ValueIndex uint32
}

// PragmaEntryAt decodes the i-th pragma record.
func PragmaEntryAt(sec []byte, i int) PragmaEntry {
	base := CountSize + i*PragmaEntrySize
	return PragmaEntry{
		KeyIndex:   binary.NativeEndian.Uint32(sec[base : base+4]),
		ValueIndex: binary.NativeEndian.Uint32(sec[base+4 : base+8]),
	}
}

// FuncEntry is one function table record: the pool index of the
// function name, its code size in bytes, and the absolute address the
// function was cached at.
type FuncEntry struct {
	NameIndex uint32
	Size      uint32
	Addr      uint64
}

// FuncEntryAt decodes the i-th function record.
func FuncEntryAt(sec []byte, i int) FuncEntry {
	base := CountSize + i*FuncEntrySize
	return FuncEntry{
		NameIndex: binary.NativeEndian.Uint32(sec[base : base+4]),
		Size:      binary.NativeEndian.Uint32(sec[base+4 : base+8]),
		Addr:      binary.NativeEndian.Uint64(sec[base+8 : base+16]),
	}
}

// AppendCount appends a record count to a section being built.
func AppendCount(dst []byte, count uint32) []byte {
	return binary.NativeEndian.AppendUint32(dst, count)
}

// AppendStrEntry appends an encoded string pool entry.
func AppendStrEntry(dst []byte, e StrEntry) []byte {
	dst = binary.NativeEndian.AppendUint32(dst, e.Offset)
	return binary.NativeEndian.AppendUint32(dst, e.Length)
}

// AppendDependEntry appends an encoded dependency record.
func AppendDependEntry(dst []byte, e DependEntry) []byte {
	dst = binary.NativeEndian.AppendUint32(dst, e.NameIndex)
	dst = binary.NativeEndian.AppendUint32(dst, e.Type)
	return append(dst, e.SHA1[:]...)
}

// AppendExportEntry appends an encoded export record.
func AppendExportEntry(dst []byte, nameIndex uint32) []byte {
	return binary.NativeEndian.AppendUint32(dst, nameIndex)
}

// AppendPragmaEntry appends an encoded pragma record.
func AppendPragmaEntry(dst []byte, e PragmaEntry) []byte {
	dst = binary.NativeEndian.AppendUint32(dst, e.KeyIndex)
	return binary.NativeEndian.AppendUint32(dst, e.ValueIndex)
}

// AppendFuncEntry appends an encoded function record.
func AppendFuncEntry(dst []byte, e FuncEntry) []byte {
	dst = binary.NativeEndian.AppendUint32(dst, e.NameIndex)
	dst = binary.NativeEndian.AppendUint32(dst, e.Size)
	return binary.NativeEndian.AppendUint64(dst, e.Addr)
}

// ChecksumFold XORs every 32-bit word of block into seed and returns
// the result. A block written with a correctly computed parity word
// folds to zero. len(block) must be a multiple of WordSize.
func ChecksumFold(seed uint32, block []byte) uint32 {
	sum := seed
	for i := 0; i+WordSize <= len(block); i += WordSize {
		sum ^= binary.NativeEndian.Uint32(block[i : i+WordSize])
	}
	return sum
}
