package bcc

import (
	"fmt"

	"github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc/internal/layout"
)

// stringPool is the materialized str_pool section: the raw section
// bytes plus one Go string per entry, sliced out of the blob.
//
// Construction and validation are separate passes. newStringPool only
// needs each entry to lie inside the section so the strings can be
// materialized; checkTerminators is the full linear scan verifying the
// NUL after every entry, run once before any downstream table resolves
// an index.
type stringPool struct {
	raw     []byte
	entries []layout.StrEntry
	strs    []string
}

// newStringPool interprets sec as a string pool section. Entry offsets
// are relative to the section start; each entry must fit inside the
// section including its terminator byte.
func newStringPool(sec []byte) (*stringPool, error) {
	count, err := sectionRecordCount(layout.SecStrPool, sec, layout.StrEntrySize)
	if err != nil {
		return nil, err
	}

	pool := &stringPool{
		raw:     sec,
		entries: make([]layout.StrEntry, count),
		strs:    make([]string, count),
	}

	for i := 0; i < count; i++ {
		e := layout.StrEntryAt(sec, i)

		// The terminator byte at offset+length must itself be in
		// bounds; its value is checked later.
		end := uint64(e.Offset) + uint64(e.Length)
		if end >= uint64(len(sec)) {
			return nil, fmt.Errorf("str_pool entry %d spans [%d, %d] beyond section size %d: %w",
				i, e.Offset, end, len(sec), ErrFormat)
		}

		pool.entries[i] = e
		pool.strs[i] = string(sec[e.Offset : e.Offset+e.Length])
	}

	return pool, nil
}

// checkTerminators verifies every entry is followed by a NUL byte.
func (p *stringPool) checkTerminators() error {
	for i, e := range p.entries {
		if p.raw[e.Offset+e.Length] != 0 {
			return fmt.Errorf("str_pool entry %d is not NUL-terminated: %w", i, ErrIntegrity)
		}
	}
	return nil
}

// lookup resolves a string pool index recorded in another section.
func (p *stringPool) lookup(section layout.SectionID, index uint32) (string, error) {
	if int(index) >= len(p.strs) {
		return "", fmt.Errorf("%s references str_pool index %d, pool has %d entries: %w",
			section, index, len(p.strs), ErrFormat)
	}
	return p.strs[index], nil
}

func (p *stringPool) count() int {
	return len(p.strs)
}

// sectionRecordCount reads the count prefix of a section and verifies
// the declared records fit inside it. Section-level bounds were
// already checked against the file; this guards the interior layout.
func sectionRecordCount(id layout.SectionID, sec []byte, recordSize int) (int, error) {
	count := layout.Count(sec)
	need := uint64(layout.CountSize) + uint64(count)*uint64(recordSize)
	if need > uint64(len(sec)) {
		return 0, fmt.Errorf("%s declares %d records (%d bytes) but section is %d bytes: %w",
			id, count, need, len(sec), ErrFormat)
	}
	return int(count), nil
}
