package bcc

import (
	"fmt"
)

// MemLoader copies the context block into an ordinary heap allocation.
//
// The target address is recorded by the artifact but not binding: the
// block is not executable and not placed at addr. MemLoader is the
// default loader; it serves inspection, verification, and tests, and
// never mutates process address space.
type MemLoader struct{}

// Load reads size bytes from src at off into a fresh buffer.
func (MemLoader) Load(addr uintptr, size int, src ByteSource, off int64) ([]byte, error) {
	_ = addr // informational only; the copy lives wherever the heap puts it

	block := make([]byte, size)
	n, err := src.ReadAt(block, off)
	if n < size {
		return nil, fmt.Errorf("bcc: short context read (%d of %d bytes): %w", n, size, err)
	}
	return block, nil
}

// Release is a no-op; the buffer is garbage collected.
func (MemLoader) Release([]byte) error {
	return nil
}

var _ ContextLoader = MemLoader{}
