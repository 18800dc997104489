//go:build linux

package bcc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ExecLoader maps the context block from the cache file directly into
// executable memory at its recorded address.
//
// The mapping is MAP_PRIVATE | MAP_FIXED_NOREPLACE: if the address
// range is already occupied the kernel refuses and the open fails.
// The reader never falls back to an alternate address, because the
// cached code is position-dependent and relocation is not implemented.
//
// The source must be file-backed (expose a descriptor via Fd), which
// [OpenCacheFile] arranges. The mapping survives the file being
// closed.
type ExecLoader struct{}

type fdSource interface {
	Fd() uintptr
}

// Load maps size bytes of the file at off to exactly addr with
// PROT_READ | PROT_EXEC.
func (ExecLoader) Load(addr uintptr, size int, src ByteSource, off int64) ([]byte, error) {
	f, ok := src.(fdSource)
	if !ok {
		return nil, fmt.Errorf("bcc: exec loader requires a file-backed source, got %T", src)
	}

	p, err := unix.MmapPtr(int(f.Fd()), off, unsafe.Pointer(addr), uintptr(size),
		unix.PROT_READ|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_FIXED_NOREPLACE)
	if err != nil {
		return nil, fmt.Errorf("bcc: mapping context at %#x: %w", addr, err)
	}

	return unsafe.Slice((*byte)(p), size), nil
}

// Release unmaps a block returned by Load.
func (ExecLoader) Release(block []byte) error {
	if len(block) == 0 {
		return nil
	}
	return unix.MunmapPtr(unsafe.Pointer(unsafe.SliceData(block)), uintptr(len(block)))
}

var _ ContextLoader = ExecLoader{}
