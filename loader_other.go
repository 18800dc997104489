//go:build !linux

package bcc

import "fmt"

// ExecLoader maps the context block into executable memory at its
// recorded address. Fixed-address executable mappings are only
// implemented on Linux; on other platforms Load always fails and the
// open is rejected with [ErrLoad]. Use [MemLoader] instead.
type ExecLoader struct{}

// Load fails: fixed-address mapping is unsupported on this platform.
func (ExecLoader) Load(addr uintptr, size int, src ByteSource, off int64) ([]byte, error) {
	return nil, fmt.Errorf("bcc: fixed-address context mapping is not supported on this platform")
}

// Release is a no-op.
func (ExecLoader) Release([]byte) error {
	return nil
}

var _ ContextLoader = ExecLoader{}
