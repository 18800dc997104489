package bcc

import (
	"io"

	"github.com/HelloprojectbyAkshat/android-frameworks-compile-libbcc/internal/layout"
)

// ByteSource provides bounded random access to a cache file.
//
// The reader never touches a descriptor directly; it works entirely
// through ReadAt and the reported Size. *os.File satisfies ReadAt but
// not Size, so file-backed sources are wrapped by [OpenCacheFile].
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// ContextLoader places the cache's executable context block in memory.
//
// Load reads size bytes from src starting at off and materializes them
// at (or intended for) virtual address addr, returning the block. The
// loader decides whether addr is binding: [ExecLoader] maps the file
// at exactly addr and fails if the address is unavailable, while
// [MemLoader] copies into an ordinary allocation and records addr only
// for bookkeeping.
//
// Release undoes a successful Load. It is called when a later
// validation step rejects the cache, and by [Artifact.Close].
//
// Implementations mutate shared process address space and must be safe
// for concurrent use if caches are opened from multiple goroutines.
type ContextLoader interface {
	Load(addr uintptr, size int, src ByteSource, off int64) ([]byte, error)
	Release(block []byte) error
}

// FingerprintSize is the byte length of a dependency content
// fingerprint (SHA-1).
const FingerprintSize = layout.FingerprintSize

// Dependency is one resource the cached compilation depended on: a
// source file or included resource, identified by name, with a type
// tag and the SHA-1 of its content at compile time.
type Dependency struct {
	Name string
	Type uint32
	SHA1 [FingerprintSize]byte
}

// Pragma is one key/value pragma recorded by the compiler.
type Pragma struct {
	Key   string
	Value string
}

// FuncInfo locates one compiled function inside the loaded context.
type FuncInfo struct {
	// Addr is the absolute address the function was cached at.
	Addr uint64

	// Size is the function's code size in bytes.
	Size uint32
}

// FuncRecord is a named function entry, used when building a cache
// with [Writer] and when listing the function table via [InspectCache].
type FuncRecord struct {
	Name string
	Addr uint64
	Size uint32
}
